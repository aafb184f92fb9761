package core

// HandleInterrupt is the TWI interrupt entry point. Targets call it once per
// bus event; it reads the latched status, performs exactly one action for it
// and returns. It never blocks.
func (c *Controller) HandleInterrupt() {
	enterInterrupt()

	status := c.periph.Status()
	data := c.periph.ReadData()
	c.stats.interrupts.Add(1)
	RecordBusEvent(status, c.Mode(), data)

	c.dispatch(status, data)

	exitInterrupt()
}

func (c *Controller) dispatch(status Status, data byte) {
	switch status {
	// Initiator
	case StatusStart, StatusRepStart:
		if c.slarw&1 != 0 {
			c.setMode(ModeMasterReceive)
		} else {
			c.setMode(ModeMasterTransmit)
		}
		c.periph.LoadData(c.slarw)
		c.periph.Ack()

	case StatusArbLost:
		// Another initiator won; stay off the bus until it is done with it
		c.periph.Release()
		c.setMode(ModeReady)

	case StatusMTSlaAck, StatusMTSlaNack, StatusMTDataAck, StatusMTDataNack,
		StatusMRSlaAck, StatusMRSlaNack, StatusMRDataAck, StatusMRDataNack:
		// No initiator payload is ever queued, so end the transaction here
		c.periph.Stop()
		c.setMode(ModeReady)

	// Slave receiver
	case StatusSRSlaAck, StatusSRArbLostSlaAck, StatusSRGCallAck, StatusSRArbLostGCallAck:
		// The receive buffer keeps accumulating across addressings until the
		// foreground drains it
		c.setMode(ModeSlaveReceive)
		c.periph.Ack()

	case StatusSRDataAck, StatusSRGCallDataAck:
		c.receive(data)

	case StatusSRDataNack, StatusSRGCallDataNack:
		// We already refused this transfer; keep refusing until the stop
		c.stats.rxOverflows.Add(1)
		c.periph.Nack()

	case StatusSRStop:
		c.endMessage()
		c.periph.Stop()
		c.periph.Release()
		c.setMode(ModeReady)

	// Slave transmitter
	case StatusSTSlaAck, StatusSTArbLostSlaAck:
		c.beginTransmit()
		c.transmitNext()

	case StatusSTDataAck:
		c.transmitNext()

	case StatusSTDataNack, StatusSTLastData:
		c.periph.Ack()
		c.tx.Clear()
		c.setMode(ModeReady)

	// Misc
	case StatusNoInfo:

	case StatusBusError:
		c.stats.busErrors.Add(1)
		c.latchError(status)
		c.periph.Stop()
		c.setMode(ModeReady)

	default:
		// Never leave the interrupt flag set, or the clock stays held low
		c.stats.unhandled.Add(1)
		c.periph.Release()
	}
}

// receive handles one payload byte addressed to us. The acknowledgment given
// here applies to the next byte, so it is withheld as soon as the next byte
// would not fit: the byte that would overflow is the one that gets NACKed.
// The last free slot always belongs to the terminator, so every message that
// was stored in part still ends with one.
func (c *Controller) receive(data byte) {
	if action, ok := Intercept(data); ok {
		c.stats.commands.Add(1)
		c.exec.Apply(action)
		c.reply(c.roomForPayload())
		return
	}

	if !c.roomForPayload() || !c.rx.Push(data) {
		c.stats.rxOverflows.Add(1)
		c.periph.Nack()
		return
	}
	c.msgLen++
	c.stats.rxBytes.Add(1)
	c.reply(c.roomForPayload())
}

// roomForPayload reports whether one more payload byte fits ahead of the
// terminator slot
func (c *Controller) roomForPayload() bool {
	return c.rx.Free() > 1
}

func (c *Controller) reply(ack bool) {
	if ack {
		c.periph.Ack()
	} else {
		c.periph.Nack()
	}
}

// endMessage terminates the message received since the previous stop
func (c *Controller) endMessage() {
	if c.msgLen == 0 {
		return
	}
	// Cannot fail: receive keeps a slot free for it
	c.rx.Push(MessageTerminator)
	c.lastMsgLen.Store(uint32(c.msgLen))
	c.stats.messages.Add(1)
	c.msgLen = 0
}

// beginTransmit prepares the reply when addressed for reading
func (c *Controller) beginTransmit() {
	c.setMode(ModeSlaveTransmit)
	c.tx.ResetReadCursor()

	if c.request != nil {
		if reply := c.request(); len(reply) > 0 && len(reply) <= TWIBufferLength {
			c.stage(reply)
		}
	}

	// Nothing staged: answer with a single zero byte rather than garbage
	if c.tx.Empty() {
		c.tx.Push(0x00)
	}
}

// transmitNext loads the next reply byte. Acknowledgment stays enabled while
// more bytes remain; the last byte is loaded with it disabled.
func (c *Controller) transmitNext() {
	b, ok := c.tx.Peek()
	if !ok {
		c.periph.LoadData(0x00)
		c.periph.Nack()
		return
	}
	c.tx.Pop()
	c.periph.LoadData(b)
	c.stats.txBytes.Add(1)
	c.reply(!c.tx.Empty())
}
