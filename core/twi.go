// TWI (two-wire interface) slave driver
// Lets a host talk to the controller over I2C without tying up the CPU: bytes
// are moved one interrupt at a time and real-time commands are acted on as
// they arrive.
package core

import (
	"errors"
	"sync/atomic"
)

const (
	// TWIBufferLength is the size of the receive window and the largest reply
	// that can be staged
	TWIBufferLength = 32

	// DefaultTWIAddress is the address the controller answers to when none is configured
	DefaultTWIAddress TWIAddress = 4

	// DefaultTWIFrequency is the bus clock used by targets that also drive the bus
	DefaultTWIFrequency = 100000

	// GeneralCallAddress is the broadcast address
	GeneralCallAddress TWIAddress = 0

	// MessageTerminator is appended after each non-empty received message
	MessageTerminator byte = 0x00

	// MaxMessageLength is the most payload one message can carry into an
	// empty receive buffer. The remaining usable slot holds the terminator.
	MaxMessageLength = TWIBufferLength - 2
)

var (
	ErrTooLarge       = errors.New("twi: payload larger than transmit buffer")
	ErrWrongMode      = errors.New("twi: not addressed as slave transmitter")
	ErrInvalidAddress = errors.New("twi: address must be 7-bit")
	ErrBusStuck       = errors.New("twi: stop condition did not complete")
	ErrBusy           = errors.New("twi: transfer in progress")
)

// TWIConfig configures the slave interface
type TWIConfig struct {
	Address     TWIAddress // own address, 0 selects DefaultTWIAddress
	GeneralCall bool       // also answer the general call address
	Frequency   uint32     // bus clock in Hz (targets only)
}

// applyDefaults fills in missing configuration values
func (cfg *TWIConfig) applyDefaults() {
	if cfg.Address == 0 {
		cfg.Address = DefaultTWIAddress
	}
	if cfg.Frequency == 0 {
		cfg.Frequency = DefaultTWIFrequency
	}
}

// RequestHandler returns the reply for a read addressed to this controller.
// It runs inside the TWI interrupt. Returning nil (or more than
// TWIBufferLength bytes) keeps whatever was staged with Transmit, and a single
// zero byte is sent if nothing was.
type RequestHandler func() []byte

// TWIStats are running counters for diagnostics
type TWIStats struct {
	Interrupts  uint32 // handler invocations
	RxBytes     uint32 // payload bytes buffered
	RxOverflows uint32 // bytes refused because the receive buffer was full
	Messages    uint32 // non-empty messages terminated by a stop
	Commands    uint32 // real-time command bytes intercepted
	TxBytes     uint32 // bytes loaded for the remote reader
	BusErrors   uint32 // illegal start/stop conditions
	Unhandled   uint32 // status codes with no defined action
}

type twiCounters struct {
	interrupts  atomic.Uint32
	rxBytes     atomic.Uint32
	rxOverflows atomic.Uint32
	messages    atomic.Uint32
	commands    atomic.Uint32
	txBytes     atomic.Uint32
	busErrors   atomic.Uint32
	unhandled   atomic.Uint32
}

// Controller owns the TWI session state: mode, both buffers and the error
// latch. The interrupt handler and foreground code share one Controller.
//
// Ownership: HandleInterrupt is the only writer of the mode (apart from
// Init/ForceStop/ReleaseBus), of the receive head and of the transmit read
// cursor. Foreground code is the only writer of the receive read cursor and
// of staged transmit data.
type Controller struct {
	periph TWIPeripheral
	exec   *Executor
	cfg    TWIConfig

	mode atomic.Uint32
	rx   *RingBuffer[byte]
	tx   *RingBuffer[byte]

	slarw   uint8 // SLA+R/W presented when acting as initiator
	request RequestHandler

	msgLen     int // bytes stored since the last stop, interrupt only
	lastMsgLen atomic.Uint32

	errValid atomic.Bool
	errCode  atomic.Uint32

	stats twiCounters
}

// NewController creates a controller on top of a peripheral. A nil executor
// gets a private one.
func NewController(periph TWIPeripheral, exec *Executor) *Controller {
	if exec == nil {
		exec = NewExecutor()
	}
	return &Controller{
		periph: periph,
		exec:   exec,
		rx:     NewRingBuffer[byte](TWIBufferLength),
		tx:     NewRingBuffer[byte](TWIBufferLength + 1),
	}
}

// Init resets the session and starts answering on the configured address.
// Calling it while a transfer is in progress is undefined.
func (c *Controller) Init(cfg TWIConfig) error {
	cfg.applyDefaults()
	if cfg.Address > 0x7F {
		return ErrInvalidAddress
	}

	state := disableInterrupts()
	c.cfg = cfg
	c.setMode(ModeReady)
	c.rx.Clear()
	c.tx.Clear()
	c.msgLen = 0
	c.lastMsgLen.Store(0)
	c.errValid.Store(false)
	c.errCode.Store(0)
	restoreInterrupts(state)

	return c.periph.Configure(cfg.Address, cfg.GeneralCall)
}

// Config returns the active configuration
func (c *Controller) Config() TWIConfig {
	return c.cfg
}

// Executor returns the executor receiving real-time commands
func (c *Controller) Executor() *Executor {
	return c.exec
}

// SetRequestHandler registers the reply source for remote reads
func (c *Controller) SetRequestHandler(handler RequestHandler) {
	state := disableInterrupts()
	c.request = handler
	restoreInterrupts(state)
}

// SetTarget sets the address presented when this controller starts a
// transaction itself
func (c *Controller) SetTarget(addr TWIAddress, read bool) {
	slarw := uint8(addr&0x7F) << 1
	if read {
		slarw |= 1
	}
	state := disableInterrupts()
	c.slarw = slarw
	restoreInterrupts(state)
}

// Begin requests a start condition to address the SetTarget device. The
// START interrupt then presents the address. Only valid while Ready.
func (c *Controller) Begin() error {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if c.Mode() != ModeReady {
		return ErrBusy
	}
	c.periph.Start()
	return nil
}

// Mode returns the current bus role
func (c *Controller) Mode() BusMode {
	return BusMode(c.mode.Load())
}

func (c *Controller) setMode(m BusMode) {
	c.mode.Store(uint32(m))
}

// Read pops one received byte. ok is false when nothing is buffered.
func (c *Controller) Read() (b byte, ok bool) {
	return c.rx.Pop()
}

// Buffered returns the number of received bytes waiting to be read
func (c *Controller) Buffered() int {
	return c.rx.Len()
}

// ResetReadCursor un-reads everything read since the last full drain (or
// CommitRead), so a consumer can parse the buffered message again from its
// start. No data is lost.
func (c *Controller) ResetReadCursor() {
	c.rx.ResetReadCursor()
}

// CommitRead confirms that the bytes read so far have been consumed, freeing
// their space for new data
func (c *Controller) CommitRead() {
	c.rx.Commit()
}

// ReadMessage drains one terminated message into dst and commits it. Bytes
// that do not fit in dst are consumed and dropped. If the terminator has not
// arrived yet the read cursor is rewound and ok is false, unless the buffer is
// full: then nothing more can arrive until space is freed, so the buffered
// bytes are returned as a truncated message.
func (c *Controller) ReadMessage(dst []byte) (n int, ok bool) {
	for {
		b, avail := c.rx.Peek()
		if !avail {
			if c.rx.Full() {
				c.rx.Commit()
				return n, true
			}
			c.rx.ResetReadCursor()
			return 0, false
		}
		c.rx.Pop()
		if b == MessageTerminator {
			c.rx.Commit()
			return n, true
		}
		if n < len(dst) {
			dst[n] = b
			n++
		}
	}
}

// LastMessageLen returns the payload length of the most recently terminated
// message, not counting the terminator
func (c *Controller) LastMessageLen() int {
	return int(c.lastMsgLen.Load())
}

// Transmit stages the reply for the remote reader. It is only accepted while
// the controller is addressed as slave transmitter, and the copy happens with
// interrupts disabled so the handler never sees a partial payload.
func (c *Controller) Transmit(data []byte) error {
	if len(data) > TWIBufferLength {
		return ErrTooLarge
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	if c.Mode() != ModeSlaveTransmit {
		return ErrWrongMode
	}
	c.stage(data)
	return nil
}

// stage replaces the transmit payload. Interrupts must be off.
func (c *Controller) stage(data []byte) {
	c.tx.Clear()
	for _, b := range data {
		c.tx.Push(b)
	}
}

// ForceStop issues a stop condition and waits until the hardware has
// completed it. This is the only busy-wait in the driver; it must not be
// called from the interrupt handler, and on a bus that never finishes the
// stop it does not return.
func (c *Controller) ForceStop() {
	c.periph.Stop()
	for c.periph.Stopping() {
	}
	c.setMode(ModeReady)
}

// ForceStopBounded is ForceStop with an upper limit on polls of the stop
// flag. It returns ErrBusStuck (leaving the mode untouched) if the stop has
// not completed in time.
func (c *Controller) ForceStopBounded(spins int) error {
	c.periph.Stop()
	for i := 0; c.periph.Stopping(); i++ {
		if i >= spins {
			return ErrBusStuck
		}
	}
	c.setMode(ModeReady)
	return nil
}

// ReleaseBus re-enables acknowledgment and interrupts without generating a
// stop, for recovering from a held clock
func (c *Controller) ReleaseBus() {
	c.periph.Release()
	c.setMode(ModeReady)
}

// Error returns the latched bus error, if any
func (c *Controller) Error() (Status, bool) {
	if !c.errValid.Load() {
		return 0, false
	}
	return Status(c.errCode.Load()), true
}

// ClearError clears the error latch
func (c *Controller) ClearError() {
	c.errValid.Store(false)
	c.errCode.Store(0)
}

func (c *Controller) latchError(s Status) {
	c.errCode.Store(uint32(s))
	c.errValid.Store(true)
}

// Stats returns a snapshot of the diagnostic counters
func (c *Controller) Stats() TWIStats {
	return TWIStats{
		Interrupts:  c.stats.interrupts.Load(),
		RxBytes:     c.stats.rxBytes.Load(),
		RxOverflows: c.stats.rxOverflows.Load(),
		Messages:    c.stats.messages.Load(),
		Commands:    c.stats.commands.Load(),
		TxBytes:     c.stats.txBytes.Load(),
		BusErrors:   c.stats.busErrors.Load(),
		Unhandled:   c.stats.unhandled.Load(),
	}
}
