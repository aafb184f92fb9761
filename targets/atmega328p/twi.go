//go:build avr

package main

import (
	"device/avr"
	"machine"
	"runtime/interrupt"

	"motionbus/core"
)

// TWCR bits every write keeps: peripheral and its interrupt enabled, and
// TWINT written as one to release the bus for the next event
const twcrRun = avr.TWCR_TWEN | avr.TWCR_TWIE | avr.TWCR_TWINT

// avrTWI implements core.TWIPeripheral on the ATmega328P TWI block
type avrTWI struct{}

// setBitRate programs TWBR for the given SCL frequency with prescaler 1
func setBitRate(hz uint32) {
	avr.TWSR.ClearBits(avr.TWSR_TWPS0 | avr.TWSR_TWPS1)
	avr.TWBR.Set(uint8((machine.CPUFrequency()/hz - 16) / 2))
}

func (avrTWI) Configure(own core.TWIAddress, generalCall bool) error {
	// Internal pull-ups on SDA/SCL
	machine.PC4.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	machine.PC5.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	twar := uint8(own) << 1
	if generalCall {
		twar |= avr.TWAR_TWGCE
	}
	avr.TWAR.Set(twar)
	avr.TWCR.Set(avr.TWCR_TWEN | avr.TWCR_TWIE | avr.TWCR_TWEA)
	return nil
}

func (avrTWI) Status() core.Status {
	return core.Status(avr.TWSR.Get() & core.StatusMask)
}

func (avrTWI) ReadData() byte { return avr.TWDR.Get() }
func (avrTWI) LoadData(b byte) { avr.TWDR.Set(b) }

func (avrTWI) Ack() { avr.TWCR.Set(twcrRun | avr.TWCR_TWEA) }
func (avrTWI) Nack() { avr.TWCR.Set(twcrRun) }
func (avrTWI) Start() { avr.TWCR.Set(twcrRun | avr.TWCR_TWEA | avr.TWCR_TWSTA) }
func (avrTWI) Stop() { avr.TWCR.Set(twcrRun | avr.TWCR_TWEA | avr.TWCR_TWSTO) }
func (avrTWI) Release() { avr.TWCR.Set(twcrRun | avr.TWCR_TWEA) }

// Stopping reports whether the stop condition is still being generated; the
// hardware clears TWSTO once it is on the bus
func (avrTWI) Stopping() bool {
	return avr.TWCR.HasBits(avr.TWCR_TWSTO)
}

var twiInterrupt interrupt.Interrupt

func enableTWIInterrupt() {
	twiInterrupt = interrupt.New(avr.IRQ_TWI, func(interrupt.Interrupt) {
		controller.HandleInterrupt()
	})
}
