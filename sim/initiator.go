package sim

import (
	"errors"
	"fmt"
	"sync"

	"motionbus/core"
	"tinygo.org/x/drivers"
)

var (
	// ErrNoDevice signals that nothing acknowledged the address
	ErrNoDevice = errors.New("sim: no such device")

	// ErrDataNack signals that a written byte was not acknowledged
	ErrDataNack = errors.New("sim: NACK received")

	// ErrAddress signals an address outside the 7-bit range
	ErrAddress = errors.New("sim: only 7 bit addresses are supported")
)

// Initiator plays the remote bus master. Each transfer is turned into the
// status codes the peripheral would latch, and the controller's interrupt
// handler runs once per code, exactly as on hardware.
type Initiator struct {
	mu     sync.Mutex
	ctrl   *core.Controller
	periph *Peripheral
}

var _ drivers.I2C = (*Initiator)(nil)

// NewInitiator connects an initiator to a controller running on periph
func NewInitiator(ctrl *core.Controller, periph *Peripheral) *Initiator {
	return &Initiator{ctrl: ctrl, periph: periph}
}

// Tx performs a write and then a read transfer, with a repeated start in
// between. A nil w skips the write, a nil r skips the read. A write that is
// refused part way returns an error wrapping ErrDataNack; the bytes before it
// were delivered.
func (i *Initiator) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return ErrAddress
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	a := core.TWIAddress(addr)
	if w != nil || r == nil {
		if err := i.write(a, w); err != nil {
			return err
		}
	}
	if r != nil {
		return i.read(a, r)
	}
	return nil
}

// Inject runs the interrupt handler for one raw status code
func (i *Initiator) Inject(status core.Status, data byte) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.fire(status, data)
}

func (i *Initiator) fire(status core.Status, data byte) {
	i.periph.status = status
	i.periph.data = data
	i.ctrl.HandleInterrupt()
}

func (i *Initiator) write(addr core.TWIAddress, w []byte) error {
	gc, ok := i.periph.matches(addr, false)
	if !ok {
		return ErrNoDevice
	}

	dataAck, dataNack := core.StatusSRDataAck, core.StatusSRDataNack
	if gc {
		i.fire(core.StatusSRGCallAck, byte(addr<<1))
		dataAck, dataNack = core.StatusSRGCallDataAck, core.StatusSRGCallDataNack
	} else {
		i.fire(core.StatusSRSlaAck, byte(addr<<1))
	}

	var err error
	for n, b := range w {
		if !i.periph.ackEnabled {
			// The byte goes out but is refused; the master gives up here
			i.fire(dataNack, b)
			err = fmt.Errorf("%w: byte %d", ErrDataNack, n)
			break
		}
		i.fire(dataAck, b)
	}

	i.fire(core.StatusSRStop, 0)
	return err
}

func (i *Initiator) read(addr core.TWIAddress, r []byte) error {
	if _, ok := i.periph.matches(addr, true); !ok {
		return ErrNoDevice
	}
	if len(r) == 0 {
		return nil
	}

	i.fire(core.StatusSTSlaAck, byte(addr<<1)|1)
	for n := range r {
		r[n] = i.periph.out
		if n == len(r)-1 {
			// Master NACKs the final byte it wants
			i.fire(core.StatusSTDataNack, r[n])
			break
		}
		if !i.periph.ackEnabled {
			// The slave already sent its last byte; the rest reads as idle bus
			i.fire(core.StatusSTLastData, r[n])
			for j := n + 1; j < len(r); j++ {
				r[j] = 0xFF
			}
			break
		}
		i.fire(core.StatusSTDataAck, r[n])
	}
	return nil
}
