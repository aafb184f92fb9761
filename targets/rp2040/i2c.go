//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"
	"sync"

	"motionbus/core"
)

// busDriver wraps a machine.I2C as the initiator side of the motion bus. It
// satisfies drivers.I2C, so hostlink can use it directly.
type busDriver struct {
	mu  sync.Mutex
	i2c *machine.I2C

	// Debug counters
	transfers uint32
	failures  uint32
}

// newBusDriver configures I2C0 (SDA=GP4, SCL=GP5) or I2C1 (SDA=GP6, SCL=GP7)
func newBusDriver(bus int, frequencyHz uint32) (*busDriver, error) {
	var i2c *machine.I2C
	var sda, scl machine.Pin

	switch bus {
	case 0:
		i2c, sda, scl = machine.I2C0, machine.GP4, machine.GP5
	case 1:
		i2c, sda, scl = machine.I2C1, machine.GP6, machine.GP7
	default:
		return nil, errors.New("unsupported I2C bus ID")
	}

	if frequencyHz == 0 {
		frequencyHz = core.DefaultTWIFrequency
	}
	err := i2c.Configure(machine.I2CConfig{
		Frequency: frequencyHz,
		SDA:       sda,
		SCL:       scl,
	})
	if err != nil {
		return nil, err
	}

	return &busDriver{i2c: i2c}, nil
}

// Tx performs one transaction. machine.I2C issues the repeated start between
// the write and the read.
func (d *busDriver) Tx(addr uint16, w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.i2c.Tx(addr, w, r)
	if err != nil {
		d.failures++
		return err
	}
	d.transfers++
	return nil
}

// Probe reports whether anything acknowledges a one-byte read from addr.
// The controller answers with its default reply, so nothing is disturbed.
func (d *busDriver) Probe(addr uint16) bool {
	var b [1]byte
	return d.Tx(addr, nil, b[:]) == nil
}

func (d *busDriver) counters() (transfers, failures uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transfers, d.failures
}
