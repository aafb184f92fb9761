// Package bus opens the host's I2C bus through periph.io. The returned bus
// implements the drivers.I2C interface used by hostlink.
package bus

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Open initializes the host drivers and opens the named bus. An empty name
// selects the first bus found. A positive hz sets the bus clock.
func Open(name string, hz int64) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("bus: host init: %w", err)
	}

	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("bus: open %q: %w", name, err)
	}

	if hz > 0 {
		if err := b.SetSpeed(physic.Frequency(hz) * physic.Hertz); err != nil {
			b.Close()
			return nil, fmt.Errorf("bus: set speed %d Hz: %w", hz, err)
		}
	}
	return b, nil
}

// List returns the names of the buses periph can see
func List() ([]string, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("bus: host init: %w", err)
	}
	var names []string
	for _, ref := range i2creg.All() {
		names = append(names, ref.Name)
	}
	return names, nil
}
