package serial

import (
	"io"
	"time"
)

// Port is the sender's side of the bridge: a G-code streamer connects here
// exactly as it would to a controller's own UART. Tests substitute any
// io.ReadWriteCloser.
type Port interface {
	io.ReadWriteCloser

	// Flush discards anything received but not yet read
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate, 115200 is what G-code senders default to
	Baud int

	// Read timeout, 0 blocks until data arrives
	ReadTimeout time.Duration
}

// DefaultConfig returns the usual sender settings for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}
