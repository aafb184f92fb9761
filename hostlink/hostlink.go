// Package hostlink is the initiator side of the motion bus. It feeds G-code
// lines and real-time commands to a controller over any bus that implements
// the TinyGo drivers.I2C interface (machine.I2C, a periph.io bus, or the
// simulator).
package hostlink

import (
	"errors"
	"fmt"

	"motionbus/core"
	"tinygo.org/x/drivers"
)

// MaxWrite is the largest single write: what an empty receive buffer holds
// next to the message terminator
const MaxWrite = core.MaxMessageLength

var (
	ErrReservedByte = errors.New("hostlink: line contains a real-time command byte")
	ErrNotCommand   = errors.New("hostlink: not a real-time command")
	ErrReplyLength  = errors.New("hostlink: reply length out of range")

	// ErrPartialLine marks a SendLine that failed after some chunks were
	// already delivered
	ErrPartialLine = errors.New("hostlink: line partly delivered")
)

// Link addresses one controller on a bus
type Link struct {
	bus  drivers.I2C
	addr uint16
}

// New creates a link to the controller at addr. An addr of 0 selects
// core.DefaultTWIAddress.
func New(bus drivers.I2C, addr uint16) *Link {
	if addr == 0 {
		addr = uint16(core.DefaultTWIAddress)
	}
	return &Link{bus: bus, addr: addr}
}

// Addr returns the controller address
func (l *Link) Addr() uint16 {
	return l.addr
}

// SendLine writes one G-code line. A newline is appended if missing and the
// line goes out in writes of at most MaxWrite bytes, each of which the
// controller terminates on its own; it reassembles the line at the newline.
// Lines may not contain real-time command bytes, which the controller would
// act on instead of buffering.
//
// If a chunk after the first fails, the error also wraps ErrPartialLine: the
// chunks before it are already buffered by the controller, and its line
// assembler will prepend them to whatever line comes next. Callers should
// send Reset before resuming the stream.
func (l *Link) SendLine(line string) error {
	for i := 0; i < len(line); i++ {
		if _, ok := core.Intercept(line[i]); ok {
			return ErrReservedByte
		}
	}
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line += "\n"
	}

	data := []byte(line)
	for chunk := 0; len(data) > 0; chunk++ {
		n := len(data)
		if n > MaxWrite {
			n = MaxWrite
		}
		if err := l.bus.Tx(l.addr, data[:n], nil); err != nil {
			if chunk > 0 {
				return fmt.Errorf("hostlink: write chunk %d: %w: %w", chunk, ErrPartialLine, err)
			}
			return fmt.Errorf("hostlink: write chunk %d: %w", chunk, err)
		}
		data = data[n:]
	}
	return nil
}

// Realtime sends a single real-time command byte
func (l *Link) Realtime(cmd byte) error {
	if _, ok := core.Intercept(cmd); !ok {
		return ErrNotCommand
	}
	if err := l.bus.Tx(l.addr, []byte{cmd}, nil); err != nil {
		return fmt.Errorf("hostlink: realtime 0x%02X: %w", cmd, err)
	}
	return nil
}

func (l *Link) FeedHold() error { return l.Realtime(core.CmdFeedHold) }
func (l *Link) CycleStart() error { return l.Realtime(core.CmdCycleStart) }
func (l *Link) StatusReport() error { return l.Realtime(core.CmdStatusReport) }
func (l *Link) Reset() error { return l.Realtime(core.CmdReset) }

// ReadReply reads n bytes of whatever reply the controller has staged
func (l *Link) ReadReply(n int) ([]byte, error) {
	if n < 1 || n > core.TWIBufferLength {
		return nil, ErrReplyLength
	}
	r := make([]byte, n)
	if err := l.bus.Tx(l.addr, nil, r); err != nil {
		return nil, fmt.Errorf("hostlink: read: %w", err)
	}
	return r, nil
}

// QueryStatus requests a status report and reads it back in the same
// transaction. Trailing zero and idle-bus bytes are trimmed.
func (l *Link) QueryStatus(n int) (string, error) {
	if n < 1 || n > core.TWIBufferLength {
		return "", ErrReplyLength
	}
	r := make([]byte, n)
	if err := l.bus.Tx(l.addr, []byte{core.CmdStatusReport}, r); err != nil {
		return "", fmt.Errorf("hostlink: status: %w", err)
	}
	return string(trimReply(r)), nil
}

func trimReply(r []byte) []byte {
	end := len(r)
	for end > 0 && (r[end-1] == 0x00 || r[end-1] == 0xFF) {
		end--
	}
	return r[:end]
}
