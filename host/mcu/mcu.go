package mcu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"motionbus/core"
	"motionbus/gcode"
	"motionbus/hostlink"
	"tinygo.org/x/drivers"
)

// MaxLineLength bounds a line assembled from the serial stream
const MaxLineLength = 256

var ErrLineTooLong = errors.New("line too long")

// MCU represents a connection to a motion controller on the bus
type MCU struct {
	link     *hostlink.Link
	replyLen int

	// Serializes multi-write lines. Real-time commands bypass it on purpose:
	// a feed hold must not wait behind a line.
	lineMu sync.Mutex

	// Statistics
	linesSent     uint32
	realtimesSent uint32
	failures      uint32
	statsMu       sync.Mutex
}

// Stats summarizes traffic since the MCU was created
type Stats struct {
	Lines     uint32
	Realtimes uint32
	Errors    uint32
}

// NewMCU creates an MCU talking to the controller at addr on bus
func NewMCU(bus drivers.I2C, addr uint16, replyLen int) *MCU {
	if replyLen < 1 || replyLen > core.TWIBufferLength {
		replyLen = core.TWIBufferLength
	}
	return &MCU{
		link:     hostlink.New(bus, addr),
		replyLen: replyLen,
	}
}

// Addr returns the controller's bus address
func (m *MCU) Addr() uint16 {
	return m.link.Addr()
}

// SendLine sends one G-code line
func (m *MCU) SendLine(line string) error {
	m.lineMu.Lock()
	err := m.link.SendLine(line)
	m.lineMu.Unlock()

	m.count(&m.linesSent, err)
	return err
}

// Realtime sends a real-time command immediately
func (m *MCU) Realtime(cmd byte) error {
	err := m.link.Realtime(cmd)
	m.count(&m.realtimesSent, err)
	return err
}

// Status requests a status report and returns the controller's reply
func (m *MCU) Status() (string, error) {
	s, err := m.link.QueryStatus(m.replyLen)
	m.count(&m.realtimesSent, err)
	return s, err
}

// ReadReply reads the currently staged reply
func (m *MCU) ReadReply() ([]byte, error) {
	return m.link.ReadReply(m.replyLen)
}

func (m *MCU) count(counter *uint32, err error) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	if err != nil {
		m.failures++
		return
	}
	*counter++
}

// GetStats returns the traffic counters
func (m *MCU) GetStats() Stats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return Stats{
		Lines:     m.linesSent,
		Realtimes: m.realtimesSent,
		Errors:    m.failures,
	}
}

// Stream pumps a G-code sender's byte stream onto the bus until ctx is done
// or rw reports EOF. Real-time command bytes are forwarded the moment they
// are seen, even in the middle of a line. Each completed line is checked for
// syntax and answered with "ok" or "error:<reason>", and a status request is
// answered with the controller's report, so ordinary streaming senders work
// unchanged.
func (m *MCU) Stream(ctx context.Context, rw io.ReadWriter) error {
	buf := make([]byte, 64)
	line := make([]byte, 0, MaxLineLength)
	overflow := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := rw.Read(buf)
		for _, b := range buf[:n] {
			if action, ok := core.Intercept(b); ok {
				m.handleRealtime(rw, b, action)
				continue
			}

			switch b {
			case '\r':
			case '\n':
				if overflow {
					m.reply(rw, ErrLineTooLong)
				} else if len(line) > 0 {
					m.reply(rw, m.sendChecked(string(line)))
				}
				line = line[:0]
				overflow = false
			default:
				if len(line) >= MaxLineLength {
					overflow = true
					continue
				}
				line = append(line, b)
			}
		}

		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream read: %w", err)
		}
	}
}

// sendChecked rejects lines that do not parse before they use bus time
func (m *MCU) sendChecked(line string) error {
	if _, err := gcode.Parse(line); err != nil {
		return err
	}
	return m.SendLine(line)
}

func (m *MCU) handleRealtime(w io.Writer, cmd byte, action core.ControlAction) {
	if action == core.ActionStatusReport {
		status, err := m.Status()
		if err != nil {
			log.Printf("status request: %v", err)
			return
		}
		fmt.Fprintf(w, "%s\r\n", status)
		return
	}
	if err := m.Realtime(cmd); err != nil {
		log.Printf("%s: %v", action, err)
	}
}

func (m *MCU) reply(w io.Writer, err error) {
	if err != nil {
		log.Printf("line rejected: %v", err)
		fmt.Fprintf(w, "error:%v\r\n", err)
		return
	}
	fmt.Fprint(w, "ok\r\n")
}
