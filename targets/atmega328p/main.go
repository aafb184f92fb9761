//go:build avr

// Motion controller bus firmware for the ATmega328P. Accepts G-code lines
// and real-time commands as an I2C slave and reports status on request.
package main

import (
	"machine"
	"sync/atomic"
	"time"

	"motionbus/core"
	"motionbus/gcode"
)

const maxLine = 80

var (
	controller *core.Controller

	// Machine state as shown in status reports, written by the foreground
	// loop and the reset handler
	state atomic.Uint32

	resetPending atomic.Bool

	linesReceived uint32
	linesDropped  uint32
)

const (
	stateIdle uint32 = iota
	stateRun
	stateHold
)

var stateNames = [...]string{"Idle", "Run", "Hold"}

func main() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: 115200})
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)

	controller = core.NewController(avrTWI{}, nil)

	exec := controller.Executor()
	exec.SetResetHandler(func() {
		// Interrupt context: only flip state, the loop does the rest
		state.Store(stateIdle)
		resetPending.Store(true)
	})
	controller.SetRequestHandler(statusReply)

	enableTWIInterrupt()
	if err := controller.Init(core.TWIConfig{Address: core.DefaultTWIAddress}); err != nil {
		core.DebugPrintln("[TWI] init failed: " + err.Error())
		for {
			time.Sleep(time.Second)
		}
	}
	setBitRate(controller.Config().Frequency)
	core.DebugPrintln("[TWI] ready")

	buf := make([]byte, core.TWIBufferLength)
	line := make([]byte, 0, maxLine)
	overflow := false

	for {
		if resetPending.Swap(false) {
			line = line[:0]
			overflow = false
			core.DebugPrintln("[CTRL] reset")
		}

		// Status requests stay raised for the request handler
		flags := exec.Pending() &^ core.ExecStatusReport
		exec.Clear(flags)
		if flags&core.ExecFeedHold != 0 && state.Load() == stateRun {
			state.Store(stateHold)
			core.DebugPrintln("[CTRL] feed hold")
		}
		if flags&core.ExecCycleStart != 0 {
			state.Store(stateRun)
			core.DebugPrintln("[CTRL] cycle start")
		}

		for {
			n, ok := controller.ReadMessage(buf)
			if !ok {
				break
			}
			for _, b := range buf[:n] {
				switch {
				case b == '\n':
					if overflow {
						linesDropped++
					} else {
						execute(line)
					}
					line = line[:0]
					overflow = false
				case b == '\r':
				case len(line) >= maxLine:
					overflow = true
				default:
					line = append(line, b)
				}
			}
		}

		if code, failed := controller.Error(); failed {
			if core.IsDebugEnabled() {
				core.DebugPrintln("[TWI] bus error " + code.String())
				core.DumpBusTrace()
			}
			core.ClearBusTrace()
			controller.ClearError()
		}

		time.Sleep(time.Millisecond)
	}
}

// execute hands a complete line to the planner. The planner lives outside
// this firmware; the line is checked, logged and the machine marked running.
func execute(line []byte) {
	linesReceived++
	block, err := gcode.Parse(string(line))
	if err != nil {
		linesDropped++
		core.DebugPrintln("error:" + err.Error())
		return
	}
	if block.Empty() {
		return
	}
	if state.Load() == stateIdle {
		state.Store(stateRun)
	}
	core.DebugPrintln("[GCODE] " + string(line))
}

// statusReply runs in the TWI interrupt when the host reads from us
func statusReply() []byte {
	exec := controller.Executor()
	if exec.Pending()&core.ExecStatusReport == 0 {
		return nil
	}
	exec.Clear(core.ExecStatusReport)
	return []byte("<" + stateNames[state.Load()] + ">")
}
