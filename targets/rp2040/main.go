//go:build rp2040 || rp2350

// Bench exerciser for the motion bus: forwards G-code typed on the USB serial
// console to a controller on I2C0, the way a host computer would.
package main

import (
	"machine"
	"strconv"
	"time"

	"motionbus/core"
	"motionbus/hostlink"
)

const maxLine = 128

var (
	link   *hostlink.Link
	driver *busDriver
)

func main() {
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.StartDebugQueue(16)

	var err error
	driver, err = newBusDriver(0, core.DefaultTWIFrequency)
	if err != nil {
		core.DebugPrintln("[BUS] configure failed: " + err.Error())
		return
	}
	link = hostlink.New(driver, uint16(core.DefaultTWIAddress))

	for !driver.Probe(link.Addr()) {
		core.DebugPrintln("[BUS] waiting for controller")
		time.Sleep(time.Second)
	}
	core.DebugPrintln("[BUS] controller found")

	line := make([]byte, 0, maxLine)
	for {
		if machine.Serial.Buffered() == 0 {
			time.Sleep(time.Millisecond)
			continue
		}
		b, err := machine.Serial.ReadByte()
		if err != nil {
			continue
		}

		if action, ok := core.Intercept(b); ok {
			handleRealtime(b, action)
			continue
		}

		switch b {
		case '\r':
		case '\n':
			if len(line) > 0 {
				report(link.SendLine(string(line)))
			}
			line = line[:0]
		default:
			if len(line) < maxLine {
				line = append(line, b)
			}
		}
	}
}

func handleRealtime(cmd byte, action core.ControlAction) {
	if action == core.ActionStatusReport {
		status, err := link.QueryStatus(core.TWIBufferLength)
		if err != nil {
			report(err)
			return
		}
		core.DebugPrintln(status)
		return
	}
	if err := link.Realtime(cmd); err != nil {
		report(err)
	}
}

// report queues the result for the console so a slow USB host never holds up
// the next transfer
func report(err error) {
	if err != nil {
		transfers, failures := driver.counters()
		core.DebugQueued("error:" + err.Error())
		core.DebugQueued("[BUS] transfers=" + strconv.FormatUint(uint64(transfers), 10) +
			" failures=" + strconv.FormatUint(uint64(failures), 10) +
			" dropped=" + strconv.FormatUint(uint64(core.DebugDropped()), 10))
		return
	}
	core.DebugQueued("ok")
}
