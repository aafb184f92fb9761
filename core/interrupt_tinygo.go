//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}

// enterInterrupt is a no-op: the CPU masks interrupts while a handler runs
func enterInterrupt() {}

// exitInterrupt is a no-op, see enterInterrupt
func exitInterrupt() {}
