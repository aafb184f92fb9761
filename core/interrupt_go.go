//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// irqLock stands in for the global interrupt-enable bit on regular Go, where
// the "interrupt" is a simulated bus calling HandleInterrupt from another
// goroutine. It is not reentrant: code running inside HandleInterrupt (such as
// a reset handler) must not open a critical section.
var irqLock sync.Mutex

// disableInterrupts enters a critical section
func disableInterrupts() State {
	irqLock.Lock()
	return 0
}

// restoreInterrupts leaves a critical section
func restoreInterrupts(state State) {
	irqLock.Unlock()
}

// enterInterrupt marks the start of the interrupt handler
func enterInterrupt() {
	irqLock.Lock()
}

// exitInterrupt marks the end of the interrupt handler
func exitInterrupt() {
	irqLock.Unlock()
}
