package core

import "sync/atomic"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// BusEvent captures one TWI interrupt for post-mortem analysis
type BusEvent struct {
	Seq    uint32  // Interrupt sequence number, 0 marks an empty slot
	Status Status  // Latched status code
	Mode   BusMode // Mode before the event was handled
	Data   byte    // Data register contents
}

const (
	BusTraceSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Bus trace ring buffer, written only from the TWI interrupt
	busTrace     [BusTraceSize]BusEvent
	busTraceHead uint8 // Next write position
	busTraceSeq  uint32

	// traceEnabled controls bus event capture
	traceEnabled bool = true

	// Lines waiting for the queue writer, and how many did not fit
	debugQueue   chan string
	debugDropped atomic.Uint32
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled reports whether DebugPrintln output is on. Use it to skip
// building expensive messages such as a trace dump.
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetBusTraceEnabled turns bus event capture on or off
func SetBusTraceEnabled(enabled bool) {
	traceEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugQueued for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// StartDebugQueue starts a goroutine that writes queued lines through the
// current debug writer, so a loop moving bus traffic never waits on a slow
// console. Call it once, after SetDebugWriter.
func StartDebugQueue(depth int) {
	write := debugPrintln
	if write == nil {
		write = func(string) {}
	}
	q := make(chan string, depth)
	debugQueue = q
	go drainDebugQueue(q, write)
}

func drainDebugQueue(q <-chan string, write DebugWriter) {
	for msg := range q {
		write(msg)
	}
}

// DebugQueued hands msg to the queue writer without blocking. It returns
// false, counting the line as dropped, if the queue is full. Without a queue
// the line is written directly.
func DebugQueued(msg string) bool {
	if !debugEnabled {
		return false
	}
	if debugQueue == nil {
		DebugPrintln(msg)
		return true
	}
	select {
	case debugQueue <- msg:
		return true
	default:
		debugDropped.Add(1)
		return false
	}
}

// DebugDropped returns the number of queued lines lost to a full queue
func DebugDropped() uint32 {
	return debugDropped.Load()
}

// RecordBusEvent stores a bus event in the trace ring. Constant time, safe
// to call from the interrupt handler.
func RecordBusEvent(status Status, mode BusMode, data byte) {
	if !traceEnabled {
		return
	}
	busTraceSeq++
	if busTraceSeq == 0 {
		busTraceSeq = 1
	}
	idx := busTraceHead
	busTrace[idx] = BusEvent{
		Seq:    busTraceSeq,
		Status: status,
		Mode:   mode,
		Data:   data,
	}
	busTraceHead = (idx + 1) % BusTraceSize
}

// BusTrace returns the recorded events, oldest first
func BusTrace() []BusEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	events := make([]BusEvent, 0, BusTraceSize)
	start := busTraceHead
	for i := uint8(0); i < BusTraceSize; i++ {
		evt := busTrace[(start+i)%BusTraceSize]
		if evt.Seq == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// DumpBusTrace outputs the trace ring (call on bus error or from a debug
// command, never from the interrupt)
func DumpBusTrace() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TWI] === Bus Trace Dump ===")
	for _, evt := range BusTrace() {
		debugPrintln("[TWI] #" + utoa(evt.Seq) +
			" " + evt.Status.String() +
			" mode=" + evt.Mode.String() +
			" data=0x" + hex8(evt.Data))
	}
	debugPrintln("[TWI] === End Dump ===")
}

// ClearBusTrace clears the trace ring
func ClearBusTrace() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for i := range busTrace {
		busTrace[i] = BusEvent{}
	}
	busTraceHead = 0
	busTraceSeq = 0
}
