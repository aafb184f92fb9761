package core

import "sync/atomic"

// Real-time command bytes. These are acted on the moment they arrive on the
// bus and never reach the receive buffer.
const (
	CmdStatusReport byte = '?'
	CmdCycleStart   byte = '~'
	CmdFeedHold     byte = '!'
	CmdReset        byte = 0x18 // Ctrl-X
)

// ControlAction is what an intercepted command byte asks the motion
// controller to do
type ControlAction uint8

const (
	ActionNone ControlAction = iota
	ActionStatusReport
	ActionCycleStart
	ActionFeedHold
	ActionReset
)

func (a ControlAction) String() string {
	switch a {
	case ActionStatusReport:
		return "status_report"
	case ActionCycleStart:
		return "cycle_start"
	case ActionFeedHold:
		return "feed_hold"
	case ActionReset:
		return "reset"
	default:
		return "none"
	}
}

// Intercept classifies a received payload byte. ok is false for ordinary
// payload, which must be buffered as usual.
func Intercept(b byte) (action ControlAction, ok bool) {
	switch b {
	case CmdStatusReport:
		return ActionStatusReport, true
	case CmdCycleStart:
		return ActionCycleStart, true
	case CmdFeedHold:
		return ActionFeedHold, true
	case CmdReset:
		return ActionReset, true
	}
	return ActionNone, false
}

// ExecFlags are the sticky request bits the motion controller polls
type ExecFlags uint32

const (
	ExecStatusReport ExecFlags = 1 << iota
	ExecCycleStart
	ExecFeedHold
	ExecReset
)

// Executor is the boundary to the motion-control subsystem. The bus driver
// only ever sets flags or calls the reset handler; the motion side polls and
// clears.
type Executor struct {
	flags        atomic.Uint32
	resetHandler func()
}

// NewExecutor creates an Executor with no reset handler
func NewExecutor() *Executor {
	return &Executor{}
}

// SetResetHandler registers the routine run by a reset command.
//
// The handler is called synchronously from the TWI interrupt, so it preempts
// whatever foreground code was running, including a half-finished Read or
// Transmit. It must not block and must be safe to run in interrupt context.
// With no handler registered a reset only raises ExecReset.
func (e *Executor) SetResetHandler(handler func()) {
	e.resetHandler = handler
}

// Apply performs a control action
func (e *Executor) Apply(action ControlAction) {
	switch action {
	case ActionStatusReport:
		e.Set(ExecStatusReport)
	case ActionCycleStart:
		e.Set(ExecCycleStart)
	case ActionFeedHold:
		e.Set(ExecFeedHold)
	case ActionReset:
		e.Set(ExecReset)
		if e.resetHandler != nil {
			e.resetHandler()
		}
	}
}

// Set raises flags
func (e *Executor) Set(f ExecFlags) {
	for {
		old := e.flags.Load()
		if e.flags.CompareAndSwap(old, old|uint32(f)) {
			return
		}
	}
}

// Pending returns the currently raised flags without clearing them
func (e *Executor) Pending() ExecFlags {
	return ExecFlags(e.flags.Load())
}

// Clear lowers flags after the motion side has serviced them
func (e *Executor) Clear(f ExecFlags) {
	for {
		old := e.flags.Load()
		if e.flags.CompareAndSwap(old, old&^uint32(f)) {
			return
		}
	}
}

// Take returns and clears all raised flags in one step
func (e *Executor) Take() ExecFlags {
	return ExecFlags(e.flags.Swap(0))
}
