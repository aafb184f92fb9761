package core

import "testing"

func TestIntercept(t *testing.T) {
	tests := []struct {
		b      byte
		action ControlAction
		ok     bool
	}{
		{'?', ActionStatusReport, true},
		{'~', ActionCycleStart, true},
		{'!', ActionFeedHold, true},
		{0x18, ActionReset, true},
		{'G', ActionNone, false},
		{0x00, ActionNone, false},
		{'\n', ActionNone, false},
	}

	for _, tt := range tests {
		action, ok := Intercept(tt.b)
		if action != tt.action || ok != tt.ok {
			t.Errorf("Intercept(0x%02X) = %s, %v; want %s, %v", tt.b, action, ok, tt.action, tt.ok)
		}
	}
}

func TestExecutorFlags(t *testing.T) {
	e := NewExecutor()

	e.Apply(ActionFeedHold)
	e.Apply(ActionStatusReport)
	e.Apply(ActionFeedHold)

	if e.Pending() != ExecFeedHold|ExecStatusReport {
		t.Errorf("Expected feed hold and status report, got 0x%X", e.Pending())
	}

	e.Clear(ExecStatusReport)
	if e.Pending() != ExecFeedHold {
		t.Errorf("Expected only feed hold after Clear, got 0x%X", e.Pending())
	}

	e.Apply(ActionCycleStart)
	if got := e.Take(); got != ExecFeedHold|ExecCycleStart {
		t.Errorf("Take returned 0x%X", got)
	}
	if e.Pending() != 0 {
		t.Errorf("Take should clear all flags, got 0x%X", e.Pending())
	}

	e.Apply(ActionNone)
	if e.Pending() != 0 {
		t.Errorf("ActionNone should not raise flags, got 0x%X", e.Pending())
	}
}

func TestExecutorReset(t *testing.T) {
	e := NewExecutor()

	// No handler: only the flag
	e.Apply(ActionReset)
	if e.Pending() != ExecReset {
		t.Errorf("Expected reset flag, got 0x%X", e.Pending())
	}

	called := false
	e.SetResetHandler(func() {
		called = true
		if e.Pending()&ExecReset == 0 {
			t.Error("Reset flag should be raised before the handler runs")
		}
	})
	e.Take()
	e.Apply(ActionReset)
	if !called {
		t.Error("Reset handler was not called")
	}
}

func TestControlActionString(t *testing.T) {
	if ActionFeedHold.String() != "feed_hold" {
		t.Errorf("Expected feed_hold, got %s", ActionFeedHold.String())
	}
	if ControlAction(99).String() != "none" {
		t.Errorf("Expected none, got %s", ControlAction(99).String())
	}
}
