package core

import (
	"strings"
	"testing"
)

func TestBusTraceOrder(t *testing.T) {
	ClearBusTrace()
	defer ClearBusTrace()

	c, m := newTestController()
	fire(c, m, StatusSRSlaAck, 0x08)
	fire(c, m, StatusSRDataAck, 'A')
	fire(c, m, StatusSRStop, 0)

	events := BusTrace()
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	if events[0].Status != StatusSRSlaAck || events[0].Mode != ModeReady {
		t.Errorf("First event: got %s in %s", events[0].Status, events[0].Mode)
	}
	if events[1].Data != 'A' || events[1].Mode != ModeSlaveReceive {
		t.Errorf("Second event: got data 0x%02X in %s", events[1].Data, events[1].Mode)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Errorf("Events out of order at %d", i)
		}
	}
}

func TestBusTraceWraps(t *testing.T) {
	ClearBusTrace()
	defer ClearBusTrace()

	for i := 0; i < BusTraceSize+5; i++ {
		RecordBusEvent(StatusNoInfo, ModeReady, byte(i))
	}

	events := BusTrace()
	if len(events) != BusTraceSize {
		t.Fatalf("Expected %d events, got %d", BusTraceSize, len(events))
	}
	if events[0].Data != 5 || events[len(events)-1].Data != byte(BusTraceSize+4) {
		t.Errorf("Expected oldest data 5 and newest %d, got %d and %d",
			BusTraceSize+4, events[0].Data, events[len(events)-1].Data)
	}
}

func TestBusTraceDisabled(t *testing.T) {
	ClearBusTrace()
	SetBusTraceEnabled(false)
	defer SetBusTraceEnabled(true)

	RecordBusEvent(StatusBusError, ModeReady, 0)
	if len(BusTrace()) != 0 {
		t.Error("Disabled trace should not record events")
	}
}

func TestDumpBusTrace(t *testing.T) {
	ClearBusTrace()
	defer ClearBusTrace()

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(s string) {})

	RecordBusEvent(StatusSRDataAck, ModeSlaveReceive, 0x3F)
	DumpBusTrace()

	if len(lines) != 3 {
		t.Fatalf("Expected header, one event and footer, got %v", lines)
	}
	if lines[1] != "[TWI] #1 SR_DATA_ACK mode=slave_rx data=0x3F" {
		t.Errorf("Unexpected event line %q", lines[1])
	}
	if !strings.Contains(lines[2], "End Dump") {
		t.Errorf("Unexpected footer %q", lines[2])
	}
}

func TestDebugPrintln(t *testing.T) {
	var got []string
	SetDebugWriter(func(s string) { got = append(got, s) })
	defer SetDebugWriter(func(s string) {})

	SetDebugEnabled(false)
	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")
	SetDebugEnabled(false)

	if len(got) != 1 || got[0] != "shown" {
		t.Errorf("Expected only \"shown\", got %v", got)
	}
}

func TestDebugQueue(t *testing.T) {
	got := make(chan string, 4)
	release := make(chan struct{})
	SetDebugWriter(func(s string) {
		got <- s
		<-release
	})
	defer SetDebugWriter(func(s string) {})

	SetDebugEnabled(false)
	if DebugQueued("hidden") {
		t.Error("Nothing should be queued while debug is off")
	}
	SetDebugEnabled(true)
	defer SetDebugEnabled(false)

	StartDebugQueue(1)
	defer func() {
		close(debugQueue)
		debugQueue = nil
	}()

	dropped := DebugDropped()
	if !DebugQueued("one") {
		t.Fatal("Expected first line queued")
	}
	// The writer now holds "one" and waits
	if msg := <-got; msg != "one" {
		t.Fatalf("Expected \"one\", got %q", msg)
	}
	if !DebugQueued("two") {
		t.Fatal("Expected second line queued")
	}
	if DebugQueued("three") {
		t.Error("Expected a full queue to drop the line")
	}
	if DebugDropped() != dropped+1 {
		t.Errorf("Expected %d dropped, got %d", dropped+1, DebugDropped())
	}

	close(release)
	if msg := <-got; msg != "two" {
		t.Errorf("Expected \"two\", got %q", msg)
	}
}
