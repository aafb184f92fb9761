package hostlink

import (
	"errors"
	"strings"
	"testing"

	"motionbus/core"
	"motionbus/sim"
)

// recorder is a drivers.I2C that logs writes instead of sending them
type recorder struct {
	writes [][]byte
	addrs  []uint16
	err    error
	failAt int // when set, only transfer number failAt (1-based) returns err
}

func (r *recorder) Tx(addr uint16, w, rd []byte) error {
	r.addrs = append(r.addrs, addr)
	if r.failAt > 0 && len(r.addrs) == r.failAt {
		return r.err
	}
	if w != nil {
		r.writes = append(r.writes, append([]byte(nil), w...))
	}
	if r.failAt > 0 {
		return nil
	}
	return r.err
}

func TestSendLineChunks(t *testing.T) {
	rec := &recorder{}
	link := New(rec, 0)

	line := strings.Repeat("X", 70)
	if err := link.SendLine(line); err != nil {
		t.Fatalf("SendLine failed: %v", err)
	}

	if len(rec.writes) != 3 {
		t.Fatalf("Expected 3 writes, got %d", len(rec.writes))
	}
	var joined []byte
	for i, w := range rec.writes {
		if len(w) > MaxWrite {
			t.Errorf("Write %d is %d bytes, max %d", i, len(w), MaxWrite)
		}
		joined = append(joined, w...)
	}
	if string(joined) != line+"\n" {
		t.Errorf("Reassembled line mismatch: %q", joined)
	}
	if rec.addrs[0] != uint16(core.DefaultTWIAddress) {
		t.Errorf("Expected default address %d, got %d", core.DefaultTWIAddress, rec.addrs[0])
	}
}

func TestSendLineRejectsCommands(t *testing.T) {
	rec := &recorder{}
	link := New(rec, 8)

	if err := link.SendLine("G1 X1 ?"); err != ErrReservedByte {
		t.Errorf("Expected ErrReservedByte, got %v", err)
	}
	if len(rec.writes) != 0 {
		t.Errorf("Nothing should be sent, got %d writes", len(rec.writes))
	}
}

func TestSendLineError(t *testing.T) {
	busErr := errors.New("bus down")
	link := New(&recorder{err: busErr}, 8)

	err := link.SendLine("G0")
	if !errors.Is(err, busErr) {
		t.Errorf("Expected wrapped bus error, got %v", err)
	}
}

func TestSendLinePartialFailure(t *testing.T) {
	busErr := errors.New("NACK")
	rec := &recorder{err: busErr, failAt: 2}
	link := New(rec, 8)

	err := link.SendLine(strings.Repeat("Y", 40))
	if !errors.Is(err, busErr) || !errors.Is(err, ErrPartialLine) {
		t.Errorf("Expected bus error marked as partial line, got %v", err)
	}
	if len(rec.writes) != 1 || len(rec.writes[0]) != MaxWrite {
		t.Errorf("Expected the first chunk delivered, got %d writes", len(rec.writes))
	}

	// A failure on the first chunk delivered nothing
	rec = &recorder{err: busErr, failAt: 1}
	link = New(rec, 8)
	if err := link.SendLine("G0"); errors.Is(err, ErrPartialLine) {
		t.Errorf("First chunk failure is not partial, got %v", err)
	}
}

func TestRealtime(t *testing.T) {
	rec := &recorder{}
	link := New(rec, 8)

	if err := link.Realtime('G'); err != ErrNotCommand {
		t.Errorf("Expected ErrNotCommand, got %v", err)
	}

	for _, send := range []func() error{link.FeedHold, link.CycleStart, link.StatusReport, link.Reset} {
		if err := send(); err != nil {
			t.Fatalf("Realtime send failed: %v", err)
		}
	}
	want := []byte{core.CmdFeedHold, core.CmdCycleStart, core.CmdStatusReport, core.CmdReset}
	for i, w := range rec.writes {
		if len(w) != 1 || w[0] != want[i] {
			t.Errorf("Write %d: expected [0x%02X], got %v", i, want[i], w)
		}
	}
}

func TestReplyLength(t *testing.T) {
	link := New(&recorder{}, 8)
	if _, err := link.ReadReply(0); err != ErrReplyLength {
		t.Errorf("Expected ErrReplyLength, got %v", err)
	}
	if _, err := link.QueryStatus(core.TWIBufferLength + 1); err != ErrReplyLength {
		t.Errorf("Expected ErrReplyLength, got %v", err)
	}
}

// End to end through the simulated bus
func TestLinkWithController(t *testing.T) {
	p := sim.NewPeripheral()
	c := core.NewController(p, nil)
	if err := c.Init(core.TWIConfig{Address: 0x10}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	link := New(sim.NewInitiator(c, p), 0x10)

	c.SetRequestHandler(func() []byte {
		if c.Executor().Take()&core.ExecStatusReport != 0 {
			return []byte("<Run>")
		}
		return nil
	})

	line := "G1 X10.5 Y20 F1200"
	if err := link.SendLine(line); err != nil {
		t.Fatalf("SendLine failed: %v", err)
	}

	// Reassemble as the firmware does: messages until the newline
	var got []byte
	buf := make([]byte, core.TWIBufferLength)
	for {
		n, ok := c.ReadMessage(buf)
		if !ok {
			break
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != line+"\n" {
		t.Errorf("Expected %q, got %q", line+"\n", got)
	}

	if err := link.FeedHold(); err != nil {
		t.Fatalf("FeedHold failed: %v", err)
	}
	if c.Executor().Pending()&core.ExecFeedHold == 0 {
		t.Error("Feed hold flag not raised")
	}

	status, err := link.QueryStatus(8)
	if err != nil {
		t.Fatalf("QueryStatus failed: %v", err)
	}
	if status != "<Run>" {
		t.Errorf("Expected \"<Run>\", got %q", status)
	}

	reply, err := link.ReadReply(2)
	if err != nil {
		t.Fatalf("ReadReply failed: %v", err)
	}
	if reply[0] != 0x00 {
		t.Errorf("Expected default reply, got %v", reply)
	}
}
