package core

import "testing"

func TestRingBufferFull(t *testing.T) {
	const capacity = 8
	rb := NewRingBuffer[byte](capacity)

	if rb.Cap() != capacity-1 {
		t.Errorf("Expected usable capacity %d, got %d", capacity-1, rb.Cap())
	}

	for i := 0; i < capacity-1; i++ {
		if !rb.Push(byte(i + 1)) {
			t.Fatalf("Push %d refused before buffer was full", i)
		}
	}
	if !rb.Full() {
		t.Error("Expected buffer to report full")
	}
	if rb.Push(0xEE) {
		t.Error("Push into full buffer should be refused")
	}
	if rb.Free() != 0 {
		t.Errorf("Expected 0 free, got %d", rb.Free())
	}

	for i := 0; i < capacity-1; i++ {
		v, ok := rb.Pop()
		if !ok || v != byte(i+1) {
			t.Fatalf("Pop %d: expected %d, got %d ok=%v", i, i+1, v, ok)
		}
	}
	if _, ok := rb.Pop(); ok {
		t.Error("Expected empty buffer")
	}
}

func TestRingBufferWrap(t *testing.T) {
	rb := NewRingBuffer[byte](4)

	// Cycle several times around the backing array
	next := byte(0)
	want := byte(0)
	for round := 0; round < 10; round++ {
		for rb.Push(next) {
			next++
		}
		for {
			v, ok := rb.Pop()
			if !ok {
				break
			}
			if v != want {
				t.Fatalf("Round %d: expected %d, got %d", round, want, v)
			}
			want++
		}
	}
	if want != next {
		t.Errorf("Lost data: pushed %d, popped %d", next, want)
	}
}

func TestRingBufferResetReadCursor(t *testing.T) {
	rb := NewRingBuffer[byte](16)
	msg := []byte("G0 X10")
	for _, b := range msg {
		rb.Push(b)
	}

	drain := func() []byte {
		var out []byte
		for rb.Len() > 0 {
			v, _ := rb.Pop()
			out = append(out, v)
		}
		return out
	}

	first := drain()
	rb.ResetReadCursor()
	second := drain()

	if string(first) != string(msg) || string(second) != string(msg) {
		t.Errorf("Replay mismatch: first=%q second=%q", first, second)
	}
	if rb.Len() != 0 {
		t.Errorf("Expected nothing left after replay, got %d", rb.Len())
	}
}

func TestRingBufferUncommittedNotOverwritten(t *testing.T) {
	rb := NewRingBuffer[byte](4)
	rb.Push(1)
	rb.Push(2)
	rb.Push(3)

	rb.Pop()
	rb.Pop()

	// Popped but uncommitted slots are still reserved
	if rb.Push(4) {
		t.Fatal("Push should not reuse uncommitted slots")
	}

	rb.Commit()
	if !rb.Push(4) || !rb.Push(5) {
		t.Fatal("Push should succeed after Commit")
	}

	rb.ResetReadCursor()
	for _, want := range []byte{3, 4, 5} {
		if v, ok := rb.Pop(); !ok || v != want {
			t.Errorf("Expected %d, got %d ok=%v", want, v, ok)
		}
	}
}

func TestRingBufferPopEmptyCommits(t *testing.T) {
	rb := NewRingBuffer[byte](3)
	rb.Push(1)
	rb.Push(2)
	rb.Pop()
	rb.Pop()

	if _, ok := rb.Pop(); ok {
		t.Fatal("Expected empty")
	}
	if rb.Free() != rb.Cap() {
		t.Errorf("Expected all %d slots free after draining, got %d", rb.Cap(), rb.Free())
	}

	rb.ResetReadCursor()
	if !rb.Empty() {
		t.Error("Drained data must not be replayed")
	}
}

func TestRingBufferPeekAndClear(t *testing.T) {
	rb := NewRingBuffer[byte](4)
	if _, ok := rb.Peek(); ok {
		t.Error("Peek on empty buffer should fail")
	}

	rb.Push(7)
	if v, ok := rb.Peek(); !ok || v != 7 {
		t.Errorf("Expected Peek 7, got %d ok=%v", v, ok)
	}
	if rb.Len() != 1 {
		t.Errorf("Peek must not consume, Len=%d", rb.Len())
	}

	rb.Clear()
	if !rb.Empty() || rb.Free() != rb.Cap() {
		t.Errorf("Expected empty buffer after Clear, Len=%d Free=%d", rb.Len(), rb.Free())
	}
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	rb := NewRingBuffer[int](0)
	if rb.Cap() != 1 {
		t.Errorf("Expected capacity 1, got %d", rb.Cap())
	}
	if !rb.Push(42) || rb.Push(43) {
		t.Error("Expected exactly one slot")
	}
}
