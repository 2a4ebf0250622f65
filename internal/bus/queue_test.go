// SPDX-License-Identifier: MIT
package bus

import (
	"sync"
	"testing"
)

func TestQueueCapacityRounding(t *testing.T) {
	tests := []struct {
		requested int
		expected  int
	}{
		{1, 1},
		{3, 4},
		{1000, 1024},
		{1024, 1024},
	}

	for _, tt := range tests {
		q := NewQueue[Command](tt.requested)
		if q.Cap() != tt.expected {
			t.Errorf("NewQueue(%d).Cap() = %d, want %d", tt.requested, q.Cap(), tt.expected)
		}
	}
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[int](8)

	for i := range 5 {
		if !q.TryPush(i) {
			t.Fatalf("push %d rejected on non-full queue", i)
		}
	}
	if q.Len() != 5 {
		t.Errorf("Len() = %d, want 5", q.Len())
	}
	for i := range 5 {
		v, ok := q.TryPop()
		if !ok || v != i {
			t.Fatalf("TryPop() = (%d, %v), want (%d, true)", v, ok, i)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Error("TryPop() on empty queue should fail")
	}
}

func TestQueueOverflowPreservesAccepted(t *testing.T) {
	q := NewQueue[Command](4)
	cmds := []Command{PlayPause, GainUp, GainDown, Stop, Quit, PlayPause, GainUp}

	var accepted []Command
	for _, c := range cmds {
		if q.TryPush(c) {
			accepted = append(accepted, c)
		}
	}

	if len(accepted) != q.Cap() {
		t.Fatalf("accepted %d commands, want %d", len(accepted), q.Cap())
	}
	for i, want := range accepted {
		got, ok := q.TryPop()
		if !ok || got != want {
			t.Fatalf("entry %d = (%v, %v), want %v", i, got, ok, want)
		}
	}
}

func TestQueueWrapAround(t *testing.T) {
	q := NewQueue[int](4)
	next := 0
	for round := range 100 {
		for range 3 {
			if !q.TryPush(round*3 + next%3) {
				t.Fatalf("push rejected in round %d", round)
			}
			next++
		}
		for i := range 3 {
			v, ok := q.TryPop()
			if !ok || v != round*3+i {
				t.Fatalf("round %d: got (%d, %v), want %d", round, v, ok, round*3+i)
			}
		}
		next = 0
	}
}

// TestQueueConcurrentSPSC is meaningful under -race.
func TestQueueConcurrentSPSC(t *testing.T) {
	const total = 100000
	q := NewQueue[int](64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if q.TryPush(i) {
				i++
			}
		}
	}()

	expected := 0
	for expected < total {
		v, ok := q.TryPop()
		if !ok {
			continue
		}
		if v != expected {
			t.Fatalf("out of order: got %d, want %d", v, expected)
		}
		expected++
	}
	wg.Wait()
}

func TestQueueHotPath(t *testing.T) {
	q := NewQueue[Command](DefaultCapacity)

	allocs := testing.AllocsPerRun(100, func() {
		q.TryPush(GainUp)
		q.TryPop()
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in queue push/pop, got %.1f", allocs)
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd      Command
		expected string
	}{
		{PlayPause, "PLAY_PAUSE"},
		{Stop, "STOP"},
		{Quit, "QUIT"},
		{GainUp, "GAIN_UP"},
		{GainDown, "GAIN_DOWN"},
		{Command(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.expected {
			t.Errorf("Command(%d).String() = %q, want %q", tt.cmd, got, tt.expected)
		}
	}
}

func TestNewBusDefaults(t *testing.T) {
	b := New(0)
	if b.Commands.Cap() != DefaultCapacity {
		t.Errorf("default capacity = %d, want %d", b.Commands.Cap(), DefaultCapacity)
	}
	if b.Telemetry.Position() != 0 || b.Telemetry.Session() != 0 {
		t.Error("fresh telemetry should be zero")
	}
}

func BenchmarkQueuePushPop(b *testing.B) {
	q := NewQueue[Command](DefaultCapacity)
	b.ReportAllocs()
	for b.Loop() {
		q.TryPush(PlayPause)
		q.TryPop()
	}
}
