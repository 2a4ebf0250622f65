// SPDX-License-Identifier: MIT
package bus

import (
	"sync"
	"testing"
)

func TestTelemetryLastWriteWins(t *testing.T) {
	var tel Telemetry

	tel.Publish(1, 512)
	tel.Publish(1, 1024)
	tel.Publish(2, 0)

	session, pos := tel.Snapshot()
	if session != 2 || pos != 0 {
		t.Errorf("Snapshot() = (%d, %d), want (2, 0)", session, pos)
	}
}

// TestTelemetryMonotonicReader checks a reader never observes the position
// going backwards while a single writer advances it.
func TestTelemetryMonotonicReader(t *testing.T) {
	var tel Telemetry
	const steps = 50000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(1); i <= steps; i++ {
			tel.Publish(1, i*256)
		}
	}()

	var last int64
	for last < steps*256 {
		pos := tel.Position()
		if pos < last {
			t.Fatalf("position went backwards: %d after %d", pos, last)
		}
		last = pos
	}
	wg.Wait()
}

func TestTelemetryZeroAllocs(t *testing.T) {
	var tel Telemetry
	allocs := testing.AllocsPerRun(100, func() {
		tel.Publish(3, 4096)
		_, _ = tel.Snapshot()
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in telemetry publish, got %.1f", allocs)
	}
}
