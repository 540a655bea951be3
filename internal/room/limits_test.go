// internal/room/limits_test.go
package room

import "testing"

func TestLimitsDefinedForSupportedCounts(t *testing.T) {
	for n := MinPlayers; n <= MaxPlayers; n++ {
		limits, ok := LimitsFor(n)
		if !ok {
			t.Fatalf("expected limits for %d players", n)
		}
		if limits.MinZombie > limits.MaxZombie {
			t.Errorf("players=%d: minZombie %d > maxZombie %d", n, limits.MinZombie, limits.MaxZombie)
		}
		if limits.MinMutant > limits.MaxMutant {
			t.Errorf("players=%d: minMutant %d > maxMutant %d", n, limits.MinMutant, limits.MaxMutant)
		}
		if limits.MinZombie < 0 || limits.MinMutant < 0 {
			t.Errorf("players=%d: negative lower bound", n)
		}
	}
}

func TestLimitsAbsentOutsideRange(t *testing.T) {
	for _, n := range []int{-1, 0, 1, 9, 100} {
		if _, ok := LimitsFor(n); ok {
			t.Errorf("expected no limits for %d players", n)
		}
	}
}
