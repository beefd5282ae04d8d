package logger

import (
	"errors"
	"testing"
	"time"
)

func TestStatus(t *testing.T) {
	if got := Status(nil); got != "ok" {
		t.Errorf("Status(nil) = %q, want ok", got)
	}
	if got := Status(errors.New("boom")); got != "error" {
		t.Errorf("Status(err) = %q, want error", got)
	}
}

func TestTookRoundsToMillis(t *testing.T) {
	start := time.Now().Add(-1500*time.Millisecond - 300*time.Microsecond)
	got := Took(start)
	if got%time.Millisecond != 0 {
		t.Errorf("Took = %v, want millisecond granularity", got)
	}
	if got < 1500*time.Millisecond || got > 2*time.Second {
		t.Errorf("Took = %v, want about 1.5s", got)
	}
}

func TestRoundMS(t *testing.T) {
	if got := RoundMS(-time.Second); got != 0 {
		t.Errorf("RoundMS(negative) = %v, want 0", got)
	}
	if got := RoundMS(1499600 * time.Microsecond); got != 1500*time.Millisecond {
		t.Errorf("RoundMS = %v, want 1.5s", got)
	}
}
