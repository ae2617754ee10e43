package detect

import (
	"testing"
	"time"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return base.Add(time.Duration(seconds * float64(time.Second)))
}

func TestDoublePressFiresOnce(t *testing.T) {
	// Three presses at t=0, 0.1, 0.3 with a 0.5s window and count 2:
	// fires at 0.1, and the press at 0.3 alone must not fire again.
	d := New(500*time.Millisecond, 0, 2, nil)

	if d.Press(at(0)) {
		t.Fatal("first press should not fire")
	}
	if !d.Press(at(0.1)) {
		t.Fatal("second press within window should fire")
	}
	if d.Press(at(0.3)) {
		t.Fatal("single press after firing should not fire")
	}
}

func TestPressOutsideWindowRestartsSequence(t *testing.T) {
	d := New(250*time.Millisecond, 0, 2, nil)

	if d.Press(at(0)) {
		t.Fatal("first press should not fire")
	}
	if d.Press(at(1.0)) {
		t.Fatal("press outside window should restart, not fire")
	}
	if !d.Press(at(1.2)) {
		t.Fatal("second press of fresh sequence should fire")
	}
}

func TestWindowBoundaryInclusive(t *testing.T) {
	d := New(250*time.Millisecond, 0, 2, nil)

	d.Press(at(0))
	if !d.Press(at(0.25)) {
		t.Fatal("press exactly on window boundary should count as inside")
	}
}

func TestBurstFiresExactlyOnce(t *testing.T) {
	d := New(500*time.Millisecond, 150*time.Millisecond, 2, nil)

	fires := 0
	for _, ts := range []float64{0, 0.05, 0.10, 0.15} {
		if d.Press(at(ts)) {
			fires++
		}
	}
	if fires != 1 {
		t.Fatalf("fires = %d, want 1", fires)
	}
}

func TestMinRetriggerSuppression(t *testing.T) {
	d := New(500*time.Millisecond, 150*time.Millisecond, 2, nil)

	d.Press(at(0))
	if !d.Press(at(0.05)) {
		t.Fatal("first sequence should fire")
	}
	d.Press(at(0.10))
	if d.Press(at(0.15)) {
		t.Fatal("retrigger within min interval should be suppressed")
	}
	d.Press(at(0.40))
	if !d.Press(at(0.45)) {
		t.Fatal("retrigger after min interval should fire")
	}
}

func TestSinglePressCount(t *testing.T) {
	d := New(250*time.Millisecond, 0, 1, nil)

	if !d.Press(at(0)) {
		t.Fatal("count 1 should fire on every press")
	}
	if !d.Press(at(0.01)) {
		t.Fatal("count 1 should fire on every press")
	}
}

func TestReset(t *testing.T) {
	d := New(500*time.Millisecond, 0, 2, nil)

	d.Press(at(0))
	d.Reset()
	if d.Press(at(0.05)) {
		t.Fatal("press after reset should start a fresh sequence")
	}
	if !d.Press(at(0.10)) {
		t.Fatal("second press after reset should fire")
	}
}

func TestLastFire(t *testing.T) {
	d := New(500*time.Millisecond, 0, 2, nil)

	if !d.LastFire().IsZero() {
		t.Fatal("LastFire should be zero before any trigger")
	}
	d.Press(at(0))
	d.Press(at(0.1))
	if got := d.LastFire(); !got.Equal(at(0.1)) {
		t.Fatalf("LastFire = %v, want %v", got, at(0.1))
	}
}
