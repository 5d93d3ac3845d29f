package flow

import "testing"

func TestHysteresis(t *testing.T) {
	s := New(0.8, 0.5, 1000)

	if s.ShouldPause() {
		t.Fatal("must not start paused")
	}

	_ = s.Observe(900)
	if !s.ShouldPause() {
		t.Fatal("expected pause at 900 >= 800 threshold")
	}

	// Between resume and pause thresholds, hysteresis keeps it paused.
	_ = s.Observe(700)
	if !s.ShouldPause() {
		t.Fatal("expected to remain paused between thresholds (hysteresis)")
	}

	_ = s.Observe(400)
	if s.ShouldPause() {
		t.Fatal("expected resume at 400 <= 500 threshold")
	}
}

func TestDisabledWhenPercentZero(t *testing.T) {
	s := New(0, 0, 1000)
	if s.Enabled() {
		t.Fatal("zero percent must disable flow control")
	}
	_ = s.Observe(999999)
	if s.ShouldPause() {
		t.Fatal("disabled flow control must never pause")
	}
}

func TestExceedingMaxTotalTriggers(t *testing.T) {
	s := New(0.8, 0.5, 1000)
	if err := s.Observe(1001); err == nil {
		t.Fatal("expected FlowControlTriggered when exceeding max total")
	}
}

func TestResumeForcedBelowPause(t *testing.T) {
	// resumePercent equal to pausePercent must still produce resume < pause.
	s := New(0.5, 0.5, 100)
	if s.resumeThreshold >= s.pauseThreshold {
		t.Fatalf("resume (%d) must be strictly below pause (%d)", s.resumeThreshold, s.pauseThreshold)
	}
}
