package timeout

import (
	"testing"
	"time"
)

func TestIdleExpiry(t *testing.T) {
	fake := time.Unix(0, 0)
	tr := New(0, Duration(200*time.Millisecond), 0)
	tr.now = func() time.Time { return fake }
	tr.start = fake
	tr.lastActivity = fake

	if e := tr.Check(); e != None {
		t.Fatalf("expected None immediately, got %v", e)
	}

	fake = fake.Add(199 * time.Millisecond)
	if e := tr.Check(); e != None {
		t.Fatalf("expected None just before deadline, got %v", e)
	}

	fake = fake.Add(2 * time.Millisecond)
	if e := tr.Check(); e != Idle {
		t.Fatalf("expected Idle past deadline, got %v", e)
	}
}

func TestActivityResetsIdle(t *testing.T) {
	fake := time.Unix(0, 0)
	tr := New(0, Duration(100*time.Millisecond), 0)
	tr.now = func() time.Time { return fake }
	tr.start = fake
	tr.lastActivity = fake

	fake = fake.Add(90 * time.Millisecond)
	tr.MarkActivity()

	fake = fake.Add(90 * time.Millisecond)
	if e := tr.Check(); e != None {
		t.Fatalf("activity should have reset idle deadline, got %v", e)
	}
}

func TestCheckOrderExecutionBeforeIdle(t *testing.T) {
	fake := time.Unix(0, 0)
	tr := New(Duration(50*time.Millisecond), Duration(50*time.Millisecond), 0)
	tr.now = func() time.Time { return fake }
	tr.start = fake
	tr.lastActivity = fake

	fake = fake.Add(60 * time.Millisecond)
	if e := tr.Check(); e != Execution {
		t.Fatalf("execution must win over idle when both expired, got %v", e)
	}
}
