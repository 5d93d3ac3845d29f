package bufpool

import (
	"testing"

	liberr "github.com/nabbar/natcore/errors"
)

func TestAcquireReleaseRestoresCapacity(t *testing.T) {
	p := New(GroupStdin, 4, 1024)

	ids := make([]ID, 0, 4)
	for i := 0; i < 4; i++ {
		id, err := p.Acquire()
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	if _, err := p.Acquire(); liberr.CodeOf(err) != liberr.CodePoolExhausted {
		t.Fatalf("expected PoolExhausted, got %v", err)
	}

	for _, id := range ids {
		if err := p.Release(id); err != nil {
			t.Fatalf("release %d: %v", id, err)
		}
	}

	if got := len(p.AvailableIDs()); got != 4 {
		t.Fatalf("pool not fully restored, free=%d", got)
	}
}

func TestDoubleReleaseIsDetected(t *testing.T) {
	p := New(GroupStdout, 2, 64)

	id, _ := p.Acquire()
	if err := p.Release(id); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := p.Release(id); liberr.CodeOf(err) != liberr.CodeBufferAlreadyFree {
		t.Fatalf("expected BufferAlreadyFree, got %v", err)
	}
}

func TestChainConsumeReleasesSegments(t *testing.T) {
	p := New(GroupStderr, 2, 16)
	id0, _ := p.Acquire()
	id1, _ := p.Acquire()

	buf0, _ := p.GetBuffer(id0)
	copy(buf0, []byte("hello "))
	buf1, _ := p.GetBuffer(id1)
	copy(buf1, []byte("world!"))

	c := NewChain(p)
	c.CommitProvidedBuffer(id0, 6)
	c.CommitProvidedBuffer(id1, 6)

	if c.AvailableRead() != 12 {
		t.Fatalf("want 12 bytes available, got %d", c.AvailableRead())
	}

	var out []byte
	for c.AvailableRead() > 0 {
		s := c.ReadableSlice()
		out = append(out, s...)
		c.Consume(len(s))
	}

	if string(out) != "hello world!" {
		t.Fatalf("got %q", out)
	}
	if len(p.AvailableIDs()) != 2 {
		t.Fatalf("expected both buffers released, free=%d", len(p.AvailableIDs()))
	}
}
