package ring

import (
	"math/rand"
	"testing"
)

func TestRoundTripIdentity(t *testing.T) {
	b := New(64)

	for round := 0; round < 200; round++ {
		n := 1 + round%63
		w := b.WritableSlice()
		if len(w) == 0 {
			t.Fatalf("round %d: expected writable space on empty ring", round)
		}
		if n > len(w) {
			n = len(w)
		}
		b.CommitWrite(n)

		r := b.ReadableSlice()
		if len(r) < n {
			// ring wraps; drain in two reads.
			b.Consume(len(r))
			r2 := b.ReadableSlice()
			b.Consume(len(r2))
		} else {
			b.Consume(n)
		}

		if b.AvailableRead() != 0 {
			t.Fatalf("round %d: ring not drained, AvailableRead=%d", round, b.AvailableRead())
		}
		if b.AvailableWrite() != b.Capacity() {
			t.Fatalf("round %d: AvailableWrite=%d want %d", round, b.AvailableWrite(), b.Capacity())
		}
	}
}

func TestInvariantNeverExceedsCapacity(t *testing.T) {
	cap := 32
	b := New(cap)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 5000; i++ {
		if rng.Intn(2) == 0 {
			w := b.WritableSlice()
			if len(w) > 0 {
				n := 1 + rng.Intn(len(w))
				b.CommitWrite(n)
			}
		} else {
			r := b.ReadableSlice()
			if len(r) > 0 {
				n := 1 + rng.Intn(len(r))
				b.Consume(n)
			}
		}

		if b.AvailableRead()+b.AvailableWrite() != cap {
			t.Fatalf("invariant broken at step %d: read=%d write=%d cap=%d",
				i, b.AvailableRead(), b.AvailableWrite(), cap)
		}
	}
}

func TestByteOrderPreserved(t *testing.T) {
	b := New(8)
	in := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	out := make([]byte, 0, len(in))

	i := 0
	for len(out) < len(in) {
		if i < len(in) {
			w := b.WritableSlice()
			if len(w) > 0 {
				n := copy(w, in[i:])
				b.CommitWrite(n)
				i += n
			}
		}
		r := b.ReadableSlice()
		if len(r) > 0 {
			out = append(out, r...)
			b.Consume(len(r))
		}
	}

	for idx := range in {
		if out[idx] != in[idx] {
			t.Fatalf("byte order broken at %d: got %d want %d", idx, out[idx], in[idx])
		}
	}
}
