/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package ring implements the fixed-capacity single-producer/single-consumer
// byte ring used for every plaintext stream direction in
// the exec session's backends.
package ring

// Buffer is a fixed-capacity SPSC byte ring. The producer calls
// WritableSlice/CommitWrite, the consumer calls ReadableSlice/Consume. Both
// sides update the shared count field without synchronization, so a Buffer
// is not safe for use from two goroutines at once; the backends drive the
// producer and consumer side from one loop.
type Buffer struct {
	buf   []byte
	head  int // next byte to read
	tail  int // next byte to write
	count int // bytes currently held
}

// New allocates a Buffer with the given capacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{buf: make([]byte, capacity)}
}

// Capacity returns the ring's fixed size.
func (b *Buffer) Capacity() int { return len(b.buf) }

// AvailableRead returns the number of bytes ready to be consumed.
func (b *Buffer) AvailableRead() int { return b.count }

// AvailableWrite returns the number of bytes the ring can still accept.
func (b *Buffer) AvailableWrite() int { return len(b.buf) - b.count }

// WritableSlice returns the largest contiguous region the producer may
// write into. The region never wraps: it ends at the end of the backing
// array or at head. Callers that need to write more than this length must
// call CommitWrite and request again.
func (b *Buffer) WritableSlice() []byte {
	if b.AvailableWrite() == 0 {
		return nil
	}

	if b.tail >= b.head || b.count == 0 {
		// Free space runs from tail to the end of the array; free space
		// at the start of the array is returned by a later call.
		end := len(b.buf)
		if b.count == 0 {
			return b.buf[b.tail:end]
		}
		if b.head == 0 {
			return b.buf[b.tail:end]
		}
		return b.buf[b.tail:end]
	}

	// tail < head: free space is the single contiguous gap [tail, head).
	return b.buf[b.tail:b.head]
}

// CommitWrite advances the producer index by n bytes previously written
// into the slice returned by WritableSlice.
func (b *Buffer) CommitWrite(n int) {
	if n <= 0 {
		return
	}
	if n > b.AvailableWrite() {
		n = b.AvailableWrite()
	}
	b.tail = (b.tail + n) % len(b.buf)
	b.count += n
}

// ReadableSlice returns the largest contiguous region the consumer may read
// from. Callers must loop (re-calling after Consume) to drain data that
// wraps around the backing array.
func (b *Buffer) ReadableSlice() []byte {
	if b.count == 0 {
		return nil
	}

	if b.head < b.tail {
		return b.buf[b.head:b.tail]
	}

	// head >= tail: readable region runs from head to the end of the array.
	return b.buf[b.head:len(b.buf)]
}

// Consume advances the consumer index by n bytes previously read from the
// slice returned by ReadableSlice.
func (b *Buffer) Consume(n int) {
	if n <= 0 {
		return
	}
	if n > b.count {
		n = b.count
	}
	b.head = (b.head + n) % len(b.buf)
	b.count -= n
}

// Reset empties the ring without zeroing the backing array.
func (b *Buffer) Reset() {
	b.head = 0
	b.tail = 0
	b.count = 0
}
