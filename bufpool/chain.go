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

package bufpool

// segment is one (buffer_id, offset, len) entry in a Chain.
type segment struct {
	id     ID
	offset int
	length int
}

// Chain is an ordered list of provided-buffer segments plus a cached total
// length.
type Chain struct {
	pool  *Pool
	segs  []segment
	total int
}

// NewChain builds an empty Chain backed by pool.
func NewChain(pool *Pool) *Chain {
	return &Chain{pool: pool}
}

// CommitProvidedBuffer appends a freshly completed read of length bytes
// into buffer id, as surfaced by a CQE carrying F_BUFFER.
func (c *Chain) CommitProvidedBuffer(id ID, length int) {
	if length <= 0 {
		return
	}
	c.segs = append(c.segs, segment{id: id, offset: 0, length: length})
	c.total += length
}

// AvailableRead returns the chain's cached total length.
func (c *Chain) AvailableRead() int { return c.total }

// ReadableSlice returns only the first contiguous segment; callers must
// loop (re-calling after Consume) to drain the whole chain.
func (c *Chain) ReadableSlice() []byte {
	if len(c.segs) == 0 {
		return nil
	}
	s := c.segs[0]
	buf, err := c.pool.GetBuffer(s.id)
	if err != nil {
		return nil
	}
	return buf[s.offset : s.offset+s.length]
}

// Consume advances past n bytes, releasing fully-consumed segments back to
// the pool.
func (c *Chain) Consume(n int) {
	for n > 0 && len(c.segs) > 0 {
		s := &c.segs[0]
		if n < s.length {
			s.offset += n
			s.length -= n
			c.total -= n
			n = 0
			break
		}

		n -= s.length
		c.total -= s.length
		_ = c.pool.Release(s.id)
		c.segs = c.segs[1:]
	}
}
