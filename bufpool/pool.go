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

// Package bufpool implements the fixed buffer pool, buffer chain and
// provided-stream façade the io_uring-with-provided-buffers backend
// uses instead of owning a destination slice per read.
package bufpool

import (
	"sync"

	liberr "github.com/nabbar/natcore/errors"
)

const (
	// DefaultCount is the number of buffers per pool.
	DefaultCount = 16
	// DefaultSize is the size of each buffer in bytes.
	DefaultSize = 8 * 1024
)

// BufferGroup identifies which direction a pool serves (tagged by a
// buffer group ID that the kernel uses to pick a buffer for a read").
type BufferGroup uint16

const (
	GroupStdin  BufferGroup = 0
	GroupStdout BufferGroup = 1
	GroupStderr BufferGroup = 2
)

// ID is a 16-bit handle into a Pool's backing allocation.
type ID uint16

// Pool is a single contiguous allocation of count*size bytes addressed by a
// 16-bit ID, with a free list of IDs.
type Pool struct {
	mu    sync.Mutex
	group BufferGroup
	size  int
	data  []byte
	free  []ID
	owned []bool // owned[i] true while buffer i is checked out
}

// New allocates a Pool of count buffers of size bytes each, tagged group.
func New(group BufferGroup, count, size int) *Pool {
	if count <= 0 {
		count = DefaultCount
	}
	if size <= 0 {
		size = DefaultSize
	}

	p := &Pool{
		group: group,
		size:  size,
		data:  make([]byte, count*size),
		free:  make([]ID, count),
		owned: make([]bool, count),
	}
	for i := 0; i < count; i++ {
		p.free[i] = ID(i)
	}
	return p
}

// Group returns the buffer group ID this pool is registered under.
func (p *Pool) Group() BufferGroup { return p.group }

// Count returns the total number of buffers (free and checked out).
func (p *Pool) Count() int { return len(p.owned) }

// Acquire removes and returns the next free ID, or CodePoolExhausted.
func (p *Pool) Acquire() (ID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return 0, liberr.CodePoolExhausted.Error()
	}

	n := len(p.free) - 1
	id := p.free[n]
	p.free = p.free[:n]
	p.owned[id] = true
	return id, nil
}

// Release returns id to the free list. Releasing an already-free or
// out-of-range id is a detectable programming error.
func (p *Pool) Release(id ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if int(id) < 0 || int(id) >= len(p.owned) {
		return liberr.CodeInvalidBufferId.Error()
	}
	if !p.owned[id] {
		return liberr.CodeBufferAlreadyFree.Error()
	}

	p.owned[id] = false
	p.free = append(p.free, id)
	return nil
}

// GetBuffer returns the backing slice for id, regardless of whether it is
// currently checked out (callers must already hold ownership of id).
func (p *Pool) GetBuffer(id ID) ([]byte, error) {
	if int(id) < 0 || int(id) >= len(p.owned) {
		return nil, liberr.CodeInvalidBufferId.Error()
	}
	off := int(id) * p.size
	return p.data[off : off+p.size], nil
}

// AvailableIDs returns the IDs currently free, for resubmitting
// IORING_OP_PROVIDE_BUFFERS after consumption frees capacity.
func (p *Pool) AvailableIDs() []ID {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]ID, len(p.free))
	copy(out, p.free)
	return out
}
