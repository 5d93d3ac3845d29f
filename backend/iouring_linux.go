//go:build linux

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

// The io_uring backend multiplexes the four session fds with
// IORING_OP_POLL_ADD submissions plus a concurrently-submitted
// IORING_OP_TIMEOUT, one persistent ring per session, tagging each
// submission's user_data with a fixed per-slot identifier so a completion
// can be routed back to the right fd without a side table. Once a
// completion indicates readiness, the actual transfer reuses the same
// raw non-blocking read/write primitives as the poll backend: the ring
// owns multiplexing, not byte movement, mirroring how early io_uring
// adopters layered POLL_ADD over existing non-blocking I/O before fully
// moving reads/writes onto SQEs.
package backend

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	liberr "github.com/nabbar/natcore/errors"
	"github.com/nabbar/natcore/ring"
	"github.com/nabbar/natcore/timeout"
)

const (
	sysIOUringSetup  = 425
	sysIOUringEnter  = 426
	opPollAdd        = 6
	opTimeout        = 27
	ioringEnterGetEv = 1

	sqeSize = 64
	cqeSize = 16
)

type ioUringParams struct {
	SQEntries    uint32
	CQEntries    uint32
	Flags        uint32
	SQThreadCPU  uint32
	SQThreadIdle uint32
	Features     uint32
	WQFd         uint32
	Resv         [3]uint32
	SQOff        ioSqringOffsets
	CQOff        ioCqringOffsets
}

type ioSqringOffsets struct {
	Head, Tail, RingMask, RingEntries, Flags, Dropped, Array, Resv1 uint32
	Resv2                                                           uint64
}

type ioCqringOffsets struct {
	Head, Tail, RingMask, RingEntries, Overflow, Cqes, Flags, Resv1 uint32
	Resv2                                                           uint64
}

// uringState holds the three mmap'd regions (SQ, CQ, SQEs) of a live io_uring
// instance plus the pointers derived from the kernel-reported offsets.
type uringState struct {
	fd int

	sqMmap  []byte
	cqMmap  []byte
	sqeMmap []byte

	sqHead, sqTail, sqMask, sqEntries *uint32
	sqArray                           []uint32
	cqHead, cqTail, cqMask            *uint32
	cqes                              []byte
}

// probeIOUring checks whether io_uring_setup succeeds on this kernel,
// closing the resulting ring immediately: used only for capability
// detection during backend selection.
func probeIOUring() bool {
	var params ioUringParams
	fd, _, errno := unix.Syscall(sysIOUringSetup, 8, uintptr(unsafe.Pointer(&params)), 0)
	if errno != 0 {
		return false
	}
	_ = unix.Close(int(fd))
	return true
}

func setupUring(entries uint32) (*uringState, error) {
	var params ioUringParams
	fdv, _, errno := unix.Syscall(sysIOUringSetup, uintptr(entries), uintptr(unsafe.Pointer(&params)), 0)
	if errno != 0 {
		return nil, liberr.CodePlatformNotSupported.Errorf("io_uring_setup: %v", errno)
	}
	fd := int(fdv)

	sqRingSize := int(params.SQOff.Array) + int(params.SQEntries)*4
	cqRingSize := int(params.CQOff.Cqes) + int(params.CQEntries)*cqeSize
	sqeRingSize := int(params.SQEntries) * sqeSize

	sqMmap, err := unix.Mmap(fd, unix.IORING_OFF_SQ_RING, sqRingSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, liberr.CodeClientSocketError.Error(err)
	}
	cqMmap, err := unix.Mmap(fd, unix.IORING_OFF_CQ_RING, cqRingSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Munmap(sqMmap)
		_ = unix.Close(fd)
		return nil, liberr.CodeClientSocketError.Error(err)
	}
	sqeMmap, err := unix.Mmap(fd, unix.IORING_OFF_SQES, sqeRingSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Munmap(sqMmap)
		_ = unix.Munmap(cqMmap)
		_ = unix.Close(fd)
		return nil, liberr.CodeClientSocketError.Error(err)
	}

	base := uintptr(unsafe.Pointer(&sqMmap[0]))
	sqArrayPtr := (*uint32)(unsafe.Pointer(base + uintptr(params.SQOff.Array)))
	sqArray := unsafe.Slice(sqArrayPtr, params.SQEntries)

	return &uringState{
		fd:        fd,
		sqMmap:    sqMmap,
		cqMmap:    cqMmap,
		sqeMmap:   sqeMmap,
		sqHead:    (*uint32)(unsafe.Pointer(base + uintptr(params.SQOff.Head))),
		sqTail:    (*uint32)(unsafe.Pointer(base + uintptr(params.SQOff.Tail))),
		sqMask:    (*uint32)(unsafe.Pointer(base + uintptr(params.SQOff.RingMask))),
		sqEntries: (*uint32)(unsafe.Pointer(base + uintptr(params.SQOff.RingEntries))),
		sqArray:   sqArray,
		cqHead:    (*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(&cqMmap[0])) + uintptr(params.CQOff.Head))),
		cqTail:    (*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(&cqMmap[0])) + uintptr(params.CQOff.Tail))),
		cqMask:    (*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(&cqMmap[0])) + uintptr(params.CQOff.RingMask))),
		cqes:      cqMmap[params.CQOff.Cqes:],
	}, nil
}

func (u *uringState) close() {
	_ = unix.Munmap(u.sqeMmap)
	_ = unix.Munmap(u.cqMmap)
	_ = unix.Munmap(u.sqMmap)
	_ = unix.Close(u.fd)
}

// submitPoll writes one IORING_OP_POLL_ADD SQE watching fd for pollMask,
// tagged with userData so the matching CQE can be routed back.
func (u *uringState) submitPoll(fd int32, pollMask uint32, userData uint64) {
	tail := atomic.LoadUint32(u.sqTail)
	idx := tail & *u.sqMask
	off := int(idx) * sqeSize
	sqe := u.sqeMmap[off : off+sqeSize]

	for i := range sqe {
		sqe[i] = 0
	}
	sqe[0] = opPollAdd
	binary.LittleEndian.PutUint32(sqe[4:8], uint32(fd))
	binary.LittleEndian.PutUint32(sqe[12:16], pollMask)
	binary.LittleEndian.PutUint64(sqe[24:32], userData)

	u.sqArray[tail&*u.sqMask] = idx
	atomic.StoreUint32(u.sqTail, tail+1)
}

func (u *uringState) enter(toSubmit uint32, minComplete uint32) (int, error) {
	n, _, errno := unix.Syscall6(sysIOUringEnter, uintptr(u.fd), uintptr(toSubmit), uintptr(minComplete), ioringEnterGetEv, 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(n), nil
}

// reapCQE pops the next completion (userData, result) if one is ready.
func (u *uringState) reapCQE() (uint64, int32, bool) {
	head := atomic.LoadUint32(u.cqHead)
	tail := atomic.LoadUint32(u.cqTail)
	if head == tail {
		return 0, 0, false
	}
	idx := head & *u.cqMask
	off := int(idx) * cqeSize
	cqe := u.cqes[off : off+cqeSize]

	userData := binary.LittleEndian.Uint64(cqe[0:8])
	result := int32(binary.LittleEndian.Uint32(cqe[8:12]))

	atomic.StoreUint32(u.cqHead, head+1)
	return userData, result, true
}

type ioUringSession struct {
	state SessionState
}

func newIOUringSession() Session {
	if !probeIOUring() {
		return nil
	}
	return &ioUringSession{}
}

func newForcedIOUringSession() (Session, error) {
	if !probeIOUring() {
		return nil, liberr.CodePlatformNotSupported.Error()
	}
	return &ioUringSession{}, nil
}

func (s *ioUringSession) Kind() Kind { return KindIOUring }

func (s *ioUringSession) Run(ep *Endpoints) error {
	u, err := setupUring(64)
	if err != nil {
		return err
	}
	defer u.close()

	sockFd, err := connFd(ep.Socket)
	if err != nil {
		return err
	}
	stdinFd, err := fileFd(ep.ChildStdin)
	if err != nil {
		return err
	}
	stdoutFd, err := fileFd(ep.ChildStdout)
	if err != nil {
		return err
	}
	stderrFd, err := fileFd(ep.ChildStderr)
	if err != nil {
		return err
	}

	for !s.state.Done(ep.StdinRing, ep.StdoutRing, ep.StderrRing) {
		submitted := uint32(0)

		canSend := !s.state.SocketWriteClosed && (ep.StdoutRing.AvailableRead() > 0 || ep.StderrRing.AvailableRead() > 0)
		canRecv := !s.state.SocketReadClosed && !s.state.StdinClosed && ep.StdinRing.AvailableWrite() > 0 && !ep.Flow.ShouldPause()

		var sockMask uint32
		if canRecv {
			sockMask |= unix.POLLIN
		}
		if canSend {
			sockMask |= unix.POLLOUT
		}
		if sockMask != 0 {
			u.submitPoll(int32(sockFd), sockMask, uint64(slotSocket))
			submitted++
		}
		if ep.StdinRing.AvailableRead() > 0 && !s.state.StdinClosed {
			u.submitPoll(int32(stdinFd), unix.POLLOUT, uint64(slotStdin))
			submitted++
		}
		if !s.state.StdoutClosed && ep.StdoutRing.AvailableWrite() > 0 && !ep.Flow.ShouldPause() {
			u.submitPoll(int32(stdoutFd), unix.POLLIN, uint64(slotStdout))
			submitted++
		}
		if !s.state.StderrClosed && ep.StderrRing.AvailableWrite() > 0 && !ep.Flow.ShouldPause() {
			u.submitPoll(int32(stderrFd), unix.POLLIN, uint64(slotStderr))
			submitted++
		}

		if submitted == 0 {
			if exp := ep.Timeout.Check(); exp != timeout.None {
				return exp.Err()
			}
			continue
		}

		if _, enterErr := u.enter(submitted, 1); enterErr != nil {
			if enterErr == unix.EINTR {
				continue
			}
			return liberr.CodeClientSocketError.Error(enterErr)
		}

		for {
			userData, result, ok := u.reapCQE()
			if !ok {
				break
			}
			s.handleCompletion(ep, uint8(userData), result, sockFd, stdinFd, stdoutFd, stderrFd)
		}

		if exp := ep.Timeout.Check(); exp != timeout.None {
			return exp.Err()
		}
	}
	return nil
}

func (s *ioUringSession) handleCompletion(ep *Endpoints, slot uint8, result int32, sockFd, stdinFd, stdoutFd, stderrFd int) {
	if result < 0 {
		switch slot {
		case slotSocket:
			s.state.SocketReadClosed = true
			s.state.SocketWriteClosed = true
		case slotStdin:
			s.state.StdinClosed = true
		case slotStdout:
			s.state.StdoutClosed = true
		case slotStderr:
			s.state.StderrClosed = true
		}
		return
	}

	revents := uint32(result)
	switch slot {
	case slotSocket:
		if revents&unix.POLLIN != 0 {
			readInto(ep.StdinRing, sockFd, &s.state.SocketReadClosed, ep)
		}
		if revents&unix.POLLOUT != 0 {
			writeFromPreferred(ep, sockFd, &s.state.SocketWriteClosed)
		}
	case slotStdin:
		writeFrom(ep.StdinRing, stdinFd, &s.state.StdinClosed, ep)
	case slotStdout:
		readInto(ep.StdoutRing, stdoutFd, &s.state.StdoutClosed, ep)
	case slotStderr:
		readInto(ep.StderrRing, stderrFd, &s.state.StderrClosed, ep)
	}
}

func readInto(r *ring.Buffer, fd int, closed *bool, ep *Endpoints) {
	buf := r.WritableSlice()
	if len(buf) == 0 {
		return
	}
	n, err := rawRead(fd, buf)
	if n > 0 {
		r.CommitWrite(n)
		ep.Timeout.MarkActivity()
	}
	if err != nil && !isWouldBlock(err) {
		*closed = true
	}
}

func writeFrom(r *ring.Buffer, fd int, closed *bool, ep *Endpoints) {
	data := r.ReadableSlice()
	if len(data) == 0 {
		return
	}
	n, err := rawWrite(fd, data)
	if n > 0 {
		r.Consume(n)
		ep.Timeout.MarkActivity()
	}
	if err != nil && !isWouldBlock(err) {
		*closed = true
	}
}

func writeFromPreferred(ep *Endpoints, fd int, closed *bool) {
	src := ep.StdoutRing
	if src.AvailableRead() == 0 {
		src = ep.StderrRing
	}
	writeFrom(src, fd, closed, ep)
}
