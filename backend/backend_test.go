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

package backend

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/nabbar/natcore/flow"
	"github.com/nabbar/natcore/ring"
	"github.com/nabbar/natcore/timeout"
)

func TestSessionStateDoneRequiresDrainedRings(t *testing.T) {
	in := ring.New(64)
	out := ring.New(64)
	errR := ring.New(64)

	s := SessionState{}
	if s.Done(in, out, errR) {
		t.Fatal("fresh state with nothing closed must not be done")
	}

	s.SocketReadClosed = true
	s.StdinClosed = true
	s.SocketWriteClosed = true
	s.StdoutClosed = true
	s.StderrClosed = true
	if !s.Done(in, out, errR) {
		t.Fatal("all directions closed and rings empty must be done")
	}
}

func TestSessionStateDoneWaitsOnPendingOutput(t *testing.T) {
	in := ring.New(64)
	out := ring.New(64)
	errR := ring.New(64)

	out.CommitWrite(copy(out.WritableSlice(), []byte("pending")))

	s := SessionState{SocketReadClosed: true, StdinClosed: true, StdoutClosed: true, StderrClosed: true}
	if s.Done(in, out, errR) {
		t.Fatal("must not be done while stdout ring still holds unflushed bytes and socket write is open")
	}
}

func TestSessionStateDoneWaitsOnOpenChildOutputsAfterSocketWriteCloses(t *testing.T) {
	in := ring.New(64)
	out := ring.New(64)
	errR := ring.New(64)

	// A reset peer can close the socket write side while the child's
	// stdout/stderr pipes are still open; the session must keep running
	// to drain them rather than exiting early.
	s := SessionState{SocketReadClosed: true, StdinClosed: true, SocketWriteClosed: true}
	if s.Done(in, out, errR) {
		t.Fatal("must not be done while child stdout/stderr are still open, even with socket write closed")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{KindPoll: "poll", KindIOUring: "io_uring", KindIOCP: "iocp"}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestPollSessionEchoesSocketToChildAndBack(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	clientDone := make(chan struct{})
	var client net.Conn
	go func() {
		c, dialErr := net.Dial("tcp", ln.Addr().String())
		if dialErr != nil {
			t.Error(dialErr)
			close(clientDone)
			return
		}
		client = c
		close(clientDone)
	}()

	server, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	<-clientDone
	defer client.Close()
	defer server.Close()

	stdinR, stdinW, _ := os.Pipe()
	stdoutR, stdoutW, _ := os.Pipe()
	stderrR, stderrW, _ := os.Pipe()
	defer stdinR.Close()
	defer stdinW.Close()
	defer stdoutW.Close()
	defer stderrR.Close()
	defer stderrW.Close()

	ep := &Endpoints{
		Socket:      server.(Conn),
		ChildStdin:  stdinW,
		ChildStdout: stdoutR,
		ChildStderr: stderrR,
		StdinRing:   ring.New(4096),
		StdoutRing:  ring.New(4096),
		StderrRing:  ring.New(4096),
		Flow:        flow.New(0, 0, 0),
		Timeout:     timeout.New(0, timeout.ParseDuration(200*time.Millisecond), 0),
	}

	done := make(chan error, 1)
	go func() {
		sess := newPollSession()
		done <- sess.Run(ep)
	}()

	if _, err = client.Write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, 5)
	if _, err = stdinR.Read(buf); err != nil {
		t.Fatalf("read child stdin: %v", err)
	}
	if string(buf) != "hello" {
		t.Fatalf("child stdin got %q, want %q", buf, "hello")
	}

	if _, err = stdoutW.Write([]byte("world")); err != nil {
		t.Fatalf("write stdout: %v", err)
	}

	if err = client.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	echo := make([]byte, 5)
	if _, err = client.Read(echo); err != nil {
		t.Fatalf("read from socket: %v", err)
	}
	if string(echo) != "world" {
		t.Fatalf("socket got %q, want %q", echo, "world")
	}

	<-done
}
