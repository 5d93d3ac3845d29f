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

package exec

import (
	"net"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/nabbar/natcore/backend"
	"github.com/nabbar/natcore/timeout"
)

func TestNewRejectsUndersizedMaxTotalBuffer(t *testing.T) {
	cmd := exec.Command("cat")
	_, err := New(cmd, nil, Config{RingCapacity: 100, MaxTotalBuffer: 10}, nil, nil, nil)
	if err == nil {
		t.Fatal("expected an error for max_total_buffer smaller than 3 ring capacities")
	}
}

func TestSessionEchoesThroughCat(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	clientCh := make(chan net.Conn, 1)
	go func() {
		c, dialErr := net.Dial("tcp", ln.Addr().String())
		if dialErr != nil {
			t.Error(dialErr)
			return
		}
		clientCh <- c
	}()

	server, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	client := <-clientCh
	defer client.Close()

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		t.Fatalf("stdin pipe: %v", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("stderr pipe: %v", err)
	}

	cmd := exec.Command("cat")
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	sess, err := New(cmd, server.(backend.Conn), Config{RingCapacity: 4096, MaxTotalBuffer: 1 << 20},
		stdinW, stdoutR, stderrR)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sess.WithTimeout(timeout.New(0, timeout.ParseDuration(500*time.Millisecond), 0))

	done := make(chan error, 1)
	go func() { done <- sess.Run() }()

	if _, err = client.Write([]byte("echo-me")); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, 7)
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err = client.Read(buf); err != nil {
		t.Fatalf("read echo: %v", err)
	}
	if string(buf) != "echo-me" {
		t.Fatalf("got %q, want %q", buf, "echo-me")
	}

	<-done
	stdinR.Close()
	stdoutW.Close()
	stderrW.Close()
}
