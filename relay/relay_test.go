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

package relay

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"
)

type netPeer struct {
	net.Conn
}

func TestRunRelaysStdinToPeerAndBack(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()

	stdinR, stdinW := io2Pipe()
	var stdout bytes.Buffer

	go func() {
		buf := make([]byte, 16)
		n, _ := clientConn.Read(buf)
		clientConn.Write(buf[:n])
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, stdinR, &stdout, netPeer{serverConn}, Config{}, Options{})
	}()

	stdinW.Write([]byte("ping"))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for echo on stdout")
		default:
		}
		if stdout.Len() >= 4 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if stdout.String() != "ping" {
		t.Fatalf("stdout = %q, want %q", stdout.String(), "ping")
	}

	cancel()
	<-done
}

func TestTranslateCRLFOnlyAllocatesWhenNeeded(t *testing.T) {
	in := []byte("no newlines here")
	out := translateCRLF(in)
	if &out[0] != &in[0] {
		t.Fatal("expected same backing array when input has no bare newline")
	}

	withNL := []byte("a\nb")
	out2 := translateCRLF(withNL)
	if string(out2) != "a\r\nb" {
		t.Fatalf("got %q, want %q", out2, "a\r\nb")
	}
}

func io2Pipe() (*io2PipeReader, *io2PipeWriter) {
	r, w := net.Pipe()
	return &io2PipeReader{r}, &io2PipeWriter{w}
}

type io2PipeReader struct{ net.Conn }
type io2PipeWriter struct{ net.Conn }
