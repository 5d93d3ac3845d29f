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

package broker

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

func dialPair(t *testing.T, ln net.Listener) net.Conn {
	t.Helper()
	clientCh := make(chan net.Conn, 1)
	go func() {
		c, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			t.Error(err)
			return
		}
		clientCh <- c
	}()
	return <-clientCh
}

func readUntil(t *testing.T, conn net.Conn, want string, deadline time.Duration) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(deadline))
	var got strings.Builder
	buf := make([]byte, 256)
	for !strings.Contains(got.String(), want) {
		n, err := conn.Read(buf)
		if n > 0 {
			got.Write(buf[:n])
		}
		if err != nil {
			t.Fatalf("readUntil(%q): got %q, err %v", want, got.String(), err)
		}
	}
	return got.String()
}

func TestBrokerModeFansOutRawBytes(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	srv := New(ln, ModeBroker, Config{MaxClients: 4})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	a := dialPair(t, ln)
	defer a.Close()
	b := dialPair(t, ln)
	defer b.Close()

	time.Sleep(50 * time.Millisecond)

	if _, err = a.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := readUntil(t, b, "hello", 2*time.Second)
	if !strings.Contains(got, "hello") {
		t.Fatalf("expected fan-out to contain %q, got %q", "hello", got)
	}
}

func TestChatModeNicknameAndBroadcast(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	srv := New(ln, ModeChat, Config{MaxClients: 4})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	alice := dialPair(t, ln)
	defer alice.Close()
	readUntil(t, alice, "nickname", time.Second)

	if _, err = alice.Write([]byte("alice\n")); err != nil {
		t.Fatalf("write nick: %v", err)
	}
	readUntil(t, alice, "known as alice", time.Second)

	bob := dialPair(t, ln)
	defer bob.Close()
	readUntil(t, bob, "nickname", time.Second)
	if _, err = bob.Write([]byte("bob\n")); err != nil {
		t.Fatalf("write nick: %v", err)
	}
	readUntil(t, bob, "known as bob", time.Second)

	if _, err = alice.Write([]byte("hi there\n")); err != nil {
		t.Fatalf("write msg: %v", err)
	}

	got := readUntil(t, bob, "[alice] hi there", 2*time.Second)
	if !strings.Contains(got, "[alice] hi there") {
		t.Fatalf("expected chat broadcast, got %q", got)
	}
}

func TestChatModeRejectsDuplicateNickname(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	srv := New(ln, ModeChat, Config{MaxClients: 4})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	alice := dialPair(t, ln)
	defer alice.Close()
	readUntil(t, alice, "nickname", time.Second)
	if _, err = alice.Write([]byte("dup\n")); err != nil {
		t.Fatalf("write nick: %v", err)
	}
	readUntil(t, alice, "known as dup", time.Second)

	second := dialPair(t, ln)
	defer second.Close()
	readUntil(t, second, "nickname", time.Second)
	if _, err = second.Write([]byte("dup\n")); err != nil {
		t.Fatalf("write nick: %v", err)
	}

	const wantMsg = "*** Nickname already taken, please choose another\n"
	got := readUntil(t, second, "already taken", time.Second)
	if !strings.Contains(got, wantMsg) {
		t.Fatalf("expected duplicate-nickname rejection %q, got %q", wantMsg, got)
	}
}

func TestAdmitRejectsBeyondMaxClients(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	srv := New(ln, ModeBroker, Config{MaxClients: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	first := dialPair(t, ln)
	defer first.Close()
	time.Sleep(30 * time.Millisecond)

	second := dialPair(t, ln)
	defer second.Close()

	got := readUntil(t, second, "server full", time.Second)
	if !strings.Contains(got, "server full") {
		t.Fatalf("expected rejection message, got %q", got)
	}
}
