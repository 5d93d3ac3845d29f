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

package proxy

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"testing"

	liberr "github.com/nabbar/natcore/errors"
)

func listenerPort(t *testing.T, ln net.Listener) int {
	t.Helper()
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("atoi: %v", err)
	}
	return port
}

// fakeSocks5Server accepts one connection, performs a no-auth method
// negotiation, then grants any CONNECT request.
func fakeSocks5Server(t *testing.T, ln net.Listener) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	methodHdr := make([]byte, 2)
	if _, err = conn.Read(methodHdr); err != nil {
		t.Error(err)
		return
	}
	methods := make([]byte, methodHdr[1])
	if _, err = conn.Read(methods); err != nil {
		t.Error(err)
		return
	}
	if _, err = conn.Write([]byte{socks5Version, socks5MethodNoAuth}); err != nil {
		t.Error(err)
		return
	}

	header := make([]byte, 4)
	if _, err = conn.Read(header); err != nil {
		t.Error(err)
		return
	}
	switch header[3] {
	case socks5AtypDomain:
		lenBuf := make([]byte, 1)
		_, _ = conn.Read(lenBuf)
		rest := make([]byte, int(lenBuf[0])+2)
		_, _ = conn.Read(rest)
	case socks5AtypIPv4:
		rest := make([]byte, 4+2)
		_, _ = conn.Read(rest)
	}

	reply := []byte{socks5Version, 0x00, 0x00, socks5AtypIPv4, 0, 0, 0, 0, 0, 0}
	if _, err = conn.Write(reply); err != nil {
		t.Error(err)
	}
}

func TestSocks5ConnectNoAuth(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go fakeSocks5Server(t, ln)

	cfg := Config{Kind: KindSocks5, Host: "127.0.0.1", Port: listenerPort(t, ln)}
	client := New(cfg)

	conn, err := client.Dial("tcp", "example.com:80")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
}

func TestSocks5RejectsUnadvertisedMethod(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 16)
		_, _ = conn.Read(buf)
		_, _ = conn.Write([]byte{socks5Version, socks5MethodNoAccept})
	}()

	cfg := Config{Kind: KindSocks5, Host: "127.0.0.1", Port: listenerPort(t, ln)}
	_, err = New(cfg).Dial("tcp", "example.com:80")
	if err == nil {
		t.Fatal("expected an error for no acceptable auth method")
	}
	if liberr.CodeOf(err) != liberr.CodeNoAcceptableAuthMethod {
		t.Fatalf("got code %v, want CodeNoAcceptableAuthMethod", liberr.CodeOf(err))
	}
}

func TestSocks4Connect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 256)
		n, readErr := conn.Read(buf)
		if readErr != nil || n < 9 {
			t.Error("short socks4 request")
			return
		}
		_, _ = conn.Write([]byte{0x00, socks4ReplyGranted, 0, 0, 0, 0, 0, 0})
	}()

	cfg := Config{Kind: KindSocks4, Host: "127.0.0.1", Port: listenerPort(t, ln)}
	conn, err := New(cfg).Dial("tcp", "93.184.216.34:80")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
}

func TestHTTPConnectSuccess(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		line, _ := reader.ReadString('\n')
		if !strings.HasPrefix(line, "CONNECT ") {
			t.Error("expected CONNECT request line")
			return
		}
		for {
			l, _ := reader.ReadString('\n')
			if l == "\r\n" || l == "" {
				break
			}
		}
		_, _ = conn.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n"))
	}()

	cfg := Config{Kind: KindHTTPConnect, Host: "127.0.0.1", Port: listenerPort(t, ln)}
	conn, err := New(cfg).Dial("tcp", "example.com:443")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
}

func TestHTTPConnectFailureStatus(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		for {
			l, _ := reader.ReadString('\n')
			if l == "\r\n" || l == "" {
				break
			}
		}
		_, _ = conn.Write([]byte("HTTP/1.1 403 Forbidden\r\n\r\n"))
	}()

	cfg := Config{Kind: KindHTTPConnect, Host: "127.0.0.1", Port: listenerPort(t, ln)}
	_, err = New(cfg).Dial("tcp", "example.com:443")
	if err == nil {
		t.Fatal("expected an error for non-2xx CONNECT response")
	}
}
