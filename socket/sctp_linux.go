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

// SCTP has no net package support, so the opener goes directly to
// golang.org/x/sys/unix: a raw IPPROTO_SCTP socket, connected or bound
// with the standard sockaddr_in/sockaddr_in6 structures, then wrapped in
// an os.File so the rest of the module can treat it as any other fd-backed
// connection via net.FileConn.
package socket

import (
	"net"
	"os"

	"golang.org/x/sys/unix"

	liberr "github.com/nabbar/natcore/errors"
)

const ipprotoSCTP = 132

// DialSCTP connects to host:port over SCTP using a raw socket, since the
// standard net package offers no "sctp" network.
func DialSCTP(host string, port uint16, v6 bool) (net.Conn, error) {
	domain := unix.AF_INET
	if v6 {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM, ipprotoSCTP)
	if err != nil {
		return nil, liberr.CodeClientSocketError.Error(err)
	}

	sa, err := sctpSockaddr(domain, host, port)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	if err = unix.Connect(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, liberr.CodeClientSocketError.Error(err)
	}

	f := os.NewFile(uintptr(fd), "sctp")
	conn, err := net.FileConn(f)
	_ = f.Close()
	if err != nil {
		return nil, liberr.CodeClientSocketError.Error(err)
	}
	return conn, nil
}

// ListenSCTP binds and listens on host:port over SCTP using a raw socket.
func ListenSCTP(host string, port uint16, v6 bool) (net.Listener, error) {
	domain := unix.AF_INET
	if v6 {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM, ipprotoSCTP)
	if err != nil {
		return nil, liberr.CodeClientSocketError.Error(err)
	}

	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)

	sa, err := sctpSockaddr(domain, host, port)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	if err = unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, liberr.CodeClientSocketError.Error(err)
	}
	if err = unix.Listen(fd, ListenBacklog); err != nil {
		_ = unix.Close(fd)
		return nil, liberr.CodeClientSocketError.Error(err)
	}

	f := os.NewFile(uintptr(fd), "sctp-listener")
	l, err := net.FileListener(f)
	_ = f.Close()
	if err != nil {
		return nil, liberr.CodeClientSocketError.Error(err)
	}
	return l, nil
}

func sctpSockaddr(domain int, host string, port uint16) (unix.Sockaddr, error) {
	ip := net.ParseIP(host)
	if domain == unix.AF_INET {
		var addr [4]byte
		if ip != nil {
			copy(addr[:], ip.To4())
		}
		return &unix.SockaddrInet4{Port: int(port), Addr: addr}, nil
	}
	var addr [16]byte
	if ip != nil {
		copy(addr[:], ip.To16())
	}
	return &unix.SockaddrInet6{Port: int(port), Addr: addr}, nil
}
