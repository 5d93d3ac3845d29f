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

// Package tlsconn wraps crypto/tls behind the narrow surface the relay and
// exec session need: read, write, close, and access to the underlying
// socket for the poll/backend layer to watch. Callers never see
// *tls.Conn directly, so the backend selection stays oblivious to whether
// a given direction is plaintext or encrypted.
package tlsconn

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"time"

	liberr "github.com/nabbar/natcore/errors"
)

// Connection is the opaque TLS handle consumed by the relay and exec
// session. It owns the underlying socket and closes it on Close/Deinit.
type Connection struct {
	conn   *tls.Conn
	socket net.Conn
}

// Client performs a TLS client handshake over conn using cfg. A nil cfg
// sets neither ServerName nor InsecureSkipVerify, so crypto/tls fails the
// handshake before sending anything.
func Client(conn net.Conn, cfg *tls.Config) (*Connection, error) {
	tc := tls.Client(conn, cfg)
	if err := tc.Handshake(); err != nil {
		return nil, classifyHandshakeError(err)
	}
	return &Connection{conn: tc, socket: conn}, nil
}

// Server performs a TLS server handshake over conn using cfg.
func Server(conn net.Conn, cfg *tls.Config) (*Connection, error) {
	tc := tls.Server(conn, cfg)
	if err := tc.Handshake(); err != nil {
		return nil, classifyHandshakeError(err)
	}
	return &Connection{conn: tc, socket: conn}, nil
}

// Read reads into buf. A read deadline of zero makes this call blocking;
// callers that want WouldBlock semantics should set a short deadline via
// SetReadDeadline before calling, matching the relay's non-blocking loop.
func (c *Connection) Read(buf []byte) (int, error) {
	n, err := c.conn.Read(buf)
	if err != nil {
		return n, classifyIOError(err)
	}
	return n, nil
}

// Write writes buf. See Read for the deadline-based non-blocking contract.
func (c *Connection) Write(buf []byte) (int, error) {
	n, err := c.conn.Write(buf)
	if err != nil {
		return n, classifyIOError(err)
	}
	return n, nil
}

// SetReadDeadline forwards to the underlying connection; the relay uses
// this instead of a dedicated WouldBlock primitive, since crypto/tls
// offers no non-blocking read mode of its own.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline forwards to the underlying connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

// Close sends a TLS close-notify and closes the underlying socket.
func (c *Connection) Close() error {
	_ = c.conn.CloseWrite()
	return c.conn.Close()
}

// Deinit releases resources without attempting a graceful close-notify;
// used on the fatal-error cleanup path where the peer is already gone.
func (c *Connection) Deinit() error {
	return c.conn.Close()
}

// GetSocket returns the underlying transport connection so a poll-based
// backend can watch its file descriptor directly.
func (c *Connection) GetSocket() net.Conn {
	return c.socket
}

func classifyHandshakeError(err error) error {
	var cfErr *tls.CertificateVerificationError
	if ok := asCertVerify(err, &cfErr); ok {
		return liberr.CodeCertificateVerificationFailed.Error(err)
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return liberr.CodeNetworkTimeout.Error(err)
	}
	return liberr.CodeHandshakeFailed.Error(err)
}

func asCertVerify(err error, target **tls.CertificateVerificationError) bool {
	if cv, ok := err.(*tls.CertificateVerificationError); ok {
		*target = cv
		return true
	}
	return false
}

func classifyIOError(err error) error {
	if ne, ok := err.(net.Error); ok {
		if ne.Timeout() {
			return liberr.CodeWouldBlock.Error(err)
		}
	}
	if errors.Is(err, io.EOF) {
		return liberr.CodeConnectionClosed.Error(err)
	}
	return liberr.CodeConnectionResetByPeer.Error(err)
}
