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

// Package proxy establishes an underlying TCP connection through an
// intermediate proxy (SOCKS5, SOCKS4 or HTTP CONNECT) before handing the
// caller a plain net.Conn to the final destination. Every client here
// conforms to golang.org/x/net/proxy.Dialer so it composes with that
// package's dialer-chaining helpers.
package proxy

import (
	"context"
	"net"
	"time"

	liberr "github.com/nabbar/natcore/errors"
	"github.com/nabbar/natcore/socket"
)

// Kind selects which proxy protocol a Client speaks.
type Kind uint8

const (
	KindSocks5 Kind = iota
	KindSocks4
	KindHTTPConnect
)

// ReadTimeout bounds every recv while negotiating a proxy handshake; a
// timed-out recv surfaces as CodeProxyTimeout.
const ReadTimeout = 30 * time.Second

// Config describes one upstream proxy and the optional credentials used
// to authenticate against it.
type Config struct {
	Kind     Kind
	Host     string
	Port     int
	Username string
	Password string
}

// Client dials destHost:destPort through the configured proxy and
// returns a net.Conn ready to carry the relayed connection's bytes.
// It satisfies golang.org/x/net/proxy.Dialer via Dial.
type Client struct {
	cfg Config
}

// New builds a Client for cfg.
func New(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Dial implements golang.org/x/net/proxy.Dialer. network is expected to
// be "tcp"; addr is "host:port" of the final destination.
func (c *Client) Dial(network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, liberr.CodeInvalidConfiguration.Error(err)
	}
	return c.DialContext(context.Background(), host, port)
}

// DialContext connects to the proxy, negotiates the configured protocol,
// and requests a CONNECT to destHost:destPort.
func (c *Client) DialContext(ctx context.Context, destHost, destPort string) (net.Conn, error) {
	proxyAddr := socket.Address{Host: c.cfg.Host, Port: uint16(c.cfg.Port)}

	conn, err := socket.Dial(ctx, socket.NetworkTCP, proxyAddr, ReadTimeout)
	if err != nil {
		return nil, err
	}

	switch c.cfg.Kind {
	case KindSocks5:
		err = socks5Connect(conn, c.cfg, destHost, destPort)
	case KindSocks4:
		err = socks4Connect(conn, c.cfg, destHost, destPort)
	case KindHTTPConnect:
		err = httpConnect(conn, c.cfg, destHost, destPort)
	default:
		err = liberr.CodeInvalidConfiguration.Errorf("unknown proxy kind %d", c.cfg.Kind)
	}

	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func setReadDeadline(conn net.Conn) error {
	if err := conn.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
		return liberr.CodeClientSocketError.Error(err)
	}
	return nil
}

func classifyIOErr(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return liberr.CodeProxyTimeout.Error(err)
	}
	return liberr.CodeClientSocketError.Error(err)
}

func readFull(conn net.Conn, buf []byte) error {
	if err := setReadDeadline(conn); err != nil {
		return err
	}
	read := 0
	for read < len(buf) {
		n, err := conn.Read(buf[read:])
		read += n
		if err != nil {
			return classifyIOErr(err)
		}
	}
	return nil
}

func writeFull(conn net.Conn, buf []byte) error {
	written := 0
	for written < len(buf) {
		n, err := conn.Write(buf[written:])
		written += n
		if err != nil {
			return classifyIOErr(err)
		}
	}
	return nil
}
