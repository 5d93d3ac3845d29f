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

// Package broker implements the multi-client broker/chat server: an
// accept loop bounded by a client-count gate, per-tick bounded line
// processing, and two relay modes (raw fan-out and nickname-framed chat).
package broker

import (
	"net"
	"time"

	"github.com/google/uuid"
)

const readBufferSize = 4096

// Client is one connected peer tracked by a Server.
type Client struct {
	ID            uuid.UUID
	Conn          net.Conn
	Nickname      string
	readBuf       [readBufferSize]byte
	readBufLen    int
	BytesSent     int64
	BytesReceived int64
	lastActivity  time.Time
}

func newClient(conn net.Conn) *Client {
	return &Client{
		ID:           uuid.New(),
		Conn:         conn,
		lastActivity: time.Now(),
	}
}

func (c *Client) touch() {
	c.lastActivity = time.Now()
}

func (c *Client) idleFor() time.Duration {
	return time.Since(c.lastActivity)
}
