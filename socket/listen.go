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

package socket

import (
	"context"
	"net"
	"strconv"
	"time"

	liberr "github.com/nabbar/natcore/errors"
)

// ListenBacklog is the backlog passed to the OS listen() call.
const ListenBacklog = 128

// Listen opens a listener for n on host:port (or Path for Unix), enabling
// SO_REUSEADDR and best-effort SO_REUSEPORT on POSIX platforms via the
// net.ListenConfig.Control hook.
func Listen(ctx context.Context, n Network, addr Address) (net.Listener, error) {
	lc := net.ListenConfig{Control: reuseControl}

	target := net.JoinHostPort(addr.Host, strconv.Itoa(int(addr.Port)))
	if n.IsUnix() {
		if err := ValidateUnixPath(addr.Path); err != nil {
			return nil, err
		}
		cleanupStaleUnixSocket(addr.Path)
		target = addr.Path
	}

	l, err := lc.Listen(ctx, n.String(), target)
	if err != nil {
		return nil, liberr.CodeClientSocketError.Error(err)
	}
	return l, nil
}

// Accept waits up to timeout for an incoming connection; a zero timeout
// blocks indefinitely. A listener that does not support deadlines (e.g. a
// Unix listener on some platforms) ignores timeout and accepts directly.
func Accept(l net.Listener, timeout time.Duration) (net.Conn, error) {
	type deadliner interface {
		SetDeadline(time.Time) error
	}

	if timeout > 0 {
		if dl, ok := l.(deadliner); ok {
			_ = dl.SetDeadline(time.Now().Add(timeout))
		}
	}

	conn, err := l.Accept()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, liberr.CodeConnectionTimeout.Error(err)
		}
		return nil, liberr.CodeClientSocketError.Error(err)
	}
	return conn, nil
}
