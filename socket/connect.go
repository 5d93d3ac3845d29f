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
	"time"

	liberr "github.com/nabbar/natcore/errors"
)

// Dial performs a timed connect against addr, trying every resolved
// candidate in order until one succeeds. Each attempt is bounded by
// timeout; net.Dialer performs the non-blocking connect/poll/SO_ERROR
// dance internally and returns a usable net.Conn or an error, so the
// fallback loop here only needs to advance to the next candidate on
// failure or deadline.
func Dial(ctx context.Context, n Network, addr Address, timeout time.Duration) (net.Conn, error) {
	if n.IsUnix() {
		return dialUnix(ctx, n, addr.Path, timeout)
	}

	candidates, err := Resolve(ctx, n, addr.Host, addr.Port)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: timeout}

	var lastErr error
	for _, c := range candidates {
		conn, dialErr := d.DialContext(ctx, n.String(), c)
		if dialErr == nil {
			return conn, nil
		}
		lastErr = dialErr
	}

	if ne, ok := lastErr.(net.Error); ok && ne.Timeout() {
		return nil, liberr.CodeConnectionTimeout.Error(lastErr)
	}
	return nil, liberr.CodeClientSocketError.Error(lastErr)
}

func dialUnix(ctx context.Context, n Network, path string, timeout time.Duration) (net.Conn, error) {
	if err := ValidateUnixPath(path); err != nil {
		return nil, err
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, n.String(), path)
	if err != nil {
		return nil, liberr.CodeConnectionRefused.Error(err)
	}
	return conn, nil
}
