//go:build !linux

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
	"net"

	liberr "github.com/nabbar/natcore/errors"
)

// DialSCTP is unsupported outside Linux: the raw IPPROTO_SCTP socket path
// is Linux-specific, and macOS/BSD/Windows have no in-kernel SCTP stack
// this module can rely on without an extra userspace library.
func DialSCTP(_ string, _ uint16, _ bool) (net.Conn, error) {
	return nil, liberr.CodePlatformNotSupported.Error()
}

// ListenSCTP is unsupported outside Linux; see DialSCTP.
func ListenSCTP(_ string, _ uint16, _ bool) (net.Listener, error) {
	return nil, liberr.CodePlatformNotSupported.Error()
}
