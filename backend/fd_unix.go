//go:build linux || darwin || freebsd || netbsd || openbsd

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

package backend

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	liberr "github.com/nabbar/natcore/errors"
)

// connFd extracts c's underlying file descriptor and puts it in
// non-blocking mode so direct unix.Read/unix.Write calls surface EAGAIN
// instead of parking the calling goroutine.
func connFd(c Conn) (int, error) {
	rc, err := c.SyscallConn()
	if err != nil {
		return -1, liberr.CodeClientSocketError.Error(err)
	}

	var fd int
	ctrlErr := rc.Control(func(p uintptr) {
		fd = int(p)
	})
	if ctrlErr != nil {
		return -1, liberr.CodeClientSocketError.Error(ctrlErr)
	}

	if err = unix.SetNonblock(fd, true); err != nil {
		return -1, liberr.CodeClientSocketError.Error(err)
	}
	return fd, nil
}

// fileFd puts f's descriptor in non-blocking mode and returns it. Used
// for the child process's stdio pipes, which os/exec hands back as
// ordinary blocking *os.File values.
func fileFd(f *os.File) (int, error) {
	fd := int(f.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		return -1, liberr.CodeClientSocketError.Error(err)
	}
	return fd, nil
}

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

func rawRead(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errEOF
	}
	return n, nil
}

func rawWrite(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}

var errEOF = errors.New("backend: end of file")
