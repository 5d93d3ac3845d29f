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

// Select picks the best available engine for the current process: IOCP on
// Windows, io_uring on Linux when the kernel supports it, poll otherwise.
// ForceIOUring exists for tests that want to exercise the io_uring path
// explicitly; it errors out when the capability probe fails rather than
// silently falling back.
func Select() Session {
	if s := newIOCPSession(); s != nil {
		return s
	}
	if s := newIOUringSession(); s != nil {
		return s
	}
	return newPollSession()
}

// ForceIOUring builds an io_uring-backed Session, returning an error when
// the platform or kernel lacks the capability instead of falling back.
func ForceIOUring() (Session, error) {
	return newForcedIOUringSession()
}
