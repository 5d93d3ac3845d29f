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

// DefaultBufferSize is the default per-direction I/O buffer size.
const DefaultBufferSize = 32 * 1024

// EOL is the line terminator used by the broker/chat line framing.
const EOL = byte('\n')

const errClosedNetworkConnection = "use of closed network connection"

// ErrorFilter discards the exact error produced by a local close racing an
// in-flight read/write (net package reports this as a plain string, not a
// typed error), so that shutdown code paths don't log or propagate noise.
// An error that merely contains the same suffix in a wrapped message (e.g.
// "read tcp ...: use of closed network connection") is NOT filtered: only
// the bare message is considered the expected-shutdown case.
func ErrorFilter(err error) error {
	if err == nil {
		return nil
	}
	if err.Error() == errClosedNetworkConnection {
		return nil
	}
	return err
}
