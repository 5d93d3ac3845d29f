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
	"os"
	"path/filepath"
	"strings"

	liberr "github.com/nabbar/natcore/errors"
)

// MaxUnixPathLength is the conventional sun_path limit on Linux/BSD/macOS.
const MaxUnixPathLength = 108

// ValidateUnixPath rejects paths that the OS would refuse to bind: empty,
// too long, containing a NUL byte, or containing ASCII control characters.
func ValidateUnixPath(path string) error {
	if path == "" {
		return liberr.CodeInvalidPath.Error()
	}
	if len(path) > MaxUnixPathLength {
		return liberr.CodePathTooLong.Error()
	}
	if strings.IndexByte(path, 0) >= 0 {
		return liberr.CodePathContainsNull.Error()
	}
	for _, c := range path {
		if c < 0x20 || c == 0x7F {
			return liberr.CodeInvalidPathCharacters.Error()
		}
	}
	return nil
}

// cleanupStaleUnixSocket creates the parent directory if needed and
// removes a pre-existing socket file at path so that bind() does not fail
// with "address already in use" on a leftover from a previous run.
func cleanupStaleUnixSocket(path string) {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	if fi, err := os.Stat(path); err == nil && fi.Mode()&os.ModeSocket != 0 {
		_ = os.Remove(path)
	}
}

// CleanupUnixSocket removes the socket file at path; it does not close any
// listener. The caller retains no ownership of path beyond this call.
func CleanupUnixSocket(path string) {
	_ = os.Remove(path)
}
