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

// Package hexdump renders bytes in a bit-exact hex-dump format:
// an 8-digit lowercase offset, 16 lowercase hex bytes split into two 8-byte
// groups, and an ASCII sidebar with non-printable bytes rendered as '.'.
package hexdump

import (
	"io"
)

const bytesPerLine = 16
const lowerHex = "0123456789abcdef"

// Dumper writes the hex-dump format to an underlying io.Writer, carrying a
// running offset across calls.
type Dumper struct {
	w      io.Writer
	offset uint64
	// line is a small per-line stack buffer, reused across calls instead of
	// allocating a new slice per line.
	line [8 + 2 + 3*bytesPerLine + 2 + 1 + bytesPerLine + 2]byte
}

// New wraps w in a Dumper starting at offset zero.
func New(w io.Writer) *Dumper {
	return &Dumper{w: w}
}

// ResetOffset returns the running offset counter to zero.
func (d *Dumper) ResetOffset() {
	d.offset = 0
}

// Write renders p as zero or more 16-byte lines and writes them to the
// underlying writer, advancing the running offset. It implements
// io.Writer so a Dumper can be used as a fallback-chained sink.
func (d *Dumper) Write(p []byte) (int, error) {
	for i := 0; i < len(p); i += bytesPerLine {
		end := i + bytesPerLine
		if end > len(p) {
			end = len(p)
		}
		line := d.renderLine(p[i:end])
		if _, err := d.w.Write(line); err != nil {
			return i, err
		}
		d.offset += uint64(end - i)
	}
	return len(p), nil
}

func (d *Dumper) renderLine(chunk []byte) []byte {
	b := d.line[:0]

	b = appendHexOffset(b, d.offset)
	b = append(b, ' ', ' ')

	for col := 0; col < bytesPerLine; col++ {
		if col == 8 {
			b = append(b, ' ', ' ')
		} else if col > 0 {
			b = append(b, ' ')
		}

		if col < len(chunk) {
			b = appendHexByte(b, chunk[col])
		} else {
			b = append(b, ' ', ' ')
		}
	}

	b = append(b, ' ', ' ', '|')
	for _, c := range chunk {
		if c >= 0x20 && c <= 0x7E {
			b = append(b, c)
		} else {
			b = append(b, '.')
		}
	}
	b = append(b, '|', '\n')

	return b
}

func appendHexOffset(b []byte, v uint64) []byte {
	var tmp [8]byte
	for i := 7; i >= 0; i-- {
		tmp[i] = lowerHex[v&0xF]
		v >>= 4
	}
	return append(b, tmp[:]...)
}

func appendHexByte(b []byte, v byte) []byte {
	return append(b, lowerHex[v>>4], lowerHex[v&0xF])
}

// Lines returns ceil(len/16), the line count Write will emit for a buffer
// of that length.
func Lines(length int) int {
	if length <= 0 {
		return 0
	}
	return (length + bytesPerLine - 1) / bytesPerLine
}
