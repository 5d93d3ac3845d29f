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

package outputlog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSinkRawWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.log")
	s, err := Open(path, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err = s.Write([]byte("hello world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err = s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("got %q, want %q", got, "hello world")
	}
}

func TestSinkHexDumpWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hex.log")
	s, err := Open(path, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err = s.Write([]byte("Hi")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err = s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(got), "00000000  48 69") {
		t.Fatalf("got %q, want hex-dump prefix", got)
	}
}

func TestSinkFlushIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flush.log")
	s, err := Open(path, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err = s.Write([]byte("a")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	ctx := context.Background()
	if err = s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err = s.Flush(ctx); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
}
