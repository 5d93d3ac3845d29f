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

// Package outputlog implements an append-only sink for bytes received on
// the relay's peer-read side, writing either raw bytes or a hex-dump
// rendering, with a bounded-retry contract on Flush.
package outputlog

import (
	"bufio"
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	liberr "github.com/nabbar/natcore/errors"
	"github.com/nabbar/natcore/hexdump"
	"github.com/nabbar/natcore/retry"
)

// Sink appends received bytes to a file, either verbatim or hex-dumped.
type Sink struct {
	f      *os.File
	w      *bufio.Writer
	dumper *hexdump.Dumper
}

// Open creates or truncates path and returns a Sink writing to it. When
// hexDump is true, every Write call is rendered through a hexdump.Dumper
// before reaching the file.
func Open(path string, hexDump bool) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, classifyOpenError(err)
	}

	s := &Sink{f: f, w: bufio.NewWriter(f)}
	if hexDump {
		s.dumper = hexdump.New(s.w)
	}
	return s, nil
}

// Write appends p, either raw or through the hex-dump renderer depending
// on how the Sink was opened.
func (s *Sink) Write(p []byte) (int, error) {
	if s.dumper != nil {
		return s.dumper.Write(p)
	}
	return s.w.Write(p)
}

// Flush attempts to flush the buffered writer up to 3 times, following the
// relay's cleanup-contract retry schedule: 100ms between attempts on a
// "file locked" condition, 50ms otherwise. DiskFull and
// InsufficientPermissions are terminal and returned immediately.
func (s *Sink) Flush(ctx context.Context) error {
	isFileLocked := func(err error) bool {
		return liberr.CodeOf(err) == liberr.CodeFileLocked
	}
	isTerminal := func(err error) bool {
		code := liberr.CodeOf(err)
		return code == liberr.CodeDiskFull || code == liberr.CodeInsufficientPermissions
	}

	return retry.Do(ctx, 3, retry.SinkDelay(isFileLocked), isTerminal, func() error {
		if err := s.w.Flush(); err != nil {
			return classifyWriteError(err)
		}
		return nil
	})
}

// Close flushes with the bounded retry contract, then closes the
// underlying file.
func (s *Sink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	flushErr := s.Flush(ctx)
	closeErr := s.f.Close()
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return liberr.CodeFileSystemError.Error(closeErr)
	}
	return nil
}

func classifyOpenError(err error) error {
	switch {
	case errors.Is(err, os.ErrPermission):
		return liberr.CodeInsufficientPermissions.Error(err)
	case errors.Is(err, os.ErrNotExist):
		return liberr.CodeDirectoryNotFound.Error(err)
	default:
		return liberr.CodeInvalidOutputPath.Error(err)
	}
}

func classifyWriteError(err error) error {
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return liberr.CodeDiskFull.Error(err)
	case errors.Is(err, os.ErrPermission):
		return liberr.CodeInsufficientPermissions.Error(err)
	default:
		return liberr.CodeFileLocked.Error(err)
	}
}
