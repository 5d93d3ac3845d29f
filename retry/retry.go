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

// Package retry implements a bounded retry-with-backoff helper. In this
// module its caller is outputlog.Sink.Flush.
package retry

import (
	"context"
	"time"
)

// DelayFunc returns the sleep duration after failed attempt n (1-indexed),
// before attempt n+1.
type DelayFunc func(attempt int, err error) time.Duration

// TerminalFunc reports whether err should stop retrying immediately.
type TerminalFunc func(err error) bool

// Do runs fn up to attempts times, sleeping delay(attempt, err) between
// tries, stopping early if terminal(err) is true or ctx is done. It returns
// the last error observed, or nil on success.
func Do(ctx context.Context, attempts int, delay DelayFunc, terminal TerminalFunc, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if terminal != nil && terminal(lastErr) {
			return lastErr
		}

		if attempt == attempts {
			break
		}

		var d time.Duration
		if delay != nil {
			d = delay(attempt, lastErr)
		}

		if d <= 0 {
			continue
		}

		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return lastErr
		}
	}

	return lastErr
}

// FixedDelay returns a DelayFunc that always waits d.
func FixedDelay(d time.Duration) DelayFunc {
	return func(int, error) time.Duration { return d }
}

// SinkDelay implements the relay's output-sink flush retry schedule
// Cleanup contract): 100ms between retries for "file locked", 50ms otherwise.
func SinkDelay(fileLocked func(err error) bool) DelayFunc {
	return func(_ int, err error) time.Duration {
		if fileLocked != nil && fileLocked(err) {
			return 100 * time.Millisecond
		}
		return 50 * time.Millisecond
	}
}
