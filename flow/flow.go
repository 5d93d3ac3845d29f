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

// Package flow implements the hysteretic pause/resume switch (FlowState)
// over a total buffered byte count, without ever pausing writes. The exec
// session's backends consult ShouldPause but never call Observe, so within
// a session the switch stays unpaused and the maxTotal overrun check is
// not applied.
package flow

import (
	liberr "github.com/nabbar/natcore/errors"
)

// State tracks the hysteretic pause/resume switch over total buffered bytes
// across an exec session's stdin/stdout/stderr rings.
type State struct {
	pauseThreshold  int64
	resumeThreshold int64
	maxTotal        int64
	paused          bool
	enabled         bool
}

// New computes pause/resume thresholds from percentages of maxTotal,
// given as fractions (0.8 means 80%).
// A zero pausePercent disables flow control entirely. resumeThreshold is
// forced strictly below pauseThreshold, adjusted by max(1, pause/4).
func New(pausePercent, resumePercent float64, maxTotal int64) *State {
	s := &State{maxTotal: maxTotal}

	if pausePercent <= 0 || maxTotal <= 0 {
		return s
	}
	s.enabled = true

	s.pauseThreshold = clamp(int64(pausePercent*float64(maxTotal)), 0, maxTotal)
	s.resumeThreshold = clamp(int64(resumePercent*float64(maxTotal)), 0, maxTotal)

	if s.resumeThreshold >= s.pauseThreshold {
		adjust := s.pauseThreshold / 4
		if adjust < 1 {
			adjust = 1
		}
		s.resumeThreshold = s.pauseThreshold - adjust
		if s.resumeThreshold < 0 {
			s.resumeThreshold = 0
		}
	}

	return s
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Enabled reports whether flow control is active.
func (s *State) Enabled() bool { return s.enabled }

// Observe updates the pause/resume switch from the current total buffered
// byte count. If total exceeds maxTotal, it returns FlowControlTriggered
// to avoid a single burst landing in a still-unpaused state.
func (s *State) Observe(total int64) error {
	if s.maxTotal > 0 && total > s.maxTotal {
		return liberr.CodeFlowControlTriggered.Error()
	}

	if !s.enabled {
		return nil
	}

	if !s.paused && total >= s.pauseThreshold {
		s.paused = true
	} else if s.paused && total <= s.resumeThreshold {
		s.paused = false
	}

	return nil
}

// ShouldPause reports whether new reads must not be submitted. Writes are
// never affected: flow control governs read submissions
// but never write submissions").
func (s *State) ShouldPause() bool {
	return s.enabled && s.paused
}
