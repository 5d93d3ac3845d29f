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

package logger

import (
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Fields carries structured key/value context attached to a log entry.
type Fields map[string]interface{}

// Logger is the narrow structured-logging surface consumed by the rest of
// this module. A single implementation wraps logrus underneath its own
// Entry/Fields types.
type Logger interface {
	SetLevel(lvl Level)
	GetLevel() Level

	WithFields(f Fields) Logger

	Trace(message string, f Fields)
	Debug(message string, f Fields)
	Info(message string, f Fields)
	Warning(message string, f Fields)
	Error(message string, f Fields)

	// Verbose emits at Debug level only when ZIGCAT_VERBOSE is set. No
	// package in this module calls it; backend selection does not log.
	Verbose(message string, f Fields)
}

type logger struct {
	mu  sync.RWMutex
	lg  *logrus.Logger
	fld Fields
}

var verboseOnce sync.Once
var verboseEnabled bool

func verbose() bool {
	verboseOnce.Do(func() {
		_, verboseEnabled = os.LookupEnv("ZIGCAT_VERBOSE")
	})
	return verboseEnabled
}

// New returns a Logger writing colorized text to out (stderr by default when
// out is nil).
func New(out io.Writer) Logger {
	if out == nil {
		out = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors: !color.NoColor == false,
		FullTimestamp: true,
	})

	return &logger{lg: l, fld: Fields{}}
}

func (l *logger) SetLevel(lvl Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lg.SetLevel(lvl.logrus())
}

func (l *logger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Level(l.lg.GetLevel())
}

func (l *logger) WithFields(f Fields) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	merged := make(Fields, len(l.fld)+len(f))
	for k, v := range l.fld {
		merged[k] = v
	}
	for k, v := range f {
		merged[k] = v
	}

	return &logger{lg: l.lg, fld: merged}
}

func (l *logger) entry() *logrus.Entry {
	return l.lg.WithFields(logrus.Fields(l.fld))
}

func (l *logger) Trace(message string, f Fields) { l.WithFields(f).(*logger).entry().Trace(message) }
func (l *logger) Debug(message string, f Fields)   { l.WithFields(f).(*logger).entry().Debug(message) }
func (l *logger) Info(message string, f Fields)    { l.WithFields(f).(*logger).entry().Info(message) }
func (l *logger) Warning(message string, f Fields) { l.WithFields(f).(*logger).entry().Warn(message) }
func (l *logger) Error(message string, f Fields)   { l.WithFields(f).(*logger).entry().Error(message) }

func (l *logger) Verbose(message string, f Fields) {
	if verbose() {
		l.Debug(message, f)
	}
}

// Discard is a Logger that drops every entry, used by components that were
// not handed an explicit Logger.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logger{lg: l, fld: Fields{}}
}
