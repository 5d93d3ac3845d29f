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

package errors

import (
	"fmt"
	"runtime"
)

// Error extends the standard error with a Code/Kind classification and an
// optional parent chain, classified by Kind and Code.
type Error interface {
	error

	Code() Code
	Kind() Kind
	Is(error) bool
	Unwrap() error
	File() string
	Line() int
	// Recoverable reports whether the caller should retry rather than abort.
	Recoverable() bool
}

type wrappedError struct {
	code   Code
	msg    string
	parent error
	file   string
	line   int
}

// New builds an Error with the given Code and message, optionally wrapping
// the first non-nil entry of parent as the cause.
func New(code Code, msg string, parent ...error) Error {
	_, file, line, _ := runtime.Caller(1)

	var p error
	for _, e := range parent {
		if e != nil {
			p = e
			break
		}
	}

	return &wrappedError{code: code, msg: msg, parent: p, file: file, line: line}
}

// Newf builds an Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) Error {
	_, file, line, _ := runtime.Caller(1)
	return &wrappedError{code: code, msg: fmt.Sprintf(format, args...), file: file, line: line}
}

// Wrap attaches code to an existing error without discarding it, keeping
// the original error reachable via Unwrap/errors.Is.
func Wrap(code Code, err error) Error {
	if err == nil {
		return nil
	}
	_, file, line, _ := runtime.Caller(1)
	return &wrappedError{code: code, msg: code.Message(), parent: err, file: file, line: line}
}

func (e *wrappedError) Error() string {
	if e.parent != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.parent.Error())
	}
	return e.msg
}

func (e *wrappedError) Code() Code   { return e.code }
func (e *wrappedError) Kind() Kind   { return e.code.Kind() }
func (e *wrappedError) File() string { return e.file }
func (e *wrappedError) Line() int    { return e.line }

func (e *wrappedError) Unwrap() error { return e.parent }

func (e *wrappedError) Recoverable() bool { return e.code.Kind().Recoverable() }

// Is reports code equality first, then falls back to standard errors.Is
// semantics against the parent chain.
func (e *wrappedError) Is(target error) bool {
	if o, ok := target.(Error); ok {
		return o.Code() == e.code
	}
	return false
}

// CodeOf extracts the Code carried by err, or CodeUnknown if err does not
// implement Error.
func CodeOf(err error) Code {
	if e, ok := err.(Error); ok {
		return e.Code()
	}
	return CodeUnknown
}

// KindOf extracts the Kind carried by err.
func KindOf(err error) Kind {
	return CodeOf(err).Kind()
}

// IsRecoverable reports whether err should be retried on the next loop tick
// rather than surfaced (WouldBlock, NetworkTimeout, BufferTooSmall, FileLocked).
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err).Recoverable()
}

// IsPeerClosed reports whether err represents a normal peer-side closure.
func IsPeerClosed(err error) bool {
	return err != nil && KindOf(err) == KindPeerClosed
}

// IsFatal reports whether err must terminate the owning loop.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err).Terminal()
}
