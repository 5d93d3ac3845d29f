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

// Package errors classifies the relay's failures into the kinds described by
// the error-handling design: transient, peer-closed, protocol, resource,
// timeout and output-I/O. Every Code belongs to exactly one Kind, which
// drives retry and termination behavior across relay, exec and broker.
package errors

// Kind groups Codes by how a caller must react to them.
type Kind uint8

const (
	KindTransient Kind = iota
	KindPeerClosed
	KindProtocol
	KindResource
	KindTimeout
	KindOutputIO
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPeerClosed:
		return "peer-closed"
	case KindProtocol:
		return "protocol"
	case KindResource:
		return "resource"
	case KindTimeout:
		return "timeout"
	case KindOutputIO:
		return "output-io"
	default:
		return "unknown"
	}
}

// Recoverable reports whether errors of this Kind should be retried on the
// next loop iteration rather than surfaced to the caller.
func (k Kind) Recoverable() bool {
	return k == KindTransient
}

// Terminal reports whether errors of this Kind end the owning loop.
func (k Kind) Terminal() bool {
	return k != KindTransient && k != KindPeerClosed
}
