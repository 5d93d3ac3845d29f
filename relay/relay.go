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

// Package relay implements the bidirectional pump between local stdio and
// a peer connection (plaintext or TLS): the central loop used by the
// client and by non-broker server paths.
package relay

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	liberr "github.com/nabbar/natcore/errors"
	"github.com/nabbar/natcore/outputlog"
)

const bufferSize = 8 * 1024

// Peer is the narrow I/O surface a relay drives: either a plaintext
// net.Conn or a *tlsconn.Connection, both of which expose Read/Write and
// deadline setters.
type Peer interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Config controls the relay's I/O-direction restrictions, line-ending
// translation, and idle timeout.
type Config struct {
	SendOnly    bool
	RecvOnly    bool
	CRLF        bool
	CloseOnEOF  bool
	IdleTimeout time.Duration
}

// Options bundles the optional sinks a relay writes received bytes
// through, in addition to stdout.
type Options struct {
	OutputLog *outputlog.Sink
	HexDump   io.Writer
}

// pollInterval bounds how often Run checks for stdin/peer readiness when
// driving I/O through deadline-based reads rather than a native poll set;
// this keeps the loop portable across the plaintext and TLS peer types
// without depending on a raw file descriptor.
const pollInterval = 50 * time.Millisecond

// Run drives the bidirectional pump: reads from stdin and writes to peer,
// reads from peer and writes to stdout (or the configured sinks), honoring
// Config's direction restrictions and idle timeout, until both directions
// are closed or a fatal error occurs.
func Run(ctx context.Context, stdin io.Reader, stdout io.Writer, peer Peer, cfg Config, opt Options) error {
	defer cleanup(peer, opt)

	idle := cfg.IdleTimeout
	if idle <= 0 {
		if isTTY(stdin) {
			idle = 0
		} else {
			idle = 30 * time.Second
		}
	}

	stdinClosed := cfg.RecvOnly
	peerClosed := cfg.SendOnly

	readBuf := make([]byte, bufferSize)
	peerBuf := make([]byte, bufferSize)

	stdinCh := make(chan readResult, 1)
	peerCh := make(chan readResult, 1)

	if !stdinClosed {
		go readInto(stdin, readBuf, stdinCh)
	}
	if !peerClosed {
		if idle > 0 {
			_ = peer.SetReadDeadline(time.Now().Add(idle))
		}
		go readInto(peer, peerBuf, peerCh)
	}

	lastActivity := time.Now()

	for !stdinClosed || !peerClosed {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case res := <-stdinCh:
			lastActivity = time.Now()
			if res.err != nil {
				stdinClosed = true
				if cfg.CloseOnEOF {
					return nil
				}
				continue
			}
			if err := writeToPeer(peer, res.buf, cfg.CRLF); err != nil {
				if liberr.IsRecoverable(err) {
					go readInto(stdin, readBuf, stdinCh)
					continue
				}
				return err
			}
			go readInto(stdin, readBuf, stdinCh)

		case res := <-peerCh:
			if res.err != nil {
				if isTimeout(res.err) {
					if idle > 0 && time.Since(lastActivity) >= idle {
						return nil
					}
					if idle > 0 {
						_ = peer.SetReadDeadline(time.Now().Add(idle))
					}
					go readInto(peer, peerBuf, peerCh)
					continue
				}
				if liberr.IsPeerClosed(res.err) {
					peerClosed = true
					continue
				}
				return res.err
			}
			lastActivity = time.Now()
			if err := dispatchPeerBytes(stdout, res.buf, opt); err != nil {
				return err
			}
			if idle > 0 {
				_ = peer.SetReadDeadline(time.Now().Add(idle))
			}
			go readInto(peer, peerBuf, peerCh)

		case <-time.After(pollInterval):
			if idle > 0 && time.Since(lastActivity) >= idle && stdinClosed {
				return nil
			}
		}
	}

	return nil
}

type readResult struct {
	buf []byte
	err error
}

func readInto(r io.Reader, buf []byte, out chan<- readResult) {
	n, err := r.Read(buf)
	res := readResult{err: err}
	if n > 0 {
		res.buf = append([]byte(nil), buf[:n]...)
	}
	out <- res
}

func writeToPeer(peer Peer, data []byte, crlf bool) error {
	out := data
	if crlf {
		out = translateCRLF(data)
	}
	_, err := peer.Write(out)
	return err
}

// translateCRLF substitutes '\n' with "\r\n", allocating a new buffer only
// when the input actually contains a bare newline.
func translateCRLF(in []byte) []byte {
	count := 0
	for _, b := range in {
		if b == '\n' {
			count++
		}
	}
	if count == 0 {
		return in
	}

	out := make([]byte, 0, len(in)+count)
	for _, b := range in {
		if b == '\n' {
			out = append(out, '\r', '\n')
		} else {
			out = append(out, b)
		}
	}
	return out
}

func dispatchPeerBytes(stdout io.Writer, data []byte, opt Options) error {
	if opt.HexDump != nil {
		if _, err := opt.HexDump.Write(data); err != nil {
			_, _ = os.Stderr.Write(data)
		}
	} else {
		if _, err := stdout.Write(data); err != nil {
			return liberr.CodeFileSystemError.Error(err)
		}
	}
	if opt.OutputLog != nil {
		_, _ = opt.OutputLog.Write(data)
	}
	return nil
}

func isTTY(r io.Reader) bool {
	type fdReader interface {
		Fd() uintptr
	}
	f, ok := r.(fdReader)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

// cleanup implements the relay's cleanup contract: flush the output
// sink with its bounded retry schedule, then close the peer so a TLS
// connection sends its close-notify before the socket is released.
func cleanup(peer Peer, opt Options) {
	if opt.OutputLog != nil {
		_ = opt.OutputLog.Flush(context.Background())
	}
	_ = peer.Close()
}

func isTimeout(err error) bool {
	type timeouter interface {
		Timeout() bool
	}
	if t, ok := err.(timeouter); ok {
		return t.Timeout()
	}
	return liberr.CodeOf(err) == liberr.CodeNetworkTimeout || liberr.CodeOf(err) == liberr.CodeWouldBlock
}
