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

package broker

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/semaphore"

	liberr "github.com/nabbar/natcore/errors"
)

// Mode selects how incoming bytes are relayed to other clients.
type Mode uint8

const (
	ModeBroker Mode = iota
	ModeChat
)

const maxLinesPerTick = 32

// Config controls server limits. A zero IdleTimeout disables idle
// disconnection.
type Config struct {
	MaxClients        int64
	IdleTimeout       time.Duration
	ChatMaxNickLen    int
	ChatMaxMessageLen int
}

// Server owns the accepted client set, the nickname index for chat mode,
// and the listener it is currently draining.
type Server struct {
	mode      Mode
	cfg       Config
	ln        net.Listener
	gate      *semaphore.Weighted
	clients   map[uuid.UUID]*Client
	nicknames map[string]uuid.UUID
	metrics   *Metrics
}

// New builds a Server bound to ln, in the given mode.
func New(ln net.Listener, mode Mode, cfg Config) *Server {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 64
	}
	if cfg.ChatMaxNickLen <= 0 {
		cfg.ChatMaxNickLen = 32
	}
	if cfg.ChatMaxMessageLen <= 0 {
		cfg.ChatMaxMessageLen = 1024
	}
	return &Server{
		mode:      mode,
		cfg:       cfg,
		ln:        ln,
		gate:      semaphore.NewWeighted(cfg.MaxClients),
		clients:   make(map[uuid.UUID]*Client),
		nicknames: make(map[string]uuid.UUID),
	}
}

// WithMetrics attaches a counter bundle an external scrape target reads
// from; passing nil detaches metrics entirely.
func (s *Server) WithMetrics(m *Metrics) *Server {
	s.metrics = m
	return s
}

// Serve runs the accept loop and per-tick client processing until ctx is
// canceled.
func (s *Server) Serve(ctx context.Context) error {
	acceptCh := make(chan net.Conn)
	go s.acceptLoop(ctx, acceptCh)

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case conn := <-acceptCh:
			s.admit(conn)
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Server) acceptLoop(ctx context.Context, out chan<- net.Conn) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		select {
		case out <- conn:
		case <-ctx.Done():
			_ = conn.Close()
			return
		}
	}
}

// admit accepts conn if the client gate has capacity, otherwise rejects
// it with a polite message and disconnects.
func (s *Server) admit(conn net.Conn) {
	if !s.gate.TryAcquire(1) {
		_, _ = conn.Write([]byte("ERROR: server full\n"))
		_ = conn.Close()
		s.metrics.clientRejected()
		return
	}

	c := newClient(conn)
	s.clients[c.ID] = c
	s.metrics.clientAdmitted()

	if s.mode == ModeChat {
		_, _ = conn.Write([]byte("*** Enter your nickname: "))
	}
}

// tick drains pending reads for every connected client, bounded to
// maxLinesPerTick lines each, and evaluates idle disconnects.
func (s *Server) tick() error {
	var errs *multierror.Error

	for id, c := range s.clients {
		if err := s.tickClient(c); err != nil {
			errs = multierror.Append(errs, err)
			s.disconnect(id)
			continue
		}
		if s.cfg.IdleTimeout > 0 && c.idleFor() > s.cfg.IdleTimeout {
			errs = multierror.Append(errs, liberr.CodeClientSocketError.Errorf("client %s idle timeout", c.ID))
			s.disconnect(id)
		}
	}

	return errs.ErrorOrNil()
}

func (s *Server) tickClient(c *Client) error {
	if err := c.Conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return liberr.CodeClientSocketError.Error(err)
	}

	n, err := c.Conn.Read(c.readBuf[c.readBufLen:])
	if n > 0 {
		c.readBufLen += n
		c.BytesReceived += int64(n)
		c.touch()
	}
	if err != nil {
		if isTimeout(err) {
			return s.processBuffered(c)
		}
		return liberr.CodeConnectionResetByPeer.Error(err)
	}

	if c.readBufLen >= len(c.readBuf) {
		_, _ = c.Conn.Write([]byte("ERROR: Line too long\n"))
		return liberr.CodeMessageTooLong.Error()
	}

	return s.processBuffered(c)
}

func (s *Server) processBuffered(c *Client) error {
	if s.mode == ModeBroker {
		return s.relayBroker(c)
	}
	return s.relayChat(c)
}

// relayBroker forwards the entire buffer to every other client and clears
// it. Per-peer write failures are recorded but don't stop the broadcast.
func (s *Server) relayBroker(c *Client) error {
	if c.readBufLen == 0 {
		return nil
	}
	data := append([]byte(nil), c.readBuf[:c.readBufLen]...)
	c.readBufLen = 0

	var errs *multierror.Error
	for id, peer := range s.clients {
		if id == c.ID {
			continue
		}
		if _, err := peer.Conn.Write(data); err != nil {
			errs = multierror.Append(errs, liberr.CodeClientSocketError.Error(err))
		} else {
			peer.BytesSent += int64(len(data))
			s.metrics.addBytes(len(data))
		}
	}
	return errs.ErrorOrNil()
}

// relayChat extracts newline-delimited lines (at most maxLinesPerTick),
// handling nickname registration before treating further lines as chat
// messages, and compacts unprocessed bytes to the front of the buffer.
func (s *Server) relayChat(c *Client) error {
	processed := 0
	for processed < maxLinesPerTick {
		idx := indexByte(c.readBuf[:c.readBufLen], '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSuffix(string(c.readBuf[:idx]), "\r")
		copy(c.readBuf[:], c.readBuf[idx+1:c.readBufLen])
		c.readBufLen -= idx + 1
		processed++

		if c.Nickname == "" {
			s.handleNickname(c, line)
		} else {
			s.handleMessage(c, line)
		}
	}
	return nil
}

func (s *Server) handleNickname(c *Client, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		_, _ = c.Conn.Write([]byte("*** Enter your nickname: "))
		return
	}
	if len(trimmed) > s.cfg.ChatMaxNickLen {
		_, _ = c.Conn.Write([]byte("ERROR: nickname too long\n"))
		return
	}
	if _, taken := s.nicknames[trimmed]; taken {
		_, _ = c.Conn.Write([]byte("*** Nickname already taken, please choose another\n"))
		return
	}

	s.nicknames[trimmed] = c.ID
	c.Nickname = trimmed
	_, _ = c.Conn.Write([]byte("*** You are now known as " + trimmed + "\n"))
	s.broadcastExcept(c.ID, "*** "+trimmed+" joined the chat\n")
}

func (s *Server) handleMessage(c *Client, line string) {
	if line == "" {
		return
	}
	if len(line) > s.cfg.ChatMaxMessageLen {
		_, _ = c.Conn.Write([]byte("ERROR: message too long\n"))
		return
	}
	s.broadcastExcept(c.ID, "["+c.Nickname+"] "+line+"\n")
}

func (s *Server) broadcastExcept(except uuid.UUID, msg string) {
	for id, peer := range s.clients {
		if id == except {
			continue
		}
		if n, err := peer.Conn.Write([]byte(msg)); err == nil {
			peer.BytesSent += int64(n)
			s.metrics.addBytes(n)
		}
	}
}

func (s *Server) disconnect(id uuid.UUID) {
	c, ok := s.clients[id]
	if !ok {
		return
	}
	_ = c.Conn.Close()
	if c.Nickname != "" {
		delete(s.nicknames, c.Nickname)
	}
	delete(s.clients, id)
	s.gate.Release(1)
	s.metrics.clientDisconnected()
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	t, ok := err.(timeouter)
	return ok && t.Timeout()
}
