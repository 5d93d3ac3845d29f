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

package proxy

import (
	"net"
	"strconv"

	liberr "github.com/nabbar/natcore/errors"
)

const (
	socks4Version     = 0x04
	socks4CmdConnect  = 0x01
	socks4ReplyGranted = 0x5a
)

// socks4Connect implements the CONNECT request/reply exchange. SOCKS4
// has no method negotiation or auth handshake: the user id travels in
// the request itself and domain names require the 4a extension
// (0.0.0.1 sentinel address followed by a NUL-terminated hostname).
func socks4Connect(conn net.Conn, cfg Config, destHost, destPort string) error {
	port, err := strconv.Atoi(destPort)
	if err != nil || port < 0 || port > 65535 {
		return liberr.CodeInvalidConfiguration.Errorf("invalid destination port %q", destPort)
	}

	req := []byte{socks4Version, socks4CmdConnect, byte(port >> 8), byte(port)}

	var trailingHost []byte
	if ip := net.ParseIP(destHost); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			req = append(req, v4...)
		} else {
			return liberr.CodeInvalidConfiguration.Errorf("SOCKS4 does not support IPv6 destinations")
		}
	} else {
		// 4a extension: sentinel 0.0.0.1 signals a domain name follows
		// the user id field.
		req = append(req, 0x00, 0x00, 0x00, 0x01)
		trailingHost = append([]byte(destHost), 0x00)
	}

	req = append(req, cfg.Username...)
	req = append(req, 0x00)
	req = append(req, trailingHost...)

	if err = writeFull(conn, req); err != nil {
		return err
	}

	resp := make([]byte, 8)
	if err = readFull(conn, resp); err != nil {
		return err
	}
	if resp[0] != 0x00 {
		return liberr.CodeInvalidProxyResponse.Errorf("unexpected socks4 reply version byte %d", resp[0])
	}
	if resp[1] != socks4ReplyGranted {
		return liberr.CodeSocks5ConnectionFailed.Errorf("socks4 request rejected, code %d", resp[1])
	}
	return nil
}
