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
	socks5Version = 0x05

	socks5MethodNoAuth   = 0x00
	socks5MethodUserPass = 0x02
	socks5MethodNoAccept = 0xff

	socks5CmdConnect = 0x01

	socks5AtypIPv4   = 0x01
	socks5AtypDomain = 0x03
	socks5AtypIPv6   = 0x04

	socks5AuthVersion = 0x01
	socks5AuthSuccess = 0x00
)

// socks5ReplyError maps a non-zero SOCKS5 REP byte to its RFC 1928 §6
// meaning; everything is classed as CodeSocks5ConnectionFailed, the
// specific text varies for operator-visible diagnostics.
var socks5ReplyError = map[byte]string{
	0x01: "general SOCKS server failure",
	0x02: "connection not allowed by ruleset",
	0x03: "network unreachable",
	0x04: "host unreachable",
	0x05: "connection refused",
	0x06: "TTL expired",
	0x07: "command not supported",
	0x08: "address type not supported",
}

func socks5Connect(conn net.Conn, cfg Config, destHost, destPort string) error {
	if err := socks5Handshake(conn, cfg); err != nil {
		return err
	}
	return socks5RequestConnect(conn, destHost, destPort)
}

func socks5Handshake(conn net.Conn, cfg Config) error {
	methods := []byte{socks5MethodNoAuth}
	haveCreds := cfg.Username != "" || cfg.Password != ""
	if haveCreds {
		methods = append(methods, socks5MethodUserPass)
	}

	req := make([]byte, 0, 2+len(methods))
	req = append(req, socks5Version, byte(len(methods)))
	req = append(req, methods...)
	if err := writeFull(conn, req); err != nil {
		return err
	}

	resp := make([]byte, 2)
	if err := readFull(conn, resp); err != nil {
		return err
	}
	if resp[0] != socks5Version {
		return liberr.CodeInvalidProxyResponse.Errorf("unexpected socks version %d", resp[0])
	}

	switch resp[1] {
	case socks5MethodNoAuth:
		return nil
	case socks5MethodUserPass:
		if !haveCreds {
			return liberr.CodeAuthenticationRequired.Error()
		}
		return socks5Authenticate(conn, cfg.Username, cfg.Password)
	case socks5MethodNoAccept:
		return liberr.CodeNoAcceptableAuthMethod.Error()
	default:
		return liberr.CodeNoAcceptableAuthMethod.Errorf("unknown method %d", resp[1])
	}
}

func socks5Authenticate(conn net.Conn, username, password string) error {
	if len(username) > 255 {
		return liberr.CodeUsernameTooLong.Error()
	}
	if len(password) > 255 {
		return liberr.CodePasswordTooLong.Error()
	}

	req := make([]byte, 0, 3+len(username)+len(password))
	req = append(req, socks5AuthVersion, byte(len(username)))
	req = append(req, username...)
	req = append(req, byte(len(password)))
	req = append(req, password...)
	if err := writeFull(conn, req); err != nil {
		return err
	}

	resp := make([]byte, 2)
	if err := readFull(conn, resp); err != nil {
		return err
	}
	if resp[1] != socks5AuthSuccess {
		return liberr.CodeAuthenticationFailed.Error()
	}
	return nil
}

func socks5RequestConnect(conn net.Conn, destHost, destPort string) error {
	port, err := strconv.Atoi(destPort)
	if err != nil || port < 0 || port > 65535 {
		return liberr.CodeInvalidConfiguration.Errorf("invalid destination port %q", destPort)
	}

	req := []byte{socks5Version, socks5CmdConnect, 0x00}
	req = append(req, socks5EncodeAddress(destHost)...)
	req = append(req, byte(port>>8), byte(port))

	if err = writeFull(conn, req); err != nil {
		return err
	}

	header := make([]byte, 4)
	if err = readFull(conn, header); err != nil {
		return err
	}
	if header[0] != socks5Version {
		return liberr.CodeInvalidProxyResponse.Errorf("unexpected socks version %d in reply", header[0])
	}
	if header[1] != 0x00 {
		if msg, ok := socks5ReplyError[header[1]]; ok {
			return liberr.CodeSocks5ConnectionFailed.Errorf("%s", msg)
		}
		return liberr.CodeSocks5ConnectionFailed.Errorf("unknown reply code %d", header[1])
	}

	return socks5DiscardBoundAddress(conn, header[3])
}

// socks5EncodeAddress picks ATYP by trying IPv4, then IPv6, then falling
// back to a length-prefixed domain name.
func socks5EncodeAddress(host string) []byte {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return append([]byte{socks5AtypIPv4}, v4...)
		}
		return append([]byte{socks5AtypIPv6}, ip.To16()...)
	}
	b := make([]byte, 0, 2+len(host))
	b = append(b, socks5AtypDomain, byte(len(host)))
	return append(b, host...)
}

// socks5DiscardBoundAddress reads and discards the BND.ADDR/BND.PORT
// trailer of the CONNECT reply, whose length depends on atyp.
func socks5DiscardBoundAddress(conn net.Conn, atyp byte) error {
	var addrLen int
	switch atyp {
	case socks5AtypIPv4:
		addrLen = 4
	case socks5AtypIPv6:
		addrLen = 16
	case socks5AtypDomain:
		lenBuf := make([]byte, 1)
		if err := readFull(conn, lenBuf); err != nil {
			return err
		}
		addrLen = int(lenBuf[0])
	default:
		return liberr.CodeInvalidProxyResponse.Errorf("unknown bound address type %d", atyp)
	}

	trailer := make([]byte, addrLen+2)
	return readFull(conn, trailer)
}
