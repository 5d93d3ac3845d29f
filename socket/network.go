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

// Package socket provides the cross-platform address model and the
// timed connect/listen/accept primitives shared by every transport this
// module supports: TCP, UDP, SCTP, and Unix-domain sockets.
package socket

// Network identifies a transport family and address variant.
type Network uint8

const (
	NetworkUnknown Network = iota
	NetworkTCP
	NetworkTCP4
	NetworkTCP6
	NetworkUDP
	NetworkUDP4
	NetworkUDP6
	NetworkSCTP
	NetworkSCTP4
	NetworkSCTP6
	NetworkUnix
	NetworkUnixGram
)

// String returns the net package dial/listen network string for n, where
// applicable ("sctp" has no net package equivalent and is handled by the
// sctp opener directly).
func (n Network) String() string {
	switch n {
	case NetworkTCP:
		return "tcp"
	case NetworkTCP4:
		return "tcp4"
	case NetworkTCP6:
		return "tcp6"
	case NetworkUDP:
		return "udp"
	case NetworkUDP4:
		return "udp4"
	case NetworkUDP6:
		return "udp6"
	case NetworkSCTP, NetworkSCTP4, NetworkSCTP6:
		return "sctp"
	case NetworkUnix:
		return "unix"
	case NetworkUnixGram:
		return "unixgram"
	default:
		return ""
	}
}

// IsUnix reports whether n addresses a filesystem path rather than a
// host:port pair.
func (n Network) IsUnix() bool {
	return n == NetworkUnix || n == NetworkUnixGram
}

// IsStream reports whether n is a connection-oriented transport.
func (n Network) IsStream() bool {
	switch n {
	case NetworkTCP, NetworkTCP4, NetworkTCP6, NetworkSCTP, NetworkSCTP4, NetworkSCTP6, NetworkUnix:
		return true
	default:
		return false
	}
}

// Address is either a host:port pair (Ipv4/Ipv6) or a filesystem path
// (Unix). Host carries the heuristic address-family hint used during
// resolution: a literal containing ':' is treated as IPv6.
type Address struct {
	Network Network
	Host    string
	Port    uint16
	Path    string
}

// IsIPv6Literal applies the ":" implies IPv6 heuristic used to pick an
// address family when the caller did not pin one explicitly.
func IsIPv6Literal(host string) bool {
	for _, c := range host {
		if c == ':' {
			return true
		}
	}
	return false
}
