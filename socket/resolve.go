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

package socket

import (
	"context"
	"net"
	"strconv"

	liberr "github.com/nabbar/natcore/errors"
)

// Resolve produces an ordered list of dialable "host:port" strings for
// addr, used by the timed connect's multi-address fallback loop. A literal
// IP is returned as a single-element list; a hostname is expanded via the
// resolver into every address of the requested family.
func Resolve(ctx context.Context, n Network, host string, port uint16) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{net.JoinHostPort(host, strconv.Itoa(int(port)))}, nil
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, resolveNetwork(n), host)
	if err != nil {
		return nil, liberr.CodeUnknownHost.Error(err)
	}
	if len(ips) == 0 {
		return nil, liberr.CodeUnknownHost.Error()
	}

	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, net.JoinHostPort(ip.String(), strconv.Itoa(int(port))))
	}
	return out, nil
}

func resolveNetwork(n Network) string {
	switch n {
	case NetworkTCP4, NetworkUDP4, NetworkSCTP4:
		return "ip4"
	case NetworkTCP6, NetworkUDP6, NetworkSCTP6:
		return "ip6"
	default:
		return "ip"
	}
}
