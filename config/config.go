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

// Package config declares the plain, tagged data carriers the CLI layer
// populates and hands to the core. Parsing flags/env/files into these
// structs, and validating them, are both out of scope here: this
// package only shapes the surface those outside collaborators target.
package config

import (
	"github.com/nabbar/natcore/timeout"
)

// Relay carries the connection-mode, I/O-direction and line-handling
// options consumed by the relay/exec core.
type Relay struct {
	Listen           bool             `mapstructure:"listen" json:"listen" yaml:"listen" toml:"listen" validate:"-"`
	UDP              bool             `mapstructure:"udp" json:"udp" yaml:"udp" toml:"udp" validate:"-"`
	SCTP             bool             `mapstructure:"sctp" json:"sctp" yaml:"sctp" toml:"sctp" validate:"-"`
	UnixSocketPath   string           `mapstructure:"unixSocketPath" json:"unixSocketPath" yaml:"unixSocketPath" toml:"unixSocketPath" validate:"omitempty,max=108"`
	Host             string           `mapstructure:"host" json:"host" yaml:"host" toml:"host" validate:"omitempty,hostname_port|hostname|ip"`
	Port             uint16           `mapstructure:"port" json:"port" yaml:"port" toml:"port" validate:"omitempty,gt=0"`
	SendOnly         bool             `mapstructure:"sendOnly" json:"sendOnly" yaml:"sendOnly" toml:"sendOnly" validate:"excluded_with=RecvOnly"`
	RecvOnly         bool             `mapstructure:"recvOnly" json:"recvOnly" yaml:"recvOnly" toml:"recvOnly" validate:"excluded_with=SendOnly"`
	CRLF             bool             `mapstructure:"crlf" json:"crlf" yaml:"crlf" toml:"crlf" validate:"-"`
	CloseOnEOF       bool             `mapstructure:"closeOnEof" json:"closeOnEof" yaml:"closeOnEof" toml:"closeOnEof" validate:"-"`
	IPv4Only         bool             `mapstructure:"ipv4Only" json:"ipv4Only" yaml:"ipv4Only" toml:"ipv4Only" validate:"excluded_with=IPv6Only"`
	IPv6Only         bool             `mapstructure:"ipv6Only" json:"ipv6Only" yaml:"ipv6Only" toml:"ipv6Only" validate:"excluded_with=IPv4Only"`
	OutputPath       string           `mapstructure:"outputPath" json:"outputPath" yaml:"outputPath" toml:"outputPath" validate:"omitempty"`
	OutputAppend     bool             `mapstructure:"outputAppend" json:"outputAppend" yaml:"outputAppend" toml:"outputAppend" validate:"-"`
	HexDumpPath      string           `mapstructure:"hexDumpPath" json:"hexDumpPath" yaml:"hexDumpPath" toml:"hexDumpPath" validate:"omitempty"`
	IdleTimeout      timeout.Duration `mapstructure:"idleTimeout" json:"idleTimeout" yaml:"idleTimeout" toml:"idleTimeout" validate:"-"`
	ConnectTimeout   timeout.Duration `mapstructure:"connectTimeout" json:"connectTimeout" yaml:"connectTimeout" toml:"connectTimeout" validate:"-"`
	ExecutionTimeout timeout.Duration `mapstructure:"executionTimeout" json:"executionTimeout" yaml:"executionTimeout" toml:"executionTimeout" validate:"-"`
	TLS              TLS              `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`
	Proxy            Proxy            `mapstructure:"proxy" json:"proxy" yaml:"proxy" toml:"proxy"`
	Verbosity        int              `mapstructure:"verbosity" json:"verbosity" yaml:"verbosity" toml:"verbosity" validate:"gte=0,lte=4"`
	Quiet            bool             `mapstructure:"quiet" json:"quiet" yaml:"quiet" toml:"quiet" validate:"-"`
}

// TLS carries the minimal set of options the core's tlsconn package
// needs; a full certificate-policy config (cipher/curve/version lists,
// client-auth policy) is out of scope here.
type TLS struct {
	Enabled  bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled" validate:"-"`
	CertFile string `mapstructure:"certFile" json:"certFile" yaml:"certFile" toml:"certFile" validate:"required_if=Enabled true"`
	KeyFile  string `mapstructure:"keyFile" json:"keyFile" yaml:"keyFile" toml:"keyFile" validate:"required_if=Enabled true"`
}

// Proxy carries the upstream-proxy selection the core's proxy package
// dials through before the relay's connection even starts.
type Proxy struct {
	Enabled  bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled" validate:"-"`
	Kind     string `mapstructure:"kind" json:"kind" yaml:"kind" toml:"kind" validate:"omitempty,oneof=socks5 socks4 http-connect"`
	Host     string `mapstructure:"host" json:"host" yaml:"host" toml:"host" validate:"required_if=Enabled true"`
	Port     uint16 `mapstructure:"port" json:"port" yaml:"port" toml:"port" validate:"required_if=Enabled true"`
	Username string `mapstructure:"username" json:"username" yaml:"username" toml:"username" validate:"omitempty,max=255"`
	Password string `mapstructure:"password" json:"password" yaml:"password" toml:"password" validate:"omitempty,max=255"`
}

// Broker carries the multi-client accept-loop limits and mode switch.
type Broker struct {
	Enabled           bool             `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled" validate:"-"`
	Chat              bool             `mapstructure:"chat" json:"chat" yaml:"chat" toml:"chat" validate:"-"`
	MaxClients        int64            `mapstructure:"maxClients" json:"maxClients" yaml:"maxClients" toml:"maxClients" validate:"gt=0"`
	IdleTimeout       timeout.Duration `mapstructure:"idleTimeout" json:"idleTimeout" yaml:"idleTimeout" toml:"idleTimeout" validate:"-"`
	ChatMaxNickLen    int              `mapstructure:"chatMaxNicknameLen" json:"chatMaxNicknameLen" yaml:"chatMaxNicknameLen" toml:"chatMaxNicknameLen" validate:"gte=0"`
	ChatMaxMessageLen int              `mapstructure:"chatMaxMessageLen" json:"chatMaxMessageLen" yaml:"chatMaxMessageLen" toml:"chatMaxMessageLen" validate:"gte=0"`
}

// DefaultMaxClients mirrors spec §6's documented CLI default for
// --max-clients.
const DefaultMaxClients = 50
