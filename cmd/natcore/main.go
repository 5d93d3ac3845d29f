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

// Command natcore is a thin wiring binary over the core packages: it
// parses just enough flags to pick a connection mode and hands the rest
// to socket/relay/exec/broker/proxy. Full CLI ergonomics (config files,
// shell completion, validation error reporting) are an external
// collaborator's job, not this binary's.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nabbar/natcore/backend"
	"github.com/nabbar/natcore/broker"
	libcfg "github.com/nabbar/natcore/config"
	libexec "github.com/nabbar/natcore/exec"
	"github.com/nabbar/natcore/logger"
	"github.com/nabbar/natcore/outputlog"
	libprx "github.com/nabbar/natcore/proxy"
	"github.com/nabbar/natcore/relay"
	natruntime "github.com/nabbar/natcore/runtime"
	"github.com/nabbar/natcore/socket"
	"github.com/nabbar/natcore/timeout"
)

func main() {
	cfg, command, destAddr, metricsAddr := parseFlags()
	log := logger.New(os.Stderr)

	rt := natruntime.Init(context.Background())
	defer rt.Shutdown()

	var err error
	switch {
	case cfg.Broker.Enabled:
		err = runBroker(rt.Context(), cfg, metricsAddr)
	case cfg.Listen:
		err = runListen(rt.Context(), cfg, command)
	default:
		err = runConnect(rt.Context(), cfg, command, destAddr)
	}

	if err != nil {
		log.Error(err.Error(), nil)
		os.Exit(1)
	}
}

func parseFlags() (libcfg.Relay, []string, string, string) {
	var cfg libcfg.Relay

	flag.BoolVar(&cfg.Listen, "l", false, "listen mode")
	flag.BoolVar(&cfg.UDP, "u", false, "use UDP")
	flag.StringVar(&cfg.UnixSocketPath, "U", "", "unix domain socket path")
	flag.BoolVar(&cfg.SendOnly, "send-only", false, "relay stdin to peer only")
	flag.BoolVar(&cfg.RecvOnly, "recv-only", false, "relay peer to stdout only")
	flag.BoolVar(&cfg.CRLF, "crlf", false, "translate bare LF to CRLF towards the peer")
	flag.BoolVar(&cfg.CloseOnEOF, "close-on-eof", false, "close the peer once stdin reaches EOF")
	flag.BoolVar(&cfg.IPv4Only, "ipv4-only", false, "restrict resolution to IPv4")
	flag.BoolVar(&cfg.IPv6Only, "ipv6-only", false, "restrict resolution to IPv6")
	flag.StringVar(&cfg.OutputPath, "o", "", "write all relayed bytes to this file (truncated when opened)")
	flag.BoolVar(&cfg.OutputAppend, "append", false, "not applied: -o always truncates its file")
	flag.StringVar(&cfg.HexDumpPath, "x", "", "hex-dump relayed bytes to this file")
	flag.BoolVar(&cfg.Broker.Enabled, "broker", false, "multi-client broker mode")
	flag.BoolVar(&cfg.Broker.Chat, "chat", false, "multi-client chat mode")
	maxClients := flag.Int64("max-clients", libcfg.DefaultMaxClients, "maximum concurrent broker/chat clients")
	idleMs := flag.Int64("idle-timeout", 0, "idle timeout in milliseconds (0 disables)")
	connectMs := flag.Int64("connect-timeout", 10000, "connect timeout in milliseconds")
	flag.BoolVar(&cfg.TLS.Enabled, "ssl", false, "wrap the connection in TLS")
	flag.StringVar(&cfg.TLS.CertFile, "ssl-cert", "", "TLS certificate file")
	flag.StringVar(&cfg.TLS.KeyFile, "ssl-key", "", "TLS key file")
	flag.BoolVar(&cfg.Proxy.Enabled, "proxy", false, "dial through an upstream proxy")
	flag.StringVar(&cfg.Proxy.Kind, "proxy-type", "socks5", "socks5 | socks4 | http-connect")
	flag.StringVar(&cfg.Proxy.Host, "proxy-host", "", "proxy host")
	proxyPort := flag.Int("proxy-port", 1080, "proxy port")
	flag.StringVar(&cfg.Proxy.Username, "proxy-user", "", "proxy username")
	flag.StringVar(&cfg.Proxy.Password, "proxy-pass", "", "proxy password")
	execCmd := flag.String("c", "", "run this command instead of relaying to stdio")
	verbosity := flag.Int("v", 0, "verbosity (repeatable semantics flattened to a count)")
	flag.BoolVar(&cfg.Quiet, "q", false, "quiet")
	port := flag.Int("p", 0, "listen port, or destination port when a separate host arg is given")
	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address (broker mode only)")

	flag.Parse()

	cfg.Port = uint16(*port)
	cfg.Broker.MaxClients = *maxClients
	cfg.IdleTimeout = timeout.ParseDuration(time.Duration(*idleMs) * time.Millisecond)
	cfg.ConnectTimeout = timeout.ParseDuration(time.Duration(*connectMs) * time.Millisecond)
	cfg.Broker.IdleTimeout = cfg.IdleTimeout
	cfg.Proxy.Port = uint16(*proxyPort)
	cfg.Verbosity = *verbosity

	args := flag.Args()
	destAddr := ""
	consumed := 0
	if len(args) > 0 && cfg.UnixSocketPath == "" {
		if len(args) > 1 {
			if _, portErr := strconv.Atoi(args[1]); portErr == nil {
				destAddr = net.JoinHostPort(args[0], args[1])
				consumed = 2
			}
		}
		if consumed == 0 {
			destAddr = args[0]
			consumed = 1
			if *port != 0 {
				destAddr = net.JoinHostPort(args[0], strconv.Itoa(*port))
			}
		}
	}

	var command []string
	if *execCmd != "" {
		command = []string{*execCmd}
		command = append(command, args[consumed:]...)
	}

	return cfg, command, destAddr, *metricsAddr
}

func networkFor(cfg libcfg.Relay) socket.Network {
	switch {
	case cfg.UnixSocketPath != "":
		return socket.NetworkUnix
	case cfg.UDP:
		return socket.NetworkUDP
	case cfg.IPv4Only:
		return socket.NetworkTCP4
	case cfg.IPv6Only:
		return socket.NetworkTCP6
	default:
		return socket.NetworkTCP
	}
}

func addressFor(cfg libcfg.Relay, hostport string) (socket.Address, error) {
	if cfg.UnixSocketPath != "" {
		return socket.Address{Path: cfg.UnixSocketPath}, nil
	}
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return socket.Address{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return socket.Address{}, err
	}
	return socket.Address{Host: host, Port: uint16(port)}, nil
}

func relayOptions(cfg libcfg.Relay) (relay.Options, func(), error) {
	var opt relay.Options
	var closers []func()

	if cfg.HexDumpPath != "" {
		sink, err := outputlog.Open(cfg.HexDumpPath, true)
		if err != nil {
			return opt, nil, err
		}
		opt.HexDump = sink
		closers = append(closers, func() { _ = sink.Close() })
	}
	if cfg.OutputPath != "" {
		sink, err := outputlog.Open(cfg.OutputPath, false)
		if err != nil {
			return opt, nil, err
		}
		opt.OutputLog = sink
		closers = append(closers, func() { _ = sink.Close() })
	}

	return opt, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}

func runConnect(ctx context.Context, cfg libcfg.Relay, command []string, destAddr string) error {
	n := networkFor(cfg)
	addr, err := addressFor(cfg, destAddr)
	if err != nil {
		return err
	}

	var conn net.Conn
	if cfg.Proxy.Enabled {
		pc := libprx.New(libprx.Config{
			Kind:     proxyKind(cfg.Proxy.Kind),
			Host:     cfg.Proxy.Host,
			Port:     int(cfg.Proxy.Port),
			Username: cfg.Proxy.Username,
			Password: cfg.Proxy.Password,
		})
		conn, err = pc.Dial("tcp", destAddr)
	} else {
		conn, err = socket.Dial(ctx, n, addr, cfg.ConnectTimeout.Time())
	}
	if err != nil {
		return err
	}
	defer conn.Close()

	if len(command) > 0 {
		return runExec(conn, cfg, command)
	}

	opt, closeOpt, err := relayOptions(cfg)
	if err != nil {
		return err
	}
	defer closeOpt()

	return relay.Run(ctx, os.Stdin, os.Stdout, conn, relay.Config{
		SendOnly:    cfg.SendOnly,
		RecvOnly:    cfg.RecvOnly,
		CRLF:        cfg.CRLF,
		CloseOnEOF:  cfg.CloseOnEOF,
		IdleTimeout: cfg.IdleTimeout.Time(),
	}, opt)
}

func runListen(ctx context.Context, cfg libcfg.Relay, command []string) error {
	n := networkFor(cfg)
	addr, err := addressFor(cfg, fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return err
	}

	ln, err := socket.Listen(ctx, n, addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	conn, err := socket.Accept(ln, 0)
	if err != nil {
		return err
	}
	defer conn.Close()

	if len(command) > 0 {
		return runExec(conn, cfg, command)
	}

	opt, closeOpt, err := relayOptions(cfg)
	if err != nil {
		return err
	}
	defer closeOpt()

	return relay.Run(ctx, os.Stdin, os.Stdout, conn, relay.Config{
		SendOnly:    cfg.SendOnly,
		RecvOnly:    cfg.RecvOnly,
		CRLF:        cfg.CRLF,
		CloseOnEOF:  cfg.CloseOnEOF,
		IdleTimeout: cfg.IdleTimeout.Time(),
	}, opt)
}

func runExec(conn net.Conn, cfg libcfg.Relay, command []string) error {
	peer, ok := conn.(interface {
		syscall.Conn
		net.Conn
	})
	if !ok {
		return fmt.Errorf("peer connection does not expose a raw descriptor, exec mode requires one")
	}
	var backendConn backend.Conn = peer

	cmd := exec.Command(command[0], command[1:]...)
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return err
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return err
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		return err
	}
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	sess, err := libexec.New(cmd, backendConn, libexec.Config{
		RingCapacity:      64 * 1024,
		MaxTotalBuffer:    4 << 20,
		FlowPausePercent:  0.8,
		FlowResumePercent: 0.5,
	}, stdinW, stdoutR, stderrR)
	if err != nil {
		return err
	}

	sess.WithTimeout(timeout.New(0, cfg.IdleTimeout, 0))
	return sess.Run()
}

func runBroker(ctx context.Context, cfg libcfg.Relay, metricsAddr string) error {
	n := networkFor(cfg)
	addr, err := addressFor(cfg, fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return err
	}

	ln, err := socket.Listen(ctx, n, addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	mode := broker.ModeBroker
	if cfg.Broker.Chat {
		mode = broker.ModeChat
	}

	srv := broker.New(ln, mode, broker.Config{
		MaxClients:        cfg.Broker.MaxClients,
		IdleTimeout:       cfg.Broker.IdleTimeout.Time(),
		ChatMaxNickLen:    cfg.Broker.ChatMaxNickLen,
		ChatMaxMessageLen: cfg.Broker.ChatMaxMessageLen,
	})

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		m := broker.NewMetrics("natcore")
		if err := m.Register(reg); err != nil {
			return err
		}
		srv.WithMetrics(m)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() { _ = metricsSrv.ListenAndServe() }()
		go func() {
			<-ctx.Done()
			_ = metricsSrv.Close()
		}()
	}

	return srv.Serve(ctx)
}

func proxyKind(s string) libprx.Kind {
	switch s {
	case "socks4":
		return libprx.KindSocks4
	case "http-connect":
		return libprx.KindHTTPConnect
	default:
		return libprx.KindSocks5
	}
}
