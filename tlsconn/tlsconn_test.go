package tlsconn

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	liberr "github.com/nabbar/natcore/errors"
)

func TestClientServerHandshakeAndRoundTrip(t *testing.T) {
	cert, pool := generateTestCert(t)

	serverCfg := &tls.Config{Certificates: []tls.Certificate{cert}}
	clientCfg := &tls.Config{RootCAs: pool, ServerName: "localhost"}

	srvRaw, cliRaw := net.Pipe()

	type result struct {
		conn *Connection
		err  error
	}
	srvCh := make(chan result, 1)
	go func() {
		c, err := Server(srvRaw, serverCfg)
		srvCh <- result{c, err}
	}()

	cli, err := Client(cliRaw, clientCfg)
	if err != nil {
		t.Fatalf("client handshake: %v", err)
	}
	srv := <-srvCh
	if srv.err != nil {
		t.Fatalf("server handshake: %v", srv.err)
	}

	go func() {
		_, _ = cli.Write([]byte("hello"))
	}()

	buf := make([]byte, 5)
	_ = srv.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := srv.conn.Read(buf)
	if err != nil {
		t.Fatalf("server read: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("got %q", buf[:n])
	}

	_ = cli.Close()
	_ = srv.conn.Close()
}

func TestClassifyHandshakeErrorOnCertMismatch(t *testing.T) {
	certA, _ := generateTestCert(t)
	_, poolB := generateTestCert(t)

	serverCfg := &tls.Config{Certificates: []tls.Certificate{certA}}
	clientCfg := &tls.Config{RootCAs: poolB, ServerName: "localhost"}

	srvRaw, cliRaw := net.Pipe()
	// net.Pipe is unbuffered: the client's alert and the rest of the
	// server's flight block each other until these deadlines expire.
	_ = srvRaw.SetDeadline(time.Now().Add(2 * time.Second))
	_ = cliRaw.SetDeadline(time.Now().Add(2 * time.Second))
	go func() { _, _ = Server(srvRaw, serverCfg) }()

	_, err := Client(cliRaw, clientCfg)
	if err == nil {
		t.Fatal("expected handshake failure against an untrusted cert")
	}
	if code := liberr.CodeOf(err); code != liberr.CodeCertificateVerificationFailed {
		t.Fatalf("got code %v, want CodeCertificateVerificationFailed: %v", code, err)
	}
}

func generateTestCert(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  priv,
	}

	parsed, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	pool := x509.NewCertPool()
	pool.AddCert(parsed)

	return cert, pool
}
