package wtproto

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"time"

	"github.com/quic-go/quic-go"
)

// ServerConfig carries everything a quic-go listener needs to accept
// WebTransport connections. Build it with NewServerConfig, which walks the
// required fields in order: bind address first, then the TLS certificate.
type ServerConfig struct {
	BindAddress net.Addr
	TLSConfig   *tls.Config
	QUICConfig  *quic.Config
	Logger      Logger
}

// NewServerConfig starts building a server configuration.
func NewServerConfig() ServerWantsBindAddress {
	return ServerWantsBindAddress{}
}

// ServerWantsBindAddress is the first builder stage.
type ServerWantsBindAddress struct{}

// WithBindAddress sets the local address the endpoint binds to.
func (ServerWantsBindAddress) WithBindAddress(addr net.Addr) ServerWantsCertificate {
	return ServerWantsCertificate{bindAddress: addr}
}

// ServerWantsCertificate is the second builder stage.
type ServerWantsCertificate struct {
	bindAddress net.Addr
}

// WithCertificate sets the TLS certificate the server presents and completes
// the configuration.
func (b ServerWantsCertificate) WithCertificate(cert tls.Certificate) *ServerConfig {
	return &ServerConfig{
		BindAddress: b.bindAddress,
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			NextProtos:   []string{ALPN},
		},
		QUICConfig: &quic.Config{
			EnableDatagrams: true,
		},
		Logger: createDefaultLogger(),
	}
}

// WithMaxIdleTimeout sets the idle timeout after which a connection is
// closed.
func (c *ServerConfig) WithMaxIdleTimeout(d time.Duration) *ServerConfig {
	c.QUICConfig.MaxIdleTimeout = d
	return c
}

// WithKeepAliveInterval enables keep-alive pings at the given interval.
func (c *ServerConfig) WithKeepAliveInterval(d time.Duration) *ServerConfig {
	c.QUICConfig.KeepAlivePeriod = d
	return c
}

// WithLogger sets the logger the endpoint uses.
func (c *ServerConfig) WithLogger(l Logger) *ServerConfig {
	c.Logger = l
	return c
}

// ClientConfig carries everything a quic-go dialer needs to open
// WebTransport connections. Build it with NewClientConfig.
type ClientConfig struct {
	BindAddress net.Addr
	TLSConfig   *tls.Config
	QUICConfig  *quic.Config
	Logger      Logger
}

// NewClientConfig starts building a client configuration.
func NewClientConfig() ClientWantsBindAddress {
	return ClientWantsBindAddress{}
}

// ClientWantsBindAddress is the first builder stage.
type ClientWantsBindAddress struct{}

// WithBindAddress sets the local address the endpoint binds to.
func (ClientWantsBindAddress) WithBindAddress(addr net.Addr) ClientWantsRoots {
	return ClientWantsRoots{bindAddress: addr}
}

// ClientWantsRoots is the second builder stage.
type ClientWantsRoots struct {
	bindAddress net.Addr
}

// WithRootCertificates sets the CA pool used to verify the server and
// completes the configuration.
func (b ClientWantsRoots) WithRootCertificates(roots *x509.CertPool) *ClientConfig {
	return b.build(&tls.Config{
		RootCAs:    roots,
		NextProtos: []string{ALPN},
	})
}

// WithInsecure disables server certificate verification and completes the
// configuration. Meant for development against self-signed endpoints.
func (b ClientWantsRoots) WithInsecure() *ClientConfig {
	return b.build(&tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{ALPN},
	})
}

func (b ClientWantsRoots) build(tlsConfig *tls.Config) *ClientConfig {
	return &ClientConfig{
		BindAddress: b.bindAddress,
		TLSConfig:   tlsConfig,
		QUICConfig: &quic.Config{
			EnableDatagrams: true,
		},
		Logger: createDefaultLogger(),
	}
}

// WithMaxIdleTimeout sets the idle timeout after which the connection is
// closed.
func (c *ClientConfig) WithMaxIdleTimeout(d time.Duration) *ClientConfig {
	c.QUICConfig.MaxIdleTimeout = d
	return c
}

// WithKeepAliveInterval enables keep-alive pings at the given interval.
func (c *ClientConfig) WithKeepAliveInterval(d time.Duration) *ClientConfig {
	c.QUICConfig.KeepAlivePeriod = d
	return c
}

// WithLogger sets the logger the endpoint uses.
func (c *ClientConfig) WithLogger(l Logger) *ClientConfig {
	c.Logger = l
	return c
}
