package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/kbukum/evtsrc/errors"
)

// TLSConfig holds TLS settings for a stream client or server.
type TLSConfig struct {
	// SkipVerify disables server certificate verification on the client.
	// Not recommended for production.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`

	// CAFile verifies the peer: the server's certificate on a client, client
	// certificates on a server.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`

	// CertFile and KeyFile are the local certificate: the client certificate
	// for mTLS, or the server certificate.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`

	// ServerName overrides the name used for server certificate verification.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`

	// MinVersion is "1.2" or "1.3". Defaults to 1.2.
	MinVersion string `yaml:"min_version" mapstructure:"min_version"`
}

// Validate checks that the configuration is consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return errors.Configuration("tls: cert_file and key_file must be provided together").
			WithDetail("field", "tls")
	}
	if _, err := c.minVersion(); err != nil {
		return err
	}
	return nil
}

// IsEnabled reports whether any client-side TLS setting is configured.
func (c *TLSConfig) IsEnabled() bool {
	if c == nil {
		return false
	}
	return c.SkipVerify || c.CAFile != "" || c.CertFile != "" || c.ServerName != ""
}

// ServesTLS reports whether a server certificate is configured.
func (c *TLSConfig) ServesTLS() bool {
	return c != nil && c.CertFile != "" && c.KeyFile != ""
}

// ClientConfig builds the client side. It returns nil, nil when nothing is
// configured so callers keep the default transport.
func (c *TLSConfig) ClientConfig() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	cfg, err := c.base()
	if err != nil {
		return nil, err
	}
	cfg.InsecureSkipVerify = c.SkipVerify
	cfg.ServerName = c.ServerName

	if c.CAFile != "" {
		pool, err := loadPool(c.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}
	if c.CertFile != "" {
		if err := c.loadKeyPair(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ServerConfig builds the server side. It returns nil, nil when no server
// certificate is configured. A CAFile requires and verifies client
// certificates.
func (c *TLSConfig) ServerConfig() (*tls.Config, error) {
	if !c.ServesTLS() {
		return nil, nil
	}
	cfg, err := c.base()
	if err != nil {
		return nil, err
	}
	if err := c.loadKeyPair(cfg); err != nil {
		return nil, err
	}
	if c.CAFile != "" {
		pool, err := loadPool(c.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}

func (c *TLSConfig) base() (*tls.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	v, _ := c.minVersion()
	return &tls.Config{MinVersion: v}, nil
}

func (c *TLSConfig) minVersion() (uint16, error) {
	switch c.MinVersion {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, errors.Configuration(fmt.Sprintf("tls: unsupported min_version %q", c.MinVersion)).
			WithDetail("field", "tls.min_version")
	}
}

func (c *TLSConfig) loadKeyPair(cfg *tls.Config) error {
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return errors.Configuration("tls: failed to load certificate").WithCause(err)
	}
	cfg.Certificates = []tls.Certificate{cert}
	return nil
}

func loadPool(path string) (*x509.CertPool, error) {
	ca, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Configuration("tls: failed to read CA file").WithCause(err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(ca) {
		return nil, errors.Configuration("tls: failed to parse CA certificate").WithDetail("file", path)
	}
	return pool, nil
}
