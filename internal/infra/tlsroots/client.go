package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when a PEM bundle holds no certificates.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

// ClientOptions configures ClientConfig.
type ClientOptions struct {
	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string

	// InsecureSkipVerify disables server certificate verification.
	InsecureSkipVerify bool
}

// ClientConfig returns a TLS client configuration.
func ClientConfig(opts ClientOptions) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // opt-in for local servers
	}
	if opts.CAFile == "" {
		return cfg, nil
	}

	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	data, err := os.ReadFile(opts.CAFile)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: read ca file: %w", err)
	}
	if err := AppendPEM(pool, data); err != nil {
		return nil, fmt.Errorf("tlsroots: %s: %w", opts.CAFile, err)
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// AppendPEM parses every CERTIFICATE block in data and adds it to pool.
// Other block types are skipped.
func AppendPEM(pool *x509.CertPool, data []byte) error {
	added := 0
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("parse certificate: %w", err)
		}
		pool.AddCert(cert)
		added++
	}

	if added == 0 {
		return ErrNoCertsFound
	}
	return nil
}
