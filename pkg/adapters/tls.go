// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of s3touch.
//
// s3touch is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package adapters

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrInvalidCAPool is returned when the CA bundle cannot be read or holds no certificates.
	ErrInvalidCAPool = errors.New("invalid CA pool")
)

// TLSConfig holds the client-side TLS settings used for AWS, endpoint and
// proxy connections.
type TLSConfig struct {
	// CAFile is the path to a PEM bundle trusted in addition to the system roots.
	CAFile string

	// CAPEM is a PEM bundle (alternative to CAFile).
	CAPEM []byte

	// MinVersion specifies the minimum TLS version (default: TLS 1.2).
	MinVersion uint16

	// InsecureSkipVerify disables server certificate verification.
	InsecureSkipVerify bool
}

// NewTLSConfig creates a TLS configuration with secure defaults.
func NewTLSConfig() *TLSConfig {
	return &TLSConfig{
		MinVersion: tls.VersionTLS12,
	}
}

// WithCAFile trusts the certificates in the given PEM file.
func (c *TLSConfig) WithCAFile(caFile string) *TLSConfig {
	c.CAFile = caFile
	return c
}

// WithCAPEM trusts the given PEM certificates.
func (c *TLSConfig) WithCAPEM(caPEM []byte) *TLSConfig {
	c.CAPEM = caPEM
	return c
}

// WithInsecureSkipVerify disables server certificate verification (use with caution).
func (c *TLSConfig) WithInsecureSkipVerify(skip bool) *TLSConfig {
	c.InsecureSkipVerify = skip
	return c
}

// Customized reports whether Build would return anything other than the
// transport's default TLS settings.
func (c *TLSConfig) Customized() bool {
	return c.CAFile != "" || len(c.CAPEM) > 0 || c.InsecureSkipVerify
}

// Build creates a *tls.Config, or returns nil when nothing is customized.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.Customized() {
		return nil, nil
	}

	config := &tls.Config{
		MinVersion:         c.MinVersion,
		InsecureSkipVerify: c.InsecureSkipVerify, // #nosec G402 -- opt-in flag for test endpoints, defaults to false
	}

	caData := c.CAPEM
	if len(caData) == 0 && c.CAFile != "" {
		data, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCAPool, err)
		}
		caData = data
	}

	if len(caData) > 0 {
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(caData) {
			return nil, ErrInvalidCAPool
		}
		config.RootCAs = pool
	}

	return config, nil
}
