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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewTLSConfig(t *testing.T) {
	config := NewTLSConfig()

	if config.MinVersion != tls.VersionTLS12 {
		t.Errorf("NewTLSConfig() MinVersion = %v, want TLS 1.2", config.MinVersion)
	}
	if config.Customized() {
		t.Error("NewTLSConfig() should not be customized")
	}
}

func TestTLSConfig_Build_Default(t *testing.T) {
	tlsConfig, err := NewTLSConfig().WithCAFile("").Build()
	if err != nil {
		t.Errorf("Build() error = %v, want nil", err)
	}
	if tlsConfig != nil {
		t.Error("Build() should return nil when nothing is customized")
	}
}

func TestTLSConfig_Build_InsecureSkipVerify(t *testing.T) {
	tlsConfig, err := NewTLSConfig().WithInsecureSkipVerify(true).Build()
	if err != nil {
		t.Fatalf("Build() error = %v, want nil", err)
	}
	if tlsConfig == nil || !tlsConfig.InsecureSkipVerify {
		t.Error("Build() should skip verification")
	}
	if tlsConfig.RootCAs != nil {
		t.Error("Build() should keep the system roots when no CA is given")
	}
	if tlsConfig.MinVersion != tls.VersionTLS12 {
		t.Errorf("Build() MinVersion = %v, want TLS 1.2", tlsConfig.MinVersion)
	}
}

// Helper function to generate test certificates
func generateTestCert(isCA bool) (certPEM, keyPEM []byte, cert *x509.Certificate, err error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, nil, err
	}

	notBefore := time.Now()
	notAfter := notBefore.Add(24 * time.Hour)

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, nil, err
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"Test Org"},
			CommonName:   "Test Cert",
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	if isCA {
		template.IsCA = true
		template.KeyUsage |= x509.KeyUsageCertSign
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, nil, err
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})

	privBytes, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, nil, nil, err
	}
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: privBytes})

	cert, err = x509.ParseCertificate(derBytes)
	if err != nil {
		return nil, nil, nil, err
	}

	return certPEM, keyPEM, cert, nil
}

func TestTLSConfig_Build_WithCAPEM(t *testing.T) {
	certPEM, _, cert, err := generateTestCert(true)
	if err != nil {
		t.Fatalf("Failed to generate test cert: %v", err)
	}

	tlsConfig, err := NewTLSConfig().WithCAPEM(certPEM).Build()
	if err != nil {
		t.Fatalf("Build() error = %v, want nil", err)
	}
	if tlsConfig.RootCAs == nil {
		t.Fatal("Build() should set RootCAs")
	}
	if tlsConfig.InsecureSkipVerify {
		t.Error("Build() should verify by default")
	}

	if _, err := cert.Verify(x509.VerifyOptions{Roots: tlsConfig.RootCAs}); err != nil {
		t.Errorf("CA should verify against the built pool: %v", err)
	}
}

func TestTLSConfig_Build_WithCAFile(t *testing.T) {
	certPEM, _, _, err := generateTestCert(true)
	if err != nil {
		t.Fatalf("Failed to generate test cert: %v", err)
	}

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(caFile, certPEM, 0o600); err != nil {
		t.Fatalf("Failed to write CA file: %v", err)
	}

	tlsConfig, err := NewTLSConfig().WithCAFile(caFile).Build()
	if err != nil {
		t.Fatalf("Build() error = %v, want nil", err)
	}
	if tlsConfig.RootCAs == nil {
		t.Error("Build() should set RootCAs")
	}
}

func TestTLSConfig_Build_InvalidCA(t *testing.T) {
	tmpDir := t.TempDir()
	garbage := filepath.Join(tmpDir, "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	tests := []struct {
		name   string
		config *TLSConfig
	}{
		{"invalid PEM", NewTLSConfig().WithCAPEM([]byte("invalid"))},
		{"invalid file contents", NewTLSConfig().WithCAFile(garbage)},
		{"nonexistent file", NewTLSConfig().WithCAFile(filepath.Join(tmpDir, "nonexistent.pem"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.config.Build()
			if !errors.Is(err, ErrInvalidCAPool) {
				t.Errorf("Build() error = %v, want ErrInvalidCAPool", err)
			}
		})
	}
}
