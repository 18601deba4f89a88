// Package tlsutil builds the server TLS configuration from PEM or PKCS#12 files.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/pkcs12"
)

// PFXPasswordEnv holds the password for a .pfx server key.
const PFXPasswordEnv = "SERVER_PFX_PASSWORD"

// Options describes the server side TLS material.
type Options struct {
	Host         string
	KeyPath      string
	CertPath     string
	ClientCAPath string
	// CACertsPath holds intermediate and ca certificates the server
	// certificate must verify against.
	CACertsPath string
	DisableAuth bool

	Logger *zap.Logger
}

// NewServerConfig creates a TLS configuration requiring client certificates
// signed by ClientCAPath unless DisableAuth is set.
func NewServerConfig(opts Options) (*tls.Config, error) {
	cert, err := LoadCertificate(opts.KeyPath, opts.CertPath)
	if err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		ServerName:   opts.Host,
		ClientAuth:   tls.NoClientCert,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if opts.CACertsPath != "" {
		roots, err := verifyChain(cert, opts.CACertsPath, opts.Logger)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = roots
	}
	if opts.DisableAuth {
		return cfg, nil
	}

	caCerts, err := os.ReadFile(opts.ClientCAPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open client ca certs file: %w", err)
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caCerts); !ok {
		return nil, fmt.Errorf("unable to append client ca certs to cert pool")
	}
	cfg.ClientAuth = tls.RequireAndVerifyClientCert
	cfg.ClientCAs = pool
	return cfg, nil
}

// LoadCertificate reads a PEM key/cert pair, or a .pfx bundle carrying both.
func LoadCertificate(keyPath, certPath string) (tls.Certificate, error) {
	if !strings.HasSuffix(keyPath, ".pfx") {
		cert, err := tls.LoadX509KeyPair(certPath, keyPath)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("unable to load server key pair: %w", err)
		}
		return cert, nil
	}

	data, err := os.ReadFile(keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("unable to read server private key file: %w", err)
	}
	pw, ok := os.LookupEnv(PFXPasswordEnv)
	if !ok || pw == "" {
		return tls.Certificate{}, fmt.Errorf("non-empty password for server pfx file required in environment (%s)", PFXPasswordEnv)
	}
	key, cert, err := pkcs12.Decode(data, pw)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("unable to decode pfx file %q: %w", keyPath, err)
	}
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  key,
		Leaf:        cert,
	}, nil
}

func verifyChain(cert tls.Certificate, caCertsPath string, logger *zap.Logger) (*x509.CertPool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	roots, err := x509.SystemCertPool()
	if err != nil {
		return nil, err
	}
	caCerts, err := os.ReadFile(caCertsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open ca certs file: %w", err)
	}
	if ok := roots.AppendCertsFromPEM(caCerts); !ok {
		return nil, fmt.Errorf("unable to append ca certs to cert pool")
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("unable to parse server certificate: %w", err)
	}
	chain, err := leaf.Verify(x509.VerifyOptions{Roots: roots})
	if err != nil {
		return nil, fmt.Errorf("cannot verify server certificate: %w", err)
	}
	logger.Info("issuing server chain", zap.String("issuer chain", chains(chain)))
	return roots, nil
}

func chains(chains [][]*x509.Certificate) string {
	r := ""
	for _, ch := range chains {
		if r != "" {
			r += "; "
		}
		sep := ""
		for _, c := range ch {
			r += sep + c.Issuer.String()
			sep = "->"
		}
	}
	return r
}
