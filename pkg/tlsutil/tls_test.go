package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeKeyPair(t *testing.T) (string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		IsCA:         true,
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
	}
	tmpl.BasicConstraintsValid = true
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDer, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDer}), 0o600))
	return keyPath, certPath
}

func TestNewServerConfig(t *testing.T) {
	keyPath, certPath := writeKeyPair(t)

	cfg, err := NewServerConfig(Options{Host: "localhost", KeyPath: keyPath, CertPath: certPath, DisableAuth: true})
	require.NoError(t, err)
	assert.Equal(t, tls.NoClientCert, cfg.ClientAuth)
	assert.Len(t, cfg.Certificates, 1)
	assert.EqualValues(t, tls.VersionTLS12, cfg.MinVersion)

	cfg, err = NewServerConfig(Options{Host: "localhost", KeyPath: keyPath, CertPath: certPath, ClientCAPath: certPath})
	require.NoError(t, err)
	assert.Equal(t, tls.RequireAndVerifyClientCert, cfg.ClientAuth)
	assert.NotNil(t, cfg.ClientCAs)
}

func TestNewServerConfigErrors(t *testing.T) {
	keyPath, certPath := writeKeyPair(t)

	_, err := NewServerConfig(Options{KeyPath: keyPath, CertPath: certPath, ClientCAPath: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)

	_, err = NewServerConfig(Options{KeyPath: keyPath, CertPath: keyPath, DisableAuth: true})
	assert.Error(t, err)
}

func TestLoadCertificatePFXRequiresPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.pfx")
	require.NoError(t, os.WriteFile(path, []byte("not a pfx"), 0o600))
	t.Setenv(PFXPasswordEnv, "")

	_, err := LoadCertificate(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), PFXPasswordEnv)

	t.Setenv(PFXPasswordEnv, "secret")
	_, err = LoadCertificate(path, "")
	assert.Error(t, err)
}

func TestNewServerConfigVerifiesChain(t *testing.T) {
	keyPath, certPath := writeKeyPair(t)
	_, otherCert := writeKeyPair(t)

	core, logs := observer.New(zapcore.InfoLevel)
	cfg, err := NewServerConfig(Options{KeyPath: keyPath, CertPath: certPath, CACertsPath: certPath, DisableAuth: true, Logger: zap.New(core)})
	require.NoError(t, err)
	assert.NotNil(t, cfg.RootCAs)
	entries := logs.FilterMessage("issuing server chain").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["issuer chain"], "CN=localhost")

	_, err = NewServerConfig(Options{KeyPath: keyPath, CertPath: certPath, CACertsPath: otherCert, DisableAuth: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot verify server certificate")

	_, err = NewServerConfig(Options{KeyPath: keyPath, CertPath: certPath, CACertsPath: filepath.Join(t.TempDir(), "missing.pem"), DisableAuth: true})
	assert.Error(t, err)
}
