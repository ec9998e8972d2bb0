package tool

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"

	"github.com/moyoez/sharegate/types"
)

// CertFingerprint is the short sha256 of the certificate in use, shown on the status endpoint.
var CertFingerprint string

// GetOrCreateTLSCertFromConfig loads existing TLS certificate from config or generates a new one.
// Certificate content is stored in config's CertPEM and KeyPEM fields.
func GetOrCreateTLSCertFromConfig(cfg *types.AppConfig) (certDER []byte, keyDER []byte, err error) {
	if cfg.CertPEM != "" && cfg.KeyPEM != "" {
		certDER, keyDER, err = loadTLSCertFromPEM(cfg.CertPEM, cfg.KeyPEM)
		if err == nil {
			CertFingerprint = fingerprint(certDER)
			DefaultLogger.Debugf("Loaded existing TLS certificate from config")
			return certDER, keyDER, nil
		}
		// Certificate expired or invalid, will regenerate
		DefaultLogger.Warnf("Certificate in config is invalid or expired: %v, regenerating...", err)
	}

	certDER, keyDER, err = generateTLSCert()
	if err != nil {
		return nil, nil, err
	}

	cfg.CertPEM = string(pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: certDER,
	}))
	cfg.KeyPEM = string(pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: keyDER,
	}))

	DefaultLogger.Infof("TLS certificate generated and stored in config")
	return certDER, keyDER, nil
}

// TLSConfigFromConfig builds the server TLS config from the PEM pair in cfg.
func TLSConfigFromConfig(cfg *types.AppConfig) (*tls.Config, error) {
	certDER, keyDER, err := GetOrCreateTLSCertFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get TLS certificate: %w", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// loadTLSCertFromPEM loads TLS certificate and key from PEM strings.
// If certificate is expired, returns error.
func loadTLSCertFromPEM(certPEMStr, keyPEMStr string) (certDER []byte, keyDER []byte, err error) {
	certBlock, _ := pem.Decode([]byte(certPEMStr))
	if certBlock == nil {
		return nil, nil, fmt.Errorf("failed to decode certificate PEM")
	}

	keyBlock, _ := pem.Decode([]byte(keyPEMStr))
	if keyBlock == nil {
		return nil, nil, fmt.Errorf("failed to decode key PEM")
	}

	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	if time.Now().After(cert.NotAfter) {
		return nil, nil, fmt.Errorf("certificate has expired")
	}

	return certBlock.Bytes, keyBlock.Bytes, nil
}

// generateTLSCert generates a new self-signed TLS certificate and private key.
func generateTLSCert() (certDER []byte, keyDER []byte, err error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ECDSA private key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	cert := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   "sharegate-localCert",
			Organization: []string{"sharegate-localCert"},
		},
		NotBefore:   time.Now(),
		NotAfter:    time.Now().Add(time.Hour * 24 * 365), // 1 year validity
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	certBytes, err := x509.CreateCertificate(rand.Reader, &cert, &cert, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	privateKeyBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal ECDSA private key: %w", err)
	}

	CertFingerprint = fingerprint(certBytes)
	return certBytes, privateKeyBytes, nil
}

func fingerprint(certDER []byte) string {
	hash := sha256.Sum256(certDER)
	return hex.EncodeToString(hash[:16])
}
