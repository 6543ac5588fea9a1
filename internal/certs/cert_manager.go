package certs

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoCertificate is returned when a PEM file holds no certificate.
	ErrNoCertificate = errors.New("no certificate in file")
	// ErrExpired is returned when the serving certificate is past NotAfter.
	ErrExpired = errors.New("certificate expired")
)

// CertManager loads the serving certificate of the portal.
type CertManager struct {
	certFile string
	keyFile  string
	now      func() time.Time
}

// NewCertManager creates a new CertManager for a certificate and key pair.
func NewCertManager(certFile, keyFile string) *CertManager {
	return &CertManager{certFile: certFile, keyFile: keyFile, now: time.Now}
}

// LoadCertificates parses every certificate in the certificate file, leaf first.
func (cm *CertManager) LoadCertificates() ([]*x509.Certificate, error) {
	data, err := os.ReadFile(cm.certFile)
	if err != nil {
		return nil, errors.Wrap(err, "read certificate")
	}
	var certs []*x509.Certificate
	for {
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
			return nil, errors.Wrap(err, "parse certificate")
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, ErrNoCertificate
	}
	return certs, nil
}

// IsExpired checks if a certificate is expired.
func (cm *CertManager) IsExpired(cert *x509.Certificate) bool {
	return cert.NotAfter.Before(cm.now())
}

// ExpiresWithin reports whether cert expires in less than d.
func (cm *CertManager) ExpiresWithin(cert *x509.Certificate, d time.Duration) bool {
	return cert.NotAfter.Before(cm.now().Add(d))
}

// TLSConfig checks the leaf certificate and returns a config serving the pair.
func (cm *CertManager) TLSConfig() (*tls.Config, *x509.Certificate, error) {
	certs, err := cm.LoadCertificates()
	if err != nil {
		return nil, nil, err
	}
	leaf := certs[0]
	if cm.IsExpired(leaf) {
		return nil, leaf, errors.Wrapf(ErrExpired, "%s expired %s", cm.certFile, leaf.NotAfter.Format(time.RFC3339))
	}
	pair, err := tls.LoadX509KeyPair(cm.certFile, cm.keyFile)
	if err != nil {
		return nil, leaf, errors.Wrap(err, "load key pair")
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{pair},
	}, leaf, nil
}
