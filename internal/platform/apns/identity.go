package apns

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sideshow/apns2/certificate"
)

var pushServicesName = regexp.MustCompile(`Apple.*?Push Services`)

const (
	appleIssuerMarker   = "Apple"
	websitePushIDMarker = "Website Push ID:"
)

// Identity is a client certificate used to authenticate against the gateway.
// It is never mutated after construction.
type Identity struct {
	issuerName string
	commonName string
	cert       tls.Certificate
}

// NewIdentity reads the issuer and subject from the certificate's leaf.
func NewIdentity(cert tls.Certificate) (*Identity, error) {
	leaf := cert.Leaf
	if leaf == nil {
		if len(cert.Certificate) == 0 {
			return nil, errors.New("apns: certificate chain is empty")
		}
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("apns: failed to parse leaf certificate: %w", err)
		}
		leaf = parsed
		cert.Leaf = parsed
	}
	return &Identity{
		issuerName: leaf.Issuer.String(),
		commonName: leaf.Subject.CommonName,
		cert:       cert,
	}, nil
}

// LoadIdentity decodes PEM or PKCS#12 certificate material.
func LoadIdentity(data []byte, password string) (*Identity, error) {
	var (
		cert tls.Certificate
		err  error
	)
	if bytes.Contains(data, []byte("-----BEGIN")) {
		cert, err = certificate.FromPemBytes(data, password)
	} else {
		cert, err = certificate.FromP12Bytes(data, password)
	}
	if err != nil {
		return nil, fmt.Errorf("apns: failed to load certificate: %w", err)
	}
	return NewIdentity(cert)
}

// IssuerName is the issuer's distinguished name.
func (i *Identity) IssuerName() string { return i.issuerName }

// CommonName is the subject common name, e.g. "Apple Push Services: com.example.app".
func (i *Identity) CommonName() string { return i.commonName }

// Certificate returns the TLS keypair used to open channels.
func (i *Identity) Certificate() tls.Certificate { return i.cert }

// ValidateIdentity checks that identity is an APNs certificate usable against env.
// Checks run in a fixed order and stop at the first failure.
func ValidateIdentity(identity *Identity, env Environment) error {
	if identity == nil {
		return ErrIdentityMissing
	}
	if !strings.Contains(identity.issuerName, appleIssuerMarker) {
		return ErrUntrustedIssuer
	}
	if !pushServicesName.MatchString(identity.commonName) &&
		!strings.Contains(identity.commonName, websitePushIDMarker) {
		return ErrNotAPushCertificate
	}
	for _, m := range environmentMarkers {
		if strings.Contains(identity.commonName, m.marker) && env != m.env {
			return &EnvironmentMismatchError{Expected: m.env, Actual: env}
		}
	}
	return nil
}
