package infra

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudcopper/bcx/ports"
	"github.com/spf13/afero"
	"github.com/youmark/pkcs8"
	"software.sslmate.com/src/go-pkcs12"
)

// TLSOptions describes client side of mutually authenticated transport
type TLSOptions struct {
	CertFile           string // PEM certificate chain, may hold the key too, or PKCS#12 bundle
	KeyFile            string // PEM key, defaults to CertFile
	Passphrase         string // for encrypted key or PKCS#12 bundle
	CAFile             string // additional trusted roots
	MinVersion         uint16
	InsecureSkipVerify bool
}

// ParseTLSVersion converts "1.0".."1.3" to tls constant
func ParseTLSVersion(s string) (uint16, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "tls") {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	case "1.1":
		return tls.VersionTLS11, nil
	case "1.0":
		return tls.VersionTLS10, nil
	}
	return 0, fmt.Errorf("unknown tls version %q", s)
}

// NewTLSConfig creates client tls config.
// Without CertFile no client certificate is presented.
func NewTLSConfig(fs ports.FS, opts TLSOptions) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         opts.MinVersion,
		InsecureSkipVerify: opts.InsecureSkipVerify, // #nosec G402 -- configurable, off by default
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}

	if opts.CAFile != "" {
		ca, err := afero.ReadFile(fs, opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("no certificates in ca file %v", opts.CAFile)
		}
		cfg.RootCAs = pool
	}

	if opts.CertFile == "" {
		return cfg, nil
	}
	cert, err := loadClientCertificate(fs, opts)
	if err != nil {
		return nil, err
	}
	cfg.Certificates = []tls.Certificate{cert}
	return cfg, nil
}

func loadClientCertificate(fs ports.FS, opts TLSOptions) (tls.Certificate, error) {
	certPEM, err := afero.ReadFile(fs, opts.CertFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("read certificate: %w", err)
	}
	if isPKCS12(opts.CertFile, certPEM) {
		return decodePKCS12(certPEM, opts.Passphrase)
	}
	keyFile := opts.KeyFile
	if keyFile == "" {
		keyFile = opts.CertFile
	}
	keySrc := certPEM
	if keyFile != opts.CertFile {
		keySrc, err = afero.ReadFile(fs, keyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("read key: %w", err)
		}
	}

	keyPEM, err := decodeKey(keySrc, opts.Passphrase)
	if err != nil {
		return tls.Certificate{}, err
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("load key pair: %w", err)
	}
	return cert, nil
}

// isPKCS12 tells binary bundle from PEM by extension or content
func isPKCS12(name string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".p12", ".pfx":
		return true
	}
	block, _ := pem.Decode(data)
	return block == nil
}

// decodePKCS12 loads key, leaf and chain of PKCS#12 bundle
func decodePKCS12(data []byte, passphrase string) (tls.Certificate, error) {
	key, leaf, chain, err := pkcs12.DecodeChain(data, passphrase)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode pkcs12: %w", err)
	}
	cert := tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
		Leaf:        leaf,
	}
	for _, c := range chain {
		cert.Certificate = append(cert.Certificate, c.Raw)
	}
	return cert, nil
}

// decodeKey finds first private key block and decrypts it, if needed.
// Both PKCS#8 "ENCRYPTED PRIVATE KEY" and legacy Proc-Type encryption are known.
func decodeKey(data []byte, passphrase string) ([]byte, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("no private key found")
		}
		if !strings.HasSuffix(block.Type, "PRIVATE KEY") {
			continue
		}
		if block.Type == "ENCRYPTED PRIVATE KEY" {
			return decodePKCS8(block, passphrase)
		}
		//nolint:staticcheck // legacy encrypted PEM
		if !x509.IsEncryptedPEMBlock(block) {
			return pem.EncodeToMemory(block), nil
		}
		if passphrase == "" {
			return nil, fmt.Errorf("private key is encrypted, passphrase required")
		}
		//nolint:staticcheck
		der, err := x509.DecryptPEMBlock(block, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("decrypt private key: %w", err)
		}
		return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der}), nil
	}
}

func decodePKCS8(block *pem.Block, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("private key is encrypted, passphrase required")
	}
	key, err := pkcs8.ParsePKCS8PrivateKey(block.Bytes, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("decrypt private key: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// NewHTTPClient creates http client over given tls config
func NewHTTPClient(tlsConfig *tls.Config, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
