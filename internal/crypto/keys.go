package crypto

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// ImportES256PrivateKey decodes a base64-wrapped PEM PKCS8 block into a
// P-256 ECDSA private key, the form JWT_PRIVATE_KEY is delivered in.
func ImportES256PrivateKey(b64PEM string) (*ecdsa.PrivateKey, error) {
	block, err := decodePEMBlock(b64PEM)
	if err != nil {
		return nil, err
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse ES256 private key: %w", err)
	}
	ecKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not an ECDSA key")
	}
	return ecKey, nil
}

// ImportES256PublicKey decodes a base64-wrapped PEM PKIX block into a
// P-256 ECDSA public key, the form JWT_PUBLIC_KEY is delivered in.
func ImportES256PublicKey(b64PEM string) (*ecdsa.PublicKey, error) {
	block, err := decodePEMBlock(b64PEM)
	if err != nil {
		return nil, err
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse ES256 public key: %w", err)
	}
	ecKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not an ECDSA key")
	}
	return ecKey, nil
}

func decodePEMBlock(b64PEM string) (*pem.Block, error) {
	raw, err := base64.StdEncoding.DecodeString(b64PEM)
	if err != nil {
		// Accept the key material unwrapped too: operators sometimes set
		// the env var to the PEM text directly rather than base64 of it.
		raw = []byte(b64PEM)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in key material")
	}
	return block, nil
}
