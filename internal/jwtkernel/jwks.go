package jwtkernel

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

type jwk struct {
	KeyType   string `json:"kty"`
	Curve     string `json:"crv"`
	Algorithm string `json:"alg"`
	Use       string `json:"use"`
	KeyID     string `json:"kid"`
	X         string `json:"x"`
	Y         string `json:"y"`
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

// JWKS returns the discovery document body and its ETag. The body and ETag
// are computed once and cached for the lifetime of the process, since the
// key never changes without a restart (spec §9 "Global state").
func (k *Kernel) JWKS() ([]byte, string, error) {
	k.jwksMu.Lock()
	defer k.jwksMu.Unlock()
	if k.jwksBody != nil {
		return k.jwksBody, k.jwksETag, nil
	}

	size := (k.publicKey.Params().BitSize + 7) / 8
	x := k.publicKey.X.FillBytes(make([]byte, size))
	y := k.publicKey.Y.FillBytes(make([]byte, size))

	doc := jwksDocument{Keys: []jwk{{
		KeyType:   "EC",
		Curve:     "P-256",
		Algorithm: "ES256",
		Use:       "sig",
		KeyID:     k.keyID,
		X:         base64.RawURLEncoding.EncodeToString(x),
		Y:         base64.RawURLEncoding.EncodeToString(y),
	}}}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("marshal jwks: %w", err)
	}
	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	k.jwksBody = body
	k.jwksETag = etag
	return k.jwksBody, k.jwksETag, nil
}
