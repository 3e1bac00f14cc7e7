package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrEmptyKey          = errors.New("empty signing key")
)

// Signer produces HMAC-SHA256 signatures over record digests.
type Signer struct {
	key []byte
}

// NewSigner creates a signer with the given key.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return &Signer{key: append([]byte(nil), key...)}, nil
}

// LoadSigner creates a signer from the key held in the key store.
func LoadSigner(ks *KeyStore) (*Signer, error) {
	key, err := ks.Key()
	if err != nil {
		return nil, err
	}
	return NewSigner(key)
}

// Sign returns the record digest and its signature.
func (s *Signer) Sign(r Record) (digest, signature string, err error) {
	digest, err = Digest(r)
	if err != nil {
		return "", "", err
	}
	return digest, s.SignDigest(digest), nil
}

// SignDigest signs an already computed digest.
func (s *Signer) SignDigest(digest string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(digest))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the digest of r and checks the signature against it.
func (s *Signer) Verify(r Record, signature string) error {
	digest, err := Digest(r)
	if err != nil {
		return err
	}
	want, err := hex.DecodeString(s.SignDigest(digest))
	if err != nil {
		return err
	}
	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(want, got) {
		return fmt.Errorf("%w: digest %s", ErrSignatureMismatch, digest)
	}
	return nil
}
