package signing

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	defaultService = "rune-ration-replay"
	keyAccount     = "replay-signing-key"
	keySize        = 32
)

// KeyStore keeps the signing key in the OS keychain, with an optional JSON
// file fallback for hosts that have no keyring (containers, CI).
type KeyStore struct {
	service      string
	fallbackPath string
	mu           sync.Mutex
}

// NewKeyStore creates a key store for the given keyring service.
func NewKeyStore(serviceName, fallbackPath string) *KeyStore {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = defaultService
	}
	return &KeyStore{
		service:      serviceName,
		fallbackPath: fallbackPath,
	}
}

// Key returns the signing key, generating and storing one on first use.
func (k *KeyStore) Key() ([]byte, error) {
	encoded, err := k.get()
	if err == nil {
		key, derr := base64.StdEncoding.DecodeString(encoded)
		if derr != nil || len(key) != keySize {
			return nil, fmt.Errorf("signing: stored key is corrupt")
		}
		return key, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return nil, err
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("signing: generate key: %w", err)
	}
	if err := k.set(base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}

// Delete removes the stored key from the keyring and the fallback file.
func (k *KeyStore) Delete() error {
	err := keyring.Delete(k.service, keyAccount)
	ferr := k.deleteFallback()
	if err != nil && !errors.Is(err, keyring.ErrNotFound) && !isKeyringUnavailable(err) {
		return fmt.Errorf("signing: keyring delete: %w", err)
	}
	return ferr
}

func (k *KeyStore) set(value string) error {
	if err := keyring.Set(k.service, keyAccount, value); err == nil {
		return nil
	} else if !isKeyringUnavailable(err) {
		return fmt.Errorf("signing: keyring set: %w", err)
	}
	return k.setFallback(value)
}

func (k *KeyStore) get() (string, error) {
	val, err := keyring.Get(k.service, keyAccount)
	if err == nil {
		return val, nil
	}
	if !isKeyringUnavailable(err) && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("signing: keyring get: %w", err)
	}

	fallback, ferr := k.getFallback()
	if ferr == nil {
		return fallback, nil
	}
	if errors.Is(err, keyring.ErrNotFound) || errors.Is(ferr, keyring.ErrNotFound) {
		return "", keyring.ErrNotFound
	}
	return "", ferr
}

func isKeyringUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "secret service") ||
		strings.Contains(msg, "dbus") ||
		strings.Contains(msg, "no keychain") ||
		strings.Contains(msg, "keyring backend not available")
}

type fallbackSecrets map[string]map[string]string

func (k *KeyStore) setFallback(value string) error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return fmt.Errorf("signing: keyring unavailable and no fallback path configured")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	if _, ok := data[k.service]; !ok {
		data[k.service] = map[string]string{}
	}
	data[k.service][keyAccount] = value
	return k.writeFallbackUnlocked(data)
}

func (k *KeyStore) getFallback() (string, error) {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return "", fmt.Errorf("signing: fallback path not configured")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return "", err
	}
	val, ok := data[k.service][keyAccount]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return val, nil
}

func (k *KeyStore) deleteFallback() error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	delete(data, k.service)
	return k.writeFallbackUnlocked(data)
}

func (k *KeyStore) readFallbackUnlocked() (fallbackSecrets, error) {
	out := fallbackSecrets{}
	raw, err := os.ReadFile(k.fallbackPath)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("signing: read fallback secrets: %w", err)
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("signing: decode fallback secrets: %w", err)
	}
	return out, nil
}

func (k *KeyStore) writeFallbackUnlocked(data fallbackSecrets) error {
	if err := os.MkdirAll(filepath.Dir(k.fallbackPath), 0o700); err != nil {
		return fmt.Errorf("signing: mkdir fallback dir: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("signing: encode fallback secrets: %w", err)
	}
	if err := os.WriteFile(k.fallbackPath, raw, 0o600); err != nil {
		return fmt.Errorf("signing: write fallback secrets: %w", err)
	}
	return nil
}
