package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const service = "trashdash"

// ErrNoToken is returned when no token is stored under the requested key.
var ErrNoToken = errors.New("not authenticated")

// TokenStore defines the interface for bearer token storage operations.
// Each app persists its token under its own key so sessions never bleed
// between the customer, dasher and admin apps. The interface also lets
// tests swap in an in-memory store instead of the OS keyring.
type TokenStore interface {
	SaveToken(key, token string) error
	LoadToken(key string) (string, error)
	DeleteToken(key string) error
}

// keyringStore implements TokenStore using the OS keychain/credential manager
type keyringStore struct{}

// Keyring is the default keyring-backed token store.
var Keyring TokenStore = &keyringStore{}

func (k *keyringStore) SaveToken(key, token string) error {
	if err := keyring.Set(service, key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (k *keyringStore) LoadToken(key string) (string, error) {
	token, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

func (k *keyringStore) DeleteToken(key string) error {
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
