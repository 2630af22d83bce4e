package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeySource describes where the effective API key came from.
type KeySource string

// Key sources, in precedence order.
const (
	KeySourceEnv     KeySource = "env"
	KeySourceConfig  KeySource = "config"
	KeySourceKeyring KeySource = "keyring"
	KeySourceDemo    KeySource = "demo"
)

// ResolveAPIKey returns the API key to use and its source. The environment wins over the
// config file, the config file over the OS keyring, and DEMO_KEY is the last resort.
// A keyring failure other than "not found" is returned alongside the demo fallback so
// callers can log it.
func (c *Config) ResolveAPIKey() (string, KeySource, error) {
	if v := strings.TrimSpace(os.Getenv(APIKeyEnv)); v != "" {
		return v, KeySourceEnv, nil
	}
	if c.API.APIKey != "" {
		return c.API.APIKey, KeySourceConfig, nil
	}
	key, err := GetStoredAPIKey()
	if err != nil {
		return DemoAPIKey, KeySourceDemo, err
	}
	if key != "" {
		return key, KeySourceKeyring, nil
	}
	return DemoAPIKey, KeySourceDemo, nil
}

// GetStoredAPIKey returns the API key from the keyring, or "" when none is stored.
func GetStoredAPIKey() (string, error) {
	key, err := keyring.Get(KeyringService, KeyringAPIKeyUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read api key from keyring: %w", err)
	}
	return strings.TrimSpace(key), nil
}

// SetStoredAPIKey saves the API key in the keyring.
func SetStoredAPIKey(apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("api key must not be empty")
	}
	if err := keyring.Set(KeyringService, KeyringAPIKeyUser, apiKey); err != nil {
		return fmt.Errorf("save api key to keyring: %w", err)
	}
	return nil
}

// DeleteStoredAPIKey removes the API key from the keyring. Deleting a missing key is not an error.
func DeleteStoredAPIKey() error {
	err := keyring.Delete(KeyringService, KeyringAPIKeyUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete api key from keyring: %w", err)
	}
	return nil
}
