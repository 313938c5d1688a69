package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Credentials are the broker API secrets, loaded from the environment.
// Never put them in the YAML config; it gets committed, they don't.
type Credentials struct {
	KiteAPIKey    string
	KiteAPISecret string

	DhanClientID    string
	DhanAccessToken string
}

// LoadCredentials reads a .env file if one exists, then the environment.
// Missing variables are not an error here; each broker client validates
// what it needs.
func LoadCredentials(envFile string) (Credentials, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Credentials{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		// Best effort on the default path.
		_ = godotenv.Load()
	}

	return Credentials{
		KiteAPIKey:      os.Getenv("KITE_API_KEY"),
		KiteAPISecret:   os.Getenv("KITE_API_SECRET"),
		DhanClientID:    os.Getenv("DHAN_CLIENT_ID"),
		DhanAccessToken: os.Getenv("DHAN_ACCESS_TOKEN"),
	}, nil
}

// RequireZerodha errors unless the Kite key pair is present.
func (c Credentials) RequireZerodha() error {
	if c.KiteAPIKey == "" || c.KiteAPISecret == "" {
		return fmt.Errorf("KITE_API_KEY and KITE_API_SECRET must be set")
	}
	return nil
}

// RequireDhan errors unless the Dhan credentials are present.
func (c Credentials) RequireDhan() error {
	if c.DhanClientID == "" || c.DhanAccessToken == "" {
		return fmt.Errorf("DHAN_CLIENT_ID and DHAN_ACCESS_TOKEN must be set")
	}
	return nil
}

// TokenStore persists the daily Kite access token between runs. Kite
// tokens expire every morning, so staleness is expected and harmless.
type TokenStore struct {
	Path string
}

func (s TokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

func (s TokenStore) Save(token string) error {
	if err := os.WriteFile(s.Path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func (s TokenStore) Clear() error {
	err := os.Remove(s.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
