package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/storage"
)

// DefaultCredentials is written when no credentials file exists
var DefaultCredentials = map[string]string{
	"1234": "Player1",
	"5678": "Player2",
}

// Defaults returns DefaultCredentials as a sorted list
func Defaults() []model.Credential {
	return toCredentials(DefaultCredentials)
}

// LoadCredentials reads the secret -> display name mapping from a JSON file.
// A missing file is created with DefaultCredentials.
func LoadCredentials(path string) ([]model.Credential, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := writeCredentials(path, DefaultCredentials); err != nil {
			return nil, err
		}
		return toCredentials(DefaultCredentials), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("parsing credentials %s: %w", path, err)
	}
	return toCredentials(mapping), nil
}

// Seed stores the credentials in the backend used by the Registry
func Seed(ctx context.Context, store storage.Storage, credentials []model.Credential) error {
	if err := store.SaveCredentials(ctx, credentials); err != nil {
		return fmt.Errorf("seeding credentials: %w", err)
	}
	return nil
}

func writeCredentials(path string, mapping map[string]string) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating credentials directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing default credentials: %w", err)
	}
	return nil
}

func toCredentials(mapping map[string]string) []model.Credential {
	secrets := make([]string, 0, len(mapping))
	for secret := range mapping {
		secrets = append(secrets, secret)
	}
	sort.Strings(secrets)

	credentials := make([]model.Credential, 0, len(secrets))
	for _, secret := range secrets {
		credentials = append(credentials, model.Credential{Secret: secret, DisplayName: mapping[secret]})
	}
	return credentials
}
