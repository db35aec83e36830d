package identity

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/storage/memory"
)

func TestLoadCredentialsReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"5678":"Bob","1234":"Alice"}`), 0o600))

	creds, err := LoadCredentials(path)
	require.NoError(t, err)

	assert.Equal(t, []model.Credential{
		{Secret: "1234", DisplayName: "Alice"},
		{Secret: "5678", DisplayName: "Bob"},
	}, creds)
}

func TestLoadCredentialsWritesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "users.json")

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Len(t, creds, len(DefaultCredentials))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var persisted map[string]string
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, DefaultCredentials, persisted)
}

func TestLoadCredentialsRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`["not", "a", "map"]`), 0o600))

	_, err := LoadCredentials(path)
	assert.Error(t, err)
}

func TestSeedMakesSecretsResolvable(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	creds, err := LoadCredentials(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	require.NoError(t, Seed(ctx, store, creds))

	name, err := store.GetDisplayName(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, "Player1", name)
}

func TestDefaultsAreSorted(t *testing.T) {
	assert.Equal(t, []model.Credential{
		{Secret: "1234", DisplayName: "Player1"},
		{Secret: "5678", DisplayName: "Player2"},
	}, Defaults())
}
