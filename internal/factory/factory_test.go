package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/storage/memory"
	redisstorage "github.com/mcoot/noughts/internal/storage/redis"
)

func TestNewDefaultsToMemoryWithDefaultCredentials(t *testing.T) {
	ctx := context.Background()

	app, err := New(ctx, Config{})
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &memory.Storage{}, app.Storage)
	name, err := app.Storage.GetDisplayName(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, "Player1", name)
}

func TestNewLoadsCredentialsFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.json")

	app, err := New(ctx, Config{CredentialsPath: path})
	require.NoError(t, err)
	defer app.Close()

	assert.FileExists(t, path)
	count, err := app.Storage.CountCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewExplicitCredentialsWin(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "never-written.json")

	app, err := New(ctx, Config{
		CredentialsPath: path,
		Credentials:     []model.Credential{{Secret: "s3cret", DisplayName: "Dana"}},
	})
	require.NoError(t, err)
	defer app.Close()

	name, err := app.Storage.GetDisplayName(ctx, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Dana", name)
	assert.NoFileExists(t, path)
}

func TestNewRejectsUnknownStorageType(t *testing.T) {
	_, err := New(context.Background(), Config{StorageType: "postgres"})
	assert.ErrorContains(t, err, "invalid StorageType")
}

func TestNewRedisRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), Config{StorageType: StorageTypeRedis})
	assert.ErrorContains(t, err, "RedisConfig required")
}

func TestNewWithRedis(t *testing.T) {
	mini := miniredis.RunT(t)
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mini.Addr()

	ctx := context.Background()
	app, err := New(ctx, Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	require.NoError(t, err)

	assert.IsType(t, &redisstorage.Storage{}, app.Storage)
	count, err := app.Storage.CountCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, app.Close())
	// Second close is a no-op
	require.NoError(t, app.Close())
}

func TestNewClearsClaimsLeftByCrashedServer(t *testing.T) {
	mini := miniredis.RunT(t)
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mini.Addr()
	ctx := context.Background()

	crashed, err := New(ctx, Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	require.NoError(t, err)
	_, err = crashed.Identity.Authenticate(ctx, "conn-1", "1234")
	require.NoError(t, err)
	// Claims written without a TTL survive any amount of idle time
	mini.FastForward(48 * time.Hour)

	app, err := New(ctx, Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	require.NoError(t, err)
	defer app.Close()

	claims, err := app.Storage.CountClaims(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, claims)

	name, err := app.Identity.Authenticate(ctx, "conn-2", "1234")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)
}

func TestCloseReleasesHeldSecrets(t *testing.T) {
	app := NewTestApp(nil)
	app.Start(context.Background())
	ctx := context.Background()

	_, err := app.Identity.Authenticate(ctx, "conn-1", "1234")
	require.NoError(t, err)

	require.NoError(t, app.Close())

	claims, err := app.Storage.CountClaims(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, claims)
}

func TestNewWithAnthropicKeyEnablesPrimaryStrategy(t *testing.T) {
	app, err := New(context.Background(), Config{AnthropicAPIKey: "test-key"})
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Bot)
}
