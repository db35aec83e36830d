package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/mcoot/noughts/internal/api"
	"github.com/mcoot/noughts/internal/dependencies/clock"
	"github.com/mcoot/noughts/internal/dependencies/random"
	"github.com/mcoot/noughts/internal/gateway"
	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/services/bot"
	"github.com/mcoot/noughts/internal/services/game"
	"github.com/mcoot/noughts/internal/services/identity"
	"github.com/mcoot/noughts/internal/services/pairing"
	"github.com/mcoot/noughts/internal/services/presence"
	"github.com/mcoot/noughts/internal/storage"
	"github.com/mcoot/noughts/internal/storage/memory"
	redisstorage "github.com/mcoot/noughts/internal/storage/redis"
	"github.com/mcoot/noughts/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Identity *identity.Registry
	Presence *presence.Directory
	Games    *game.Controller
	Pairing  *pairing.Coordinator
	Bot      *bot.Service

	// Transport
	Hub     *ws.Hub
	Gateway *gateway.Dispatcher

	logger  *slog.Logger
	cancel  context.CancelFunc
	running sync.WaitGroup
	closed  sync.Once
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// CredentialsPath is the JSON credentials file, created with defaults if missing.
	// If empty and Credentials is nil, the defaults are used without touching disk.
	CredentialsPath string
	// Credentials overrides CredentialsPath when set
	Credentials []model.Credential
	// Bot configures move suggestions; zero value means bot.DefaultConfig()
	Bot bot.Config
	// AnthropicAPIKey enables the model-backed strategy. Without it only the
	// random strategy is used.
	AnthropicAPIKey string
	// AnthropicModel overrides bot.DefaultModel
	AnthropicModel string
	// QueueSize bounds the gateway inbox (optional)
	QueueSize int
}

// New creates a new application with all dependencies wired and credentials seeded
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	credentials, err := loadCredentials(cfg)
	if err != nil {
		_ = closeStorage(store)
		return nil, err
	}
	if err := identity.Seed(ctx, store, credentials); err != nil {
		_ = closeStorage(store)
		return nil, err
	}
	logger.Info("credentials loaded", slog.Int("count", len(credentials)))

	// No connection survives a restart, so any claim still stored is stale
	stale, err := store.ClearClaims(ctx)
	if err != nil {
		_ = closeStorage(store)
		return nil, fmt.Errorf("clearing stale claims: %w", err)
	}
	if stale > 0 {
		logger.Warn("cleared stale secret claims", slog.Int("count", stale))
	}

	var primary bot.Strategy
	if cfg.AnthropicAPIKey != "" {
		primary = bot.NewAnthropicStrategy(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		logger.Info("anthropic move suggestions enabled")
	}

	return newWithDependencies(store, clock.New(), random.New(), primary, cfg, logger), nil
}

func newStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory' or 'redis'", storageType)
	}
}

func loadCredentials(cfg Config) ([]model.Credential, error) {
	switch {
	case cfg.Credentials != nil:
		return cfg.Credentials, nil
	case cfg.CredentialsPath != "":
		return identity.LoadCredentials(cfg.CredentialsPath)
	default:
		return identity.Defaults(), nil
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, primary bot.Strategy, cfg Config, logger *slog.Logger) *App {
	botCfg := cfg.Bot
	if botCfg == (bot.Config{}) {
		botCfg = bot.DefaultConfig()
	}

	hub := ws.NewHub(clk, logger)
	registry := identity.New(store, logger)
	directory := presence.New(clk, logger)
	games := game.NewController(store, clk, rnd, hub, logger)
	coordinator := pairing.New(directory, games, rnd, hub, logger)
	bots := bot.NewService(primary, bot.NewRandomStrategy(rnd), botCfg, logger)
	dispatcher := gateway.New(registry, directory, coordinator, games, bots, hub, cfg.QueueSize, logger)

	return &App{
		Storage:  store,
		Clock:    clk,
		Random:   rnd,
		Identity: registry,
		Presence: directory,
		Games:    games,
		Pairing:  coordinator,
		Bot:      bots,
		Hub:      hub,
		Gateway:  dispatcher,
		logger:   logger,
	}
}

// Router returns the HTTP handler serving the websocket gateway and status API
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:   a.logger,
		Hub:      a.Hub,
		Gateway:  a.Gateway,
		Presence: a.Presence,
		Games:    a.Games,
		Identity: a.Identity,
	})
}

// Start runs the hub and the gateway dispatcher in the background
func (a *App) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.running.Add(2)
	go func() {
		defer a.running.Done()
		a.Hub.Run()
	}()
	go func() {
		defer a.running.Done()
		a.Gateway.Run(runCtx)
	}()
}

// Close disconnects every client, stops the background loops, returns held
// secrets and closes the storage backend. Safe to call more than once.
func (a *App) Close() error {
	var err error
	a.closed.Do(func() {
		a.Hub.Close()
		if a.cancel != nil {
			a.cancel()
		}
		a.running.Wait()

		if released := a.Identity.ReleaseAll(context.Background()); released > 0 {
			a.logger.Info("released secrets on shutdown", slog.Int("count", released))
		}
		err = closeStorage(a.Storage)
	})
	return err
}

func closeStorage(store storage.Storage) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
