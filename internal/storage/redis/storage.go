package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/storage"
)

// releaseScript deletes a claim only while it is still held by the caller
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Credential operations

func (s *Storage) SaveCredentials(ctx context.Context, credentials []model.Credential) error {
	if len(credentials) == 0 {
		return nil
	}

	values := make(map[string]any, len(credentials))
	for _, c := range credentials {
		values[storage.Fingerprint(c.Secret)] = c.DisplayName
	}
	return s.client.HSet(ctx, credentialsKey(), values).Err()
}

func (s *Storage) GetDisplayName(ctx context.Context, secret string) (string, error) {
	name, err := s.client.HGet(ctx, credentialsKey(), storage.Fingerprint(secret)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrCredentialNotFound
		}
		return "", err
	}
	return name, nil
}

func (s *Storage) CountCredentials(ctx context.Context) (int, error) {
	count, err := s.client.HLen(ctx, credentialsKey()).Result()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Claim operations

func (s *Storage) ClaimSecret(ctx context.Context, secret string, holder model.ConnectionID) error {
	// Claims never expire: they live exactly as long as the connection holding them.
	ok, err := s.client.SetNX(ctx, claimKey(storage.Fingerprint(secret)), string(holder), 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrSecretAlreadyActive
	}
	return nil
}

func (s *Storage) ReleaseSecret(ctx context.Context, secret string, holder model.ConnectionID) error {
	key := claimKey(storage.Fingerprint(secret))
	return releaseScript.Run(ctx, s.client, []string{key}, string(holder)).Err()
}

func (s *Storage) CountClaims(ctx context.Context) (int, error) {
	count := 0
	iter := s.client.Scan(ctx, 0, claimPattern(), 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Storage) ClearClaims(ctx context.Context) (int, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, claimPattern(), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.GameSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, s.cfg.SessionTTL)
	pipe.SAdd(ctx, sessionsIndexKey(), string(session.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.GameSession, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.GameSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, sessionsIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) CountSessions(ctx context.Context) (int, error) {
	count, err := s.client.SCard(ctx, sessionsIndexKey()).Result()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
