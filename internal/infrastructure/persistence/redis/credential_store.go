// Package redis implements the Redis credential store backend. One opaque
// token under one well-known key; useful when the portal runs somewhere a
// Redis instance already exists and local disk does not survive restarts.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// Key is the key the token lives under.
	Key string

	// TokenTTL bounds how long a stored token survives. Zero means no
	// expiry; the API's own token expiry still applies either way.
	TokenTTL time.Duration

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		Key:          "didactic-portal:access_token",
		TokenTTL:     0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// CREDENTIAL STORE
// ══════════════════════════════════════════════════════════════════════════════

// CredentialStore implements session.Store on top of Redis.
type CredentialStore struct {
	client *redis.Client
	config Config
}

// NewCredentialStore creates a CredentialStore and verifies connectivity.
func NewCredentialStore(cfg Config) (*CredentialStore, error) {
	if cfg.Key == "" {
		cfg.Key = DefaultConfig().Key
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	return &CredentialStore{client: client, config: cfg}, nil
}

// NewCredentialStoreWithClient wraps an existing client, for tests.
func NewCredentialStoreWithClient(client *redis.Client, key string) *CredentialStore {
	if key == "" {
		key = DefaultConfig().Key
	}
	return &CredentialStore{client: client, config: Config{Key: key}}
}

// Save persists the token, replacing any previous one.
func (s *CredentialStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.config.Key, token, s.config.TokenTTL).Err(); err != nil {
		return fmt.Errorf("redis save token: %w", err)
	}
	return nil
}

// Load returns the persisted token, or ok=false when none is stored.
func (s *CredentialStore) Load(ctx context.Context) (string, bool, error) {
	token, err := s.client.Get(ctx, s.config.Key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis load token: %w", err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Clear removes the persisted token.
func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.config.Key).Err(); err != nil {
		return fmt.Errorf("redis clear token: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *CredentialStore) Close() error {
	return s.client.Close()
}
