// Package redis persists the tracked order and its rendered-line state so a
// page reload or daemon restart can restore the exact bracket the user last
// saw, including any manual line drags.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"sltp-overlay/internal/model"
)

const (
	defaultKey = "sltp:order_state"

	// DefaultTTL matches the original 24h restore window.
	DefaultTTL = 24 * time.Hour
)

// Config configures the state store.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string        // storage key, defaults to sltp:order_state
	TTL      time.Duration // staleness window, defaults to 24h
}

// Store implements model.StateStore on Redis with a TTL'd single key.
type Store struct {
	client *goredis.Client
	key    string
	ttl    time.Duration
	now    func() time.Time
}

// Client returns the underlying Redis client for health checks.
func (s *Store) Client() *goredis.Client { return s.client }

// New creates a Store and pings the server.
func New(cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = defaultKey
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	log.Printf("[redis] connected to %s (key=%s ttl=%s)", cfg.Addr, key, ttl)
	return &Store{client: client, key: key, ttl: ttl, now: time.Now}, nil
}

// Save persists the envelope, stamping SavedAt. The key expires server-side
// after the TTL so abandoned state cleans itself up.
func (s *Store) Save(ctx context.Context, st *model.StoredState) error {
	st.SavedAt = s.now()
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Load returns the stored envelope, or (nil, nil) when absent, unreadable,
// or stale. The load-time staleness check matters beyond the server-side
// expiry: a lowered TTL must apply to rows written under the old one, and
// stale data is discarded silently rather than surfaced as an error.
func (s *Store) Load(ctx context.Context) (*model.StoredState, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	st, ok := s.decode(data)
	if !ok {
		s.client.Del(ctx, s.key)
		return nil, nil
	}
	return st, nil
}

// decode unmarshals a stored envelope and applies the load-time staleness
// check. Returns ok=false when the data should be discarded.
func (s *Store) decode(data []byte) (st *model.StoredState, ok bool) {
	st = &model.StoredState{}
	if err := json.Unmarshal(data, st); err != nil {
		log.Printf("[redis] discarding unreadable stored state: %v", err)
		return nil, false
	}
	if age := s.now().Sub(st.SavedAt); age > s.ttl {
		log.Printf("[redis] stored state is %s old (ttl %s), discarding", age.Round(time.Minute), s.ttl)
		return nil, false
	}
	return st, true
}

// Remove deletes the stored envelope.
func (s *Store) Remove(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}
