// Package redis mirrors the event log into a capped Redis list.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/scrm/trolley/pkg/domain"
)

// Defaults for Sink.
const (
	DefaultKey     = "trolley:events"
	DefaultMaxLen  = 10000
	DefaultTimeout = 50 * time.Millisecond
)

// Sink appends events to a Redis list with RPUSH and trims it to MaxLen.
type Sink struct {
	client  *backend.Client
	key     string
	maxLen  int64
	timeout time.Duration
}

// Option configures a Sink.
type Option func(*Sink)

// WithKey sets the list key.
func WithKey(key string) Option {
	return func(s *Sink) {
		if key != "" {
			s.key = key
		}
	}
}

// WithMaxLen caps the list length. Zero keeps everything.
func WithMaxLen(n int64) Option {
	return func(s *Sink) {
		s.maxLen = n
	}
}

// WithTimeout bounds each Record call.
func WithTimeout(d time.Duration) Option {
	return func(s *Sink) {
		s.timeout = d
	}
}

// New connects to a Redis server.
func New(address, password string, db int, opts ...Option) *Sink {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a sink from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Sink {
	s := &Sink{
		client:  client,
		key:     DefaultKey,
		maxLen:  DefaultMaxLen,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends the event.
func (s *Sink) Record(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key, data)
	if s.maxLen > 0 {
		pipe.LTrim(ctx, s.key, -s.maxLen, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append event to redis: %w", err)
	}
	return nil
}

// Events reads the list back, oldest first.
func (s *Sink) Events(ctx context.Context) ([]domain.Event, error) {
	vals, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	out := make([]domain.Event, 0, len(vals))
	for _, v := range vals {
		var e domain.Event
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Ping checks connectivity.
func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Sink) Close() error {
	return s.client.Close()
}
