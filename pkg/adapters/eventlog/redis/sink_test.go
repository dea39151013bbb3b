package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/scrm/trolley/pkg/adapters/eventlog/eventlogtest"
	"github.com/scrm/trolley/pkg/adapters/eventlog/redis"
	"github.com/scrm/trolley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...redis.Option) (*miniredis.Miniredis, *redis.Sink) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, redis.NewFromClient(client, opts...)
}

func TestSink_Contract(t *testing.T) {
	_, s := setup(t, redis.WithTimeout(time.Second))
	eventlogtest.RunSinkContract(t, s, func() ([]domain.Event, error) {
		return s.Events(context.Background())
	})
}

func TestSink_Trim(t *testing.T) {
	mr, s := setup(t, redis.WithKey("museum:trolley"), redis.WithMaxLen(3))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, domain.Event{Kind: domain.EventMark, RunLevel: domain.RunLevel(i % 4)}))
	}

	assert.True(t, mr.Exists("museum:trolley"))
	assert.False(t, mr.Exists(redis.DefaultKey))

	events, err := s.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.RunLevel(2), events[0].RunLevel)
	assert.Equal(t, domain.RunLevel(0), events[2].RunLevel)
}

func TestSink_ServerDown(t *testing.T) {
	mr, s := setup(t)
	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	err := s.Record(context.Background(), domain.Event{Kind: domain.EventMark})
	assert.Error(t, err)
}
