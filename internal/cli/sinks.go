package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/scrm/trolley/internal/config"
	"github.com/scrm/trolley/pkg/adapters/eventlog"
	"github.com/scrm/trolley/pkg/adapters/eventlog/file"
	"github.com/scrm/trolley/pkg/adapters/eventlog/memory"
	"github.com/scrm/trolley/pkg/adapters/eventlog/redis"
	"github.com/scrm/trolley/pkg/adapters/http"
	"github.com/scrm/trolley/pkg/domain"
	"github.com/scrm/trolley/pkg/ports"
)

// reportWindow bounds the events kept in memory for the closing report.
const reportWindow = 10000

// sinkSet is every destination of the event log for one session.
type sinkSet struct {
	file    *file.Sink
	redis   *redis.Sink
	recent  *memory.Sink
	streams *http.StreamManager
	tee     eventlog.Tee
}

// openSinks opens the log file and, when configured, the Redis mirror.
// An unreachable Redis is reported and skipped; the file is required.
func openSinks(ctx context.Context, cfg config.Log, logger *slog.Logger, extra ...ports.EventSink) (*sinkSet, error) {
	f, err := file.Open(cfg.Path, file.WithFormat(file.Format(cfg.Format)))
	if err != nil {
		return nil, err
	}

	s := &sinkSet{
		file:    f,
		recent:  memory.NewRing(reportWindow),
		streams: http.NewStreamManager(),
	}

	if cfg.Redis.Addr != "" {
		r := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithKey(cfg.Redis.Key),
			redis.WithMaxLen(cfg.Redis.MaxLen),
		)
		pingCtx, cancel := context.WithTimeout(ctx, time.Second)
		err := r.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Warn("redis event mirror unavailable", "addr", cfg.Redis.Addr, "error", err)
			_ = r.Close()
		} else {
			s.redis = r
		}
	}

	sinks := []ports.EventSink{s.file, s.recent, s.streams}
	if s.redis != nil {
		sinks = append(sinks, s.redis)
	}
	s.tee = eventlog.NewTee(append(sinks, extra...)...)
	return s, nil
}

func (s *sinkSet) Record(ctx context.Context, e domain.Event) error {
	return s.tee.Record(ctx, e)
}

func (s *sinkSet) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	errs = append(errs, s.file.Close())
	return errors.Join(errs...)
}
