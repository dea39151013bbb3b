package eventlog

import (
	"context"
	"errors"

	"github.com/scrm/trolley/pkg/domain"
	"github.com/scrm/trolley/pkg/ports"
)

// Tee records every event in each sink. A failing sink does not stop the
// others; the errors are joined.
type Tee []ports.EventSink

// NewTee drops nil sinks.
func NewTee(sinks ...ports.EventSink) Tee {
	out := make(Tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Record implements ports.EventSink.
func (t Tee) Record(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, s := range t {
		if err := s.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
