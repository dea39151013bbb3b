package ports

import (
	"context"

	"github.com/scrm/trolley/pkg/domain"
)

// EventSink records simulator events. It is append-only and never read
// back by the simulator.
type EventSink interface {
	Record(ctx context.Context, event domain.Event) error
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(ctx context.Context, event domain.Event) error

// Record calls f.
func (f EventSinkFunc) Record(ctx context.Context, event domain.Event) error {
	return f(ctx, event)
}
