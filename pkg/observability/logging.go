package observability

import (
	"context"
	"log/slog"

	"github.com/scrm/trolley/pkg/domain"
)

// LoggingHooks writes transitions, faults and route warnings to logger.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "state_transition",
				"from", string(e.From),
				"to", string(e.To),
				"cause", e.Cause,
			)
		},
		OnFault: func(ctx context.Context, f *domain.Fault) {
			if f.Completion() {
				logger.InfoContext(ctx, "run_complete", "reason", f.Reason)
				return
			}
			logger.WarnContext(ctx, "fault", "kind", string(f.Kind), "reason", f.Reason)
		},
		OnEvent: func(ctx context.Context, e *domain.Event) {
			switch e.Kind {
			case domain.EventWarning:
				logger.WarnContext(ctx, "route_warning", "reason", e.Reason, "position", e.Position)
			case domain.EventMark, domain.EventNotice:
				logger.InfoContext(ctx, string(e.Kind), "note", e.Note, "reason", e.Reason, "position", e.Position)
			}
		},
	}
}
