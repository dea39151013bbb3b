package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalManager turns SIGINT and SIGTERM into context cancellation so the
// session can close its event log and player cleanly.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignalManager starts listening for signals immediately.
func NewSignalManager(parent context.Context) *SignalManager {
	sm := &SignalManager{}
	sm.ctx, sm.cancel = signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return sm
}

// Context is cancelled on the first signal or on Stop.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Stop releases the signal handler and cancels the context.
func (sm *SignalManager) Stop() {
	sm.cancel()
}
