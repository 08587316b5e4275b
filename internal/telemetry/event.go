// Package telemetry carries session lifecycle events to the log pipeline.
package telemetry

import (
	"context"
	"time"

	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
)

// Event types.
const (
	EventRegistered  = "user.registered"
	EventSignedIn    = "session.signed_in"
	EventSignInFail  = "session.sign_in_failed"
	EventSignedOut   = "session.signed_out"
	EventSignOutFail = "session.sign_out_failed"
)

// Event is one session lifecycle event. Tokens appear only as fingerprints.
type Event struct {
	Type      string
	UserID    string
	TokenFP   string
	Source    string
	CreatedAt time.Time
}

// EventEmitter emits events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the servers stop before
// shutting down the OTel providers, so in-flight emits can finish.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine so the caller is not blocked. The emit
// outlives request cancellation but not emitTimeout. A nil emitter or event is a no-op.
func EmitAsync(ctx context.Context, emitter EventEmitter, logger logging.Logger, event *Event) {
	if emitter == nil || event == nil {
		return
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			logger.Warn(emitCtx, "telemetry emit failed", "event_type", event.Type, "error", err)
		}
	}()
}
