package diag

import (
	"errors"

	"github.com/getsentry/sentry-go"
)

// SentrySink forwards spawn failures and abnormal worker exits to
// Sentry. Other records are ignored.
type SentrySink struct {
	hub *sentry.Hub
}

// NewSentrySink reports to hub, or to the current hub if hub is nil.
func NewSentrySink(hub *sentry.Hub) *SentrySink {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &SentrySink{hub: hub}
}

func (s *SentrySink) Report(r Record) {
	switch r.Kind {
	case KindSpawnFailure, KindRelayError:
		err := r.Err
		if err == nil {
			err = errors.New(r.Message)
		}
		s.capture(r, func(hub *sentry.Hub) { hub.CaptureException(err) })
	case KindTerminated:
		if r.Exit != nil && r.Exit.Success() {
			return
		}
		s.capture(r, func(hub *sentry.Hub) { hub.CaptureMessage(r.Message) })
	}
}

func (s *SentrySink) capture(r Record, fn func(*sentry.Hub)) {
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("kind", string(r.Kind))
		if r.Session != "" {
			scope.SetTag("session", r.Session)
		}
		if r.Exit != nil {
			scope.SetExtra("exit", r.Exit.String())
		}
		fn(s.hub)
	})
}
