// Package notify dispatches templated notifications. Delivery is best
// effort: callers treat a failed Send as an observable event, never as a
// reason to roll back the write that triggered it.
package notify

import (
	"context"
	"time"

	"platewise.app/internal/obs"
)

// TemplateInvitation is the employee invitation email.
const TemplateInvitation = "employee-invitation"

// Notifier sends a templated notification with substitution variables.
type Notifier interface {
	Send(ctx context.Context, template string, vars map[string]string) error
}

// LogNotifier records each dispatch as a structured log line instead of
// talking to a mail provider. It is the default sink for development and
// tests; production wiring swaps in a real provider behind the same
// interface.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, template string, vars map[string]string) error {
	fields := make(map[string]any, len(vars)+3)
	for k, v := range vars {
		fields[k] = v
	}
	fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	fields["type"] = "notification"
	fields["template"] = template
	obs.LogEvent(fields)
	return nil
}
