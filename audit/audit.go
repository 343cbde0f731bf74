// Package audit writes authorization decisions to the structured log.
package audit

import (
	"context"
	"time"

	"food-delivery-api/authz"

	"github.com/sirupsen/logrus"
)

const (
	channelAccess   = "access"
	channelSecurity = "security"
)

// DecisionCounter counts decisions by outcome name.
type DecisionCounter interface {
	ObserveDecision(decision string)
}

// LogSink is an authz.AuditSink backed by logrus. Allows are logged at
// debug, ordinary denials at warn and missing rules at error on the
// security channel.
type LogSink struct {
	log     logrus.FieldLogger
	counter DecisionCounter
}

var _ authz.AuditSink = (*LogSink)(nil)

// NewLogSink returns a sink writing to log. counter may be nil.
func NewLogSink(log logrus.FieldLogger, counter DecisionCounter) *LogSink {
	return &LogSink{log: log, counter: counter}
}

func (s *LogSink) Record(_ context.Context, ev authz.Event) {
	if s.counter != nil {
		s.counter.ObserveDecision(ev.Decision.String())
	}

	fields := logrus.Fields{
		"timestamp":  ev.Timestamp.Format(time.RFC3339Nano),
		"method":     ev.Method,
		"path":       ev.Path,
		"decision":   ev.Decision.String(),
		"ip":         ev.IP,
		"user_agent": ev.UserAgent,
		"channel":    channelAccess,
	}
	if ev.Pattern != "" {
		fields["pattern"] = ev.Pattern
	}
	if ev.UserID != "" {
		fields["user_id"] = ev.UserID
		fields["email"] = ev.Email
		fields["role"] = ev.Role
	}
	if !ev.RequiredRoles.Empty() {
		fields["required_roles"] = ev.RequiredRoles.String()
	}

	entry := s.log.WithFields(fields)
	switch {
	case ev.Decision == authz.Allow:
		entry.Debug("access granted")
	case ev.Elevated():
		entry.WithField("channel", channelSecurity).
			Error("no permission rule defined for endpoint")
	default:
		entry.Warn("access denied")
	}
}
