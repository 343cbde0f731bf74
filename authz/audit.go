package authz

//go:generate mockgen -destination=../mocks/mock_audit_sink.go -package=mocks food-delivery-api/authz AuditSink

import (
	"context"
	"time"

	"food-delivery-api/models"
)

// Event is the structured audit record emitted for every decision.
type Event struct {
	Timestamp     time.Time
	Method        string
	Path          string
	Pattern       string
	Decision      Outcome
	UserID        string
	Email         string
	Role          string
	IP            string
	UserAgent     string
	RequiredRoles models.RoleSet
}

// Elevated reports whether the event signals a configuration gap rather
// than ordinary client misuse.
func (e Event) Elevated() bool {
	return e.Decision == DenyNoRule
}

// AuditSink receives decision events. Implementations must be safe for concurrent use.
type AuditSink interface {
	Record(ctx context.Context, ev Event)
}

// AuditSinkFunc adapts a function to AuditSink.
type AuditSinkFunc func(ctx context.Context, ev Event)

func (f AuditSinkFunc) Record(ctx context.Context, ev Event) { f(ctx, ev) }

type nopSink struct{}

func (nopSink) Record(context.Context, Event) {}
