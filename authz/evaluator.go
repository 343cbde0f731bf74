package authz

import (
	"context"
	"time"
)

// Request carries what the evaluator needs from an incoming HTTP request.
// Identity is nil when the caller presented no valid credential.
type Request struct {
	Method    string
	Path      string
	Identity  *Identity
	IP        string
	UserAgent string
}

// Evaluator decides requests against a Registry and audits each decision.
type Evaluator struct {
	registry *Registry
	sink     AuditSink
	now      func() time.Time
}

// NewEvaluator returns an evaluator over reg. A nil sink discards events.
func NewEvaluator(reg *Registry, sink AuditSink) *Evaluator {
	if sink == nil {
		sink = nopSink{}
	}
	return &Evaluator{registry: reg, sink: sink, now: time.Now}
}

// Decide evaluates without side effects.
func (e *Evaluator) Decide(method, path string, id *Identity) Decision {
	rule, ok := e.registry.match(method, path)
	if !ok {
		return Decision{Outcome: DenyNoRule}
	}
	if rule.public {
		return Decision{Outcome: Allow, Pattern: rule.pattern.raw, Public: true}
	}
	d := Decision{Pattern: rule.pattern.raw, RequiredRoles: rule.roles}
	switch {
	case id == nil:
		d.Outcome = DenyUnauthenticated
	case !rule.roles.Has(id.Role):
		d.Outcome = DenyForbidden
	default:
		d.Outcome = Allow
	}
	return d
}

// Evaluate decides req and records the decision on the audit sink.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) Decision {
	d := e.Decide(req.Method, req.Path, req.Identity)

	ev := Event{
		Timestamp:     e.now().UTC(),
		Method:        req.Method,
		Path:          req.Path,
		Pattern:       d.Pattern,
		Decision:      d.Outcome,
		IP:            req.IP,
		UserAgent:     req.UserAgent,
		RequiredRoles: d.RequiredRoles,
	}
	if req.Identity != nil {
		ev.UserID = req.Identity.UserID
		ev.Email = req.Identity.Email
		ev.Role = req.Identity.Role.String()
	}
	e.sink.Record(ctx, ev)
	return d
}
