// Package apperrors defines the error taxonomy shared by authorization, the
// order state machine and the HTTP layer.
package apperrors

import (
	"fmt"
	"net/http"
)

// Kind identifies a class of failure. It is what clients see in the "error" field.
type Kind string

const (
	KindAuthenticationRequired   Kind = "AuthenticationRequired"
	KindNoRuleDefined            Kind = "NoRuleDefined"
	KindInsufficientRole         Kind = "InsufficientRole"
	KindNotResourceOwner         Kind = "NotResourceOwner"
	KindInvalidStatusTransition  Kind = "InvalidStatusTransition"
	KindCancellationWindowClosed Kind = "CancellationWindowClosed"
	KindTransitionConflict       Kind = "TransitionConflict"

	KindNotFound           Kind = "NotFound"
	KindBadRequest         Kind = "BadRequest"
	KindConflict           Kind = "Conflict"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindRateLimited        Kind = "RateLimited"
	KindNotApproved        Kind = "NotApproved"
	KindInternal           Kind = "InternalError"
)

var statusByKind = map[Kind]int{
	KindAuthenticationRequired:   http.StatusUnauthorized,
	KindNoRuleDefined:            http.StatusForbidden,
	KindInsufficientRole:         http.StatusForbidden,
	KindNotResourceOwner:         http.StatusForbidden,
	KindInvalidStatusTransition:  http.StatusBadRequest,
	KindCancellationWindowClosed: http.StatusBadRequest,
	KindTransitionConflict:       http.StatusConflict,
	KindNotFound:                 http.StatusNotFound,
	KindBadRequest:               http.StatusBadRequest,
	KindConflict:                 http.StatusConflict,
	KindInvalidCredentials:       http.StatusUnauthorized,
	KindRateLimited:              http.StatusTooManyRequests,
	KindNotApproved:              http.StatusForbidden,
	KindInternal:                 http.StatusInternalServerError,
}

// HTTPStatus returns the response status for k, 500 for unknown kinds.
func (k Kind) HTTPStatus() int {
	if s, ok := statusByKind[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is a policy outcome. Message is safe to show to clients; Detail is
// for logs and audit only and must never be written to a response.
type Error struct {
	Kind    Kind
	Message string
	Detail  map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// With returns a copy of e carrying an extra detail entry.
func (e *Error) With(key string, value any) *Error {
	cp := *e
	cp.Detail = make(map[string]any, len(e.Detail)+1)
	for k, v := range e.Detail {
		cp.Detail[k] = v
	}
	cp.Detail[key] = value
	return &cp
}

// Sentinels for errors.Is comparisons.
var (
	ErrAuthenticationRequired   = &Error{Kind: KindAuthenticationRequired}
	ErrNoRuleDefined            = &Error{Kind: KindNoRuleDefined}
	ErrInsufficientRole         = &Error{Kind: KindInsufficientRole}
	ErrNotResourceOwner         = &Error{Kind: KindNotResourceOwner}
	ErrInvalidStatusTransition  = &Error{Kind: KindInvalidStatusTransition}
	ErrCancellationWindowClosed = &Error{Kind: KindCancellationWindowClosed}
	ErrTransitionConflict       = &Error{Kind: KindTransitionConflict}
	ErrNotFound                 = &Error{Kind: KindNotFound}
	ErrBadRequest               = &Error{Kind: KindBadRequest}
	ErrConflict                 = &Error{Kind: KindConflict}
	ErrInvalidCredentials       = &Error{Kind: KindInvalidCredentials}
	ErrRateLimited              = &Error{Kind: KindRateLimited}
	ErrNotApproved              = &Error{Kind: KindNotApproved}
)

// Constructors

func AuthenticationRequired() *Error {
	return &Error{Kind: KindAuthenticationRequired, Message: "Authentication required"}
}

func NoRuleDefined(method, path string) *Error {
	return &Error{
		Kind:    KindNoRuleDefined,
		Message: "Access denied",
		Detail:  map[string]any{"method": method, "path": path},
	}
}

// InsufficientRole lists the required roles in the message; role names are not sensitive.
func InsufficientRole(required fmt.Stringer) *Error {
	return &Error{
		Kind:    KindInsufficientRole,
		Message: "Required roles: " + required.String(),
		Detail:  map[string]any{"required_roles": required.String()},
	}
}

func NotResourceOwner(resourceID string) *Error {
	return &Error{
		Kind:    KindNotResourceOwner,
		Message: "You do not have access to this resource",
		Detail:  map[string]any{"resource_id": resourceID},
	}
}

func InvalidStatusTransition(from, to string) *Error {
	return &Error{
		Kind:    KindInvalidStatusTransition,
		Message: fmt.Sprintf("Invalid status transition from %s to %s", from, to),
		Detail:  map[string]any{"from": from, "to": to},
	}
}

func CancellationWindowClosed(current string) *Error {
	return &Error{
		Kind:    KindCancellationWindowClosed,
		Message: "Cannot cancel order at this stage",
		Detail:  map[string]any{"current_status": current},
	}
}

func TransitionConflict(orderID string) *Error {
	return &Error{
		Kind:    KindTransitionConflict,
		Message: "Order was modified concurrently, reload and retry",
		Detail:  map[string]any{"order_id": orderID},
	}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "Invalid email or password"}
}

func RateLimited() *Error {
	return &Error{Kind: KindRateLimited, Message: "Rate limit exceeded"}
}

// NotApproved rejects accounts or restaurants still awaiting admin approval.
func NotApproved(msg string) *Error {
	return &Error{Kind: KindNotApproved, Message: msg}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}
