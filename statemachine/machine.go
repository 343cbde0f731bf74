package statemachine

import (
	"context"
	"fmt"

	"food-delivery-api/apperrors"
	"food-delivery-api/authz"
	"food-delivery-api/models"
)

//go:generate mockgen -destination=../mocks/mock_order_store.go -package=mocks food-delivery-api/statemachine OrderStore

// ChangeMeta describes who made a status change, for the history trail.
type ChangeMeta struct {
	ChangedBy string
	Note      string
}

// OrderStore is the persistence the machine needs.
type OrderStore interface {
	FetchOrder(ctx context.Context, id string) (*models.Order, error)
	// ConditionalUpdateStatus sets status to next only if it still equals
	// expected, and returns the number of rows changed.
	ConditionalUpdateStatus(ctx context.Context, id string, expected, next models.OrderStatus, meta ChangeMeta) (int64, error)
}

// Observer is notified of every attempted transition. result is "applied",
// "rejected" or "conflict".
type Observer interface {
	ObserveTransition(from, to models.OrderStatus, result string)
}

type nopObserver struct{}

func (nopObserver) ObserveTransition(models.OrderStatus, models.OrderStatus, string) {}

const (
	ResultApplied  = "applied"
	ResultRejected = "rejected"
	ResultConflict = "conflict"
)

// Machine validates and applies order status transitions.
type Machine struct {
	store    OrderStore
	observer Observer
}

type Option func(*Machine)

func WithObserver(o Observer) Option {
	return func(m *Machine) {
		if o != nil {
			m.observer = o
		}
	}
}

func New(store OrderStore, opts ...Option) *Machine {
	m := &Machine{store: store, observer: nopObserver{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetStatus moves order to the requested status. order must be the state
// that was read; the write only lands if the stored status still matches it,
// otherwise a TransitionConflict is returned and nothing changes.
func (m *Machine) SetStatus(ctx context.Context, order *models.Order, to models.OrderStatus, actor authz.Identity, note string) (*models.Order, error) {
	from := order.Status
	if err := CheckTransition(ctx, order, to, actor); err != nil {
		m.observer.ObserveTransition(from, to, ResultRejected)
		return nil, err
	}

	n, err := m.store.ConditionalUpdateStatus(ctx, order.ID, from, to, ChangeMeta{ChangedBy: actor.UserID, Note: note})
	if err != nil {
		return nil, fmt.Errorf("update order %s status: %w", order.ID, err)
	}
	if n == 0 {
		m.observer.ObserveTransition(from, to, ResultConflict)
		return nil, apperrors.TransitionConflict(order.ID).
			With("from", string(from)).
			With("to", string(to))
	}

	m.observer.ObserveTransition(from, to, ResultApplied)
	updated := *order
	updated.Status = to
	return &updated, nil
}

// Transition loads the order and applies SetStatus to it. It returns the
// status the order had when it was read alongside the updated order.
func (m *Machine) Transition(ctx context.Context, orderID string, to models.OrderStatus, actor authz.Identity, note string) (models.OrderStatus, *models.Order, error) {
	order, err := m.store.FetchOrder(ctx, orderID)
	if err != nil {
		return "", nil, err
	}
	updated, err := m.SetStatus(ctx, order, to, actor, note)
	return order.Status, updated, err
}
