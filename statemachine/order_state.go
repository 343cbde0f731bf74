// Package statemachine governs the order status lifecycle.
//
// Orders move one step at a time along
//
//	pending → confirmed → preparing → ready → picked_up → in_transit → delivered
//
// and may be cancelled only while pending or confirmed. delivered and
// cancelled are terminal. Status is only ever written through Machine, which
// persists with a compare-and-swap on the previously read status.
package statemachine

import (
	"context"

	"food-delivery-api/apperrors"
	"food-delivery-api/authz"
	"food-delivery-api/models"
)

// chain is the forward lifecycle in order.
var chain = []models.OrderStatus{
	models.StatusPending,
	models.StatusConfirmed,
	models.StatusPreparing,
	models.StatusReady,
	models.StatusPickedUp,
	models.StatusInTransit,
	models.StatusDelivered,
}

// cancellable are the stages from which an order may still be cancelled.
var cancellable = map[models.OrderStatus]bool{
	models.StatusPending:   true,
	models.StatusConfirmed: true,
}

var successor = func() map[models.OrderStatus]models.OrderStatus {
	m := make(map[models.OrderStatus]models.OrderStatus, len(chain)-1)
	for i := 0; i < len(chain)-1; i++ {
		m[chain[i]] = chain[i+1]
	}
	return m
}()

// Next returns the unique forward successor of s.
func Next(s models.OrderStatus) (models.OrderStatus, bool) {
	n, ok := successor[s]
	return n, ok
}

// CanCancel reports whether an order in status s is still inside the cancellation window.
func CanCancel(s models.OrderStatus) bool {
	return cancellable[s]
}

// ValidTransitionsFrom returns every status reachable from s in one step.
func ValidTransitionsFrom(s models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	if n, ok := Next(s); ok {
		nexts = append(nexts, n)
	}
	if CanCancel(s) {
		nexts = append(nexts, models.StatusCancelled)
	}
	return nexts
}

// CheckTransition validates moving order to the requested status on behalf of
// actor, without touching storage. Terminal orders reject everything; a
// cancellation needs the order's customer or an admin and an early stage;
// any other target must be the immediate successor.
func CheckTransition(ctx context.Context, order *models.Order, to models.OrderStatus, actor authz.Identity) error {
	from := order.Status
	if from.IsTerminal() || !to.Valid() {
		return apperrors.InvalidStatusTransition(string(from), string(to))
	}

	if to == models.StatusCancelled {
		if err := authz.ValidateOwnership(ctx, order.ID, actor, customerOf(order)); err != nil {
			return err
		}
		if !CanCancel(from) {
			return apperrors.CancellationWindowClosed(string(from))
		}
		return nil
	}

	if next, ok := Next(from); !ok || next != to {
		return apperrors.InvalidStatusTransition(string(from), string(to)).
			With("valid_next", ValidTransitionsFrom(from))
	}
	return nil
}

func customerOf(order *models.Order) authz.OwnerLookup {
	return authz.OwnerLookupFunc(func(_ context.Context, _ string) (string, error) {
		return order.CustomerID, nil
	})
}

// TransitionKind distinguishes forward advances from cancellations.
type TransitionKind string

const (
	KindAdvance TransitionKind = "advance"
	KindCancel  TransitionKind = "cancel"
)

// Transition is one legal edge of the lifecycle.
type Transition struct {
	From models.OrderStatus `json:"from"`
	To   models.OrderStatus `json:"to"`
	Kind TransitionKind     `json:"kind"`
}

// GetAllTransitions returns every legal edge, for documentation.
func GetAllTransitions() []Transition {
	var out []Transition
	for _, s := range chain {
		if n, ok := Next(s); ok {
			out = append(out, Transition{From: s, To: n, Kind: KindAdvance})
		}
		if CanCancel(s) {
			out = append(out, Transition{From: s, To: models.StatusCancelled, Kind: KindCancel})
		}
	}
	return out
}

// TerminalStatuses lists the absorbing states.
func TerminalStatuses() []models.OrderStatus {
	return []models.OrderStatus{models.StatusDelivered, models.StatusCancelled}
}
