package statemachine

import (
	"context"

	"food-delivery-api/apperrors"
	"food-delivery-api/authz"
	"food-delivery-api/models"
)

// Cancel applies the cancellation policy: the caller must be the order's
// customer or an admin, and the order must still be pending or confirmed.
// A wrong caller yields NotResourceOwner; a wrong stage, terminal ones
// included, yields CancellationWindowClosed.
func (m *Machine) Cancel(ctx context.Context, order *models.Order, actor authz.Identity, reason string) (*models.Order, error) {
	if err := authz.ValidateOwnership(ctx, order.ID, actor, customerOf(order)); err != nil {
		m.observer.ObserveTransition(order.Status, models.StatusCancelled, ResultRejected)
		return nil, err
	}
	if !CanCancel(order.Status) {
		m.observer.ObserveTransition(order.Status, models.StatusCancelled, ResultRejected)
		return nil, apperrors.CancellationWindowClosed(string(order.Status))
	}
	if reason == "" {
		reason = "Order cancelled by " + actor.Role.String()
	}
	return m.SetStatus(ctx, order, models.StatusCancelled, actor, reason)
}
