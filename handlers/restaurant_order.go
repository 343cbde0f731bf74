package handlers

import (
	"net/http"

	"food-delivery-api/models"
	"food-delivery-api/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ListRestaurantOrders returns a restaurant's orders with a per-status summary.
func (h *Handler) ListRestaurantOrders(c *gin.Context) {
	restaurantID := c.Param("id")
	if err := h.checkRestaurantOwner(c, restaurantID); err != nil {
		h.respondError(c, err)
		return
	}
	status, err := statusQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	orders, err := h.orders.List(c.Request.Context(), repository.OrderFilter{
		RestaurantID: restaurantID,
		Status:       status,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"restaurant_id": restaurantID,
		"order_summary": statusSummary(orders),
		"count":         len(orders),
		"orders":        orders,
	})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required,orderstatus"`
	Note   string             `json:"note"`
}

// UpdateOrderStatus moves an order one step for a restaurant owner, driver
// or admin who is a party to it. Cancellation through this endpoint follows
// the same customer-or-admin rule as the cancel endpoint.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("id")
	actor, err := h.checkOrderAccess(c, orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req UpdateOrderStatusRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	from, updated, err := h.machine.Transition(c.Request.Context(), orderID, req.Status, actor, req.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     from,
		"to":       updated.Status,
		"user_id":  actor.UserID,
	}).Info("order status updated")
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Order status updated",
		"order_id":        updated.ID,
		"previous_status": from,
		"status":          updated.Status,
	})
}
