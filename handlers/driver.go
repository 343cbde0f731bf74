package handlers

import (
	"net/http"

	"food-delivery-api/apperrors"
	"food-delivery-api/middleware"
	"food-delivery-api/repository"

	"github.com/gin-gonic/gin"
)

// ListAvailableOrders shows confirmed-to-ready orders nobody has claimed yet.
func (h *Handler) ListAvailableOrders(c *gin.Context) {
	orders, err := h.orders.ListAvailable(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "orders": orders})
}

// ListMyDeliveries returns orders assigned to the calling driver.
func (h *Handler) ListMyDeliveries(c *gin.Context) {
	status, err := statusQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	orders, err := h.orders.List(c.Request.Context(), repository.OrderFilter{
		DriverID: middleware.CurrentIdentity(c).UserID,
		Status:   status,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "orders": orders})
}

// ClaimOrder assigns an unclaimed order to the calling driver. Only one
// driver can win; the rest get a conflict.
func (h *Handler) ClaimOrder(c *gin.Context) {
	ctx := c.Request.Context()
	driver := middleware.CurrentIdentity(c)

	account, err := h.users.GetByID(ctx, driver.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !account.Approved {
		h.respondError(c, apperrors.NotApproved("Driver account is awaiting approval"))
		return
	}

	orderID := c.Param("id")
	if err := h.orders.ClaimOrder(ctx, orderID, driver.UserID); err != nil {
		h.respondError(c, err)
		return
	}
	h.log.WithField("order_id", orderID).WithField("driver_id", driver.UserID).Info("order claimed")
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Order claimed",
		"order_id":  orderID,
		"driver_id": driver.UserID,
	})
}
