package handlers

import (
	"net/http"

	"food-delivery-api/repository"

	"github.com/gin-gonic/gin"
)

// orderFilterFromQuery reads the status, customer and restaurant filters
// shared by the support and admin order listings.
func orderFilterFromQuery(c *gin.Context) (repository.OrderFilter, error) {
	status, err := statusQuery(c)
	if err != nil {
		return repository.OrderFilter{}, err
	}
	return repository.OrderFilter{
		Status:       status,
		CustomerID:   c.Query("customer_id"),
		RestaurantID: c.Query("restaurant_id"),
		DriverID:     c.Query("driver_id"),
	}, nil
}

// SupportListOrders gives the support desk read access to every order.
func (h *Handler) SupportListOrders(c *gin.Context) {
	filter, err := orderFilterFromQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	orders, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "orders": orders})
}

func (h *Handler) SupportGetOrder(c *gin.Context) {
	order, err := h.orders.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}
