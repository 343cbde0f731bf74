package handlers

import (
	"net/http"
	"time"

	"food-delivery-api/apperrors"
	"food-delivery-api/middleware"
	"food-delivery-api/models"
	"food-delivery-api/repository"

	"github.com/gin-gonic/gin"
)

const (
	baseDeliveryMinutes = 30
	perItemMinutes      = 5
)

type PlaceOrderRequest struct {
	RestaurantID    string `json:"restaurant_id" binding:"required"`
	DeliveryAddress string `json:"delivery_address" binding:"required"`
	Notes           string `json:"notes"`
	Items           []struct {
		MenuItemID string `json:"menu_item_id" binding:"required"`
		Quantity   int    `json:"quantity" binding:"required,min=1"`
	} `json:"items" binding:"required,min=1,dive"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// PlaceOrder creates a pending order at an approved, open restaurant.
func (h *Handler) PlaceOrder(c *gin.Context) {
	ctx := c.Request.Context()
	customer := middleware.CurrentIdentity(c)

	var req PlaceOrderRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	restaurant, err := h.restaurants.Get(ctx, req.RestaurantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !restaurant.Approved || !restaurant.IsOpen {
		h.respondError(c, apperrors.BadRequest("Restaurant is not accepting orders"))
		return
	}

	ids := make([]string, len(req.Items))
	for i, it := range req.Items {
		ids[i] = it.MenuItemID
	}
	menu, err := h.restaurants.MenuItems(ctx, ids)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var (
		items []models.OrderItem
		total float64
	)
	for _, reqItem := range req.Items {
		menuItem, ok := menu[reqItem.MenuItemID]
		switch {
		case !ok:
			h.respondError(c, apperrors.BadRequest("Menu item not found: "+reqItem.MenuItemID))
			return
		case menuItem.RestaurantID != restaurant.ID:
			h.respondError(c, apperrors.BadRequest("Menu item does not belong to this restaurant"))
			return
		case !menuItem.IsAvailable:
			h.respondError(c, apperrors.BadRequest("Menu item '"+menuItem.Name+"' is not available"))
			return
		}
		total += menuItem.Price * float64(reqItem.Quantity)
		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Quantity:   reqItem.Quantity,
			Price:      menuItem.Price,
			Name:       menuItem.Name,
		})
	}

	order := models.Order{
		CustomerID:        customer.UserID,
		RestaurantID:      restaurant.ID,
		RestaurantOwnerID: restaurant.OwnerID,
		Status:            models.StatusPending,
		TotalPrice:        total,
		DeliveryAddress:   req.DeliveryAddress,
		Notes:             req.Notes,
		EstimatedTime:     baseDeliveryMinutes + perItemMinutes*len(items),
		Items:             items,
	}
	if err := h.orders.Create(ctx, &order); err != nil {
		h.respondError(c, err)
		return
	}

	h.log.WithField("order_id", order.ID).WithField("customer_id", customer.UserID).Info("order placed")
	c.JSON(http.StatusCreated, gin.H{
		"success":        true,
		"message":        "Order placed successfully",
		"order":          order,
		"estimated_time": order.EstimatedTime,
	})
}

// ListMyOrders returns the caller's own orders, newest first.
func (h *Handler) ListMyOrders(c *gin.Context) {
	status, err := statusQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	orders, err := h.orders.List(c.Request.Context(), repository.OrderFilter{
		CustomerID: middleware.CurrentIdentity(c).UserID,
		Status:     status,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "orders": orders})
}

// GetOrder returns one order with its history to a party of the order.
func (h *Handler) GetOrder(c *gin.Context) {
	orderID := c.Param("id")
	if _, err := h.checkOrderAccess(c, orderID); err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.orders.Detail(c.Request.Context(), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"order":           order,
		"minutes_elapsed": int(time.Since(order.CreatedAt).Minutes()),
	})
}

// CancelOrder cancels a pending or confirmed order for its customer or an admin.
func (h *Handler) CancelOrder(c *gin.Context) {
	ctx := c.Request.Context()
	var req CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := bindJSON(c, &req); err != nil {
			h.respondError(c, err)
			return
		}
	}

	order, err := h.orders.FetchOrder(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	updated, err := h.machine.Cancel(ctx, order, middleware.CurrentIdentity(c), req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Order cancelled successfully",
		"order_id":        updated.ID,
		"previous_status": order.Status,
		"status":          updated.Status,
	})
}
