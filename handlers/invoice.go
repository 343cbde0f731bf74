package handlers

import (
	"net/http"
	"time"

	"food-delivery-api/apperrors"
	"food-delivery-api/middleware"
	"food-delivery-api/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GenerateInvoicesRequest narrows invoice generation. Every field is
// optional; an empty body bills all uninvoiced delivered orders.
type GenerateInvoicesRequest struct {
	RestaurantID string    `json:"restaurant_id"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
}

// GenerateInvoices bills delivered orders per restaurant.
func (h *Handler) GenerateInvoices(c *gin.Context) {
	ctx := c.Request.Context()
	var req GenerateInvoicesRequest
	if c.Request.ContentLength > 0 {
		if err := bindJSON(c, &req); err != nil {
			h.respondError(c, err)
			return
		}
	}
	if !req.From.IsZero() && !req.To.IsZero() && !req.To.After(req.From) {
		h.respondError(c, apperrors.BadRequest("to must be after from"))
		return
	}
	if req.RestaurantID != "" {
		if _, err := h.restaurants.Get(ctx, req.RestaurantID); err != nil {
			h.respondError(c, err)
			return
		}
	}

	admin := middleware.CurrentIdentity(c)
	invoices, err := h.invoices.Generate(ctx, repository.InvoiceRequest{
		RestaurantID:   req.RestaurantID,
		From:           req.From.UTC(),
		To:             req.To.UTC(),
		CommissionRate: h.commissionRate,
		GeneratedBy:    admin.UserID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if len(invoices) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"message":  "No uninvoiced delivered orders",
			"count":    0,
			"invoices": invoices,
		})
		return
	}
	h.log.WithFields(logrus.Fields{
		"count":   len(invoices),
		"user_id": admin.UserID,
	}).Info("invoices generated")
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Invoices generated",
		"count":    len(invoices),
		"invoices": invoices,
	})
}

func (h *Handler) AdminListInvoices(c *gin.Context) {
	invoices, err := h.invoices.List(c.Request.Context(), repository.InvoiceFilter{
		RestaurantID: c.Query("restaurant_id"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(invoices), "invoices": invoices})
}

// AdminGetInvoice returns an invoice with the orders it bills.
func (h *Handler) AdminGetInvoice(c *gin.Context) {
	invoice, err := h.invoices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "invoice": invoice})
}

// ListRestaurantInvoices shows a restaurant's own invoices to its owner.
func (h *Handler) ListRestaurantInvoices(c *gin.Context) {
	restaurantID := c.Param("id")
	if err := h.checkRestaurantOwner(c, restaurantID); err != nil {
		h.respondError(c, err)
		return
	}
	invoices, err := h.invoices.List(c.Request.Context(), repository.InvoiceFilter{RestaurantID: restaurantID})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(invoices), "invoices": invoices})
}
