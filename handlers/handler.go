package handlers

import (
	"context"
	"fmt"

	"food-delivery-api/apperrors"
	"food-delivery-api/authz"
	"food-delivery-api/middleware"
	"food-delivery-api/models"
	"food-delivery-api/repository"
	"food-delivery-api/statemachine"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler serves every API endpoint. Authorization by role has already
// happened in middleware by the time a method runs; per-resource ownership
// and order status rules are checked here through authz and statemachine.
type Handler struct {
	orders         *repository.OrderRepository
	restaurants    *repository.RestaurantRepository
	users          *repository.UserRepository
	invoices       *repository.InvoiceRepository
	machine        *statemachine.Machine
	tokens         *middleware.TokenIssuer
	permissions    *authz.Registry
	commissionRate float64
	log            logrus.FieldLogger
}

type Deps struct {
	Orders         *repository.OrderRepository
	Restaurants    *repository.RestaurantRepository
	Users          *repository.UserRepository
	Invoices       *repository.InvoiceRepository
	Machine        *statemachine.Machine
	Tokens         *middleware.TokenIssuer
	Permissions    *authz.Registry
	CommissionRate float64
	Log            logrus.FieldLogger
}

func New(d Deps) *Handler {
	return &Handler{
		orders:         d.Orders,
		restaurants:    d.Restaurants,
		users:          d.Users,
		invoices:       d.Invoices,
		machine:        d.Machine,
		tokens:         d.Tokens,
		permissions:    d.Permissions,
		commissionRate: d.CommissionRate,
		log:            d.Log,
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	middleware.AbortWithError(c, h.log, err)
}

// orderOwner picks the ownership relation that applies to the caller's role.
func (h *Handler) orderOwner(role models.Role) authz.OwnerLookup {
	switch role {
	case models.RoleCustomer:
		return h.orders.CustomerLookup()
	case models.RoleRestaurantOwner:
		return h.orders.RestaurantOwnerLookup()
	case models.RoleDriver:
		return h.orders.DriverLookup()
	}
	return authz.OwnerLookupFunc(func(context.Context, string) (string, error) { return "", nil })
}

func (h *Handler) checkOrderAccess(c *gin.Context, orderID string) (authz.Identity, error) {
	id := middleware.CurrentIdentity(c)
	err := authz.ValidateOwnership(c.Request.Context(), orderID, id, h.orderOwner(id.Role))
	return id, err
}

func statusQuery(c *gin.Context) (models.OrderStatus, error) {
	raw := c.Query("status")
	if raw == "" {
		return "", nil
	}
	st, err := models.ParseOrderStatus(raw)
	if err != nil {
		return "", apperrors.BadRequest(fmt.Sprintf("Unknown order status %q", raw))
	}
	return st, nil
}

func statusSummary(orders []models.Order) map[models.OrderStatus]int {
	summary := map[models.OrderStatus]int{}
	for _, o := range orders {
		summary[o.Status]++
	}
	return summary
}
