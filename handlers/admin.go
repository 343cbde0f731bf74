package handlers

import (
	"net/http"
	"strconv"

	"food-delivery-api/apperrors"
	"food-delivery-api/models"
	"food-delivery-api/repository"

	"github.com/gin-gonic/gin"
)

type CreateUserRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     models.Role `json:"role" binding:"required,role"`
	Phone    string      `json:"phone"`
}

// AdminListOrders returns all orders with full detail and a dashboard summary.
func (h *Handler) AdminListOrders(c *gin.Context) {
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

	var revenue float64
	for _, o := range orders {
		if o.Status == models.StatusDelivered {
			revenue += o.TotalPrice
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"order_summary": statusSummary(orders),
		"total_revenue": revenue,
		"count":         len(orders),
		"orders":        orders,
	})
}

func (h *Handler) AdminListUsers(c *gin.Context) {
	var role models.Role
	if raw := c.Query("role"); raw != "" {
		r, err := models.ParseRole(raw)
		if err != nil {
			h.respondError(c, apperrors.BadRequest("Unknown role "+raw))
			return
		}
		role = r
	}
	users, err := h.users.List(c.Request.Context(), role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(users), "users": users})
}

// AdminCreateUser creates an account of any role, including support and admin.
func (h *Handler) AdminCreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.createUser(c, req.Name, req.Email, req.Password, req.Phone, req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.log.WithField("user_id", user.ID).WithField("role", user.Role.String()).Info("user created by admin")
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User created", "user": user})
}

func (h *Handler) AdminListRestaurants(c *gin.Context) {
	restaurants, err := h.restaurants.List(c.Request.Context(), repository.RestaurantFilter{})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(restaurants), "restaurants": restaurants})
}

func (h *Handler) ApproveRestaurant(c *gin.Context) {
	restaurant, err := h.restaurants.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Restaurant approved", "restaurant": restaurant})
}

// AdminListDrivers lists driver accounts; ?approved=false shows the
// approval queue.
func (h *Handler) AdminListDrivers(c *gin.Context) {
	var approved *bool
	if raw := c.Query("approved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondError(c, apperrors.BadRequest("approved must be true or false"))
			return
		}
		approved = &v
	}
	drivers, err := h.users.ListDrivers(c.Request.Context(), approved)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(drivers), "drivers": drivers})
}

func (h *Handler) ApproveDriver(c *gin.Context) {
	driver, err := h.users.ApproveDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Driver approved", "driver": driver})
}

// Analytics summarises orders by status and delivered revenue.
func (h *Handler) Analytics(c *gin.Context) {
	counts, revenue, err := h.orders.StatusSummary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"total_orders":      total,
		"orders_by_status":  counts,
		"delivered_revenue": revenue,
	})
}

type permissionView struct {
	Method       string         `json:"method"`
	Pattern      string         `json:"pattern"`
	AllowedRoles models.RoleSet `json:"allowed_roles,omitempty"`
}

// AdminListPermissions shows the permission table the server enforces.
func (h *Handler) AdminListPermissions(c *gin.Context) {
	public := []permissionView{}
	rules := []permissionView{}
	if h.permissions != nil {
		for _, p := range h.permissions.PublicRules() {
			public = append(public, permissionView{Method: p.Method, Pattern: p.Pattern})
		}
		for _, r := range h.permissions.Rules() {
			rules = append(rules, permissionView{Method: r.Method, Pattern: r.Pattern, AllowedRoles: r.AllowedRoles})
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "public": public, "rules": rules})
}
