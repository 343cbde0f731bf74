// Package routes declares the API surface and the permission table that
// guards it.
package routes

import (
	"fmt"
	"net/http"
	"strings"

	"food-delivery-api/authz"
	"food-delivery-api/handlers"
	"food-delivery-api/models"

	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/v1"

var (
	anyRole         = models.NewRoleSet(models.AllRoles...)
	customerOnly    = models.NewRoleSet(models.RoleCustomer)
	ownerOnly       = models.NewRoleSet(models.RoleRestaurantOwner)
	driverOnly      = models.NewRoleSet(models.RoleDriver)
	adminOnly       = models.NewRoleSet(models.RoleAdmin)
	ownerOrAdmin    = models.NewRoleSet(models.RoleRestaurantOwner, models.RoleAdmin)
	customerOrAdmin = models.NewRoleSet(models.RoleCustomer, models.RoleAdmin)
	supportOrAdmin  = models.NewRoleSet(models.RoleSupport, models.RoleAdmin)
	orderParties    = models.NewRoleSet(models.RoleCustomer, models.RoleRestaurantOwner, models.RoleDriver, models.RoleAdmin)
	statusUpdaters  = models.NewRoleSet(models.RoleRestaurantOwner, models.RoleDriver, models.RoleAdmin)
)

func api(path string) string {
	return apiPrefix + path
}

// PublicRules are reachable without a token. Every endpoint in either table
// also gets a public OPTIONS rule, since browsers send CORS preflights
// without credentials; paths absent from both tables stay denied.
func PublicRules() []authz.PublicRule {
	declared := []authz.PublicRule{
		{Method: http.MethodGet, Pattern: "/"},
		{Method: http.MethodGet, Pattern: "/health"},
		{Method: http.MethodPost, Pattern: api("/auth/register")},
		{Method: http.MethodPost, Pattern: api("/auth/login")},
		{Method: http.MethodGet, Pattern: api("/restaurants")},
		{Method: http.MethodGet, Pattern: api("/restaurants/:id")},
		{Method: http.MethodGet, Pattern: api("/restaurants/:id/menu")},
		{Method: http.MethodGet, Pattern: api("/state-machine")},
	}
	return append(declared, preflightRules(declared, PermissionRules())...)
}

func preflightRules(public []authz.PublicRule, rules []authz.PermissionRule) []authz.PublicRule {
	seen := make(map[string]bool)
	var out []authz.PublicRule
	add := func(pattern string) {
		if seen[pattern] {
			return
		}
		seen[pattern] = true
		out = append(out, authz.PublicRule{Method: http.MethodOptions, Pattern: pattern})
	}
	for _, p := range public {
		add(p.Pattern)
	}
	for _, r := range rules {
		add(r.Pattern)
	}
	return out
}

// PermissionRules lists, per endpoint, the roles allowed to call it. An
// endpoint missing here is denied to everyone.
func PermissionRules() []authz.PermissionRule {
	return []authz.PermissionRule{
		{Method: http.MethodGet, Pattern: api("/profile"), AllowedRoles: anyRole},
		{Method: http.MethodGet, Pattern: "/metrics", AllowedRoles: adminOnly},

		// Orders
		{Method: http.MethodPost, Pattern: api("/orders"), AllowedRoles: customerOnly},
		{Method: http.MethodGet, Pattern: api("/orders"), AllowedRoles: customerOnly},
		{Method: http.MethodGet, Pattern: api("/orders/:id"), AllowedRoles: orderParties},
		{Method: http.MethodPatch, Pattern: api("/orders/:id/status"), AllowedRoles: statusUpdaters},
		{Method: http.MethodPost, Pattern: api("/orders/:id/cancel"), AllowedRoles: customerOrAdmin},
		{Method: http.MethodPost, Pattern: api("/orders/:id/claim"), AllowedRoles: driverOnly},

		// Restaurants and menus
		{Method: http.MethodPost, Pattern: api("/restaurants"), AllowedRoles: ownerOnly},
		{Method: http.MethodGet, Pattern: api("/owner/restaurants"), AllowedRoles: ownerOnly},
		{Method: http.MethodPut, Pattern: api("/restaurants/:id"), AllowedRoles: ownerOrAdmin},
		{Method: http.MethodPost, Pattern: api("/restaurants/:id/menu"), AllowedRoles: ownerOrAdmin},
		{Method: http.MethodGet, Pattern: api("/restaurants/:id/orders"), AllowedRoles: ownerOrAdmin},
		{Method: http.MethodGet, Pattern: api("/restaurants/:id/invoices"), AllowedRoles: ownerOrAdmin},
		{Method: http.MethodPut, Pattern: api("/menu-items/:itemId"), AllowedRoles: ownerOrAdmin},
		{Method: http.MethodDelete, Pattern: api("/menu-items/:itemId"), AllowedRoles: ownerOrAdmin},

		// Drivers
		{Method: http.MethodGet, Pattern: api("/driver/orders/available"), AllowedRoles: driverOnly},
		{Method: http.MethodGet, Pattern: api("/driver/orders"), AllowedRoles: driverOnly},

		// Support desk
		{Method: http.MethodGet, Pattern: api("/support/orders"), AllowedRoles: supportOrAdmin},
		{Method: http.MethodGet, Pattern: api("/support/orders/:id"), AllowedRoles: supportOrAdmin},

		// Admin
		{Method: http.MethodGet, Pattern: api("/admin/orders"), AllowedRoles: adminOnly},
		{Method: http.MethodGet, Pattern: api("/admin/users"), AllowedRoles: adminOnly},
		{Method: http.MethodPost, Pattern: api("/admin/users"), AllowedRoles: adminOnly},
		{Method: http.MethodGet, Pattern: api("/admin/restaurants"), AllowedRoles: adminOnly},
		{Method: http.MethodPost, Pattern: api("/admin/restaurants/:id/approve"), AllowedRoles: adminOnly},
		{Method: http.MethodGet, Pattern: api("/admin/drivers"), AllowedRoles: adminOnly},
		{Method: http.MethodPost, Pattern: api("/admin/drivers/:id/approve"), AllowedRoles: adminOnly},
		{Method: http.MethodGet, Pattern: api("/admin/invoices"), AllowedRoles: adminOnly},
		{Method: http.MethodGet, Pattern: api("/admin/invoices/:id"), AllowedRoles: adminOnly},
		{Method: http.MethodPost, Pattern: api("/admin/invoices/generate"), AllowedRoles: adminOnly},
		{Method: http.MethodGet, Pattern: api("/admin/analytics"), AllowedRoles: adminOnly},
		{Method: http.MethodGet, Pattern: api("/admin/permissions"), AllowedRoles: adminOnly},
	}
}

// NewRegistry compiles the permission table.
func NewRegistry() (*authz.Registry, error) {
	return authz.NewRegistry(PublicRules(), PermissionRules())
}

// SetupRoutes registers every endpoint on r. Authentication and
// authorization run as engine-wide middleware, so they are not repeated
// here. authLimit guards the credential endpoints; metrics serves /metrics.
func SetupRoutes(r *gin.Engine, h *handlers.Handler, authLimit gin.HandlerFunc, metrics http.Handler) {
	r.GET("/", h.Welcome)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics))

	v1 := r.Group(apiPrefix)

	auth := v1.Group("/auth", authLimit)
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	v1.GET("/state-machine", h.GetStateMachineInfo)
	v1.GET("/profile", h.GetProfile)

	// Restaurants & menus
	v1.GET("/restaurants", h.ListRestaurants)
	v1.POST("/restaurants", h.CreateRestaurant)
	v1.GET("/restaurants/:id", h.GetRestaurant)
	v1.PUT("/restaurants/:id", h.UpdateRestaurant)
	v1.GET("/restaurants/:id/menu", h.GetMenu)
	v1.POST("/restaurants/:id/menu", h.AddMenuItem)
	v1.GET("/restaurants/:id/orders", h.ListRestaurantOrders)
	v1.GET("/restaurants/:id/invoices", h.ListRestaurantInvoices)
	v1.PUT("/menu-items/:itemId", h.UpdateMenuItem)
	v1.DELETE("/menu-items/:itemId", h.DeleteMenuItem)
	v1.GET("/owner/restaurants", h.ListMyRestaurants)

	// Orders
	orders := v1.Group("/orders")
	{
		orders.POST("", h.PlaceOrder)
		orders.GET("", h.ListMyOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PATCH("/:id/status", h.UpdateOrderStatus)
		orders.POST("/:id/cancel", h.CancelOrder)
		orders.POST("/:id/claim", h.ClaimOrder)
	}

	driver := v1.Group("/driver")
	{
		driver.GET("/orders/available", h.ListAvailableOrders)
		driver.GET("/orders", h.ListMyDeliveries)
	}

	support := v1.Group("/support")
	{
		support.GET("/orders", h.SupportListOrders)
		support.GET("/orders/:id", h.SupportGetOrder)
	}

	admin := v1.Group("/admin")
	{
		admin.GET("/orders", h.AdminListOrders)
		admin.GET("/users", h.AdminListUsers)
		admin.POST("/users", h.AdminCreateUser)
		admin.GET("/restaurants", h.AdminListRestaurants)
		admin.POST("/restaurants/:id/approve", h.ApproveRestaurant)
		admin.GET("/drivers", h.AdminListDrivers)
		admin.POST("/drivers/:id/approve", h.ApproveDriver)
		admin.GET("/invoices", h.AdminListInvoices)
		admin.GET("/invoices/:id", h.AdminGetInvoice)
		admin.POST("/invoices/generate", h.GenerateInvoices)
		admin.GET("/analytics", h.Analytics)
		admin.GET("/permissions", h.AdminListPermissions)
	}
}

// VerifyCoverage fails if any registered route has neither a public nor a
// permission rule.
func VerifyCoverage(r *gin.Engine, reg *authz.Registry) error {
	infos := r.Routes()
	routes := make([]authz.Route, len(infos))
	for i, ri := range infos {
		routes[i] = authz.Route{Method: ri.Method, Path: ri.Path}
	}
	missing := reg.Uncovered(routes)
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, m := range missing {
		names[i] = m.Method + " " + m.Path
	}
	return fmt.Errorf("routes without a permission rule: %s", strings.Join(names, ", "))
}
