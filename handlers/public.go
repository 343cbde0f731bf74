package handlers

import (
	"net/http"

	"food-delivery-api/apperrors"
	"food-delivery-api/models"
	"food-delivery-api/repository"
	"food-delivery-api/statemachine"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "Food Delivery Order Management API"
	serviceVersion = "2.0.0"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

func (h *Handler) Welcome(c *gin.Context) {
	roles := make([]string, len(models.AllRoles))
	for i, r := range models.AllRoles {
		roles[i] = r.String()
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Welcome to the " + serviceName,
		"docs":    "/api/v1/state-machine",
		"health":  "/health",
		"roles":   roles,
	})
}

// ListRestaurants returns approved restaurants, filtered by cuisine, name or open state.
func (h *Handler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.restaurants.List(c.Request.Context(), repository.RestaurantFilter{
		Cuisine:      c.Query("cuisine"),
		Search:       c.Query("search"),
		OpenOnly:     c.Query("open") == "true",
		ApprovedOnly: true,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(restaurants), "restaurants": restaurants})
}

// publicRestaurant hides restaurants that are still awaiting approval.
func (h *Handler) publicRestaurant(c *gin.Context) (*models.Restaurant, error) {
	restaurant, err := h.restaurants.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if !restaurant.Approved {
		return nil, apperrors.NotFound("Restaurant not found")
	}
	return restaurant, nil
}

func (h *Handler) GetRestaurant(c *gin.Context) {
	restaurant, err := h.publicRestaurant(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "restaurant": restaurant})
}

// GetMenu returns a restaurant's menu, optionally by category or vegetarian only.
func (h *Handler) GetMenu(c *gin.Context) {
	restaurant, err := h.publicRestaurant(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	items, err := h.restaurants.Menu(c.Request.Context(), restaurant.ID, repository.MenuFilter{
		Category: c.Query("category"),
		VegOnly:  c.Query("is_veg") == "true",
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"restaurant": restaurant.Name,
		"count":      len(items),
		"menu":       items,
	})
}

// GetStateMachineInfo documents the order lifecycle.
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"description":     "Food Delivery Order Lifecycle State Machine",
		"states":          models.AllStatuses,
		"transitions":     statemachine.GetAllTransitions(),
		"terminal_states": statemachine.TerminalStatuses(),
	})
}
