package handlers

import (
	"net/http"

	"food-delivery-api/authz"
	"food-delivery-api/middleware"
	"food-delivery-api/models"
	"food-delivery-api/repository"

	"github.com/gin-gonic/gin"
)

// Restaurant management

type CreateRestaurantRequest struct {
	Name        string `json:"name" binding:"required"`
	Cuisine     string `json:"cuisine"`
	Address     string `json:"address" binding:"required"`
	Description string `json:"description"`
}

type UpdateRestaurantRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1"`
	Cuisine     *string `json:"cuisine"`
	Address     *string `json:"address" binding:"omitempty,min=1"`
	Description *string `json:"description"`
	IsOpen      *bool   `json:"is_open"`
}

func (r UpdateRestaurantRequest) fields() map[string]any {
	f := map[string]any{}
	setIf(f, "name", r.Name)
	setIf(f, "cuisine", r.Cuisine)
	setIf(f, "address", r.Address)
	setIf(f, "description", r.Description)
	setIf(f, "is_open", r.IsOpen)
	return f
}

func setIf[T any](f map[string]any, key string, v *T) {
	if v != nil {
		f[key] = *v
	}
}

// CreateRestaurant registers a restaurant for the caller. It stays hidden
// from customers until an admin approves it.
func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req CreateRestaurantRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	restaurant := models.Restaurant{
		OwnerID:     middleware.CurrentIdentity(c).UserID,
		Name:        req.Name,
		Cuisine:     req.Cuisine,
		Address:     req.Address,
		Description: req.Description,
		IsOpen:      true,
	}
	if err := h.restaurants.Create(c.Request.Context(), &restaurant); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"message":    "Restaurant created, pending approval",
		"restaurant": restaurant,
	})
}

// ListMyRestaurants returns every restaurant the caller owns, approved or not.
func (h *Handler) ListMyRestaurants(c *gin.Context) {
	restaurants, err := h.restaurants.List(c.Request.Context(), repository.RestaurantFilter{
		OwnerID: middleware.CurrentIdentity(c).UserID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(restaurants), "restaurants": restaurants})
}

func (h *Handler) checkRestaurantOwner(c *gin.Context, restaurantID string) error {
	return authz.ValidateOwnership(c.Request.Context(), restaurantID,
		middleware.CurrentIdentity(c), h.restaurants.OwnerLookup())
}

func (h *Handler) UpdateRestaurant(c *gin.Context) {
	restaurantID := c.Param("id")
	if err := h.checkRestaurantOwner(c, restaurantID); err != nil {
		h.respondError(c, err)
		return
	}
	var req UpdateRestaurantRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	restaurant, err := h.restaurants.Update(c.Request.Context(), restaurantID, req.fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Restaurant updated", "restaurant": restaurant})
}

// Menu management

type CreateMenuItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Category    string  `json:"category"`
	IsVeg       bool    `json:"is_veg"`
}

type UpdateMenuItemRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
	Category    *string  `json:"category"`
	IsAvailable *bool    `json:"is_available"`
	IsVeg       *bool    `json:"is_veg"`
}

func (r UpdateMenuItemRequest) fields() map[string]any {
	f := map[string]any{}
	setIf(f, "name", r.Name)
	setIf(f, "description", r.Description)
	setIf(f, "price", r.Price)
	setIf(f, "category", r.Category)
	setIf(f, "is_available", r.IsAvailable)
	setIf(f, "is_veg", r.IsVeg)
	return f
}

// AddMenuItem adds an item to a restaurant the caller owns.
func (h *Handler) AddMenuItem(c *gin.Context) {
	restaurantID := c.Param("id")
	if err := h.checkRestaurantOwner(c, restaurantID); err != nil {
		h.respondError(c, err)
		return
	}
	var req CreateMenuItemRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	item := models.MenuItem{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		IsVeg:        req.IsVeg,
		IsAvailable:  true,
	}
	if err := h.restaurants.AddMenuItem(c.Request.Context(), &item); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Menu item added", "item": item})
}

// checkMenuItemOwner resolves ownership through the item's parent restaurant.
func (h *Handler) checkMenuItemOwner(c *gin.Context, itemID string) error {
	return authz.ValidateOwnership(c.Request.Context(), itemID,
		middleware.CurrentIdentity(c), h.restaurants.MenuItemOwnerLookup())
}

func (h *Handler) UpdateMenuItem(c *gin.Context) {
	itemID := c.Param("itemId")
	if err := h.checkMenuItemOwner(c, itemID); err != nil {
		h.respondError(c, err)
		return
	}
	var req UpdateMenuItemRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	item, err := h.restaurants.UpdateMenuItem(c.Request.Context(), itemID, req.fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Menu item updated", "item": item})
}

func (h *Handler) DeleteMenuItem(c *gin.Context) {
	itemID := c.Param("itemId")
	if err := h.checkMenuItemOwner(c, itemID); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.restaurants.DeleteMenuItem(c.Request.Context(), itemID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Menu item deleted"})
}
