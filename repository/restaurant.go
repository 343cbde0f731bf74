package repository

import (
	"context"
	"fmt"

	"food-delivery-api/apperrors"
	"food-delivery-api/authz"
	"food-delivery-api/models"

	"gorm.io/gorm"
)

type RestaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

func (r *RestaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	if err := r.db.WithContext(ctx).Create(restaurant).Error; err != nil {
		return fmt.Errorf("create restaurant: %w", err)
	}
	return nil
}

func (r *RestaurantRepository) Get(ctx context.Context, id string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).Preload("MenuItems").First(&restaurant, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, errRestaurantNotFound, "get restaurant")
	}
	return &restaurant, nil
}

type RestaurantFilter struct {
	Cuisine      string
	Search       string
	OpenOnly     bool
	ApprovedOnly bool
	OwnerID      string
}

func (r *RestaurantRepository) List(ctx context.Context, f RestaurantFilter) ([]models.Restaurant, error) {
	q := r.db.WithContext(ctx).Preload("Owner")
	if f.Cuisine != "" {
		q = q.Where("cuisine LIKE ?", "%"+f.Cuisine+"%")
	}
	if f.Search != "" {
		q = q.Where("name LIKE ?", "%"+f.Search+"%")
	}
	if f.OpenOnly {
		q = q.Where("is_open = ?", true)
	}
	if f.ApprovedOnly {
		q = q.Where("approved = ?", true)
	}
	if f.OwnerID != "" {
		q = q.Preload("MenuItems").Where("owner_id = ?", f.OwnerID)
	}

	var restaurants []models.Restaurant
	if err := q.Order("created_at asc").Find(&restaurants).Error; err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return restaurants, nil
}

// Update applies the given column changes and returns the fresh row.
func (r *RestaurantRepository) Update(ctx context.Context, id string, fields map[string]any) (*models.Restaurant, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Restaurant{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, fmt.Errorf("update restaurant: %w", res.Error)
		}
	}
	return r.Get(ctx, id)
}

func (r *RestaurantRepository) Approve(ctx context.Context, id string) (*models.Restaurant, error) {
	res := r.db.WithContext(ctx).Model(&models.Restaurant{}).Where("id = ?", id).Update("approved", true)
	if res.Error != nil {
		return nil, fmt.Errorf("approve restaurant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound(errRestaurantNotFound)
	}
	return r.Get(ctx, id)
}

type MenuFilter struct {
	Category string
	VegOnly  bool
}

func (r *RestaurantRepository) Menu(ctx context.Context, restaurantID string, f MenuFilter) ([]models.MenuItem, error) {
	q := r.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.VegOnly {
		q = q.Where("is_veg = ?", true)
	}
	var items []models.MenuItem
	if err := q.Order("name asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return items, nil
}

func (r *RestaurantRepository) AddMenuItem(ctx context.Context, item *models.MenuItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create menu item: %w", err)
	}
	return nil
}

func (r *RestaurantRepository) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, errMenuItemNotFound, "get menu item")
	}
	return &item, nil
}

// MenuItems loads the given items in one query, keyed by id.
func (r *RestaurantRepository) MenuItems(ctx context.Context, ids []string) (map[string]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load menu items: %w", err)
	}
	byID := make(map[string]models.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return byID, nil
}

func (r *RestaurantRepository) UpdateMenuItem(ctx context.Context, id string, fields map[string]any) (*models.MenuItem, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, fmt.Errorf("update menu item: %w", res.Error)
		}
	}
	return r.GetMenuItem(ctx, id)
}

func (r *RestaurantRepository) DeleteMenuItem(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MenuItem{})
	if res.Error != nil {
		return fmt.Errorf("delete menu item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(errMenuItemNotFound)
	}
	return nil
}

// OwnerLookup resolves a restaurant to its owner.
func (r *RestaurantRepository) OwnerLookup() authz.OwnerLookup {
	return authz.OwnerLookupFunc(func(ctx context.Context, id string) (string, error) {
		var row struct{ OwnerID string }
		res := r.db.WithContext(ctx).
			Model(&models.Restaurant{}).
			Select("owner_id").
			Where("id = ?", id).
			Limit(1).
			Scan(&row)
		if res.Error != nil {
			return "", fmt.Errorf("lookup restaurant owner: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return "", apperrors.NotFound(errRestaurantNotFound)
		}
		return row.OwnerID, nil
	})
}

// MenuItemOwnerLookup resolves a menu item to the owner of its parent restaurant.
func (r *RestaurantRepository) MenuItemOwnerLookup() authz.OwnerLookup {
	return authz.OwnerLookupFunc(func(ctx context.Context, id string) (string, error) {
		var row struct{ OwnerID string }
		res := r.db.WithContext(ctx).
			Table("menu_items").
			Select("restaurants.owner_id AS owner_id").
			Joins("JOIN restaurants ON restaurants.id = menu_items.restaurant_id").
			Where("menu_items.id = ?", id).
			Limit(1).
			Scan(&row)
		if res.Error != nil {
			return "", fmt.Errorf("lookup menu item owner: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return "", apperrors.NotFound(errMenuItemNotFound)
		}
		return row.OwnerID, nil
	})
}
