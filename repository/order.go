package repository

import (
	"context"
	"fmt"
	"time"

	"food-delivery-api/apperrors"
	"food-delivery-api/authz"
	"food-delivery-api/models"
	"food-delivery-api/statemachine"

	"gorm.io/gorm"
)

// preparingEstimate is the remaining time, in minutes, set when the kitchen starts.
const preparingEstimate = 20

// claimableStatuses are the stages in which a driver may still take an order.
var claimableStatuses = []models.OrderStatus{
	models.StatusConfirmed,
	models.StatusPreparing,
	models.StatusReady,
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

var _ statemachine.OrderStore = (*OrderRepository)(nil)

// Create inserts the order with its items and the initial history entry.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  order.Status,
			ChangedBy: order.CustomerID,
			Note:      "Order placed by customer",
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("create order history: %w", err)
		}
		return nil
	})
}

func (r *OrderRepository) FetchOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, errOrderNotFound, "fetch order")
	}
	return &order, nil
}

// ConditionalUpdateStatus writes next only while the row still holds
// expected. The history row is written in the same transaction, so a lost
// race leaves no trace.
func (r *OrderRepository) ConditionalUpdateStatus(ctx context.Context, id string, expected, next models.OrderStatus, meta statemachine.ChangeMeta) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]any{"status": next}
		switch next {
		case models.StatusPreparing:
			fields["estimated_time"] = preparingEstimate
		case models.StatusDelivered:
			fields["delivered_at"] = time.Now().UTC()
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, expected).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:    id,
			FromStatus: expected,
			ToStatus:   next,
			ChangedBy:  meta.ChangedBy,
			Note:       meta.Note,
		}).Error
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// Detail loads the order with items, parties and status history.
func (r *OrderRepository) Detail(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.MenuItem").
		Preload("Restaurant").
		Preload("Customer").
		Preload("Driver").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, errOrderNotFound, "fetch order detail")
	}
	return &order, nil
}

type OrderFilter struct {
	Status       models.OrderStatus
	CustomerID   string
	RestaurantID string
	DriverID     string
}

func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items.MenuItem").
		Preload("Restaurant").
		Preload("Customer").
		Preload("Driver")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.RestaurantID != "" {
		q = q.Where("restaurant_id = ?", f.RestaurantID)
	}
	if f.DriverID != "" {
		q = q.Where("driver_id = ?", f.DriverID)
	}

	var orders []models.Order
	if err := q.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListAvailable returns orders no driver has claimed yet, oldest first.
func (r *OrderRepository) ListAvailable(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Restaurant").
		Where("driver_id IS NULL AND status IN ?", claimableStatuses).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list available orders: %w", err)
	}
	return orders, nil
}

// ClaimOrder assigns the driver if the order is still unassigned and
// claimable. A second driver racing for the same order gets TransitionConflict.
func (r *OrderRepository) ClaimOrder(ctx context.Context, orderID, driverID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND driver_id IS NULL AND status IN ?", orderID, claimableStatuses).
		Update("driver_id", driverID)
	if res.Error != nil {
		return fmt.Errorf("claim order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.FetchOrder(ctx, orderID); err != nil {
			return err
		}
		return apperrors.TransitionConflict(orderID).With("driver_id", driverID)
	}
	return nil
}

// StatusSummary counts orders per status and sums delivered revenue.
func (r *OrderRepository) StatusSummary(ctx context.Context) (map[models.OrderStatus]int64, float64, error) {
	var rows []struct {
		Status  models.OrderStatus
		Count   int64
		Revenue float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_price), 0) AS revenue").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("summarise orders: %w", err)
	}

	counts := make(map[models.OrderStatus]int64, len(rows))
	var revenue float64
	for _, row := range rows {
		counts[row.Status] = row.Count
		if row.Status == models.StatusDelivered {
			revenue = row.Revenue
		}
	}
	return counts, revenue, nil
}

func (r *OrderRepository) column(ctx context.Context, id, column string) (string, error) {
	var row struct{ Owner *string }
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(column+" AS owner").
		Where("id = ?", id).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return "", fmt.Errorf("lookup order %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return "", apperrors.NotFound(errOrderNotFound)
	}
	if row.Owner == nil {
		return "", nil
	}
	return *row.Owner, nil
}

// CustomerLookup resolves an order to the customer who placed it.
func (r *OrderRepository) CustomerLookup() authz.OwnerLookup {
	return authz.OwnerLookupFunc(func(ctx context.Context, id string) (string, error) {
		return r.column(ctx, id, "customer_id")
	})
}

// RestaurantOwnerLookup resolves an order to the owner of its restaurant.
func (r *OrderRepository) RestaurantOwnerLookup() authz.OwnerLookup {
	return authz.OwnerLookupFunc(func(ctx context.Context, id string) (string, error) {
		return r.column(ctx, id, "restaurant_owner_id")
	})
}

// DriverLookup resolves an order to its assigned driver, empty when unassigned.
func (r *OrderRepository) DriverLookup() authz.OwnerLookup {
	return authz.OwnerLookupFunc(func(ctx context.Context, id string) (string, error) {
		return r.column(ctx, id, "driver_id")
	})
}
