package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"food-delivery-api/apperrors"
	"food-delivery-api/models"

	"gorm.io/gorm"
)

// InvoiceRequest selects the delivered orders to bill. Zero From or To
// leaves that side of the period open; an empty RestaurantID bills every
// restaurant.
type InvoiceRequest struct {
	RestaurantID   string
	From           time.Time
	To             time.Time
	CommissionRate float64
	GeneratedBy    string
}

type InvoiceFilter struct {
	RestaurantID string
}

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Generate creates one invoice per restaurant covering its delivered orders
// that are not yet on an invoice, and stamps those orders with it. Running
// it again for the same period bills nothing twice.
func (r *InvoiceRepository) Generate(ctx context.Context, req InvoiceRequest) ([]models.Invoice, error) {
	invoices := make([]models.Invoice, 0)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("status = ? AND invoice_id IS NULL", models.StatusDelivered)
		if req.RestaurantID != "" {
			q = q.Where("restaurant_id = ?", req.RestaurantID)
		}
		if !req.From.IsZero() {
			q = q.Where("delivered_at >= ?", req.From)
		}
		if !req.To.IsZero() {
			q = q.Where("delivered_at < ?", req.To)
		}
		var orders []models.Order
		if err := q.Order("restaurant_id, delivered_at").Find(&orders).Error; err != nil {
			return err
		}

		for _, batch := range groupByRestaurant(orders) {
			inv := buildInvoice(batch, req)
			if err := tx.Create(&inv).Error; err != nil {
				return err
			}
			ids := make([]string, len(batch))
			for i, o := range batch {
				ids[i] = o.ID
			}
			res := tx.Model(&models.Order{}).
				Where("id IN ? AND invoice_id IS NULL", ids).
				UpdateColumn("invoice_id", inv.ID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != int64(len(ids)) {
				return apperrors.Conflict("Orders were invoiced concurrently, retry")
			}
			invoices = append(invoices, inv)
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("generate invoices: %w", err)
	}
	return invoices, nil
}

// groupByRestaurant splits orders already sorted by restaurant.
func groupByRestaurant(orders []models.Order) [][]models.Order {
	var groups [][]models.Order
	for i := 0; i < len(orders); {
		j := i + 1
		for j < len(orders) && orders[j].RestaurantID == orders[i].RestaurantID {
			j++
		}
		groups = append(groups, orders[i:j])
		i = j
	}
	return groups
}

func buildInvoice(batch []models.Order, req InvoiceRequest) models.Invoice {
	inv := models.Invoice{
		RestaurantID:   batch[0].RestaurantID,
		OrderCount:     len(batch),
		CommissionRate: req.CommissionRate,
		GeneratedBy:    req.GeneratedBy,
		PeriodStart:    req.From,
		PeriodEnd:      req.To,
	}
	for _, o := range batch {
		inv.Subtotal += o.TotalPrice
		if o.DeliveredAt == nil {
			continue
		}
		if req.From.IsZero() && (inv.PeriodStart.IsZero() || o.DeliveredAt.Before(inv.PeriodStart)) {
			inv.PeriodStart = *o.DeliveredAt
		}
		if req.To.IsZero() && o.DeliveredAt.After(inv.PeriodEnd) {
			inv.PeriodEnd = *o.DeliveredAt
		}
	}
	inv.Subtotal = roundCents(inv.Subtotal)
	inv.Commission = roundCents(inv.Subtotal * req.CommissionRate)
	inv.Payout = roundCents(inv.Subtotal - inv.Commission)
	return inv
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func (r *InvoiceRepository) List(ctx context.Context, f InvoiceFilter) ([]models.Invoice, error) {
	q := r.db.WithContext(ctx)
	if f.RestaurantID != "" {
		q = q.Where("restaurant_id = ?", f.RestaurantID)
	}
	var invoices []models.Invoice
	if err := q.Order("created_at desc").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

// Get loads an invoice with its restaurant and the orders it bills.
func (r *InvoiceRepository) Get(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Restaurant").
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("delivered_at asc") }).
		First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, errInvoiceNotFound, "get invoice")
	}
	return &inv, nil
}
