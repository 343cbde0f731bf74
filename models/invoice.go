package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invoice settles a restaurant's delivered orders for a period. Each
// delivered order is billed on exactly one invoice.
type Invoice struct {
	ID             string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RestaurantID   string      `json:"restaurant_id" gorm:"type:varchar(36);not null;index"`
	Restaurant     *Restaurant `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	PeriodStart    time.Time   `json:"period_start"`
	PeriodEnd      time.Time   `json:"period_end"`
	OrderCount     int         `json:"order_count"`
	Subtotal       float64     `json:"subtotal"`
	CommissionRate float64     `json:"commission_rate"`
	Commission     float64     `json:"commission"`
	Payout         float64     `json:"payout"` // subtotal minus commission
	GeneratedBy    string      `json:"generated_by" gorm:"type:varchar(36)"`
	Orders         []Order     `json:"orders,omitempty" gorm:"foreignKey:InvoiceID"`
	CreatedAt      time.Time   `json:"created_at"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
