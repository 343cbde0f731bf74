package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus is a stage of the order lifecycle.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusPickedUp  OrderStatus = "picked_up"
	StatusInTransit OrderStatus = "in_transit"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// AllStatuses lists every status, forward chain first, then cancelled.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusPickedUp,
	StatusInTransit,
	StatusDelivered,
	StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is legal from s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

type Order struct {
	ID                string               `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID        string               `json:"customer_id" gorm:"type:varchar(36);not null;index"`
	Customer          *User                `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	RestaurantID      string               `json:"restaurant_id" gorm:"type:varchar(36);not null;index"`
	Restaurant        *Restaurant          `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	RestaurantOwnerID string               `json:"restaurant_owner_id" gorm:"type:varchar(36);not null;index"`
	DriverID          *string              `json:"driver_id" gorm:"type:varchar(36);index"`
	Driver            *User                `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	Status            OrderStatus          `json:"status" gorm:"type:varchar(32);not null;default:'pending';index"`
	TotalPrice        float64              `json:"total_price"`
	DeliveryAddress   string               `json:"delivery_address" gorm:"not null"`
	Notes             string               `json:"notes"`
	EstimatedTime     int                  `json:"estimated_time_minutes"`
	DeliveredAt       *time.Time           `json:"delivered_at,omitempty" gorm:"index"`
	InvoiceID         *string              `json:"invoice_id,omitempty" gorm:"type:varchar(36);index"`
	Items             []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory     []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type OrderItem struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID    string    `json:"order_id" gorm:"type:varchar(36);not null;index"`
	MenuItemID string    `json:"menu_item_id" gorm:"type:varchar(36);not null"`
	MenuItem   *MenuItem `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	Price      float64   `json:"price" gorm:"not null"` // snapshot price at time of order
	Name       string    `json:"name"`                  // snapshot name
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// OrderStatusHistory is the audit trail of status changes, written with each transition.
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    string      `json:"order_id" gorm:"type:varchar(36);not null;index"`
	FromStatus OrderStatus `json:"from_status" gorm:"type:varchar(32)"`
	ToStatus   OrderStatus `json:"to_status" gorm:"type:varchar(32);not null"`
	ChangedBy  string      `json:"changed_by" gorm:"type:varchar(36)"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
