package orders

import "time"

const (
	StatusCreated  = "created"
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusFailed   = "failed"
	StatusRefunded = "refunded"
)

// Order is the reconciliation target. Status is mutated only through
// ApplyTransition; inbound requests never write it directly.
type Order struct {
	ID          string `gorm:"type:varchar(64);primaryKey"`
	AmountCents int    `gorm:"not null"`
	Currency    string `gorm:"type:char(3);not null"`
	Status      string `gorm:"type:varchar(32);not null;index:ix_orders_status"`

	PaidAt     *time.Time `gorm:"type:datetime(3)"`
	RefundedAt *time.Time `gorm:"type:datetime(3)"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Order) TableName() string { return "orders" }

// OrderEvent records one applied transition, keyed back to the webhook
// event that caused it. Together the rows are the order's applied-events
// list.
type OrderEvent struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	OrderID   string `gorm:"type:varchar(64);not null;index:ix_order_events_order_id"`
	Gateway   string `gorm:"type:varchar(64);not null"`
	EventID   string `gorm:"type:varchar(128);not null"`
	EventType string `gorm:"type:varchar(64);not null"`

	FromStatus string `gorm:"type:varchar(32);not null"`
	ToStatus   string `gorm:"type:varchar(32);not null"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (OrderEvent) TableName() string { return "order_events" }
