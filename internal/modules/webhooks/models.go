package webhooks

import (
	"time"

	"gorm.io/datatypes"
)

const (
	OutcomePending  = "pending"
	OutcomeApplied  = "applied"
	OutcomeIgnored  = "ignored"
	OutcomeRejected = "rejected"
)

// DeliveryReceipt is both the dedupe claim and the durable record of what a
// delivery did. The unique index makes processing exactly-once: the first
// insert wins, every later one collides and reads the winner's outcome. The
// payload is stored verbatim and never mutated after commit.
type DeliveryReceipt struct {
	ID          string         `gorm:"type:char(36);primaryKey"`
	Gateway     string         `gorm:"type:varchar(64);not null;uniqueIndex:ux_delivery_receipts_gateway_event,priority:1"`
	EventID     string         `gorm:"type:varchar(128);not null;uniqueIndex:ux_delivery_receipts_gateway_event,priority:2"`
	EventType   string         `gorm:"type:varchar(64);not null"`
	OrderID     *string        `gorm:"type:varchar(64);index:ix_delivery_receipts_order_id"`
	Outcome     string         `gorm:"type:varchar(16);not null"`
	Reason      *string        `gorm:"type:varchar(255)"`
	PayloadJSON datatypes.JSON `gorm:"type:json;not null"`

	ReceivedAt  time.Time  `gorm:"type:datetime(3);not null"`
	ProcessedAt *time.Time `gorm:"type:datetime(3)"`
}

func (DeliveryReceipt) TableName() string { return "delivery_receipts" }
