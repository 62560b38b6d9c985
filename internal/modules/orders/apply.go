package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApplyInput struct {
	OrderID   string
	Gateway   string
	EventID   string
	EventType string
}

type Applied struct {
	FromStatus string
	ToStatus   string
}

// ApplyTransition moves an order along the state machine inside the
// caller's transaction and appends the audit row. The row lock serializes
// concurrent deliveries touching the same order without blocking unrelated
// ones; sqlite has a single writer, so the lock clause only applies on
// mysql.
func ApplyTransition(ctx context.Context, tx *gorm.DB, in ApplyInput) (Applied, error) {
	var o Order
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&o, "id = ?", in.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Applied{}, ErrNotFound
		}
		return Applied{}, err
	}

	from := o.Status
	to, err := nextStatus(from, in.EventType)
	if err != nil {
		return Applied{}, err
	}

	now := time.Now()
	updates := map[string]any{
		"status":     to,
		"updated_at": now,
	}
	if to == StatusPaid && o.PaidAt == nil {
		updates["paid_at"] = now
	}
	if to == StatusRefunded && o.RefundedAt == nil {
		updates["refunded_at"] = now
	}

	res := tx.WithContext(ctx).
		Model(&Order{}).
		Where("id = ? AND status = ?", o.ID, from). // optimistic guard
		Updates(updates)
	if res.Error != nil {
		return Applied{}, res.Error
	}
	if res.RowsAffected == 0 {
		return Applied{}, ErrInvalidTransition
	}

	ev := OrderEvent{
		ID:         uuid.NewString(),
		OrderID:    o.ID,
		Gateway:    in.Gateway,
		EventID:    in.EventID,
		EventType:  in.EventType,
		FromStatus: from,
		ToStatus:   to,
		CreatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(&ev).Error; err != nil {
		return Applied{}, err
	}
	return Applied{FromStatus: from, ToStatus: to}, nil
}
