package webhooks

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SHIS22proxy/paygate/internal/metrics"
	"github.com/SHIS22proxy/paygate/internal/modules/alerts"
	"github.com/SHIS22proxy/paygate/internal/modules/gateways"
	"github.com/SHIS22proxy/paygate/internal/modules/orders"
	"github.com/SHIS22proxy/paygate/internal/storage"
)

const defaultTimeout = 10 * time.Second

type Service struct {
	db      *gorm.DB
	logger  *slog.Logger
	alerts  alerts.Notifier
	archive storage.Archive
	timeout time.Duration
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, logger: slog.Default(), timeout: defaultTimeout}
}

func (s *Service) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Service) SetNotifier(n alerts.Notifier) {
	s.alerts = n
}

func (s *Service) SetArchive(a storage.Archive) {
	s.archive = a
}

func (s *Service) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Result is what a delivery resolved to. A duplicate carries the original
// receipt's outcome so every redelivery observes the same answer.
type Result struct {
	Outcome    string
	Duplicate  bool
	OrderID    string
	FromStatus string
	ToStatus   string
	Reason     string
}

// Handle runs the pipeline for one verified event: claim the receipt, map
// the event onto the order state machine, finalize the receipt. Claim,
// order mutation, audit row and outcome commit in a single transaction; a
// crash or timeout leaves either everything or nothing.
func (s *Service) Handle(ctx context.Context, gateway string, ev gateways.Event, rawBody []byte) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	payload := rawBody
	if len(payload) == 0 {
		// the column is a JSON type; an empty payload must still store a document
		payload = []byte("null")
	}

	var res Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := DeliveryReceipt{
			ID:          uuid.NewString(),
			Gateway:     gateway,
			EventID:     ev.ID,
			EventType:   ev.Type,
			Outcome:     OutcomePending,
			PayloadJSON: datatypes.JSON(payload),
			ReceivedAt:  time.Now(),
		}

		// dedupe: unique(gateway,event_id); a concurrent duplicate blocks
		// here until the first transaction resolves
		if err := tx.WithContext(ctx).Create(&rec).Error; err != nil {
			if isDup(err) {
				return s.priorOutcome(ctx, tx, gateway, ev.ID, &res)
			}
			return err
		}

		if !orders.SupportedEvent(ev.Type) {
			res = Result{Outcome: OutcomeIgnored, Reason: "unsupported event type: " + ev.Type}
			return s.finalize(ctx, tx, rec.ID, res)
		}

		applied, err := orders.ApplyTransition(ctx, tx, orders.ApplyInput{
			OrderID:   ev.OrderRef,
			Gateway:   gateway,
			EventID:   ev.ID,
			EventType: ev.Type,
		})
		switch {
		case err == nil:
			res = Result{
				Outcome:    OutcomeApplied,
				OrderID:    ev.OrderRef,
				FromStatus: applied.FromStatus,
				ToStatus:   applied.ToStatus,
			}
			return s.finalize(ctx, tx, rec.ID, res)
		case errors.Is(err, orders.ErrInvalidTransition):
			// stale or out-of-order delivery: the rejected receipt still
			// commits, so redeliveries repeat the verdict instead of
			// re-running the apply
			res = Result{Outcome: OutcomeRejected, OrderID: ev.OrderRef, Reason: err.Error()}
			return s.finalize(ctx, tx, rec.ID, res)
		default:
			// unknown order or store failure: roll back, nothing committed
			return err
		}
	})

	metrics.WebhookProcessingDuration.WithLabelValues(gateway).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			metrics.WebhookDeliveriesTotal.WithLabelValues(gateway, "order_not_found").Inc()
			s.logger.ErrorContext(ctx, "webhook references unknown order", "gateway", gateway, "event_id", ev.ID, "type", ev.Type, "order_ref", ev.OrderRef)
			if s.alerts != nil {
				s.alerts.OrderNotFound(ctx, gateway, ev.ID, ev.OrderRef)
			}
			return Result{}, err
		}
		metrics.WebhookDeliveriesTotal.WithLabelValues(gateway, "error").Inc()
		s.logger.ErrorContext(ctx, "webhook processing failed", "gateway", gateway, "event_id", ev.ID, "type", ev.Type, "err", err)
		return Result{}, err
	}

	outcome := res.Outcome
	if res.Duplicate {
		outcome = "duplicate"
		s.logger.InfoContext(ctx, "webhook event deduplicated", "gateway", gateway, "event_id", ev.ID, "type", ev.Type, "original_outcome", res.Outcome)
	} else {
		if s.archive != nil {
			if aerr := s.archive.Put(ctx, storage.Key(gateway, ev.ID), rawBody); aerr != nil {
				s.logger.WarnContext(ctx, "payload archive write failed", "gateway", gateway, "event_id", ev.ID, "err", aerr)
			}
		}
		switch res.Outcome {
		case OutcomeApplied:
			metrics.OrderTransitionsTotal.WithLabelValues(res.FromStatus, res.ToStatus).Inc()
			s.logger.InfoContext(ctx, "webhook event applied", "gateway", gateway, "event_id", ev.ID, "type", ev.Type, "order_id", res.OrderID, "from", res.FromStatus, "to", res.ToStatus)
		case OutcomeIgnored:
			s.logger.InfoContext(ctx, "webhook event ignored", "gateway", gateway, "event_id", ev.ID, "type", ev.Type)
		case OutcomeRejected:
			s.logger.WarnContext(ctx, "webhook event rejected", "gateway", gateway, "event_id", ev.ID, "type", ev.Type, "order_id", res.OrderID, "reason", res.Reason)
		}
	}
	metrics.WebhookDeliveriesTotal.WithLabelValues(gateway, outcome).Inc()
	return res, nil
}

// Receipt loads the stored receipt for one delivery.
func (s *Service) Receipt(ctx context.Context, gateway, eventID string) (DeliveryReceipt, error) {
	var rec DeliveryReceipt
	err := s.db.WithContext(ctx).First(&rec, "gateway = ? AND event_id = ?", gateway, eventID).Error
	return rec, err
}

func (s *Service) priorOutcome(ctx context.Context, tx *gorm.DB, gateway, eventID string, res *Result) error {
	var prior DeliveryReceipt
	if err := tx.WithContext(ctx).First(&prior, "gateway = ? AND event_id = ?", gateway, eventID).Error; err != nil {
		return err
	}
	*res = Result{Outcome: prior.Outcome, Duplicate: true}
	if prior.OrderID != nil {
		res.OrderID = *prior.OrderID
	}
	if prior.Reason != nil {
		res.Reason = *prior.Reason
	}
	return nil
}

func (s *Service) finalize(ctx context.Context, tx *gorm.DB, id string, res Result) error {
	now := time.Now()
	updates := map[string]any{
		"outcome":      res.Outcome,
		"processed_at": &now,
	}
	if res.OrderID != "" {
		updates["order_id"] = res.OrderID
	}
	if res.Reason != "" {
		updates["reason"] = truncate(res.Reason, 250)
	}
	return tx.WithContext(ctx).Model(&DeliveryReceipt{}).Where("id = ?", id).Updates(updates).Error
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
