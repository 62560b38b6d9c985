package orders

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SHIS22proxy/paygate/internal/modules/gateways"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "orders_test.db")), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Order{}, &OrderEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestRegister_CreatesOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepo(db))

	o, created, err := svc.Register(context.Background(), RegisterInput{ID: "ord-1", AmountCents: 4200, Currency: "eur"})
	if err != nil {
		t.Fatalf("register order: %v", err)
	}
	if !created {
		t.Fatalf("expected a fresh order")
	}
	if o.Status != StatusCreated {
		t.Fatalf("expected status created, got %q", o.Status)
	}
	if o.Currency != "EUR" {
		t.Fatalf("expected normalized currency EUR, got %q", o.Currency)
	}
}

func TestRegister_GeneratesIDWhenEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepo(db))

	o, created, err := svc.Register(context.Background(), RegisterInput{AmountCents: 100, Currency: "USD"})
	if err != nil {
		t.Fatalf("register order: %v", err)
	}
	if !created || o.ID == "" {
		t.Fatalf("expected a generated order id, got %q", o.ID)
	}
}

func TestRegister_IdempotentReplay(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepo(db))

	first, _, err := svc.Register(context.Background(), RegisterInput{ID: "ord-2", AmountCents: 999, Currency: "USD"})
	if err != nil {
		t.Fatalf("register order: %v", err)
	}

	replay, created, err := svc.Register(context.Background(), RegisterInput{ID: "ord-2", AmountCents: 999, Currency: "USD"})
	if err != nil {
		t.Fatalf("replay registration: %v", err)
	}
	if created {
		t.Fatalf("expected replay to return the existing order")
	}
	if replay.ID != first.ID || replay.Status != first.Status {
		t.Fatalf("expected same order back, got %+v", replay)
	}
}

func TestRegister_ConflictingDetails(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepo(db))

	if _, _, err := svc.Register(context.Background(), RegisterInput{ID: "ord-3", AmountCents: 100, Currency: "USD"}); err != nil {
		t.Fatalf("register order: %v", err)
	}
	_, _, err := svc.Register(context.Background(), RegisterInput{ID: "ord-3", AmountCents: 200, Currency: "USD"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestRegister_RejectsBadInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepo(db))

	if _, _, err := svc.Register(context.Background(), RegisterInput{AmountCents: 0, Currency: "USD"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero amount, got %v", err)
	}
	if _, _, err := svc.Register(context.Background(), RegisterInput{AmountCents: 100, Currency: "EURO"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad currency, got %v", err)
	}
}

func applyEvent(t *testing.T, db *gorm.DB, orderID, eventID, eventType string) (Applied, error) {
	t.Helper()
	var applied Applied
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		applied, err = ApplyTransition(context.Background(), tx, ApplyInput{
			OrderID:   orderID,
			Gateway:   "stripe",
			EventID:   eventID,
			EventType: eventType,
		})
		return err
	})
	return applied, err
}

func TestApplyTransition_FullLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepo(db))
	if _, _, err := svc.Register(context.Background(), RegisterInput{ID: "ord-life", AmountCents: 5000, Currency: "USD"}); err != nil {
		t.Fatalf("register order: %v", err)
	}

	steps := []struct {
		eventID   string
		eventType string
		want      string
	}{
		{"evt_a", gateways.EventCheckoutCompleted, StatusPending},
		{"evt_b", gateways.EventPaymentSucceeded, StatusPaid},
		{"evt_c", gateways.EventRefundIssued, StatusRefunded},
	}
	for _, step := range steps {
		applied, err := applyEvent(t, db, "ord-life", step.eventID, step.eventType)
		if err != nil {
			t.Fatalf("apply %s: %v", step.eventType, err)
		}
		if applied.ToStatus != step.want {
			t.Fatalf("apply %s: expected status %q, got %q", step.eventType, step.want, applied.ToStatus)
		}
	}

	o, events, err := svc.Status(context.Background(), "ord-life")
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if o.Status != StatusRefunded {
		t.Fatalf("expected final status refunded, got %q", o.Status)
	}
	if o.PaidAt == nil || o.RefundedAt == nil {
		t.Fatalf("expected paid_at and refunded_at to be set")
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 audit rows, got %d", len(events))
	}
	if events[0].EventID != "evt_a" || events[2].ToStatus != StatusRefunded {
		t.Fatalf("audit rows out of order: %+v", events)
	}
}

func TestApplyTransition_RejectsOutOfOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepo(db))
	if _, _, err := svc.Register(context.Background(), RegisterInput{ID: "ord-ooo", AmountCents: 5000, Currency: "USD"}); err != nil {
		t.Fatalf("register order: %v", err)
	}

	// payment.succeeded before checkout.completed is out of order
	if _, err := applyEvent(t, db, "ord-ooo", "evt_1", gateways.EventPaymentSucceeded); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if _, err := applyEvent(t, db, "ord-ooo", "evt_2", gateways.EventCheckoutCompleted); err != nil {
		t.Fatalf("apply checkout.completed: %v", err)
	}
	if _, err := applyEvent(t, db, "ord-ooo", "evt_3", gateways.EventPaymentSucceeded); err != nil {
		t.Fatalf("apply payment.succeeded: %v", err)
	}

	// a delayed checkout.completed must not roll the order back
	if _, err := applyEvent(t, db, "ord-ooo", "evt_4", gateways.EventCheckoutCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected stale event to be rejected, got %v", err)
	}
	o, _, err := svc.Status(context.Background(), "ord-ooo")
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if o.Status != StatusPaid {
		t.Fatalf("expected order untouched at paid, got %q", o.Status)
	}
}

func TestApplyTransition_FailedIsTerminal(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepo(db))
	if _, _, err := svc.Register(context.Background(), RegisterInput{ID: "ord-fail", AmountCents: 5000, Currency: "USD"}); err != nil {
		t.Fatalf("register order: %v", err)
	}

	if _, err := applyEvent(t, db, "ord-fail", "evt_1", gateways.EventCheckoutCompleted); err != nil {
		t.Fatalf("apply checkout.completed: %v", err)
	}
	if _, err := applyEvent(t, db, "ord-fail", "evt_2", gateways.EventPaymentFailed); err != nil {
		t.Fatalf("apply payment.failed: %v", err)
	}
	if _, err := applyEvent(t, db, "ord-fail", "evt_3", gateways.EventPaymentSucceeded); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected failed to be terminal, got %v", err)
	}
}

func TestApplyTransition_UnknownOrder(t *testing.T) {
	db := newTestDB(t)

	if _, err := applyEvent(t, db, "ord-missing", "evt_1", gateways.EventPaymentSucceeded); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList_FiltersAndPaginates(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepo(db))

	for _, id := range []string{"ord-a", "ord-b", "ord-c"} {
		if _, _, err := svc.Register(context.Background(), RegisterInput{ID: id, AmountCents: 100, Currency: "USD"}); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	if _, err := applyEvent(t, db, "ord-b", "evt_1", gateways.EventCheckoutCompleted); err != nil {
		t.Fatalf("apply event: %v", err)
	}

	res, err := svc.List(context.Background(), ListParams{Status: StatusCreated})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("expected 2 created orders, got %d", res.Total)
	}

	res, err = svc.List(context.Background(), ListParams{PageSize: 2})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if res.Total != 3 || len(res.Items) != 2 {
		t.Fatalf("expected page of 2 from 3, got total=%d page=%d", res.Total, len(res.Items))
	}
}
