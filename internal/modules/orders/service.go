package orders

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

type Service struct {
	repo   *Repo
	logger *slog.Logger
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo, logger: slog.Default()}
}

func (s *Service) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

type RegisterInput struct {
	ID          string // optional merchant reference, generated when empty
	AmountCents int
	Currency    string
}

// Register creates the order the gateways will later reference. Replaying
// the same registration is a no-op; the same id with different details is a
// conflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Order, bool, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.AmountCents <= 0 || len(currency) != 3 {
		return Order{}, false, ErrInvalidInput
	}

	now := time.Now()
	o := Order{
		ID:          id,
		AmountCents: in.AmountCents,
		Currency:    currency,
		Status:      StatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, &o); err != nil {
		if !isDup(err) {
			return Order{}, false, err
		}
		existing, gerr := s.repo.Get(ctx, id)
		if gerr != nil {
			return Order{}, false, gerr
		}
		if existing.AmountCents != in.AmountCents || existing.Currency != currency {
			return Order{}, false, ErrAlreadyExists
		}
		return existing, false, nil
	}

	s.logger.InfoContext(ctx, "order registered", "order_id", o.ID, "amount_cents", o.AmountCents, "currency", o.Currency)
	return o, true, nil
}

func (s *Service) Status(ctx context.Context, id string) (Order, []OrderEvent, error) {
	return s.repo.GetWithEvents(ctx, id)
}

func (s *Service) List(ctx context.Context, in ListParams) (ListResult, error) {
	return s.repo.List(ctx, in)
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
