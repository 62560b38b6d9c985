package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SHIS22proxy/paygate/internal/http/middleware"
	"github.com/SHIS22proxy/paygate/internal/http/validation"
	"github.com/SHIS22proxy/paygate/internal/modules/orders"
	"github.com/SHIS22proxy/paygate/internal/shared/apperr"
	"github.com/SHIS22proxy/paygate/pkg/view"
)

type OrdersHandler struct {
	Logger  *slog.Logger
	Service *orders.Service
}

func NewOrdersHandler(logger *slog.Logger, svc *orders.Service) *OrdersHandler {
	return &OrdersHandler{Logger: logger, Service: svc}
}

type registerOrderInput struct {
	ID          string `json:"id" binding:"omitempty,max=64"`
	AmountCents int    `json:"amount_cents" binding:"required,gt=0"`
	Currency    string `json:"currency" binding:"required,len=3"`
}

// Register is POST /api/orders. Replaying the same order with identical
// details answers 200 with the stored record instead of 201.
func (h *OrdersHandler) Register(c *gin.Context) {
	var in registerOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Order payload is invalid.", validation.FromBindError(err, &in)))
		return
	}

	o, created, err := h.Service.Register(c.Request.Context(), orders.RegisterInput{
		ID:          in.ID,
		AmountCents: in.AmountCents,
		Currency:    in.Currency,
	})
	switch {
	case errors.Is(err, orders.ErrAlreadyExists):
		middleware.Fail(c, apperr.ConflictErr("Order id is already registered with different details."))
		return
	case errors.Is(err, orders.ErrInvalidInput):
		middleware.Fail(c, apperr.InvalidErr("Order payload is invalid.", nil))
		return
	case err != nil:
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, orderDetail(o, nil))
}

// Get is GET /api/orders/:id.
func (h *OrdersHandler) Get(c *gin.Context) {
	o, events, err := h.Service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("Order not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, orderDetail(o, events))
}

// List is GET /api/orders with optional status, q, page and page_size params.
func (h *OrdersHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.Query("page_size"))
	if size < 1 || size > 100 {
		size = 30
	}

	res, err := h.Service.List(c.Request.Context(), orders.ListParams{
		Q:        c.Query("q"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	out := view.OrderListPage{
		Items:    make([]view.OrderListItem, 0, len(res.Items)),
		Page:     page,
		PageSize: size,
		Total:    res.Total,
	}
	for _, o := range res.Items {
		out.Items = append(out.Items, view.OrderListItem{
			ID:          o.ID,
			Status:      o.Status,
			AmountCents: o.AmountCents,
			Amount:      view.MoneyFromCents(o.AmountCents, o.Currency),
			Currency:    o.Currency,
			CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

func orderDetail(o orders.Order, events []orders.OrderEvent) view.OrderDetail {
	d := view.OrderDetail{
		ID:          o.ID,
		Status:      o.Status,
		AmountCents: o.AmountCents,
		Amount:      view.MoneyFromCents(o.AmountCents, o.Currency),
		Currency:    o.Currency,
		CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339),
		Events:      make([]view.OrderEvent, 0, len(events)),
	}
	if o.PaidAt != nil {
		d.PaidAt = o.PaidAt.UTC().Format(time.RFC3339)
	}
	if o.RefundedAt != nil {
		d.RefundedAt = o.RefundedAt.UTC().Format(time.RFC3339)
	}
	for _, ev := range events {
		d.Events = append(d.Events, view.OrderEvent{
			Gateway:   ev.Gateway,
			EventID:   ev.EventID,
			EventType: ev.EventType,
			From:      ev.FromStatus,
			To:        ev.ToStatus,
			At:        ev.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return d
}
