package view

type OrderEvent struct {
	Gateway   string `json:"gateway"`
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	From      string `json:"from"`
	To        string `json:"to"`
	At        string `json:"at"`
}

type OrderDetail struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	AmountCents int    `json:"amount_cents"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`

	PaidAt     string `json:"paid_at,omitempty"`
	RefundedAt string `json:"refunded_at,omitempty"`
	CreatedAt  string `json:"created_at"`

	Events []OrderEvent `json:"events"`
}

type OrderListItem struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	AmountCents int    `json:"amount_cents"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	CreatedAt   string `json:"created_at"`
}

type OrderListPage struct {
	Items    []OrderListItem `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int64           `json:"total"`
}
