package disposals

import (
	"time"

	"SIMS-backend/internal/inventory/model"
)

// ===== Requests =====

type CreateDisposalRequest struct {
	ItemULID string `json:"item_ulid" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
	// "2006-01-02"; defaults to today.
	Date  *string `json:"date,omitempty"`
	Notes *string `json:"notes,omitempty"`
	// "pending" (default) or "approved". Approved at creation applies
	// the stock decrement immediately.
	Status *string `json:"status,omitempty"`
}

type UpdateDisposalRequest struct {
	Quantity *int    `json:"quantity,omitempty"`
	Reason   *string `json:"reason,omitempty"`
	Date     *string `json:"date,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// ===== Responses =====

type DisposalResponse struct {
	DisposalULID string               `json:"disposal_ulid"`
	ItemULID     string               `json:"item_ulid"`
	ItemName     string               `json:"item_name"`
	Quantity     int                  `json:"quantity"`
	Reason       model.DisposalReason `json:"reason"`
	Date         time.Time            `json:"date"`
	Status       model.DisposalStatus `json:"status"`
	Notes        *string              `json:"notes,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ===== Listing =====

type DisposalFilter struct {
	ItemULID *string
	Status   *model.DisposalStatus
	Reason   *model.DisposalReason
	From     *time.Time
	To       *time.Time
}

type Row struct {
	model.Disposal
	ItemULID string
	ItemName string
}
