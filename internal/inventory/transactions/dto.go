package transactions

import (
	"time"

	"SIMS-backend/internal/inventory/model"
)

// ===== Requests =====

type CreateTransactionRequest struct {
	ItemULID    string  `json:"item_ulid" binding:"required"`
	TeacherName *string `json:"teacher_name,omitempty"` // required for loans
	Quantity    int     `json:"quantity" binding:"required"`
	Type        string  `json:"type" binding:"required"`
	// "2006-01-02" date strings. Date defaults to today; ReturnDate
	// defaults to Date + settings.DefaultLoanDays for loans.
	Date       *string `json:"date,omitempty"`
	ReturnDate *string `json:"return_date,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

type UpdateReturnDateRequest struct {
	// Omitted: extend by settings.DefaultLoanDays from today.
	ReturnDate *string `json:"return_date,omitempty"`
}

// ===== Responses =====

type TransactionResponse struct {
	TransactionULID string                  `json:"transaction_ulid"`
	ItemULID        string                  `json:"item_ulid"`
	ItemName        string                  `json:"item_name"`
	TeacherName     *string                 `json:"teacher_name,omitempty"`
	Quantity        int                     `json:"quantity"`
	Type            model.TransactionType   `json:"type"`
	Date            time.Time               `json:"date"`
	ReturnDate      *time.Time              `json:"return_date,omitempty"`
	Status          model.TransactionStatus `json:"status"` // derived view, overdue included
	Overdue         bool                    `json:"overdue"`
	Notes           *string                 `json:"notes,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

// ===== Listing =====

type TransactionFilter struct {
	ItemULID *string
	Teacher  *string
	Type     *model.TransactionType
	Status   *model.TransactionStatus // persisted status: active | returned
	From     *time.Time
	To       *time.Time
}

// Row joins the ledger row with the item columns responses need.
type Row struct {
	model.Transaction
	ItemULID string
	ItemName string
}
