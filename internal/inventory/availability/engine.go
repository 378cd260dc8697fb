// Package availability is the pure availability and lifecycle engine:
// a reducer over already-fetched items and transactions. No I/O, no
// clock reads, no store access; callers pass "now" explicitly.
package availability

import (
	"time"

	"SIMS-backend/internal/inventory/model"
)

// LoanedQuantity sums the quantities of all active loans against the
// item. An active loan whose return date has passed still counts: it is
// overdue, not returned, and keeps reducing availability until a return
// is recorded.
func LoanedQuantity(itemID int64, txs []model.Transaction) int {
	total := 0
	for _, t := range txs {
		if t.ItemID != itemID {
			continue
		}
		if t.Type != model.TransactionTypeLoan {
			continue
		}
		if t.Status != model.TransactionStatusActive {
			continue
		}
		total += t.Quantity
	}
	return total
}

// AvailableQuantity returns how much of the item can be handed out
// right now. Retired items are never orderable, even if the arithmetic
// would be positive.
func AvailableQuantity(item model.Item, txs []model.Transaction) int {
	if item.Retired || item.Quantity == 0 {
		return 0
	}
	avail := item.Quantity - LoanedQuantity(item.ItemID, txs)
	if avail < 0 {
		return 0
	}
	return avail
}

// IsOverdue reports whether an active loan's return date has strictly
// passed. A missing or zero return date fails closed to non-overdue so
// that one malformed row never poisons the computation for the rest.
// Returned transactions and non-loan types are never overdue.
func IsOverdue(t model.Transaction, now time.Time) bool {
	if t.Type != model.TransactionTypeLoan {
		return false
	}
	if t.Status != model.TransactionStatusActive {
		return false
	}
	if !t.ReturnDate.Valid || t.ReturnDate.Time.IsZero() {
		return false
	}
	return t.ReturnDate.Time.Before(now)
}

// ItemStatus derives the display/alert status of an item. Tools are
// exempt from low-stock: a raw quantity threshold is the wrong signal
// for durable goods, their alarm would need available-unit counts.
func ItemStatus(item model.Item, settings model.Settings) model.ItemStatus {
	if item.Retired {
		return model.ItemStatusRetired
	}
	if item.Quantity == 0 {
		return model.ItemStatusOutOfStock
	}
	if item.Type == model.ItemTypeSupply && item.Quantity < settings.LowStockThreshold {
		return model.ItemStatusLowStock
	}
	return model.ItemStatusActive
}

// TransactionStatus derives the display status. The persisted status is
// only ever active or returned; overdue exists purely as this derived
// view and is recomputed on every read.
func TransactionStatus(t model.Transaction, now time.Time) model.TransactionStatus {
	if t.Status == model.TransactionStatusReturned {
		return model.TransactionStatusReturned
	}
	if IsOverdue(t, now) {
		return model.TransactionStatusOverdue
	}
	return model.TransactionStatusActive
}

// MarkReturned moves a transaction to its terminal state. Idempotent:
// marking an already-returned transaction is a no-op.
func MarkReturned(t model.Transaction) model.Transaction {
	t.Status = model.TransactionStatusReturned
	return t
}

// ExtendLoan replaces the return date and nothing else. An overdue loan
// is un-overdued only through the derived recomputation, never by
// touching stored status.
func ExtendLoan(t model.Transaction, newReturnDate time.Time) model.Transaction {
	t.ReturnDate.Time = newReturnDate
	t.ReturnDate.Valid = true
	return t
}

// InitialStatus: loans start active and owe a return; every other
// movement type carries no future obligation and starts terminal.
func InitialStatus(tt model.TransactionType) model.TransactionStatus {
	if tt == model.TransactionTypeLoan {
		return model.TransactionStatusActive
	}
	return model.TransactionStatusReturned
}
