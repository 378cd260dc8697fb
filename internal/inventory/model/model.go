package model

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// ItemType distinguishes durable tools from consumable supplies.
// Supplies participate in low-stock alerting, tools do not.
type ItemType string

const (
	ItemTypeTool   ItemType = "tool"
	ItemTypeSupply ItemType = "supply"
)

// ItemStatus is derived from quantity, type and settings. It is never
// persisted; the availability package computes it on every read.
type ItemStatus string

const (
	ItemStatusActive     ItemStatus = "active"
	ItemStatusLowStock   ItemStatus = "low_stock"
	ItemStatusOutOfStock ItemStatus = "out_of_stock"
	ItemStatusRetired    ItemStatus = "retired"
)

type ItemCondition string

const (
	ConditionNew  ItemCondition = "new"
	ConditionUsed ItemCondition = "used"
	ConditionFair ItemCondition = "fair"
	ConditionPoor ItemCondition = "poor"
)

// Item is a stock-keeping unit. Quantity is the total owned count;
// loans never mutate it, only approved disposals do.
type Item struct {
	ItemID    int64
	ItemULID  string
	Name      string
	Category  string
	Type      ItemType
	Quantity  int
	Cost      decimal.NullDecimal
	Condition ItemCondition
	Location  string
	Retired   bool
	Notes     sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TransactionType string

const (
	TransactionTypeLoan     TransactionType = "loan"
	TransactionTypeDonation TransactionType = "donation"
	TransactionTypeReturn   TransactionType = "return"
	TransactionTypeExit     TransactionType = "exit"
)

// TransactionStatus: only "active" and "returned" are ever stored.
// "overdue" is a derived view of an active loan whose return date has
// passed and must never be written back to the store.
type TransactionStatus string

const (
	TransactionStatusActive   TransactionStatus = "active"
	TransactionStatusReturned TransactionStatus = "returned"
	TransactionStatusOverdue  TransactionStatus = "overdue"
)

// Transaction records a stock movement against an item. Loans encumber
// availability while active; donations, returns and exits are terminal
// at creation and never encumber anything.
type Transaction struct {
	TransactionID   int64
	TransactionULID string
	ItemID          int64
	TeacherName     sql.NullString
	Quantity        int
	Type            TransactionType
	Date            time.Time
	ReturnDate      sql.NullTime
	Status          TransactionStatus
	Notes           sql.NullString
	CreatedAt       time.Time
}

type DisposalReason string

const (
	ReasonDamaged  DisposalReason = "damaged"
	ReasonExpired  DisposalReason = "expired"
	ReasonWornOut  DisposalReason = "worn_out"
	ReasonObsolete DisposalReason = "obsolete"
	ReasonOther    DisposalReason = "other"
)

type DisposalStatus string

const (
	DisposalStatusPending  DisposalStatus = "pending"
	DisposalStatusApproved DisposalStatus = "approved"
	DisposalStatusRejected DisposalStatus = "rejected"
)

// Disposal is a permanent write-off. Only the approved state has a
// stock effect, applied exactly once.
type Disposal struct {
	DisposalID   int64
	DisposalULID string
	ItemID       int64
	Quantity     int
	Reason       DisposalReason
	Date         time.Time
	Status       DisposalStatus
	Notes        sql.NullString
	CreatedAt    time.Time
}

// Settings is the process-wide singleton configuration. It is loaded
// once at startup (or on explicit reload) and injected into the
// services; there is no ambient global.
type Settings struct {
	LowStockThreshold    int      `json:"low_stock_threshold"`
	DefaultLoanDays      int      `json:"default_loan_days"`
	Currency             string   `json:"currency"`
	Language             string   `json:"language"`
	Categories           []string `json:"categories"`
	Sources              []string `json:"sources"`
	Teachers             []string `json:"teachers"`
	Locations            []string `json:"locations"`
	NotificationsEnabled bool     `json:"notifications_enabled"`
	AutoBackupEnabled    bool     `json:"auto_backup_enabled"`
}

// DefaultSettings are substituted whenever the singleton row is absent.
func DefaultSettings() Settings {
	return Settings{
		LowStockThreshold:    5,
		DefaultLoanDays:      14,
		Currency:             "EUR",
		Language:             "en",
		Categories:           []string{"General"},
		Sources:              []string{"Purchase"},
		Teachers:             []string{"Unassigned"},
		Locations:            []string{"Main storage"},
		NotificationsEnabled: true,
		AutoBackupEnabled:    false,
	}
}

func ValidItemType(t ItemType) bool {
	return t == ItemTypeTool || t == ItemTypeSupply
}

func ValidCondition(c ItemCondition) bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TransactionTypeLoan, TransactionTypeDonation, TransactionTypeReturn, TransactionTypeExit:
		return true
	}
	return false
}

func ValidDisposalReason(r DisposalReason) bool {
	switch r {
	case ReasonDamaged, ReasonExpired, ReasonWornOut, ReasonObsolete, ReasonOther:
		return true
	}
	return false
}

// Page carries list pagination parameters shared by every store.
type Page struct {
	Limit  int
	Offset int
	Order  string // "asc" or "desc"
}

// Normalize clamps pagination to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Order != "asc" {
		p.Order = "desc"
	}
	return p
}
