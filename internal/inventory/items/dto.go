package items

import (
	"time"

	"SIMS-backend/internal/inventory/model"
)

// ===== Requests =====

type CreateItemRequest struct {
	Name      string  `json:"name" binding:"required"`
	Category  string  `json:"category" binding:"required"`
	Type      string  `json:"type" binding:"required"`
	Quantity  int     `json:"quantity"`
	Cost      *string `json:"cost,omitempty"` // decimal string, e.g. "12.50"
	Condition string  `json:"condition" binding:"required"`
	Location  string  `json:"location" binding:"required"`
	Notes     *string `json:"notes,omitempty"`
}

type UpdateItemRequest struct {
	Name      *string `json:"name,omitempty"`
	Category  *string `json:"category,omitempty"`
	Type      *string `json:"type,omitempty"`
	Quantity  *int    `json:"quantity,omitempty"`
	Cost      *string `json:"cost,omitempty"`
	Condition *string `json:"condition,omitempty"`
	Location  *string `json:"location,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// ===== Responses =====

type ItemResponse struct {
	ItemULID          string              `json:"item_ulid"`
	Name              string              `json:"name"`
	Category          string              `json:"category"`
	Type              model.ItemType      `json:"type"`
	Quantity          int                 `json:"quantity"`
	Cost              *string             `json:"cost,omitempty"`
	Condition         model.ItemCondition `json:"condition"`
	Location          string              `json:"location"`
	Status            model.ItemStatus    `json:"status"`
	LoanedQuantity    int                 `json:"loaned_quantity"`
	AvailableQuantity int                 `json:"available_quantity"`
	Notes             *string             `json:"notes,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	// Set when the edit is held in memory because persistence failed.
	PersistWarning *string `json:"persist_warning,omitempty"`
}

type DeleteItemResponse struct {
	ItemULID string `json:"item_ulid"`
	// Items still referenced by transactions are retired, not removed.
	Retired bool `json:"retired"`
}

type AvailabilityResponse struct {
	ItemULID          string           `json:"item_ulid"`
	Quantity          int              `json:"quantity"`
	LoanedQuantity    int              `json:"loaned_quantity"`
	AvailableQuantity int              `json:"available_quantity"`
	Status            model.ItemStatus `json:"status"`
}

type ImportItemsResponse struct {
	Total   int               `json:"total"`
	OkCount int               `json:"ok_count"`
	NgCount int               `json:"ng_count"`
	Results []ImportRowResult `json:"results"`
}

type ImportRowResult struct {
	Row      int     `json:"row"` // 1-based data row, header excluded
	Ok       bool    `json:"ok"`
	Error    *string `json:"error,omitempty"`
	ItemULID *string `json:"item_ulid,omitempty"`
	Name     *string `json:"name,omitempty"`
}

// ===== Listing =====

type ItemFilter struct {
	Category       *string
	Type           *model.ItemType
	Location       *string
	Query          *string // name substring
	IncludeRetired bool
}
