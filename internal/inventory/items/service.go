package items

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"SIMS-backend/internal/inventory/availability"
	"SIMS-backend/internal/inventory/model"
	"SIMS-backend/internal/platform/ids"
)

// SettingsProvider hands out the current process-wide settings. The
// settings service implements it; nothing here reaches for a global.
type SettingsProvider interface {
	Current() model.Settings
}

type Service struct {
	store    ItemStore
	settings SettingsProvider
	clock    ids.Clock
	id       ids.IDGen

	// Item edits that could not be persisted are kept here and merged
	// into reads, so the user keeps seeing their change while the store
	// is down. Deliberate soft-consistency tradeoff, scoped to updates.
	mu       sync.Mutex
	unsynced map[string]model.Item
}

func NewService(db *sql.DB, settings SettingsProvider) *Service {
	return &Service{
		store:    NewStore(db),
		settings: settings,
		clock:    ids.RealClock{},
		id:       ids.ULIDGen{},
		unsynced: make(map[string]model.Item),
	}
}

const persistWarning = "saved locally only: persisting the change failed, retry later"

func (s *Service) CreateItem(ctx context.Context, req CreateItemRequest) (ItemResponse, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" ||
		strings.TrimSpace(req.Location) == "" {
		return ItemResponse{}, model.ErrValidation("name, category and location are required")
	}
	itemType := model.ItemType(req.Type)
	if !model.ValidItemType(itemType) {
		return ItemResponse{}, model.ErrValidation("type must be tool or supply")
	}
	if req.Quantity < 0 {
		return ItemResponse{}, model.ErrValidation("quantity must be >= 0")
	}
	cond := model.ItemCondition(req.Condition)
	if !model.ValidCondition(cond) {
		return ItemResponse{}, model.ErrValidation("condition must be new, used, fair or poor")
	}
	cost, err := parseCost(req.Cost)
	if err != nil {
		return ItemResponse{}, err
	}

	now := s.clock.Now()
	m := model.Item{
		ItemULID:  s.id.NewULID(now),
		Name:      req.Name,
		Category:  req.Category,
		Type:      itemType,
		Quantity:  req.Quantity,
		Cost:      cost,
		Condition: cond,
		Location:  req.Location,
		Notes:     toNullString(req.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Insert(ctx, &m); err != nil {
		return ItemResponse{}, model.ErrStore("creating item", err)
	}
	// A freshly created item has no loans yet.
	return s.buildResponse(m, nil, nil), nil
}

func (s *Service) GetItem(ctx context.Context, ul string) (ItemResponse, error) {
	m, warn, err := s.fetch(ctx, ul)
	if err != nil {
		return ItemResponse{}, err
	}
	txs, err := s.store.ActiveLoans(ctx, []int64{m.ItemID})
	if err != nil {
		return ItemResponse{}, model.ErrStore("loading loans", err)
	}
	return s.buildResponse(*m, txs, warn), nil
}

func (s *Service) ListItems(ctx context.Context, f ItemFilter, p model.Page) ([]ItemResponse, int64, error) {
	list, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, 0, model.ErrStore("listing items", err)
	}

	itemIDs := make([]int64, 0, len(list))
	for _, m := range list {
		itemIDs = append(itemIDs, m.ItemID)
	}
	txs, err := s.store.ActiveLoans(ctx, itemIDs)
	if err != nil {
		return nil, 0, model.ErrStore("loading loans", err)
	}

	out := make([]ItemResponse, 0, len(list))
	for _, m := range list {
		var warn *string
		if local, ok := s.localEdit(m.ItemULID); ok {
			m = local
			warn = ptr(persistWarning)
		}
		out = append(out, s.buildResponse(m, txs, warn))
	}
	return out, total, nil
}

// UpdateItem applies a partial edit. If persisting fails, the edit is
// kept in the in-memory view and the response carries a warning instead
// of an error: visible continuity over strict consistency.
func (s *Service) UpdateItem(ctx context.Context, ul string, req UpdateItemRequest) (ItemResponse, error) {
	m, _, err := s.fetch(ctx, ul)
	if err != nil {
		return ItemResponse{}, err
	}

	updated := *m
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return ItemResponse{}, model.ErrValidation("name must not be blank")
		}
		updated.Name = *req.Name
	}
	if req.Category != nil {
		updated.Category = *req.Category
	}
	if req.Type != nil {
		t := model.ItemType(*req.Type)
		if !model.ValidItemType(t) {
			return ItemResponse{}, model.ErrValidation("type must be tool or supply")
		}
		updated.Type = t
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return ItemResponse{}, model.ErrValidation("quantity must be >= 0")
		}
		updated.Quantity = *req.Quantity
	}
	if req.Cost != nil {
		cost, err := parseCost(req.Cost)
		if err != nil {
			return ItemResponse{}, err
		}
		updated.Cost = cost
	}
	if req.Condition != nil {
		c := model.ItemCondition(*req.Condition)
		if !model.ValidCondition(c) {
			return ItemResponse{}, model.ErrValidation("condition must be new, used, fair or poor")
		}
		updated.Condition = c
	}
	if req.Location != nil {
		updated.Location = *req.Location
	}
	if req.Notes != nil {
		updated.Notes = toNullString(req.Notes)
	}
	updated.UpdatedAt = s.clock.Now()

	if err := s.store.Update(ctx, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ItemResponse{}, model.ErrNotFound("item not found")
		}
		// Degraded mode: keep the optimistic edit visible.
		s.mu.Lock()
		s.unsynced[ul] = updated
		s.mu.Unlock()
		return s.buildResponse(updated, nil, ptr(persistWarning)), nil
	}

	s.mu.Lock()
	delete(s.unsynced, ul)
	s.mu.Unlock()

	txs, err := s.store.ActiveLoans(ctx, []int64{updated.ItemID})
	if err != nil {
		return ItemResponse{}, model.ErrStore("loading loans", err)
	}
	return s.buildResponse(updated, txs, nil), nil
}

// DeleteItem removes an item. Items referenced by transactions are
// retired instead of deleted so the ledger keeps pointing at a row.
func (s *Service) DeleteItem(ctx context.Context, ul string) (DeleteItemResponse, error) {
	m, _, err := s.fetch(ctx, ul)
	if err != nil {
		return DeleteItemResponse{}, err
	}

	referenced, err := s.store.HasTransactions(ctx, m.ItemID)
	if err != nil {
		return DeleteItemResponse{}, model.ErrStore("checking references", err)
	}

	if referenced {
		if err := s.store.SetRetired(ctx, m.ItemID, true); err != nil {
			return DeleteItemResponse{}, model.ErrStore("retiring item", err)
		}
	} else {
		if err := s.store.HardDelete(ctx, m.ItemID); err != nil {
			return DeleteItemResponse{}, model.ErrStore("deleting item", err)
		}
	}

	s.mu.Lock()
	delete(s.unsynced, ul)
	s.mu.Unlock()

	return DeleteItemResponse{ItemULID: ul, Retired: referenced}, nil
}

func (s *Service) Availability(ctx context.Context, ul string) (AvailabilityResponse, error) {
	m, _, err := s.fetch(ctx, ul)
	if err != nil {
		return AvailabilityResponse{}, err
	}
	txs, err := s.store.ActiveLoans(ctx, []int64{m.ItemID})
	if err != nil {
		return AvailabilityResponse{}, model.ErrStore("loading loans", err)
	}
	return AvailabilityResponse{
		ItemULID:          m.ItemULID,
		Quantity:          m.Quantity,
		LoanedQuantity:    availability.LoanedQuantity(m.ItemID, txs),
		AvailableQuantity: availability.AvailableQuantity(*m, txs),
		Status:            availability.ItemStatus(*m, s.settings.Current()),
	}, nil
}

// ===== helpers =====

func (s *Service) fetch(ctx context.Context, ul string) (*model.Item, *string, error) {
	m, err := s.store.GetByULID(ctx, ul)
	if err != nil {
		return nil, nil, model.ErrStore("loading item", err)
	}
	if m == nil {
		return nil, nil, model.ErrNotFound("item not found")
	}
	if local, ok := s.localEdit(ul); ok {
		return &local, ptr(persistWarning), nil
	}
	return m, nil, nil
}

func (s *Service) localEdit(ul string) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.unsynced[ul]
	return m, ok
}

func (s *Service) buildResponse(m model.Item, txs []model.Transaction, warn *string) ItemResponse {
	settings := s.settings.Current()
	resp := ItemResponse{
		ItemULID:          m.ItemULID,
		Name:              m.Name,
		Category:          m.Category,
		Type:              m.Type,
		Quantity:          m.Quantity,
		Condition:         m.Condition,
		Location:          m.Location,
		Status:            availability.ItemStatus(m, settings),
		LoanedQuantity:    availability.LoanedQuantity(m.ItemID, txs),
		AvailableQuantity: availability.AvailableQuantity(m, txs),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		PersistWarning:    warn,
	}
	if m.Cost.Valid {
		v := m.Cost.Decimal.StringFixed(2)
		resp.Cost = &v
	}
	if m.Notes.Valid {
		v := m.Notes.String
		resp.Notes = &v
	}
	return resp
}

func parseCost(s *string) (decimal.NullDecimal, error) {
	var out decimal.NullDecimal
	if s == nil || strings.TrimSpace(*s) == "" {
		return out, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*s))
	if err != nil {
		return out, model.ErrValidation("cost must be a decimal amount")
	}
	if d.IsNegative() {
		return out, model.ErrValidation("cost must not be negative")
	}
	out.Decimal = d
	out.Valid = true
	return out, nil
}

func toNullString(s *string) (ns sql.NullString) {
	if s != nil && strings.TrimSpace(*s) != "" {
		ns.Valid, ns.String = true, *s
	}
	return
}

func ptr[T any](v T) *T { return &v }
