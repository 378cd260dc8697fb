package disposals

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"SIMS-backend/internal/inventory/model"
	"SIMS-backend/internal/platform/ids"
)

type Service struct {
	store DisposalStore
	clock ids.Clock
	id    ids.IDGen
}

func NewService(d *sql.DB) *Service {
	return &Service{
		store: NewStore(d),
		clock: ids.RealClock{},
		id:    ids.ULIDGen{},
	}
}

func (s *Service) Create(ctx context.Context, req CreateDisposalRequest) (DisposalResponse, error) {
	if req.Quantity <= 0 {
		return DisposalResponse{}, model.ErrValidation("quantity must be > 0")
	}
	reason := model.DisposalReason(req.Reason)
	if !model.ValidDisposalReason(reason) {
		return DisposalResponse{}, model.ErrValidation("reason must be damaged, expired, worn_out, obsolete or other")
	}

	status := model.DisposalStatusPending
	if req.Status != nil && *req.Status != "" {
		switch model.DisposalStatus(*req.Status) {
		case model.DisposalStatusPending:
		case model.DisposalStatusApproved:
			status = model.DisposalStatusApproved
		default:
			return DisposalResponse{}, model.ErrValidation("status must be pending or approved at creation")
		}
	}

	item, err := s.store.ResolveItem(ctx, req.ItemULID)
	if err != nil {
		return DisposalResponse{}, model.ErrStore("resolving item", err)
	}
	if item == nil {
		return DisposalResponse{}, model.ErrNotFound("item not found")
	}
	// Disposals are bounded by raw stock, not availability: writing
	// off loaned-out units is a stocktaking decision, not an order.
	if req.Quantity > item.Quantity {
		return DisposalResponse{}, model.ErrValidation("disposal quantity exceeds stock")
	}

	now := s.clock.Now()
	date := now
	if req.Date != nil && *req.Date != "" {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return DisposalResponse{}, model.ErrValidation("invalid date format, expected YYYY-MM-DD")
		}
		date = parsed
	}

	d := model.Disposal{
		DisposalULID: s.id.NewULID(now),
		ItemID:       item.ItemID,
		Quantity:     req.Quantity,
		Reason:       reason,
		Date:         date,
		Status:       status,
		Notes:        toNullString(req.Notes),
		CreatedAt:    now,
	}

	if status == model.DisposalStatusApproved {
		err = s.store.InsertApproved(ctx, &d)
	} else {
		err = s.store.Insert(ctx, &d)
	}
	if err != nil {
		if model.IsCode(err, model.CodeValidation) || model.IsCode(err, model.CodeNotFound) {
			return DisposalResponse{}, err
		}
		return DisposalResponse{}, model.ErrStore("creating disposal", err)
	}

	return buildResponse(Row{Disposal: d, ItemULID: item.ItemULID, ItemName: item.Name}), nil
}

func (s *Service) Get(ctx context.Context, ul string) (DisposalResponse, error) {
	r, err := s.fetch(ctx, ul)
	if err != nil {
		return DisposalResponse{}, err
	}
	return buildResponse(*r), nil
}

func (s *Service) List(ctx context.Context, f DisposalFilter, p model.Page) ([]DisposalResponse, int64, error) {
	rows, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, 0, model.ErrStore("listing disposals", err)
	}
	out := make([]DisposalResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, buildResponse(r))
	}
	return out, total, nil
}

// Approve applies the stock decrement exactly once. Approving an
// already-approved disposal is a no-op; a rejected one cannot be
// resurrected.
func (s *Service) Approve(ctx context.Context, ul string) (DisposalResponse, error) {
	r, err := s.fetch(ctx, ul)
	if err != nil {
		return DisposalResponse{}, err
	}

	switch r.Status {
	case model.DisposalStatusApproved:
		return buildResponse(*r), nil
	case model.DisposalStatusRejected:
		return DisposalResponse{}, model.ErrConflict("disposal was rejected")
	}

	if err := s.store.Approve(ctx, r.DisposalID, r.ItemID, r.Quantity); err != nil {
		if model.IsCode(err, model.CodeValidation) || model.IsCode(err, model.CodeConflict) || model.IsCode(err, model.CodeNotFound) {
			return DisposalResponse{}, err
		}
		return DisposalResponse{}, model.ErrStore("approving disposal", err)
	}
	r.Status = model.DisposalStatusApproved
	return buildResponse(*r), nil
}

// Reject is stock-neutral and terminal.
func (s *Service) Reject(ctx context.Context, ul string) (DisposalResponse, error) {
	r, err := s.fetch(ctx, ul)
	if err != nil {
		return DisposalResponse{}, err
	}

	switch r.Status {
	case model.DisposalStatusRejected:
		return buildResponse(*r), nil
	case model.DisposalStatusApproved:
		return DisposalResponse{}, model.ErrConflict("disposal is already approved")
	}

	if err := s.store.UpdateStatus(ctx, r.DisposalID, model.DisposalStatusRejected); err != nil {
		return DisposalResponse{}, model.ErrStore("rejecting disposal", err)
	}
	r.Status = model.DisposalStatusRejected
	return buildResponse(*r), nil
}

// Update edits a disposal. For approved disposals a quantity change
// restores the previously disposed amount and reapplies the new one in
// a single store transaction, so the caller never observes the
// intermediate state.
func (s *Service) Update(ctx context.Context, ul string, req UpdateDisposalRequest) (DisposalResponse, error) {
	r, err := s.fetch(ctx, ul)
	if err != nil {
		return DisposalResponse{}, err
	}
	if r.Status == model.DisposalStatusRejected {
		return DisposalResponse{}, model.ErrConflict("disposal was rejected")
	}

	oldQty := r.Quantity
	updated := r.Disposal
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return DisposalResponse{}, model.ErrValidation("quantity must be > 0")
		}
		updated.Quantity = *req.Quantity
	}
	if req.Reason != nil {
		reason := model.DisposalReason(*req.Reason)
		if !model.ValidDisposalReason(reason) {
			return DisposalResponse{}, model.ErrValidation("reason must be damaged, expired, worn_out, obsolete or other")
		}
		updated.Reason = reason
	}
	if req.Date != nil && *req.Date != "" {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return DisposalResponse{}, model.ErrValidation("invalid date format, expected YYYY-MM-DD")
		}
		updated.Date = parsed
	}
	if req.Notes != nil {
		updated.Notes = toNullString(req.Notes)
	}

	if r.Status == model.DisposalStatusApproved {
		err = s.store.ReconcileApproved(ctx, &updated, oldQty)
	} else {
		// Pending: no stock has been taken yet, bound against stock.
		item, rerr := s.store.ResolveItem(ctx, r.ItemULID)
		if rerr != nil {
			return DisposalResponse{}, model.ErrStore("resolving item", rerr)
		}
		if item == nil {
			return DisposalResponse{}, model.ErrNotFound("item not found")
		}
		if updated.Quantity > item.Quantity {
			return DisposalResponse{}, model.ErrValidation("disposal quantity exceeds stock")
		}
		err = s.store.UpdateFields(ctx, &updated)
	}
	if err != nil {
		if model.IsCode(err, model.CodeValidation) || model.IsCode(err, model.CodeConflict) || model.IsCode(err, model.CodeNotFound) {
			return DisposalResponse{}, err
		}
		return DisposalResponse{}, model.ErrStore("updating disposal", err)
	}

	return buildResponse(Row{Disposal: updated, ItemULID: r.ItemULID, ItemName: r.ItemName}), nil
}

// ===== helpers =====

func (s *Service) fetch(ctx context.Context, ul string) (*Row, error) {
	r, err := s.store.GetByULID(ctx, ul)
	if err != nil {
		return nil, model.ErrStore("loading disposal", err)
	}
	if r == nil {
		return nil, model.ErrNotFound("disposal not found")
	}
	return r, nil
}

func buildResponse(r Row) DisposalResponse {
	resp := DisposalResponse{
		DisposalULID: r.DisposalULID,
		ItemULID:     r.ItemULID,
		ItemName:     r.ItemName,
		Quantity:     r.Quantity,
		Reason:       r.Reason,
		Date:         r.Date,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
	}
	if r.Notes.Valid {
		v := r.Notes.String
		resp.Notes = &v
	}
	return resp
}

func toNullString(s *string) (ns sql.NullString) {
	if s != nil && strings.TrimSpace(*s) != "" {
		ns.Valid, ns.String = true, *s
	}
	return
}
