package transactions

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"SIMS-backend/internal/inventory/availability"
	"SIMS-backend/internal/inventory/model"
	"SIMS-backend/internal/platform/ids"
)

type SettingsProvider interface {
	Current() model.Settings
}

type Service struct {
	store    TransactionStore
	settings SettingsProvider
	clock    ids.Clock
	id       ids.IDGen
}

func NewService(d *sql.DB, settings SettingsProvider) *Service {
	return &Service{
		store:    NewStore(d),
		settings: settings,
		clock:    ids.RealClock{},
		id:       ids.ULIDGen{},
	}
}

// outgoing movements hand stock to someone and are bounded by what is
// still available; donations and returns bring stock in and are not.
func outgoing(t model.TransactionType) bool {
	return t == model.TransactionTypeLoan || t == model.TransactionTypeExit
}

func (s *Service) Create(ctx context.Context, req CreateTransactionRequest) (TransactionResponse, error) {
	if req.Quantity <= 0 {
		return TransactionResponse{}, model.ErrValidation("quantity must be > 0")
	}
	txType := model.TransactionType(req.Type)
	if !model.ValidTransactionType(txType) {
		return TransactionResponse{}, model.ErrValidation("type must be loan, donation, return or exit")
	}
	if txType == model.TransactionTypeLoan && (req.TeacherName == nil || strings.TrimSpace(*req.TeacherName) == "") {
		return TransactionResponse{}, model.ErrValidation("teacher_name is required for loans")
	}

	item, err := s.store.ResolveItem(ctx, req.ItemULID)
	if err != nil {
		return TransactionResponse{}, model.ErrStore("resolving item", err)
	}
	if item == nil {
		return TransactionResponse{}, model.ErrNotFound("item not found")
	}
	if item.Retired {
		return TransactionResponse{}, model.ErrConflict("item is retired")
	}

	now := s.clock.Now()

	date := now
	if req.Date != nil && *req.Date != "" {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return TransactionResponse{}, model.ErrValidation("invalid date format, expected YYYY-MM-DD")
		}
		date = parsed
	}

	var returnDate sql.NullTime
	if req.ReturnDate != nil && *req.ReturnDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.ReturnDate)
		if err != nil {
			return TransactionResponse{}, model.ErrValidation("invalid return_date format, expected YYYY-MM-DD")
		}
		returnDate = sql.NullTime{Time: parsed, Valid: true}
	} else if txType == model.TransactionTypeLoan {
		// Loans always carry a return date.
		days := s.settings.Current().DefaultLoanDays
		returnDate = sql.NullTime{Time: date.AddDate(0, 0, days), Valid: true}
	}

	t := model.Transaction{
		TransactionULID: s.id.NewULID(now),
		ItemID:          item.ItemID,
		TeacherName:     toNullString(req.TeacherName),
		Quantity:        req.Quantity,
		Type:            txType,
		Date:            date,
		ReturnDate:      returnDate,
		Status:          availability.InitialStatus(txType),
		Notes:           toNullString(req.Notes),
		CreatedAt:       now,
	}

	if outgoing(txType) {
		err = s.store.InsertChecked(ctx, &t)
	} else {
		err = s.store.Insert(ctx, &t)
	}
	if err != nil {
		if model.IsCode(err, model.CodeConflict) || model.IsCode(err, model.CodeNotFound) {
			return TransactionResponse{}, err
		}
		return TransactionResponse{}, model.ErrStore("creating transaction", err)
	}

	return s.buildResponse(Row{Transaction: t, ItemULID: item.ItemULID, ItemName: item.Name}, now), nil
}

func (s *Service) Get(ctx context.Context, ul string) (TransactionResponse, error) {
	r, err := s.fetch(ctx, ul)
	if err != nil {
		return TransactionResponse{}, err
	}
	return s.buildResponse(*r, s.clock.Now()), nil
}

func (s *Service) List(ctx context.Context, f TransactionFilter, p model.Page) ([]TransactionResponse, int64, error) {
	rows, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, 0, model.ErrStore("listing transactions", err)
	}
	now := s.clock.Now()
	out := make([]TransactionResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.buildResponse(r, now))
	}
	return out, total, nil
}

// ListOverdue returns active loans whose return date has passed,
// derived by the engine at read time; the stored status stays active.
func (s *Service) ListOverdue(ctx context.Context, f TransactionFilter) ([]TransactionResponse, error) {
	rows, err := s.store.ActiveLoans(ctx, f)
	if err != nil {
		return nil, model.ErrStore("listing loans", err)
	}
	now := s.clock.Now()
	var out []TransactionResponse
	for _, r := range rows {
		if availability.IsOverdue(r.Transaction, now) {
			out = append(out, s.buildResponse(r, now))
		}
	}
	return out, nil
}

// MarkReturned records a return. Idempotent: returning an already
// returned transaction is a no-op, not an error. Allowed regardless of
// overdue-ness.
func (s *Service) MarkReturned(ctx context.Context, ul string) (TransactionResponse, error) {
	r, err := s.fetch(ctx, ul)
	if err != nil {
		return TransactionResponse{}, err
	}

	if r.Status != model.TransactionStatusReturned {
		r.Transaction = availability.MarkReturned(r.Transaction)
		if err := s.store.UpdateStatus(ctx, r.TransactionID, r.Status); err != nil {
			return TransactionResponse{}, model.ErrStore("marking returned", err)
		}
	}
	return s.buildResponse(*r, s.clock.Now()), nil
}

// UpdateReturnDate extends a loan. Only the return date changes; an
// overdue loan is un-overdued purely through derived recomputation.
func (s *Service) UpdateReturnDate(ctx context.Context, ul string, req UpdateReturnDateRequest) (TransactionResponse, error) {
	r, err := s.fetch(ctx, ul)
	if err != nil {
		return TransactionResponse{}, err
	}
	if r.Type != model.TransactionTypeLoan {
		return TransactionResponse{}, model.ErrValidation("only loans have a return date")
	}
	if r.Status == model.TransactionStatusReturned {
		return TransactionResponse{}, model.ErrConflict("loan is already returned")
	}

	now := s.clock.Now()
	var newDate time.Time
	if req.ReturnDate != nil && *req.ReturnDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.ReturnDate)
		if err != nil {
			return TransactionResponse{}, model.ErrValidation("invalid return_date format, expected YYYY-MM-DD")
		}
		newDate = parsed
	} else {
		newDate = now.AddDate(0, 0, s.settings.Current().DefaultLoanDays)
	}

	r.Transaction = availability.ExtendLoan(r.Transaction, newDate)
	if err := s.store.UpdateReturnDate(ctx, r.TransactionID, newDate); err != nil {
		return TransactionResponse{}, model.ErrStore("updating return date", err)
	}
	return s.buildResponse(*r, now), nil
}

// Delete removes a transaction from the ledger. Stock is untouched:
// quantity is total owned and loans never decremented it, so there is
// nothing to restore.
func (s *Service) Delete(ctx context.Context, ul string) error {
	r, err := s.fetch(ctx, ul)
	if err != nil {
		return err
	}
	ok, err := s.store.Delete(ctx, r.TransactionID)
	if err != nil {
		return model.ErrStore("deleting transaction", err)
	}
	if !ok {
		return model.ErrNotFound("transaction not found")
	}
	return nil
}

// ===== helpers =====

func (s *Service) fetch(ctx context.Context, ul string) (*Row, error) {
	r, err := s.store.GetByULID(ctx, ul)
	if err != nil {
		return nil, model.ErrStore("loading transaction", err)
	}
	if r == nil {
		return nil, model.ErrNotFound("transaction not found")
	}
	return r, nil
}

func (s *Service) buildResponse(r Row, now time.Time) TransactionResponse {
	resp := TransactionResponse{
		TransactionULID: r.TransactionULID,
		ItemULID:        r.ItemULID,
		ItemName:        r.ItemName,
		Quantity:        r.Quantity,
		Type:            r.Type,
		Date:            r.Date,
		Status:          availability.TransactionStatus(r.Transaction, now),
		Overdue:         availability.IsOverdue(r.Transaction, now),
		CreatedAt:       r.CreatedAt,
	}
	if r.TeacherName.Valid {
		v := r.TeacherName.String
		resp.TeacherName = &v
	}
	if r.ReturnDate.Valid {
		v := r.ReturnDate.Time
		resp.ReturnDate = &v
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
