package disposals

import (
	"context"
	"fmt"
	"testing"
	"time"

	"SIMS-backend/internal/inventory/model"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDGen struct{ n int }

func (g *seqIDGen) NewULID(time.Time) string {
	g.n++
	return fmt.Sprintf("01TESTULID%016d", g.n)
}

// fakeStore mirrors the SQL store's transactional semantics in memory:
// every multi-step mutation validates before touching anything, so a
// failed reconcile leaves quantities exactly as they were.
type fakeStore struct {
	items     map[string]*model.Item
	disposals []*model.Disposal
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[string]*model.Item)}
}

func (f *fakeStore) addItem(ul string, qty int) *model.Item {
	f.nextID++
	m := &model.Item{ItemID: f.nextID, ItemULID: ul, Name: "item " + ul, Type: model.ItemTypeSupply, Quantity: qty}
	f.items[ul] = m
	return m
}

func (f *fakeStore) itemByID(id int64) *model.Item {
	for _, m := range f.items {
		if m.ItemID == id {
			return m
		}
	}
	return nil
}

func (f *fakeStore) ResolveItem(_ context.Context, ul string) (*model.Item, error) {
	m, ok := f.items[ul]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) Insert(_ context.Context, d *model.Disposal) error {
	f.nextID++
	d.DisposalID = f.nextID
	cp := *d
	f.disposals = append(f.disposals, &cp)
	return nil
}

func (f *fakeStore) InsertApproved(ctx context.Context, d *model.Disposal) error {
	item := f.itemByID(d.ItemID)
	if item == nil {
		return model.ErrNotFound("item not found")
	}
	if d.Quantity > item.Quantity {
		return model.ErrValidation(fmt.Sprintf("disposal quantity %d exceeds stock %d", d.Quantity, item.Quantity))
	}
	item.Quantity -= d.Quantity
	return f.Insert(ctx, d)
}

func (f *fakeStore) byID(id int64) *model.Disposal {
	for _, d := range f.disposals {
		if d.DisposalID == id {
			return d
		}
	}
	return nil
}

func (f *fakeStore) Approve(_ context.Context, disposalID, itemID int64, qty int) error {
	item := f.itemByID(itemID)
	if item == nil {
		return model.ErrNotFound("item not found")
	}
	d := f.byID(disposalID)
	if d == nil || d.Status != model.DisposalStatusPending {
		return model.ErrConflict("disposal is not pending")
	}
	if qty > item.Quantity {
		return model.ErrValidation(fmt.Sprintf("disposal quantity %d exceeds stock %d", qty, item.Quantity))
	}
	item.Quantity -= qty
	d.Status = model.DisposalStatusApproved
	return nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, disposalID int64, status model.DisposalStatus) error {
	d := f.byID(disposalID)
	if d == nil {
		return fmt.Errorf("disposal %d not found", disposalID)
	}
	d.Status = status
	return nil
}

func (f *fakeStore) UpdateFields(_ context.Context, upd *model.Disposal) error {
	d := f.byID(upd.DisposalID)
	if d == nil {
		return fmt.Errorf("disposal %d not found", upd.DisposalID)
	}
	d.Quantity, d.Reason, d.Date, d.Notes = upd.Quantity, upd.Reason, upd.Date, upd.Notes
	return nil
}

func (f *fakeStore) ReconcileApproved(_ context.Context, upd *model.Disposal, oldQty int) error {
	item := f.itemByID(upd.ItemID)
	if item == nil {
		return model.ErrNotFound("item not found")
	}
	d := f.byID(upd.DisposalID)
	if d == nil || d.Status != model.DisposalStatusApproved {
		return model.ErrConflict("disposal is not approved")
	}
	restored := item.Quantity + oldQty
	if upd.Quantity > restored {
		return model.ErrValidation(fmt.Sprintf("disposal quantity %d exceeds stock %d", upd.Quantity, restored))
	}
	item.Quantity = restored - upd.Quantity
	d.Quantity, d.Reason, d.Date, d.Notes = upd.Quantity, upd.Reason, upd.Date, upd.Notes
	return nil
}

func (f *fakeStore) rowFor(d *model.Disposal) *Row {
	item := f.itemByID(d.ItemID)
	return &Row{Disposal: *d, ItemULID: item.ItemULID, ItemName: item.Name}
}

func (f *fakeStore) GetByULID(_ context.Context, ul string) (*Row, error) {
	for _, d := range f.disposals {
		if d.DisposalULID == ul {
			return f.rowFor(d), nil
		}
	}
	return nil, nil
}

func (f *fakeStore) List(_ context.Context, _ DisposalFilter, _ model.Page) ([]Row, int64, error) {
	var out []Row
	for _, d := range f.disposals {
		out = append(out, *f.rowFor(d))
	}
	return out, int64(len(out)), nil
}

func newTestService(store *fakeStore) *Service {
	return &Service{store: store, clock: fixedClock{testNow}, id: &seqIDGen{}}
}

func approvedStr() *string {
	s := "approved"
	return &s
}

func createApproved(t *testing.T, svc *Service, itemULID string, qty int) DisposalResponse {
	t.Helper()
	res, err := svc.Create(context.Background(), CreateDisposalRequest{
		ItemULID: itemULID,
		Quantity: qty,
		Reason:   "damaged",
		Status:   approvedStr(),
	})
	if err != nil {
		t.Fatalf("create approved disposal: %v", err)
	}
	return res
}

// Spec scenario: quantity 10, approved disposal of 4 leaves 6; editing
// to 2 restores to 10 then reduces by 2, leaving 8.
func TestApprovedDisposalAndEdit(t *testing.T) {
	store := newFakeStore()
	item := store.addItem("ITEM1", 10)
	svc := newTestService(store)
	ctx := context.Background()

	res := createApproved(t, svc, "ITEM1", 4)
	if res.Status != model.DisposalStatusApproved {
		t.Fatalf("status = %q, want approved", res.Status)
	}
	if item.Quantity != 6 {
		t.Fatalf("quantity after disposal = %d, want 6", item.Quantity)
	}

	newQty := 2
	if _, err := svc.Update(ctx, res.DisposalULID, UpdateDisposalRequest{Quantity: &newQty}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if item.Quantity != 8 {
		t.Errorf("quantity after edit = %d, want 8", item.Quantity)
	}
}

// Edit round trip: edit(d, newQty) then edit(d, originalQty) restores
// the pre-first-edit stock.
func TestEditRoundTrip(t *testing.T) {
	store := newFakeStore()
	item := store.addItem("ITEM1", 10)
	svc := newTestService(store)
	ctx := context.Background()

	res := createApproved(t, svc, "ITEM1", 4)
	before := item.Quantity // 6

	newQty := 2
	if _, err := svc.Update(ctx, res.DisposalULID, UpdateDisposalRequest{Quantity: &newQty}); err != nil {
		t.Fatal(err)
	}
	back := 4
	if _, err := svc.Update(ctx, res.DisposalULID, UpdateDisposalRequest{Quantity: &back}); err != nil {
		t.Fatal(err)
	}
	if item.Quantity != before {
		t.Errorf("round trip quantity = %d, want %d", item.Quantity, before)
	}
}

func TestEditRejectsOverStockAtomically(t *testing.T) {
	store := newFakeStore()
	item := store.addItem("ITEM1", 10)
	svc := newTestService(store)

	res := createApproved(t, svc, "ITEM1", 4) // stock now 6

	// 17 > 6 + 4 restored: must fail and must not leave the restored
	// intermediate state behind.
	tooMany := 17
	_, err := svc.Update(context.Background(), res.DisposalULID, UpdateDisposalRequest{Quantity: &tooMany})
	if !model.IsCode(err, model.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if item.Quantity != 6 {
		t.Errorf("quantity = %d after failed edit, want 6 untouched", item.Quantity)
	}
	// 10 == 6 + 4 restored is the maximum that still fits.
	max := 10
	if _, err := svc.Update(context.Background(), res.DisposalULID, UpdateDisposalRequest{Quantity: &max}); err != nil {
		t.Fatalf("edit to restored maximum: %v", err)
	}
	if item.Quantity != 0 {
		t.Errorf("quantity = %d, want 0", item.Quantity)
	}
}

func TestPendingDisposalHasNoStockEffect(t *testing.T) {
	store := newFakeStore()
	item := store.addItem("ITEM1", 10)
	svc := newTestService(store)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateDisposalRequest{ItemULID: "ITEM1", Quantity: 4, Reason: "expired"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Status != model.DisposalStatusPending {
		t.Fatalf("status = %q, want pending", res.Status)
	}
	if item.Quantity != 10 {
		t.Errorf("pending disposal must not touch stock, quantity = %d", item.Quantity)
	}

	// Approval applies the decrement exactly once.
	if _, err := svc.Approve(ctx, res.DisposalULID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if item.Quantity != 6 {
		t.Fatalf("quantity after approve = %d, want 6", item.Quantity)
	}

	// Second approve: no-op, no second decrement.
	if _, err := svc.Approve(ctx, res.DisposalULID); err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if item.Quantity != 6 {
		t.Errorf("quantity after double approve = %d, want 6", item.Quantity)
	}
}

func TestRejectIsStockNeutralAndTerminal(t *testing.T) {
	store := newFakeStore()
	item := store.addItem("ITEM1", 10)
	svc := newTestService(store)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateDisposalRequest{ItemULID: "ITEM1", Quantity: 4, Reason: "other"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Reject(ctx, res.DisposalULID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if item.Quantity != 10 {
		t.Errorf("reject must not touch stock, quantity = %d", item.Quantity)
	}
	if _, err := svc.Approve(ctx, res.DisposalULID); !model.IsCode(err, model.CodeConflict) {
		t.Errorf("expected conflict approving rejected disposal, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	store := newFakeStore()
	store.addItem("ITEM1", 3)
	svc := newTestService(store)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateDisposalRequest
		code model.Code
	}{
		{"zero quantity", CreateDisposalRequest{ItemULID: "ITEM1", Quantity: 0, Reason: "damaged"}, model.CodeValidation},
		{"bad reason", CreateDisposalRequest{ItemULID: "ITEM1", Quantity: 1, Reason: "vibes"}, model.CodeValidation},
		{"over stock", CreateDisposalRequest{ItemULID: "ITEM1", Quantity: 4, Reason: "damaged"}, model.CodeValidation},
		{"unknown item", CreateDisposalRequest{ItemULID: "NOPE", Quantity: 1, Reason: "damaged"}, model.CodeNotFound},
		{"rejected at creation", CreateDisposalRequest{ItemULID: "ITEM1", Quantity: 1, Reason: "damaged", Status: ptr("rejected")}, model.CodeValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req)
			if !model.IsCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
