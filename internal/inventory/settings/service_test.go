package settings

import (
	"context"
	"fmt"
	"testing"

	"SIMS-backend/internal/inventory/model"
)

type fakeStore struct {
	persisted *model.Settings
	getErr    error
	putErr    error
}

func (f *fakeStore) Get(context.Context) (*model.Settings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.persisted == nil {
		return nil, nil
	}
	cp := *f.persisted
	return &cp, nil
}

func (f *fakeStore) Put(_ context.Context, s model.Settings) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.persisted = &s
	return nil
}

func validSettings() model.Settings {
	return model.Settings{
		LowStockThreshold: 3,
		DefaultLoanDays:   7,
		Currency:          "EUR",
		Language:          "sl",
		Categories:        []string{"Tools", "Art"},
		Sources:           []string{"Purchase"},
		Teachers:          []string{"Ms. Horvat"},
		Locations:         []string{"Cabinet A"},
	}
}

func TestGetSubstitutesDefaultsWhenAbsent(t *testing.T) {
	svc := &Service{store: &fakeStore{}}

	got, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := model.DefaultSettings()
	if got.LowStockThreshold != want.LowStockThreshold || got.DefaultLoanDays != want.DefaultLoanDays {
		t.Errorf("expected defaults, got %+v", got)
	}
	if len(got.Categories) == 0 {
		t.Error("default categories must not be empty")
	}
}

func TestCurrentBeforeLoadIsDefaults(t *testing.T) {
	svc := &Service{store: &fakeStore{}}
	if got := svc.Current(); got.LowStockThreshold != model.DefaultSettings().LowStockThreshold {
		t.Errorf("Current before Load = %+v, want defaults", got)
	}
}

func TestPutPersistsAndRefreshesCache(t *testing.T) {
	store := &fakeStore{}
	svc := &Service{store: store}

	in := validSettings()
	if _, err := svc.Put(context.Background(), in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if store.persisted == nil {
		t.Fatal("settings not persisted")
	}
	if got := svc.Current(); got.LowStockThreshold != 3 || got.Language != "sl" {
		t.Errorf("cache not refreshed: %+v", got)
	}
}

func TestPutValidation(t *testing.T) {
	svc := &Service{store: &fakeStore{}}
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.Settings)
	}{
		{"zero threshold", func(s *model.Settings) { s.LowStockThreshold = 0 }},
		{"zero loan days", func(s *model.Settings) { s.DefaultLoanDays = 0 }},
		{"empty currency", func(s *model.Settings) { s.Currency = " " }},
		{"empty categories", func(s *model.Settings) { s.Categories = nil }},
		{"blank-only locations", func(s *model.Settings) { s.Locations = []string{"  ", ""} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validSettings()
			tc.mutate(&in)
			if _, err := svc.Put(ctx, in); !model.IsCode(err, model.CodeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPutTrimsListEntries(t *testing.T) {
	store := &fakeStore{}
	svc := &Service{store: store}

	in := validSettings()
	in.Teachers = []string{" Ms. Horvat ", "", "Mr. Novak"}
	out, err := svc.Put(context.Background(), in)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if len(out.Teachers) != 2 || out.Teachers[0] != "Ms. Horvat" {
		t.Errorf("teachers not cleaned: %v", out.Teachers)
	}
}

func TestLoadReadsPersisted(t *testing.T) {
	in := validSettings()
	store := &fakeStore{persisted: &in}
	svc := &Service{store: store}

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := svc.Current(); got.DefaultLoanDays != 7 {
		t.Errorf("Current after Load = %+v", got)
	}
}

func TestStoreFailureSurfacesAsStoreError(t *testing.T) {
	svc := &Service{store: &fakeStore{getErr: fmt.Errorf("connection refused")}}
	if err := svc.Load(context.Background()); !model.IsCode(err, model.CodeStore) {
		t.Errorf("expected store error, got %v", err)
	}
}
