package settings

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"SIMS-backend/internal/inventory/model"
)

// Service owns the settings singleton. It caches the current value so
// the items/transactions services can read it synchronously through
// Current(); the cache refreshes on Load and Put, never implicitly.
type Service struct {
	store SettingsStore

	mu      sync.RWMutex
	current model.Settings
	loaded  bool
}

func NewService(d *sql.DB) *Service {
	return &Service{store: NewStore(d)}
}

// Current implements the SettingsProvider the other services depend
// on. Before the first successful Load it hands out the defaults.
func (s *Service) Current() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return model.DefaultSettings()
	}
	return s.current
}

// Load reads the persisted settings into the cache. An absent row is
// not an error: the defaults are substituted and cached.
func (s *Service) Load(ctx context.Context) error {
	persisted, err := s.store.Get(ctx)
	if err != nil {
		return model.ErrStore("loading settings", err)
	}
	val := model.DefaultSettings()
	if persisted != nil {
		val = *persisted
	}

	s.mu.Lock()
	s.current = val
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Get returns the current settings, loading them on first use.
func (s *Service) Get(ctx context.Context) (model.Settings, error) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()

	if !loaded {
		if err := s.Load(ctx); err != nil {
			return model.Settings{}, err
		}
	}
	return s.Current(), nil
}

// Put validates and persists the whole settings document, then
// refreshes the cache. Wholesale replace, no per-field merge.
func (s *Service) Put(ctx context.Context, in model.Settings) (model.Settings, error) {
	if in.LowStockThreshold <= 0 {
		return model.Settings{}, model.ErrValidation("low_stock_threshold must be > 0")
	}
	if in.DefaultLoanDays <= 0 {
		return model.Settings{}, model.ErrValidation("default_loan_days must be > 0")
	}
	if strings.TrimSpace(in.Currency) == "" || strings.TrimSpace(in.Language) == "" {
		return model.Settings{}, model.ErrValidation("currency and language are required")
	}
	for name, list := range map[string][]string{
		"categories": in.Categories,
		"sources":    in.Sources,
		"teachers":   in.Teachers,
		"locations":  in.Locations,
	} {
		if len(cleanList(list)) == 0 {
			return model.Settings{}, model.ErrValidation(name + " must contain at least one entry")
		}
	}
	in.Categories = cleanList(in.Categories)
	in.Sources = cleanList(in.Sources)
	in.Teachers = cleanList(in.Teachers)
	in.Locations = cleanList(in.Locations)

	if err := s.store.Put(ctx, in); err != nil {
		return model.Settings{}, model.ErrStore("saving settings", err)
	}

	s.mu.Lock()
	s.current = in
	s.loaded = true
	s.mu.Unlock()
	return in, nil
}

func cleanList(in []string) []string {
	var out []string
	for _, v := range in {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
