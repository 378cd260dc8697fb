package items

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"SIMS-backend/internal/inventory/model"
)

// ItemStore is what the service needs from persistence. The SQL
// implementation lives below; tests substitute an in-memory fake.
type ItemStore interface {
	Insert(ctx context.Context, m *model.Item) error
	GetByULID(ctx context.Context, ul string) (*model.Item, error)
	List(ctx context.Context, f ItemFilter, p model.Page) ([]model.Item, int64, error)
	Update(ctx context.Context, m *model.Item) error
	HardDelete(ctx context.Context, itemID int64) error
	SetRetired(ctx context.Context, itemID int64, retired bool) error
	HasTransactions(ctx context.Context, itemID int64) (bool, error)
	ActiveLoans(ctx context.Context, itemIDs []int64) ([]model.Transaction, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const itemColumns = `item_id, item_ulid, name, category, type, quantity, cost, item_condition, location, retired, notes, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	var m model.Item
	var retired int
	err := row.Scan(
		&m.ItemID, &m.ItemULID, &m.Name, &m.Category, &m.Type, &m.Quantity,
		&m.Cost, &m.Condition, &m.Location, &retired, &m.Notes,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Retired = retired != 0
	return &m, nil
}

func (s *Store) Insert(ctx context.Context, m *model.Item) error {
	const q = `
	INSERT INTO items
	(item_ulid, name, category, type, quantity, cost, item_condition, location, retired, notes, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, q,
		m.ItemULID, m.Name, m.Category, m.Type, m.Quantity, m.Cost,
		m.Condition, m.Location, m.Notes, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	m.ItemID = id
	return nil
}

func (s *Store) GetByULID(ctx context.Context, ul string) (*model.Item, error) {
	q := `SELECT ` + itemColumns + ` FROM items WHERE item_ulid = ?`
	m, err := scanItem(s.db.QueryRowContext(ctx, q, ul))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (s *Store) List(ctx context.Context, f ItemFilter, p model.Page) ([]model.Item, int64, error) {
	p = p.Normalize()

	where := strings.Builder{}
	where.WriteString(` WHERE 1=1`)
	args := []any{}
	if !f.IncludeRetired {
		where.WriteString(` AND retired = 0`)
	}
	if f.Category != nil {
		where.WriteString(` AND category = ?`)
		args = append(args, *f.Category)
	}
	if f.Type != nil {
		where.WriteString(` AND type = ?`)
		args = append(args, *f.Type)
	}
	if f.Location != nil {
		where.WriteString(` AND location = ?`)
		args = append(args, *f.Location)
	}
	if f.Query != nil {
		where.WriteString(` AND name LIKE ?`)
		args = append(args, "%"+*f.Query+"%")
	}

	order := "DESC"
	if p.Order == "asc" {
		order = "ASC"
	}
	q := fmt.Sprintf(`SELECT %s FROM items%s ORDER BY created_at %s LIMIT ? OFFSET ?`,
		itemColumns, where.String(), order)
	listArgs := append(append([]any{}, args...), p.Limit, p.Offset)

	rows, err := s.db.QueryContext(ctx, q, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Item
	for rows.Next() {
		m, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	cq := `SELECT COUNT(*) FROM items` + where.String()
	if err := s.db.QueryRowContext(ctx, cq, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) Update(ctx context.Context, m *model.Item) error {
	const q = `
	UPDATE items
	SET name = ?, category = ?, type = ?, quantity = ?, cost = ?,
	    item_condition = ?, location = ?, notes = ?, updated_at = ?
	WHERE item_id = ?`

	res, err := s.db.ExecContext(ctx, q,
		m.Name, m.Category, m.Type, m.Quantity, m.Cost,
		m.Condition, m.Location, m.Notes, m.UpdatedAt, m.ItemID,
	)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) HardDelete(ctx context.Context, itemID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE item_id = ?`, itemID)
	return err
}

func (s *Store) SetRetired(ctx context.Context, itemID int64, retired bool) error {
	const q = `UPDATE items SET retired = ?, updated_at = NOW(6) WHERE item_id = ?`
	_, err := s.db.ExecContext(ctx, q, retired, itemID)
	return err
}

func (s *Store) HasTransactions(ctx context.Context, itemID int64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM transactions WHERE item_id = ?)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, q, itemID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ActiveLoans fetches the active loan transactions for the given items
// so the engine can derive loaned/available quantities.
func (s *Store) ActiveLoans(ctx context.Context, itemIDs []int64) ([]model.Transaction, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(itemIDs)), ",")
	q := fmt.Sprintf(`
	SELECT transaction_id, transaction_ulid, item_id, teacher_name, quantity, type, date, return_date, status, notes, created_at
	FROM transactions
	WHERE type = 'loan' AND status = 'active' AND item_id IN (%s)`, placeholders)

	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(
			&t.TransactionID, &t.TransactionULID, &t.ItemID, &t.TeacherName,
			&t.Quantity, &t.Type, &t.Date, &t.ReturnDate, &t.Status, &t.Notes,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
