package transactions

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SIMS-backend/internal/inventory/availability"
	"SIMS-backend/internal/inventory/model"
	"SIMS-backend/internal/platform/db"
)

type TransactionStore interface {
	ResolveItem(ctx context.Context, itemULID string) (*model.Item, error)
	Insert(ctx context.Context, t *model.Transaction) error
	// InsertChecked validates the quantity against the item's available
	// quantity and inserts, atomically.
	InsertChecked(ctx context.Context, t *model.Transaction) error
	GetByULID(ctx context.Context, ul string) (*Row, error)
	List(ctx context.Context, f TransactionFilter, p model.Page) ([]Row, int64, error)
	ActiveLoans(ctx context.Context, f TransactionFilter) ([]Row, error)
	UpdateStatus(ctx context.Context, id int64, status model.TransactionStatus) error
	UpdateReturnDate(ctx context.Context, id int64, d time.Time) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type Store struct{ db *sql.DB }

func NewStore(d *sql.DB) *Store { return &Store{db: d} }

func (s *Store) ResolveItem(ctx context.Context, itemULID string) (*model.Item, error) {
	const q = `
	SELECT item_id, item_ulid, name, category, type, quantity, cost, item_condition, location, retired, notes, created_at, updated_at
	FROM items WHERE item_ulid = ?`
	var m model.Item
	var retired int
	err := s.db.QueryRowContext(ctx, q, itemULID).Scan(
		&m.ItemID, &m.ItemULID, &m.Name, &m.Category, &m.Type, &m.Quantity,
		&m.Cost, &m.Condition, &m.Location, &retired, &m.Notes,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Retired = retired != 0
	return &m, nil
}

const insertQuery = `
	INSERT INTO transactions
	(transaction_ulid, item_id, teacher_name, quantity, type, date, return_date, status, notes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func insertTx(ctx context.Context, tx db.DBTX, t *model.Transaction) error {
	res, err := tx.ExecContext(ctx, insertQuery,
		t.TransactionULID, t.ItemID, t.TeacherName, t.Quantity, t.Type,
		t.Date, t.ReturnDate, t.Status, t.Notes, t.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	t.TransactionID = id
	return nil
}

func (s *Store) Insert(ctx context.Context, t *model.Transaction) error {
	return insertTx(ctx, s.db, t)
}

// InsertChecked locks the item row, re-reads its active loans and
// rejects when the requested quantity exceeds what is still available.
// The lock plus insert happen in one DB transaction so two concurrent
// loans cannot both pass the check.
func (s *Store) InsertChecked(ctx context.Context, t *model.Transaction) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const lockQ = `SELECT item_id, item_ulid, quantity, retired FROM items WHERE item_id = ? FOR UPDATE`
		var item model.Item
		var retired int
		if err := tx.QueryRowContext(ctx, lockQ, t.ItemID).Scan(
			&item.ItemID, &item.ItemULID, &item.Quantity, &retired,
		); err != nil {
			if err == sql.ErrNoRows {
				return model.ErrNotFound("item not found")
			}
			return err
		}
		item.Retired = retired != 0

		const loansQ = `
		SELECT transaction_id, transaction_ulid, item_id, teacher_name, quantity, type, date, return_date, status, notes, created_at
		FROM transactions
		WHERE item_id = ? AND type = 'loan' AND status = 'active'`
		rows, err := tx.QueryContext(ctx, loansQ, t.ItemID)
		if err != nil {
			return err
		}
		defer rows.Close()

		var active []model.Transaction
		for rows.Next() {
			var a model.Transaction
			if err := rows.Scan(
				&a.TransactionID, &a.TransactionULID, &a.ItemID, &a.TeacherName,
				&a.Quantity, &a.Type, &a.Date, &a.ReturnDate, &a.Status, &a.Notes,
				&a.CreatedAt,
			); err != nil {
				return err
			}
			active = append(active, a)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		if avail := availability.AvailableQuantity(item, active); t.Quantity > avail {
			return model.ErrConflict(fmt.Sprintf("quantity %d exceeds available stock %d", t.Quantity, avail))
		}

		return insertTx(ctx, tx, t)
	})
}

const rowColumns = `
	t.transaction_id, t.transaction_ulid, t.item_id, t.teacher_name, t.quantity, t.type,
	t.date, t.return_date, t.status, t.notes, t.created_at,
	i.item_ulid, i.name`

func scanRow(row interface{ Scan(...any) error }) (*Row, error) {
	var r Row
	err := row.Scan(
		&r.TransactionID, &r.TransactionULID, &r.ItemID, &r.TeacherName,
		&r.Quantity, &r.Type, &r.Date, &r.ReturnDate, &r.Status, &r.Notes,
		&r.CreatedAt, &r.ItemULID, &r.ItemName,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetByULID(ctx context.Context, ul string) (*Row, error) {
	q := `SELECT ` + rowColumns + `
	FROM transactions t
	JOIN items i ON i.item_id = t.item_id
	WHERE t.transaction_ulid = ?`
	r, err := scanRow(s.db.QueryRowContext(ctx, q, ul))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func buildFilter(f TransactionFilter) (string, []any) {
	sb := strings.Builder{}
	args := []any{}
	if f.ItemULID != nil {
		sb.WriteString(` AND i.item_ulid = ?`)
		args = append(args, *f.ItemULID)
	}
	if f.Teacher != nil {
		sb.WriteString(` AND t.teacher_name = ?`)
		args = append(args, *f.Teacher)
	}
	if f.Type != nil {
		sb.WriteString(` AND t.type = ?`)
		args = append(args, *f.Type)
	}
	if f.Status != nil {
		sb.WriteString(` AND t.status = ?`)
		args = append(args, *f.Status)
	}
	if f.From != nil {
		sb.WriteString(` AND t.date >= ?`)
		args = append(args, *f.From)
	}
	if f.To != nil {
		sb.WriteString(` AND t.date < ?`)
		args = append(args, *f.To)
	}
	return sb.String(), args
}

func (s *Store) List(ctx context.Context, f TransactionFilter, p model.Page) ([]Row, int64, error) {
	p = p.Normalize()
	where, args := buildFilter(f)

	order := "DESC"
	if p.Order == "asc" {
		order = "ASC"
	}
	q := fmt.Sprintf(`SELECT %s
	FROM transactions t
	JOIN items i ON i.item_id = t.item_id
	WHERE 1=1%s
	ORDER BY t.date %s LIMIT ? OFFSET ?`, rowColumns, where, order)

	listArgs := append(append([]any{}, args...), p.Limit, p.Offset)
	rows, err := s.db.QueryContext(ctx, q, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	cq := `SELECT COUNT(*) FROM transactions t JOIN items i ON i.item_id = t.item_id WHERE 1=1` + where
	if err := s.db.QueryRowContext(ctx, cq, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ActiveLoans returns all still-active loans matching the filter,
// unpaginated. The service derives overdue-ness with the engine.
func (s *Store) ActiveLoans(ctx context.Context, f TransactionFilter) ([]Row, error) {
	where, args := buildFilter(f)
	q := `SELECT ` + rowColumns + `
	FROM transactions t
	JOIN items i ON i.item_id = t.item_id
	WHERE t.type = 'loan' AND t.status = 'active'` + where

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, status model.TransactionStatus) error {
	const q = `UPDATE transactions SET status = ? WHERE transaction_id = ?`
	_, err := s.db.ExecContext(ctx, q, status, id)
	return err
}

func (s *Store) UpdateReturnDate(ctx context.Context, id int64, d time.Time) error {
	const q = `UPDATE transactions SET return_date = ? WHERE transaction_id = ?`
	_, err := s.db.ExecContext(ctx, q, d, id)
	return err
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE transaction_id = ?`, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}
