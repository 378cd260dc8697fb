package disposals

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"SIMS-backend/internal/inventory/model"
	"SIMS-backend/internal/platform/db"
)

type DisposalStore interface {
	ResolveItem(ctx context.Context, itemULID string) (*model.Item, error)
	GetByULID(ctx context.Context, ul string) (*Row, error)
	List(ctx context.Context, f DisposalFilter, p model.Page) ([]Row, int64, error)
	// Insert records a pending disposal; no stock effect.
	Insert(ctx context.Context, d *model.Disposal) error
	// InsertApproved checks and decrements stock and inserts the row
	// as approved, all in one DB transaction.
	InsertApproved(ctx context.Context, d *model.Disposal) error
	// Approve flips pending to approved and applies the decrement, in
	// one DB transaction.
	Approve(ctx context.Context, disposalID, itemID int64, qty int) error
	UpdateStatus(ctx context.Context, disposalID int64, status model.DisposalStatus) error
	// UpdateFields rewrites quantity/reason/date/notes; no stock effect.
	UpdateFields(ctx context.Context, d *model.Disposal) error
	// ReconcileApproved restores the previously disposed amount,
	// validates the new quantity against the restored stock and applies
	// it, atomically: the restored-but-not-reapplied intermediate state
	// is never visible.
	ReconcileApproved(ctx context.Context, d *model.Disposal, oldQty int) error
}

type Store struct{ db *sql.DB }

func NewStore(d *sql.DB) *Store { return &Store{db: d} }

func (s *Store) ResolveItem(ctx context.Context, itemULID string) (*model.Item, error) {
	const q = `SELECT item_id, item_ulid, name, quantity, retired FROM items WHERE item_ulid = ?`
	var m model.Item
	var retired int
	err := s.db.QueryRowContext(ctx, q, itemULID).Scan(&m.ItemID, &m.ItemULID, &m.Name, &m.Quantity, &retired)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Retired = retired != 0
	return &m, nil
}

// lockItem reads the item row FOR UPDATE inside tx.
func lockItem(ctx context.Context, tx db.DBTX, itemID int64) (qty int, err error) {
	const q = `SELECT quantity FROM items WHERE item_id = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, q, itemID).Scan(&qty); err != nil {
		if err == sql.ErrNoRows {
			return 0, model.ErrNotFound("item not found")
		}
		return 0, err
	}
	return qty, nil
}

func adjustItemQuantity(ctx context.Context, tx db.DBTX, itemID int64, delta int) error {
	const q = `UPDATE items SET quantity = quantity + ?, updated_at = NOW(6) WHERE item_id = ?`
	res, err := tx.ExecContext(ctx, q, delta, itemID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return fmt.Errorf("failed to update items.quantity for item %d", itemID)
	}
	return nil
}

const insertQuery = `
	INSERT INTO disposals
	(disposal_ulid, item_id, quantity, reason, date, status, notes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func insertTx(ctx context.Context, tx db.DBTX, d *model.Disposal) error {
	res, err := tx.ExecContext(ctx, insertQuery,
		d.DisposalULID, d.ItemID, d.Quantity, d.Reason, d.Date, d.Status, d.Notes, d.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	d.DisposalID = id
	return nil
}

func (s *Store) Insert(ctx context.Context, d *model.Disposal) error {
	return insertTx(ctx, s.db, d)
}

func (s *Store) InsertApproved(ctx context.Context, d *model.Disposal) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		qty, err := lockItem(ctx, tx, d.ItemID)
		if err != nil {
			return err
		}
		if d.Quantity > qty {
			return model.ErrValidation(fmt.Sprintf("disposal quantity %d exceeds stock %d", d.Quantity, qty))
		}
		if err := adjustItemQuantity(ctx, tx, d.ItemID, -d.Quantity); err != nil {
			return err
		}
		return insertTx(ctx, tx, d)
	})
}

func (s *Store) Approve(ctx context.Context, disposalID, itemID int64, qty int) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		stock, err := lockItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if qty > stock {
			return model.ErrValidation(fmt.Sprintf("disposal quantity %d exceeds stock %d", qty, stock))
		}
		if err := adjustItemQuantity(ctx, tx, itemID, -qty); err != nil {
			return err
		}
		// Guard on status so the decrement can never be applied twice.
		const q = `UPDATE disposals SET status = 'approved' WHERE disposal_id = ? AND status = 'pending'`
		res, err := tx.ExecContext(ctx, q, disposalID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return model.ErrConflict("disposal is not pending")
		}
		return nil
	})
}

func (s *Store) UpdateStatus(ctx context.Context, disposalID int64, status model.DisposalStatus) error {
	const q = `UPDATE disposals SET status = ? WHERE disposal_id = ?`
	_, err := s.db.ExecContext(ctx, q, status, disposalID)
	return err
}

func (s *Store) UpdateFields(ctx context.Context, d *model.Disposal) error {
	const q = `UPDATE disposals SET quantity = ?, reason = ?, date = ?, notes = ? WHERE disposal_id = ?`
	_, err := s.db.ExecContext(ctx, q, d.Quantity, d.Reason, d.Date, d.Notes, d.DisposalID)
	return err
}

func (s *Store) ReconcileApproved(ctx context.Context, d *model.Disposal, oldQty int) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		stock, err := lockItem(ctx, tx, d.ItemID)
		if err != nil {
			return err
		}
		restored := stock + oldQty
		if d.Quantity > restored {
			return model.ErrValidation(fmt.Sprintf("disposal quantity %d exceeds stock %d", d.Quantity, restored))
		}
		if err := adjustItemQuantity(ctx, tx, d.ItemID, oldQty-d.Quantity); err != nil {
			return err
		}
		const q = `UPDATE disposals SET quantity = ?, reason = ?, date = ?, notes = ? WHERE disposal_id = ? AND status = 'approved'`
		res, err := tx.ExecContext(ctx, q, d.Quantity, d.Reason, d.Date, d.Notes, d.DisposalID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return model.ErrConflict("disposal is not approved")
		}
		return nil
	})
}

// ===== queries =====

const rowColumns = `
	d.disposal_id, d.disposal_ulid, d.item_id, d.quantity, d.reason, d.date, d.status, d.notes, d.created_at,
	i.item_ulid, i.name`

func scanRow(row interface{ Scan(...any) error }) (*Row, error) {
	var r Row
	err := row.Scan(
		&r.DisposalID, &r.DisposalULID, &r.ItemID, &r.Quantity, &r.Reason,
		&r.Date, &r.Status, &r.Notes, &r.CreatedAt,
		&r.ItemULID, &r.ItemName,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetByULID(ctx context.Context, ul string) (*Row, error) {
	q := `SELECT ` + rowColumns + `
	FROM disposals d
	JOIN items i ON i.item_id = d.item_id
	WHERE d.disposal_ulid = ?`
	r, err := scanRow(s.db.QueryRowContext(ctx, q, ul))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func (s *Store) List(ctx context.Context, f DisposalFilter, p model.Page) ([]Row, int64, error) {
	p = p.Normalize()

	where := strings.Builder{}
	args := []any{}
	if f.ItemULID != nil {
		where.WriteString(` AND i.item_ulid = ?`)
		args = append(args, *f.ItemULID)
	}
	if f.Status != nil {
		where.WriteString(` AND d.status = ?`)
		args = append(args, *f.Status)
	}
	if f.Reason != nil {
		where.WriteString(` AND d.reason = ?`)
		args = append(args, *f.Reason)
	}
	if f.From != nil {
		where.WriteString(` AND d.date >= ?`)
		args = append(args, *f.From)
	}
	if f.To != nil {
		where.WriteString(` AND d.date < ?`)
		args = append(args, *f.To)
	}

	order := "DESC"
	if p.Order == "asc" {
		order = "ASC"
	}
	q := fmt.Sprintf(`SELECT %s
	FROM disposals d
	JOIN items i ON i.item_id = d.item_id
	WHERE 1=1%s
	ORDER BY d.date %s LIMIT ? OFFSET ?`, rowColumns, where.String(), order)

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
	cq := `SELECT COUNT(*) FROM disposals d JOIN items i ON i.item_id = d.item_id WHERE 1=1` + where.String()
	if err := s.db.QueryRowContext(ctx, cq, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
