package postgres

import (
	"context"
	"database/sql"

	"beacon/internal/core/domain"
)

type ItemRepo struct {
	db *sql.DB
}

func NewItemRepo(db *sql.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

const itemColumns = `id, name, description, price, is_active, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*domain.Item, error) {
	var it domain.Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.IsActive, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *ItemRepo) GetAll(ctx context.Context, activeOnly bool) ([]domain.Item, error) {
	exec := GetExecutor(ctx, r.db)
	query := `SELECT ` + itemColumns + ` FROM items`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY id`
	rows, err := exec.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (r *ItemRepo) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	exec := GetExecutor(ctx, r.db)
	it, err := scanItem(exec.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrItemNotFound
	}
	return it, err
}

func (r *ItemRepo) Create(ctx context.Context, in domain.ItemCreate) (*domain.Item, error) {
	exec := GetExecutor(ctx, r.db)
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return scanItem(exec.QueryRowContext(ctx, `
        INSERT INTO items (name, description, price, is_active)
        VALUES ($1, $2, $3, $4)
        RETURNING `+itemColumns,
		in.Name, in.Description, in.Price, active))
}

func (r *ItemRepo) Update(ctx context.Context, id int64, in domain.ItemUpdate) (*domain.Item, error) {
	exec := GetExecutor(ctx, r.db)
	it, err := scanItem(exec.QueryRowContext(ctx, `
        UPDATE items SET
            name        = COALESCE($2, name),
            description = COALESCE($3, description),
            price       = COALESCE($4, price),
            is_active   = COALESCE($5, is_active),
            updated_at  = now()
        WHERE id = $1
        RETURNING `+itemColumns,
		id, in.Name, in.Description, in.Price, in.IsActive))
	if err == sql.ErrNoRows {
		return nil, domain.ErrItemNotFound
	}
	return it, err
}

func (r *ItemRepo) Delete(ctx context.Context, id int64) (bool, error) {
	exec := GetExecutor(ctx, r.db)
	res, err := exec.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
