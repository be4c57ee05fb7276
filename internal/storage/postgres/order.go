package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baazardost/billing/internal/domain/order"
)

const (
	listDocsSQL = `SELECT doc FROM orders ORDER BY created_at DESC`
	getDocSQL   = `SELECT doc FROM orders WHERE id = $1`
	upsertSQL   = `INSERT INTO orders (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository reads raw order documents from the JSONB column. The
// documents keep the exact shape the checkout process wrote; normalization
// happens in the domain layer.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// ListDocs returns every stored order document, newest row first.
func (r *OrderRepository) ListDocs(ctx context.Context) ([][]byte, error) {
	rows, err := r.pool.Query(ctx, listDocsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing order documents: %w", err)
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning order document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order documents: %w", err)
	}

	return docs, nil
}

// GetDoc returns the raw document for one order, or order.ErrNotFound.
func (r *OrderRepository) GetDoc(ctx context.Context, id string) ([]byte, error) {
	var doc []byte
	if err := r.pool.QueryRow(ctx, getDocSQL, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("fetching order %q: %w", id, err)
	}
	return doc, nil
}

// UpsertDoc stores a raw order document. Only the seeder writes; the API
// surface is read-only.
func (r *OrderRepository) UpsertDoc(ctx context.Context, id string, doc []byte) error {
	if _, err := r.pool.Exec(ctx, upsertSQL, id, doc); err != nil {
		return fmt.Errorf("upserting order %q: %w", id, err)
	}
	return nil
}
