package postgres

import (
	"context"
	"fmt"

	"github.com/expotrade/server/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements storage.Repository with a PostgreSQL backend.
type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Users() storage.UserRepository {
	return &UserRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Tokens() storage.TokenRepository {
	return &TokenRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Exhibitors() storage.ExhibitorRepository {
	return &ExhibitorRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Visitors() storage.VisitorRepository {
	return &VisitorRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Categories() storage.CategoryRepository {
	return &CategoryRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Events() storage.EventRepository {
	return &EventRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Gallery() storage.GalleryRepository {
	return &GalleryRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// queryer is satisfied by both the pool and an open transaction.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func pick(pool *pgxpool.Pool, tx pgx.Tx) queryer {
	if tx != nil {
		return tx
	}
	return pool
}
