package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"charachat/internal/models"
)

type ExchangeRepo struct {
	pool *pgxpool.Pool
}

func NewExchangeRepo(pool *pgxpool.Pool) *ExchangeRepo {
	return &ExchangeRepo{pool: pool}
}

func (r *ExchangeRepo) Create(ctx context.Context, ex *models.Exchange) error {
	query := `INSERT INTO exchanges (id, request_id, transport, message, reply, status, upstream_status, error, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		ex.ID, ex.RequestID, ex.Transport, ex.Message, ex.Reply,
		ex.Status, ex.UpstreamStatus, ex.Error, ex.DurationMS, ex.CreatedAt,
	)
	return err
}

// SQLiteExchangeRepo is the file-backed variant used with sqlite:// URLs.
type SQLiteExchangeRepo struct {
	db *sql.DB
}

func NewSQLiteExchangeRepo(db *sql.DB) *SQLiteExchangeRepo {
	return &SQLiteExchangeRepo{db: db}
}

func (r *SQLiteExchangeRepo) Create(ctx context.Context, ex *models.Exchange) error {
	query := `INSERT INTO exchanges (id, request_id, transport, message, reply, status, upstream_status, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		ex.ID.String(), ex.RequestID, ex.Transport, ex.Message, ex.Reply,
		ex.Status, ex.UpstreamStatus, ex.Error, ex.DurationMS, ex.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}
