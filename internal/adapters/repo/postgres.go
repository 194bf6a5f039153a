package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"linkedin-outreach/internal/domain"
	"linkedin-outreach/internal/infra/metrics"
)

// Postgres журнал попыток аутрича на основе pgxpool.
//
// Схема:
//
//	CREATE TABLE outreach_log (
//	    id          BIGSERIAL PRIMARY KEY,
//	    profile_key TEXT NOT NULL,
//	    recipient   TEXT NOT NULL,
//	    status      TEXT NOT NULL,
//	    cached      BOOLEAN NOT NULL DEFAULT FALSE,
//	    tokens_used INT NOT NULL DEFAULT 0,
//	    cost        DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.OutreachRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// SaveAttempt записывает исход одной попытки аутрича.
func (p *Postgres) SaveAttempt(ctx context.Context, rec domain.OutreachRecord) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO outreach_log (profile_key, recipient, status, cached, tokens_used, cost, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, rec.ProfileKey, rec.Recipient, rec.Status, rec.Cached, rec.TokensUsed, rec.Cost, rec.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "outreach_log_insert", "outreach_log", start, err)
	return err
}

// ListForDate возвращает попытки за календарный день UTC.
func (p *Postgres) ListForDate(ctx context.Context, date string) ([]domain.OutreachRecord, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, profile_key, recipient, status, cached, tokens_used, cost, created_at
FROM outreach_log
WHERE created_at >= $1::date AND created_at < $1::date + INTERVAL '1 day'
ORDER BY created_at
`, date)
	metrics.ObserveNetworkRequest("postgres", "outreach_log_select", "outreach_log", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.OutreachRecord
	for rows.Next() {
		var rec domain.OutreachRecord
		if err := rows.Scan(&rec.ID, &rec.ProfileKey, &rec.Recipient, &rec.Status, &rec.Cached, &rec.TokensUsed, &rec.Cost, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
