package postgres

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// repository code runs standalone and inside a unit of work.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MustOpen connects to postgres, retrying the initial ping briefly so the API
// survives a database that is still coming up.
func MustOpen(ctx context.Context, dsn string) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect fail")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	err = backoff.RetryNotify(
		func() error { return pool.Ping(ctx) },
		policy,
		func(err error, next time.Duration) {
			log.Warn().Err(err).Dur("retry_in", next).Msg("db ping failed, retrying")
		},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("db ping fail")
	}
	return pool
}
