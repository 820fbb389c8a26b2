package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/pacelock/pkg/repository/api"
)

type (
	pgRepositories struct {
		subsession *subsessionRepo
		lapTime    *lapTimeRepo
	}
	pgTransaction struct {
		pool *pgxpool.Pool
	}
)

var (
	_ api.Repositories       = (*pgRepositories)(nil)
	_ api.TransactionManager = (*pgTransaction)(nil)
)

func NewRepositories(pool *pgxpool.Pool) api.Repositories {
	return &pgRepositories{
		subsession: &subsessionRepo{base{pool: pool}},
		lapTime:    &lapTimeRepo{base{pool: pool}},
	}
}

func (r *pgRepositories) Subsession() api.SubsessionRepository {
	return r.subsession
}

func (r *pgRepositories) LapTime() api.LapTimeRepository {
	return r.lapTime
}

func NewTransactionManager(pool *pgxpool.Pool) api.TransactionManager {
	return &pgTransaction{pool: pool}
}

//nolint:whitespace //editor/linter issue
func (t *pgTransaction) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context) error,
) error {
	return pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		return fn(newContext(ctx, tx))
	})
}
