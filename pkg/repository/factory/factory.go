package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpapenbr/pacelock/log"
	"github.com/mpapenbr/pacelock/pkg/db/migrate"
	"github.com/mpapenbr/pacelock/pkg/db/postgres"
	"github.com/mpapenbr/pacelock/pkg/db/sqlite"
	"github.com/mpapenbr/pacelock/pkg/repository/api"
	bobRepos "github.com/mpapenbr/pacelock/pkg/repository/bob"
	pgRepos "github.com/mpapenbr/pacelock/pkg/repository/postgres"
)

type (
	// Backend bundles the repositories of the configured database.
	Backend struct {
		Repos api.Repositories
		Tx    api.TransactionManager
		close func() error
	}
	Option  func(*options)
	options struct {
		poolOptions []postgres.PoolConfigOption
		log         *log.Logger
	}
)

func WithPoolOptions(opts ...postgres.PoolConfigOption) Option {
	return func(o *options) {
		o.poolOptions = append(o.poolOptions, opts...)
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// IsPostgres reports whether dbURL references a postgres database.
// Everything else is treated as the path of a sqlite file.
func IsPostgres(dbURL string) bool {
	return strings.HasPrefix(dbURL, "postgresql://") ||
		strings.HasPrefix(dbURL, "postgres://")
}

// Open connects to the database referenced by dbURL and makes sure the
// schema exists.
func Open(ctx context.Context, dbURL string, opts ...Option) (*Backend, error) {
	o := &options{log: log.Default().Named("db")}
	for _, opt := range opts {
		opt(o)
	}
	if IsPostgres(dbURL) {
		return openPostgres(ctx, dbURL, o)
	}
	return openSqlite(ctx, sqlite.PathFromURL(dbURL), o)
}

func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

func openSqlite(ctx context.Context, path string, o *options) (*Backend, error) {
	o.log.Debug("opening sqlite database", log.String("path", path))
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Backend{
		Repos: bobRepos.NewRepositoriesFromDB(db),
		Tx:    bobRepos.NewTransactionManagerFromDB(db),
		close: db.Close,
	}, nil
}

func openPostgres(ctx context.Context, dbURL string, o *options) (*Backend, error) {
	o.log.Debug("migrating postgres database")
	if err := migrate.MigrateDb(dbURL); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	pool, err := postgres.InitWithURL(ctx, dbURL, o.poolOptions...)
	if err != nil {
		return nil, err
	}
	return &Backend{
		Repos: pgRepos.NewRepositories(pool),
		Tx:    pgRepos.NewTransactionManager(pool),
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}
