package bob

import (
	"context"
	"database/sql"

	"github.com/stephenafamo/bob"

	"github.com/mpapenbr/pacelock/pkg/repository/api"
	bobCtx "github.com/mpapenbr/pacelock/pkg/repository/bob/context"
)

type bobTransaction struct {
	db bob.DB
}

var _ api.TransactionManager = (*bobTransaction)(nil)

func NewTransactionManager(db bob.DB) api.TransactionManager {
	return &bobTransaction{
		db: db,
	}
}

// the contract with the repositories is:
// we put the current executor into the context, the repository should first look
// in the context for an executor and then use it to execute queries
//
//nolint:whitespace //editor/linter issue
func (b *bobTransaction) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context) error,
) error {
	return b.db.RunInTx(ctx, nil, func(ctx context.Context, e bob.Executor) error {
		return fn(bobCtx.NewContext(ctx, e))
	})
}

func NewTransactionManagerFromDB(db *sql.DB) api.TransactionManager {
	return NewTransactionManager(bob.NewDB(db))
}
