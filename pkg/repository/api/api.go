package api

import (
	"context"
	"errors"

	"github.com/mpapenbr/pacelock/pkg/model"
)

var ErrNoRows = errors.New("no rows in result set")

type Repositories interface {
	Subsession() SubsessionRepository
	LapTime() LapTimeRepository
}

type SubsessionRepository interface {
	// Upsert inserts the subsession or overwrites the stored one with the same id.
	Upsert(ctx context.Context, subsession *model.Subsession) error
	// LoadByID returns ErrNoRows if there is no subsession with this id.
	LoadByID(ctx context.Context, id int64) (*model.Subsession, error)
	// LoadAll returns the stored subsessions, most recently stored first.
	// A re-fetch moves a subsession to the top.
	LoadAll(ctx context.Context) ([]*model.StoredSubsession, error)
}

type LapTimeRepository interface {
	// ReplaceForSubsession removes existing laps of the subsession before
	// inserting the given ones.
	ReplaceForSubsession(
		ctx context.Context,
		subsessionID int64,
		laps []*model.LapTime,
	) error
	LoadBySubsessionID(ctx context.Context, subsessionID int64) ([]*model.LapTime, error)
}

type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
