package subsession

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/mpapenbr/pacelock/log"
	"github.com/mpapenbr/pacelock/pkg/iracing"
	"github.com/mpapenbr/pacelock/pkg/model"
	"github.com/mpapenbr/pacelock/pkg/repository/api"
)

var ErrNoSource = errors.New("no result source configured")

// ResultSource provides subsession data. *iracing.Client implements it.
type ResultSource interface {
	Result(ctx context.Context, subsessionID int64) ([]byte, error)
	LapData(
		ctx context.Context, subsessionID int64, simsession int, custID int64,
	) ([]iracing.LapEntry, error)
	LapChartData(
		ctx context.Context, subsessionID int64, simsession int,
	) ([]iracing.LapEntry, error)
}

var _ ResultSource = (*iracing.Client)(nil)

type (
	Service struct {
		source ResultSource
		repos  api.Repositories
		tx     api.TransactionManager
		log    *log.Logger
	}
	Option func(*Service)
)

func WithSource(source ResultSource) Option {
	return func(s *Service) {
		s.source = source
	}
}

func WithRepositories(repos api.Repositories) Option {
	return func(s *Service) {
		s.repos = repos
	}
}

func WithTxManager(tx api.TransactionManager) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

func NewService(opts ...Option) *Service {
	ret := &Service{
		log: log.Default().Named("subsession"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Load fetches a subsession from the result source.
func (s *Service) Load(ctx context.Context, id int64) (*model.Subsession, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	data, err := s.source.Result(ctx, id)
	if err != nil {
		return nil, err
	}
	ret, err := model.NewSubsession(id, data)
	if err != nil {
		return nil, err
	}
	s.log.Info("loaded subsession",
		log.Int64("subsessionID", id),
		log.String("session", ret.SessionName()),
		log.String("track", ret.TrackName()),
		log.Int("entries", len(ret.Results())))
	return ret, nil
}

// Store inserts or overwrites the subsession in the store.
func (s *Service) Store(ctx context.Context, subsession *model.Subsession) error {
	if err := s.repos.Subsession().Upsert(ctx, subsession); err != nil {
		s.log.Error("failed to store subsession",
			log.Int64("subsessionID", subsession.ID), log.ErrorField(err))
		return fmt.Errorf("store subsession %d: %w", subsession.ID, err)
	}
	s.log.Debug("stored subsession", log.Int64("subsessionID", subsession.ID))
	return nil
}

// Get returns a stored subsession. The error wraps api.ErrNoRows if the
// subsession is not stored.
func (s *Service) Get(ctx context.Context, id int64) (*model.Subsession, error) {
	ret, err := s.repos.Subsession().LoadByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("subsession %d: %w", id, err)
	}
	return ret, nil
}

func (s *Service) List(ctx context.Context) ([]*model.StoredSubsession, error) {
	return s.repos.Subsession().LoadAll(ctx)
}

// LoadLaps fetches the laps of a simsession. If custID is 0 the laps of all
// drivers are requested.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *Service) LoadLaps(
	ctx context.Context,
	id int64,
	simsession int,
	custID int64,
) ([]*model.LapTime, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	var entries []iracing.LapEntry
	var err error
	if custID != 0 {
		entries, err = s.source.LapData(ctx, id, simsession, custID)
	} else {
		entries, err = s.source.LapChartData(ctx, id, simsession)
	}
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(e iracing.LapEntry, _ int) *model.LapTime {
		return &model.LapTime{
			SubsessionID: id,
			DriverID:     e.CustID,
			DriverName:   e.Driver(),
			LapNumber:    e.LapNumber,
			LapTime:      model.LapTimeFromAPI(e.LapTime),
			Flags:        e.Flags,
		}
	}), nil
}

// StoreLaps replaces the stored laps of the subsession.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *Service) StoreLaps(
	ctx context.Context,
	id int64,
	laps []*model.LapTime,
) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.repos.LapTime().ReplaceForSubsession(ctx, id, laps)
	})
}

// IngestLaps loads laps from the result source and stores them. The
// subsession itself is fetched and stored first if it is not yet known.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *Service) IngestLaps(
	ctx context.Context,
	id int64,
	simsession int,
	custID int64,
) ([]*model.LapTime, error) {
	if _, err := s.repos.Subsession().LoadByID(ctx, id); err != nil {
		if !errors.Is(err, api.ErrNoRows) {
			return nil, err
		}
		s.log.Info("subsession not stored yet, loading it",
			log.Int64("subsessionID", id))
		sub, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.Store(ctx, sub); err != nil {
			return nil, err
		}
	}
	laps, err := s.LoadLaps(ctx, id, simsession, custID)
	if err != nil {
		return nil, err
	}
	if err := s.StoreLaps(ctx, id, laps); err != nil {
		return nil, fmt.Errorf("store laps of subsession %d: %w", id, err)
	}
	s.log.Info("stored laps", log.Int64("subsessionID", id), log.Int("laps", len(laps)))
	return laps, nil
}
