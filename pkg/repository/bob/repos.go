package bob

import (
	"database/sql"

	"github.com/stephenafamo/bob"

	"github.com/mpapenbr/pacelock/pkg/repository/api"
	"github.com/mpapenbr/pacelock/pkg/repository/bob/laptime"
	"github.com/mpapenbr/pacelock/pkg/repository/bob/subsession"
)

type bobRepositories struct {
	subsessionRepository api.SubsessionRepository
	lapTimeRepository    api.LapTimeRepository
}

var _ api.Repositories = (*bobRepositories)(nil)

func NewRepositoriesFromDB(db *sql.DB) api.Repositories {
	return NewRepositories(bob.NewDB(db))
}

func NewRepositories(db bob.DB) api.Repositories {
	return &bobRepositories{
		subsessionRepository: subsession.NewSubsessionRepository(db),
		lapTimeRepository:    laptime.NewLapTimeRepository(db),
	}
}

func (r *bobRepositories) Subsession() api.SubsessionRepository {
	return r.subsessionRepository
}

func (r *bobRepositories) LapTime() api.LapTimeRepository {
	return r.lapTimeRepository
}
