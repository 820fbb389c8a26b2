//nolint:whitespace // can't make both editor and linter happy
package laptime

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/sqlite"
	"github.com/stephenafamo/bob/dialect/sqlite/dialect"
	"github.com/stephenafamo/bob/dialect/sqlite/dm"
	"github.com/stephenafamo/bob/dialect/sqlite/im"
	"github.com/stephenafamo/bob/dialect/sqlite/sm"
	"github.com/stephenafamo/scan"

	"github.com/mpapenbr/pacelock/pkg/model"
	"github.com/mpapenbr/pacelock/pkg/repository/api"
	bobCtx "github.com/mpapenbr/pacelock/pkg/repository/bob/context"
)

const (
	tableName = "lap_times"
	// keeps the number of bind variables per statement well below the
	// sqlite limit
	insertBatchSize = 500
)

type (
	repo struct {
		conn bob.Executor
	}

	lapRow struct {
		SubsessionID int64   `db:"subsession_id"`
		DriverID     int64   `db:"driver_id"`
		DriverName   string  `db:"driver_name"`
		LapNumber    int     `db:"lap_number"`
		LapTime      float64 `db:"lap_time"`
		LapFlags     int     `db:"lap_flags"`
	}
)

var _ api.LapTimeRepository = (*repo)(nil)

func NewLapTimeRepository(conn bob.Executor) api.LapTimeRepository {
	return &repo{
		conn: conn,
	}
}

// ReplaceForSubsession should run inside a transaction (see
// api.TransactionManager) to keep delete and insert atomic.
func (r *repo) ReplaceForSubsession(
	ctx context.Context,
	subsessionID int64,
	laps []*model.LapTime,
) error {
	exec := r.getExecutor(ctx)
	del := sqlite.Delete(
		dm.From(tableName),
		dm.Where(sqlite.Quote("subsession_id").EQ(sqlite.Arg(subsessionID))),
	)
	if _, err := bob.Exec(ctx, exec, del); err != nil {
		return err
	}

	now := time.Now().UTC().UnixMilli()
	for _, batch := range lo.Chunk(laps, insertBatchSize) {
		mods := []bob.Mod[*dialect.InsertQuery]{
			im.Into(tableName,
				"subsession_id", "driver_id", "driver_name", "lap_number",
				"lap_time", "lap_flags", "created_at"),
		}
		for _, lap := range batch {
			mods = append(mods, im.Values(sqlite.Arg(
				subsessionID, lap.DriverID, lap.DriverName, lap.LapNumber,
				lap.Seconds(), lap.Flags, now)))
		}
		if _, err := bob.Exec(ctx, exec, sqlite.Insert(mods...)); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) LoadBySubsessionID(
	ctx context.Context,
	subsessionID int64,
) ([]*model.LapTime, error) {
	q := sqlite.Select(
		sm.Columns("subsession_id", "driver_id", "driver_name", "lap_number",
			"lap_time", "lap_flags"),
		sm.From(tableName),
		sm.Where(sqlite.Quote("subsession_id").EQ(sqlite.Arg(subsessionID))),
		sm.OrderBy("driver_id").Asc(),
		sm.OrderBy("lap_number").Asc(),
	)
	rows, err := bob.All(ctx, r.getExecutor(ctx), q, scan.StructMapper[lapRow]())
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row lapRow, _ int) *model.LapTime {
		return &model.LapTime{
			SubsessionID: row.SubsessionID,
			DriverID:     row.DriverID,
			DriverName:   row.DriverName,
			LapNumber:    row.LapNumber,
			LapTime:      decimal.NewFromFloat(row.LapTime),
			Flags:        row.LapFlags,
		}
	}), nil
}

func (r *repo) getExecutor(ctx context.Context) bob.Executor {
	if executor := bobCtx.FromContext(ctx); executor != nil {
		return executor
	}
	return r.conn
}
