//nolint:whitespace // can't make both editor and linter happy
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/pacelock/pkg/model"
)

type lapTimeRepo struct {
	base
}

func (r *lapTimeRepo) ReplaceForSubsession(
	ctx context.Context,
	subsessionID int64,
	laps []*model.LapTime,
) error {
	q := r.querier(ctx)
	if _, err := q.Exec(ctx,
		"delete from lap_times where subsession_id=$1", subsessionID); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, lap := range laps {
		batch.Queue(`
		insert into lap_times (
			subsession_id, driver_id, driver_name, lap_number, lap_time, lap_flags
		) values ($1,$2,$3,$4,$5,$6)`,
			subsessionID, lap.DriverID, lap.DriverName, lap.LapNumber,
			lap.Seconds(), lap.Flags)
	}
	if batch.Len() == 0 {
		return nil
	}
	return q.SendBatch(ctx, batch).Close()
}

func (r *lapTimeRepo) LoadBySubsessionID(
	ctx context.Context,
	subsessionID int64,
) ([]*model.LapTime, error) {
	rows, err := r.querier(ctx).Query(ctx, `
	select subsession_id, driver_id, driver_name, lap_number, lap_time, lap_flags
	from lap_times where subsession_id=$1
	order by driver_id, lap_number
	`, subsessionID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.LapTime, error) {
		var item model.LapTime
		var lapTime float64
		err := row.Scan(&item.SubsessionID, &item.DriverID, &item.DriverName,
			&item.LapNumber, &lapTime, &item.Flags)
		item.LapTime = decimal.NewFromFloat(lapTime)
		return &item, err
	})
}
