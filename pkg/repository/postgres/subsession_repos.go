//nolint:whitespace // can't make both editor and linter happy
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/pacelock/pkg/model"
	"github.com/mpapenbr/pacelock/pkg/repository/api"
)

type subsessionRepo struct {
	base
}

func (r *subsessionRepo) Upsert(ctx context.Context, subsession *model.Subsession) error {
	stored := subsession.Stored()
	_, err := r.querier(ctx).Exec(ctx, `
	insert into subsessions (
		subsession_id, session_name, track_name, start_time, data_json
	) values ($1,$2,$3,$4,$5)
	on conflict (subsession_id) do update set
		session_name=excluded.session_name,
		track_name=excluded.track_name,
		start_time=excluded.start_time,
		data_json=excluded.data_json,
		updated_at=now()
	`,
		stored.ID, stored.SessionName, stored.TrackName, stored.StartTime,
		string(subsession.Data))
	return err
}

func (r *subsessionRepo) LoadByID(ctx context.Context, id int64) (
	*model.Subsession, error,
) {
	row := r.querier(ctx).QueryRow(ctx,
		"select data_json from subsessions where subsession_id=$1", id)
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.ErrNoRows
		}
		return nil, err
	}
	return model.NewSubsession(id, []byte(data))
}

func (r *subsessionRepo) LoadAll(ctx context.Context) (
	[]*model.StoredSubsession, error,
) {
	rows, err := r.querier(ctx).Query(ctx, `
	select subsession_id, coalesce(session_name,''), coalesce(track_name,''),
		coalesce(start_time,''), created_at, updated_at
	from subsessions
	order by updated_at desc, subsession_id desc
	`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (
		*model.StoredSubsession, error,
	) {
		var item model.StoredSubsession
		err := row.Scan(&item.ID, &item.SessionName, &item.TrackName,
			&item.StartTime, &item.CreatedAt, &item.UpdatedAt)
		return &item, err
	})
}
