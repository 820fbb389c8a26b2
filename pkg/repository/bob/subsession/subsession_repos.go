//nolint:whitespace // can't make both editor and linter happy
package subsession

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/sqlite"
	"github.com/stephenafamo/bob/dialect/sqlite/im"
	"github.com/stephenafamo/bob/dialect/sqlite/sm"
	"github.com/stephenafamo/scan"

	"github.com/mpapenbr/pacelock/pkg/model"
	"github.com/mpapenbr/pacelock/pkg/repository/api"
	bobCtx "github.com/mpapenbr/pacelock/pkg/repository/bob/context"
)

const tableName = "subsessions"

type (
	repo struct {
		conn bob.Executor
	}

	subsessionRow struct {
		ID          int64            `db:"subsession_id"`
		SessionName null.Val[string] `db:"session_name"`
		TrackName   null.Val[string] `db:"track_name"`
		StartTime   null.Val[string] `db:"start_time"`
		CreatedAt   int64            `db:"created_at"`
		UpdatedAt   int64            `db:"updated_at"`
	}
)

var _ api.SubsessionRepository = (*repo)(nil)

func NewSubsessionRepository(conn bob.Executor) api.SubsessionRepository {
	return &repo{
		conn: conn,
	}
}

func (r *repo) Upsert(ctx context.Context, subsession *model.Subsession) error {
	stored := subsession.Stored()
	now := time.Now().UTC().UnixMilli()
	q := sqlite.Insert(
		im.Into(tableName,
			"subsession_id", "session_name", "track_name", "start_time",
			"data_json", "created_at", "updated_at"),
		im.Values(sqlite.Arg(
			stored.ID, stored.SessionName, stored.TrackName, stored.StartTime,
			string(subsession.Data), now, now)),
		im.OnConflict("subsession_id").DoUpdate(
			im.SetExcluded("session_name", "track_name", "start_time",
				"data_json", "updated_at"),
		),
	)
	_, err := bob.Exec(ctx, r.getExecutor(ctx), q)
	return err
}

func (r *repo) LoadByID(ctx context.Context, id int64) (*model.Subsession, error) {
	q := sqlite.Select(
		sm.Columns("data_json"),
		sm.From(tableName),
		sm.Where(sqlite.Quote("subsession_id").EQ(sqlite.Arg(id))),
	)
	data, err := bob.One(ctx, r.getExecutor(ctx), q, scan.SingleColumnMapper[string])
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, api.ErrNoRows
		}
		return nil, err
	}
	return model.NewSubsession(id, []byte(data))
}

// LoadAll returns the stored subsessions, most recently fetched first.
func (r *repo) LoadAll(ctx context.Context) ([]*model.StoredSubsession, error) {
	q := sqlite.Select(
		sm.Columns("subsession_id", "session_name", "track_name", "start_time",
			"created_at", "updated_at"),
		sm.From(tableName),
		sm.OrderBy("updated_at").Desc(),
		sm.OrderBy("subsession_id").Desc(),
	)
	rows, err := bob.All(ctx, r.getExecutor(ctx), q,
		scan.StructMapper[subsessionRow]())
	if err != nil {
		return nil, err
	}
	ret := make([]*model.StoredSubsession, 0, len(rows))
	for i := range rows {
		ret = append(ret, toModel(&rows[i]))
	}
	return ret, nil
}

func toModel(row *subsessionRow) *model.StoredSubsession {
	return &model.StoredSubsession{
		ID:          row.ID,
		SessionName: row.SessionName.GetOr(""),
		TrackName:   row.TrackName.GetOr(""),
		StartTime:   row.StartTime.GetOr(""),
		CreatedAt:   time.UnixMilli(row.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMilli(row.UpdatedAt).UTC(),
	}
}

func (r *repo) getExecutor(ctx context.Context) bob.Executor {
	if executor := bobCtx.FromContext(ctx); executor != nil {
		return executor
	}
	return r.conn
}
