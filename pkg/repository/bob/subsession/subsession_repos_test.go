//nolint:funlen // ok for this test code
package subsession

import (
	"context"
	"testing"
	"time"

	"github.com/stephenafamo/bob"
	"gotest.tools/v3/assert"

	"github.com/mpapenbr/pacelock/pkg/model"
	"github.com/mpapenbr/pacelock/pkg/repository/api"
	"github.com/mpapenbr/pacelock/testsupport/basedata"
	"github.com/mpapenbr/pacelock/testsupport/testdb"
)

func TestUpsertAndLoad(t *testing.T) {
	db := bob.NewDB(testdb.InitSqliteDB(t))
	r := NewSubsessionRepository(db)
	ctx := context.Background()
	sample := basedata.SampleSubsession()

	assert.NilError(t, r.Upsert(ctx, sample))

	got, err := r.LoadByID(ctx, sample.ID)
	assert.NilError(t, err)
	assert.Equal(t, got.ID, sample.ID)
	assert.Equal(t, string(got.Data), string(sample.Data))
	assert.Equal(t, got.SessionName(), "Sunday Cup")
}

func TestLoadByIDUnknown(t *testing.T) {
	db := bob.NewDB(testdb.InitSqliteDB(t))
	r := NewSubsessionRepository(db)

	_, err := r.LoadByID(context.Background(), 4711)
	assert.ErrorIs(t, err, api.ErrNoRows)
}

func TestUpsertOverwrites(t *testing.T) {
	db := bob.NewDB(testdb.InitSqliteDB(t))
	r := NewSubsessionRepository(db)
	ctx := context.Background()

	first, err := model.NewSubsession(10,
		[]byte(`{"session_name": "first", "track": {"track_name": "Monza"}}`))
	assert.NilError(t, err)
	second, err := model.NewSubsession(10,
		[]byte(`{"session_name": "second", "track": {"track_name": "Imola"}}`))
	assert.NilError(t, err)

	assert.NilError(t, r.Upsert(ctx, first))
	assert.NilError(t, r.Upsert(ctx, second))

	got, err := r.LoadByID(ctx, 10)
	assert.NilError(t, err)
	assert.Equal(t, string(got.Data), string(second.Data))

	all, err := r.LoadAll(ctx)
	assert.NilError(t, err)
	assert.Equal(t, len(all), 1)
	assert.Equal(t, all[0].SessionName, "second")
	assert.Equal(t, all[0].TrackName, "Imola")
	assert.Assert(t, !all[0].UpdatedAt.Before(all[0].CreatedAt))
}

func TestLoadAll(t *testing.T) {
	db := bob.NewDB(testdb.InitSqliteDB(t))
	r := NewSubsessionRepository(db)
	ctx := context.Background()

	all, err := r.LoadAll(ctx)
	assert.NilError(t, err)
	assert.Equal(t, len(all), 0)

	// higher id first, so the id tie-break alone cannot produce the order
	assert.NilError(t, r.Upsert(ctx, basedata.SampleSubsession()))
	time.Sleep(5 * time.Millisecond)
	assert.NilError(t, r.Upsert(ctx, basedata.FlatSubsession()))

	all, err = r.LoadAll(ctx)
	assert.NilError(t, err)
	assert.Equal(t, len(all), 2)
	assert.Equal(t, all[0].ID, int64(1))
	assert.Equal(t, all[0].StartTime, "")
	assert.Equal(t, all[1].ID, basedata.SampleSubsessionID)
	assert.Equal(t, all[1].TrackName, "Spa-Francorchamps")
	assert.Equal(t, all[1].StartTime, "2025-06-01T18:00:00Z")
	assert.Assert(t, all[0].UpdatedAt.After(all[1].UpdatedAt))

	// a re-fetch moves the subsession to the top
	time.Sleep(5 * time.Millisecond)
	assert.NilError(t, r.Upsert(ctx, basedata.SampleSubsession()))
	all, err = r.LoadAll(ctx)
	assert.NilError(t, err)
	assert.Equal(t, all[0].ID, basedata.SampleSubsessionID)
	assert.Equal(t, all[1].ID, int64(1))
}

func TestLoadAllNullColumns(t *testing.T) {
	sqlDB := testdb.InitSqliteDB(t)
	_, err := sqlDB.Exec(`insert into subsessions
		(subsession_id, data_json, created_at, updated_at) values (7, '{}', 1, 1)`)
	assert.NilError(t, err)

	all, err := NewSubsessionRepository(bob.NewDB(sqlDB)).LoadAll(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, len(all), 1)
	assert.Equal(t, all[0].SessionName, "")
	assert.Equal(t, all[0].TrackName, "")
}

func TestUpsertInTx(t *testing.T) {
	db := bob.NewDB(testdb.InitSqliteDB(t))
	r := NewSubsessionRepository(db)
	ctx := context.Background()

	err := db.RunInTx(ctx, nil, func(ctx context.Context, ex bob.Executor) error {
		return NewSubsessionRepository(ex).Upsert(ctx, basedata.SampleSubsession())
	})
	assert.NilError(t, err)

	_, err = r.LoadByID(ctx, basedata.SampleSubsessionID)
	assert.NilError(t, err)
}
