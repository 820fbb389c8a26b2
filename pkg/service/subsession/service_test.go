//nolint:funlen // ok for this test code
package subsession

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/pacelock/pkg/iracing"
	"github.com/mpapenbr/pacelock/pkg/repository/api"
	"github.com/mpapenbr/pacelock/pkg/repository/factory"
	"github.com/mpapenbr/pacelock/testsupport/basedata"
)

type fakeSource struct {
	payloads    map[int64]string
	laps        []iracing.LapEntry
	err         error
	resultCalls int
	lapDataCust int64
	chartCalls  int
}

func (f *fakeSource) Result(_ context.Context, id int64) ([]byte, error) {
	f.resultCalls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.payloads[id]
	if !ok {
		return nil, iracing.ErrNoData
	}
	return []byte(p), nil
}

func (f *fakeSource) LapData(
	_ context.Context, _ int64, _ int, custID int64,
) ([]iracing.LapEntry, error) {
	f.lapDataCust = custID
	return f.laps, f.err
}

func (f *fakeSource) LapChartData(
	_ context.Context, _ int64, _ int,
) ([]iracing.LapEntry, error) {
	f.chartCalls++
	return f.laps, f.err
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		payloads: map[int64]string{basedata.SampleSubsessionID: basedata.SamplePayload},
		laps: []iracing.LapEntry{
			{CustID: 1, DisplayName: "Alex Driver", LapNumber: 1, LapTime: 1375123},
			{CustID: 1, DisplayName: "Alex Driver", LapNumber: 2, LapTime: -1, Flags: 2},
		},
	}
}

func newTestService(t *testing.T, source ResultSource) *Service {
	t.Helper()
	backend, err := factory.Open(context.Background(),
		filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return NewService(
		WithSource(source),
		WithRepositories(backend.Repos),
		WithTxManager(backend.Tx))
}

func TestLoadStoreGet(t *testing.T) {
	svc := newTestService(t, newFakeSource())
	ctx := context.Background()

	sub, err := svc.Load(ctx, basedata.SampleSubsessionID)
	require.NoError(t, err)
	assert.Equal(t, "Sunday Cup", sub.SessionName())

	require.NoError(t, svc.Store(ctx, sub))
	got, err := svc.Get(ctx, basedata.SampleSubsessionID)
	require.NoError(t, err)
	assert.JSONEq(t, basedata.SamplePayload, string(got.Data))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Spa-Francorchamps", list[0].TrackName)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newTestService(t, newFakeSource()).Load(ctx, 1)
	assert.ErrorIs(t, err, iracing.ErrNoData)

	failing := newFakeSource()
	failing.err = iracing.ErrLegacyAuthRefused
	_, err = newTestService(t, failing).Load(ctx, basedata.SampleSubsessionID)
	assert.ErrorIs(t, err, iracing.ErrLegacyAuthRefused)

	_, err = newTestService(t, nil).Load(ctx, basedata.SampleSubsessionID)
	assert.ErrorIs(t, err, ErrNoSource)

	invalid := newFakeSource()
	invalid.payloads[2] = "[]"
	_, err = newTestService(t, invalid).Load(ctx, 2)
	assert.Error(t, err)
}

func TestGetUnknown(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Get(context.Background(), 99)
	assert.True(t, errors.Is(err, api.ErrNoRows))
}

func TestIngestLaps(t *testing.T) {
	source := newFakeSource()
	svc := newTestService(t, source)
	ctx := context.Background()

	laps, err := svc.IngestLaps(ctx, basedata.SampleSubsessionID, 0, 0)
	require.NoError(t, err)
	require.Len(t, laps, 2)
	assert.Equal(t, 1, source.resultCalls, "subsession is fetched once")
	assert.Equal(t, 1, source.chartCalls)
	assert.Equal(t, "137.5123", laps[0].LapTime.String())
	assert.False(t, laps[1].Valid())

	// subsession is known now, only laps are requested
	_, err = svc.IngestLaps(ctx, basedata.SampleSubsessionID, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, source.resultCalls)
	assert.Equal(t, int64(1), source.lapDataCust)

	stored, err := svc.repos.LapTime().LoadBySubsessionID(ctx, basedata.SampleSubsessionID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestIngestLapsUnknownSubsession(t *testing.T) {
	svc := newTestService(t, newFakeSource())
	_, err := svc.IngestLaps(context.Background(), 5, 0, 0)
	assert.ErrorIs(t, err, iracing.ErrNoData)
}
