package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verte-zerg/epulse/internal/model"
)

type memKV struct {
	data   map[string][]byte
	putErr error
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Put(_ context.Context, key string, value []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type memLog struct {
	results []model.Result
}

func (l *memLog) AppendResult(_ context.Context, r model.Result) error {
	l.results = append(l.results, r)
	return nil
}

type recordingForwarder struct {
	results []model.Result
}

func (f *recordingForwarder) Forward(r model.Result) {
	f.results = append(f.results, r)
}

func TestStoreLoadMissingUsesDefaults(t *testing.T) {
	s := NewStore(newMemKV())
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, Default(), s.State())
}

func TestStoreLoadCorruptSnapshotFallsBack(t *testing.T) {
	kv := newMemKV()
	kv.data[StorageKey] = []byte("{not json")
	core, logs := observer.New(zapcore.WarnLevel)

	s := NewStore(kv, WithLogger(zap.New(core)))
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, Default(), s.State())
	assert.Equal(t, 1, logs.FilterMessage("discarding unreadable analytics snapshot").Len())
}

func TestStoreRecordPersistsLogsAndForwards(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	log := &memLog{}
	fwd := &recordingForwarder{}
	s := NewStore(kv, WithResultLog(log), WithForwarder(fwd), WithClock(func() time.Time { return day(19, 14) }))
	require.NoError(t, s.Load(ctx))

	r := model.Result{ID: "abc", WPM: 42, Accuracy: 96, Duration: 12, TextLength: 44}
	st, err := s.Record(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalTests)
	assert.Equal(t, []model.Result{r}, log.results)
	assert.Equal(t, []model.Result{r}, fwd.results)

	var persisted State
	require.NoError(t, json.Unmarshal(kv.data[StorageKey], &persisted))
	assert.Equal(t, 1, persisted.TotalTests)
	assert.Equal(t, "2026-10-19", persisted.LastActivityDate)
	assert.Equal(t, 1, persisted.TimeOfDayPerformance[Afternoon].Count)

	reloaded := NewStore(kv, WithClock(func() time.Time { return day(19, 20) }))
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, st, reloaded.State())
}

func TestStoreLoadAppliesRollover(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	writer := NewStore(kv, WithClock(func() time.Time { return day(10, 9) }))
	_, err := writer.Record(ctx, result(40, 95, 10))
	require.NoError(t, err)

	reader := NewStore(kv, WithClock(func() time.Time { return day(19, 9) }))
	require.NoError(t, reader.Load(ctx))
	assert.Equal(t, 0, reader.State().TestsToday)
	assert.Equal(t, 0, reader.State().CurrentStreak)
	assert.Equal(t, 1, reader.State().LongestStreak)
}

func TestStoreRecordKeepsStateWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	kv.putErr = errors.New("disk full")
	fwd := &recordingForwarder{}
	s := NewStore(kv, WithForwarder(fwd))

	st, err := s.Record(ctx, result(40, 95, 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, kv.putErr)
	assert.Equal(t, 1, st.TotalTests)
	assert.Equal(t, 1, s.State().TotalTests)
	assert.Len(t, fwd.results, 1)
}

func TestStoreReset(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	log := &memLog{}
	s := NewStore(kv, WithResultLog(log))
	_, err := s.Record(ctx, result(40, 95, 10))
	require.NoError(t, err)
	require.Contains(t, kv.data, StorageKey)

	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, Default(), s.State())
	assert.NotContains(t, kv.data, StorageKey)
	assert.Len(t, log.results, 1)
}
