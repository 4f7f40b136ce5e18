package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/generator/random"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

type recordingStorage struct {
	mu      sync.Mutex
	stored  []model.Report
	batches int
	failOn  string
}

func (s *recordingStorage) Store(ctx context.Context, report model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && report.Country == s.failOn {
		return errors.New("rejected")
	}
	s.stored = append(s.stored, report)
	return nil
}

func (s *recordingStorage) StoreBatch(ctx context.Context, reports []model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	s.stored = append(s.stored, reports...)
	return nil
}

func (s *recordingStorage) Close() error { return nil }

func TestGenerate_ExactCount(t *testing.T) {
	for _, n := range []int{0, 1, 99, 100, 101, 1000} {
		store := &recordingStorage{}
		eng := NewEngine(random.NewRandomGenerator(random.GeneratorConfig{Seed: 1}), store, EngineConfig{BatchSize: 100})

		require.NoError(t, eng.Generate(context.Background(), n))
		assert.Len(t, store.stored, n, "n=%d", n)
		assert.Equal(t, (n+99)/100, store.batches, "n=%d", n)
	}
}

func TestGenerate_RejectsNegative(t *testing.T) {
	eng := NewEngine(random.NewRandomGenerator(random.GeneratorConfig{}), &recordingStorage{}, EngineConfig{})
	assert.Error(t, eng.Generate(context.Background(), -1))
}

func TestGenerate_NoGenerator(t *testing.T) {
	eng := NewEngine(nil, &recordingStorage{}, EngineConfig{})
	assert.Error(t, eng.Generate(context.Background(), 1))
}

func TestReplay_SendsEveryReport(t *testing.T) {
	reports := make([]model.Report, 0, 50)
	for i := 0; i < 50; i++ {
		reports = append(reports, model.Report{Country: model.Countries[i%len(model.Countries)], Weather: model.Sunny})
	}

	for _, workers := range []int{1, 4} {
		store := &recordingStorage{}
		eng := NewEngine(nil, store, EngineConfig{Workers: workers})

		stats, err := eng.Replay(context.Background(), reports)
		require.NoError(t, err)
		assert.Equal(t, int64(50), stats.Sent)
		assert.Zero(t, stats.Failed)
		assert.ElementsMatch(t, reports, store.stored)
	}
}

func TestReplay_SequentialKeepsOrder(t *testing.T) {
	reports := []model.Report{
		{Country: "GT", Weather: model.Rainy},
		{Country: "MX", Weather: model.Cloudy},
		{Country: "CA", Weather: model.Sunny},
	}
	store := &recordingStorage{}
	eng := NewEngine(nil, store, EngineConfig{Workers: 1, MinWait: time.Millisecond, MaxWait: 2 * time.Millisecond})

	_, err := eng.Replay(context.Background(), reports)
	require.NoError(t, err)
	assert.Equal(t, reports, store.stored)
}

func TestReplay_FailuresDoNotStopRun(t *testing.T) {
	reports := []model.Report{
		{Country: "GT", Weather: model.Rainy},
		{Country: "BR", Weather: model.Rainy},
		{Country: "GT", Weather: model.Sunny},
	}
	store := &recordingStorage{failOn: "BR"}
	eng := NewEngine(nil, store, EngineConfig{})

	stats, err := eng.Replay(context.Background(), reports)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Sent)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestReplay_Cancelled(t *testing.T) {
	reports := make([]model.Report, 100)
	store := &recordingStorage{}
	eng := NewEngine(nil, store, EngineConfig{MinWait: time.Hour, MaxWait: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	stats, err := eng.Replay(ctx, reports)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(1), stats.Sent)
}

func TestThinkTime_Bounds(t *testing.T) {
	eng := NewEngine(nil, &recordingStorage{}, EngineConfig{MinWait: time.Second, MaxWait: 5 * time.Second})
	for i := 0; i < 1000; i++ {
		d := eng.thinkTime()
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 5*time.Second)
	}

	fixed := NewEngine(nil, &recordingStorage{}, EngineConfig{MinWait: 2 * time.Second})
	assert.Equal(t, 2*time.Second, fixed.thinkTime())
}
