package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

type fakeReader struct {
	mu        sync.Mutex
	pending   []kafka.Message
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.pending) > 0 {
		m := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Stats() kafka.ReaderStats { return kafka.ReaderStats{} }

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type fakeStorage struct {
	mu      sync.Mutex
	err     error
	calls   int
	reports []model.Report
}

func (s *fakeStorage) Store(ctx context.Context, report model.Report) error {
	return s.StoreBatch(ctx, []model.Report{report})
}

func (s *fakeStorage) StoreBatch(ctx context.Context, reports []model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.reports = append(s.reports, reports...)
	return nil
}

func (s *fakeStorage) Close() error { return nil }

func (s *fakeStorage) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func messages(values ...string) []kafka.Message {
	msgs := make([]kafka.Message, len(values))
	for i, v := range values {
		msgs[i] = kafka.Message{Offset: int64(i), Value: []byte(v)}
	}
	return msgs
}

func newTestConsumer(r *fakeReader, s *fakeStorage, size int) *Consumer {
	return &Consumer{
		reader:        r,
		storage:       s,
		batchSize:     size,
		flushInterval: time.Hour,
		retryPause:    50 * time.Millisecond,
	}
}

func startConsumer(ctx context.Context, c *Consumer) <-chan error {
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()
	return done
}

func waitStopped(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
		return nil
	}
}

func TestStart_StoresAndCommitsFullBatch(t *testing.T) {
	r := &fakeReader{pending: messages(
		`{"description":"a","country":"GT","weather":"lluvioso"}`,
		`not json`,
		`{"description":"b","country":"MX","weather":"soleado"}`,
	)}
	s := &fakeStorage{}
	c := newTestConsumer(r, s, 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := startConsumer(ctx, c)

	assert.Eventually(t, func() bool { return r.commits() == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, waitStopped(t, done), context.Canceled)

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.reports, 2)
	assert.Equal(t, "GT", s.reports[0].Country)
	assert.Equal(t, "MX", s.reports[1].Country)
}

func TestStart_FlushesPartialBatchOnInterval(t *testing.T) {
	r := &fakeReader{pending: messages(`{"country":"BR","weather":"nubloso"}`)}
	s := &fakeStorage{}
	c := newTestConsumer(r, s, 100)
	c.flushInterval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := startConsumer(ctx, c)

	assert.Eventually(t, func() bool { return r.commits() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	waitStopped(t, done)
}

func TestStart_FailedFlushPausesAndStopsOnCancel(t *testing.T) {
	r := &fakeReader{pending: messages(
		`{"country":"GT","weather":"lluvioso"}`,
		`{"country":"CO","weather":"soleado"}`,
	)}
	s := &fakeStorage{err: errors.New("opensearch unavailable")}
	c := newTestConsumer(r, s, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := startConsumer(ctx, c)

	assert.Eventually(t, func() bool { return s.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, waitStopped(t, done), context.Canceled)

	// One attempt per pause, not a busy loop.
	assert.LessOrEqual(t, s.callCount(), 10)
	assert.Zero(t, r.commits())

	// The full batch is retried instead of fetching past it.
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Len(t, r.pending, 1)
}

func TestStart_CancelledBeforeStart(t *testing.T) {
	r := &fakeReader{pending: messages(`{"country":"GT","weather":"lluvioso"}`)}
	s := &fakeStorage{}
	c := newTestConsumer(r, s, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Start(ctx), context.Canceled)
	assert.Zero(t, s.callCount())
}
