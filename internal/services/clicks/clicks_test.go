package clicks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shortlink/internal/domain/models"
	"shortlink/internal/repository/inmemory"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = zerolog.Nop()

func visit(code string) models.VisitLog {
	return models.VisitLog{
		ShortCode: code,
		LongURL:   "http://long.url",
		IP:        "10.0.0.1",
		UserAgent: "test-agent",
		VisitTime: time.Now(),
	}
}

func TestAggregator_FlushCoalescesDeltas(t *testing.T) {
	storage := inmemory.NewStorage()
	_, err := storage.LinkCreate(context.Background(), models.Link{
		OwnerID:   1,
		ShortCode: "abc123",
		LongURL:   "http://long.url",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	agg := NewAggregator(storage, &testLogger, Options{QueueSize: 64, FlushPeriod: time.Hour})
	agg.Start(context.Background())

	for i := 0; i < 10; i++ {
		agg.Record(visit("abc123"))
	}

	// Stop добирает очередь и делает финальный сброс
	agg.Stop()

	link, err := storage.LinkGetByShortCode(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(10), link.ClickCount)
	assert.Len(t, storage.VisitLogs(), 10)
}

func TestAggregator_RecordNeverBlocks(t *testing.T) {
	storage := inmemory.NewStorage()
	agg := NewAggregator(storage, &testLogger, Options{QueueSize: 1, FlushPeriod: time.Hour})
	// нарочно не запускаем: очередь переполняется сразу

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			agg.Record(visit("abc123"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record заблокировался на полной очереди")
	}
}

type flakyStorage struct {
	mu       sync.Mutex
	failing  bool
	clicks   map[string]int64
	visitLog []models.VisitLog
}

func newFlakyStorage() *flakyStorage {
	return &flakyStorage{failing: true, clicks: make(map[string]int64)}
}

func (f *flakyStorage) setFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

func (f *flakyStorage) ClickIncrement(ctx context.Context, shortCode string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("connection refused")
	}
	f.clicks[shortCode] += delta
	return nil
}

func (f *flakyStorage) VisitLogInsertBatch(ctx context.Context, visits []models.VisitLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("connection refused")
	}
	f.visitLog = append(f.visitLog, visits...)
	return nil
}

// At-least-once: неудачный сброс не теряет накопленное, после
// восстановления базы счётчик сходится к истинному числу визитов.
func TestAggregator_RetainsOnFlushFailure(t *testing.T) {
	storage := newFlakyStorage()
	agg := NewAggregator(storage, &testLogger, Options{QueueSize: 64, FlushPeriod: time.Hour})

	for i := 0; i < 5; i++ {
		agg.Record(visit("abc123"))
	}
	agg.drain()

	// первый сброс падает, дельты и журнал остаются в накопленном
	agg.flush(context.Background())
	assert.Equal(t, int64(5), agg.pendingDeltas["abc123"])
	assert.Len(t, agg.pendingVisits, 5)

	storage.setFailing(false)
	agg.flush(context.Background())

	assert.Equal(t, int64(5), storage.clicks["abc123"])
	assert.Len(t, storage.visitLog, 5)
	assert.Empty(t, agg.pendingDeltas)
	assert.Empty(t, agg.pendingVisits)
}
