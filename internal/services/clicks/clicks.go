package clicks

import (
	"context"
	"sync"
	"time"

	"shortlink/internal/domain/models"

	"github.com/rs/zerolog"
)

// Storage - часть контракта долговременного хранилища, нужная агрегатору.
type Storage interface {
	ClickIncrement(ctx context.Context, shortCode string, delta int64) error
	VisitLogInsertBatch(ctx context.Context, visits []models.VisitLog) error
}

const (
	defaultQueueSize   = 4096
	defaultFlushPeriod = 5 * time.Second
	defaultWorkers     = 4

	// потолок накопленных записей между сбросами, защита от
	// бесконечного роста при лежащей базе
	maxPendingVisits = 65536
)

type Options struct {
	QueueSize   int
	FlushPeriod time.Duration
	Workers     int
}

/*
Aggregator снимает учёт кликов с горячего пути резолва: Record лишь
кладёт событие в буферизованный канал и никогда не блокирует и не
ошибается наружу. Отдельная горутина копит события и периодически
сбрасывает их в базу: инкременты кликов слиты в дельты по коду, журнал
посещений пишется батчем.

Семантика at-least-once: при отказе базы накопленное остаётся в
очереди на повтор, так что после восстановления возможен небольшой
перекос счётчика вверх. Недосчёт при переполнении очереди - осознанная
цена отзывчивости, событие тогда выбрасывается с предупреждением.
*/
type Aggregator struct {
	storage     Storage
	log         *zerolog.Logger
	queue       chan models.VisitLog
	flushPeriod time.Duration
	workers     int

	wg   sync.WaitGroup
	stop chan struct{}

	// доступ только из горутины run
	pendingDeltas map[string]int64
	pendingVisits []models.VisitLog
}

func NewAggregator(storage Storage, log *zerolog.Logger, opts Options) *Aggregator {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.FlushPeriod <= 0 {
		opts.FlushPeriod = defaultFlushPeriod
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}

	return &Aggregator{
		storage:       storage,
		log:           log,
		queue:         make(chan models.VisitLog, opts.QueueSize),
		flushPeriod:   opts.FlushPeriod,
		workers:       opts.Workers,
		stop:          make(chan struct{}),
		pendingDeltas: make(map[string]int64),
	}
}

// Record - fire-and-forget: при полной очереди событие отбрасывается,
// ответ редиректа из-за учёта клика ждать не должен.
func (a *Aggregator) Record(visit models.VisitLog) {
	select {
	case a.queue <- visit:
	default:
		a.log.Warn().Str("short_code", visit.ShortCode).Msg("click queue full, visit dropped")
	}
}

func (a *Aggregator) Start(ctx context.Context) {
	a.wg.Add(1)
	go a.run(ctx)
}

// Stop дожидается финального сброса накопленного.
func (a *Aggregator) Stop() {
	close(a.stop)
	a.wg.Wait()
}

func (a *Aggregator) run(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.flushPeriod)
	defer ticker.Stop()

	for {
		select {
		case visit := <-a.queue:
			a.accumulate(visit)
		case <-ticker.C:
			a.flush(ctx)
		case <-a.stop:
			a.drain()
			a.flush(context.Background())
			return
		case <-ctx.Done():
			a.drain()
			a.flush(context.Background())
			return
		}
	}
}

func (a *Aggregator) accumulate(visit models.VisitLog) {
	a.pendingDeltas[visit.ShortCode]++

	if len(a.pendingVisits) >= maxPendingVisits {
		a.log.Warn().Msg("pending visit log overflow, oldest entry dropped")
		a.pendingVisits = a.pendingVisits[1:]
	}
	a.pendingVisits = append(a.pendingVisits, visit)
}

func (a *Aggregator) drain() {
	for {
		select {
		case visit := <-a.queue:
			a.accumulate(visit)
		default:
			return
		}
	}
}

// flush сбрасывает дельты пулом воркеров и журнал одним батчем.
// Неудачные записи возвращаются в накопленное и уйдут со следующим
// тиком - отсюда at-least-once.
func (a *Aggregator) flush(ctx context.Context) {
	if len(a.pendingDeltas) == 0 && len(a.pendingVisits) == 0 {
		return
	}

	deltas := a.pendingDeltas
	visits := a.pendingVisits
	a.pendingDeltas = make(map[string]int64)
	a.pendingVisits = nil

	type codeDelta struct {
		code  string
		delta int64
	}

	jobs := make(chan codeDelta)
	failed := make(chan codeDelta, len(deltas))

	var workers sync.WaitGroup
	for i := 0; i < a.workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for job := range jobs {
				if err := a.storage.ClickIncrement(ctx, job.code, job.delta); err != nil {
					a.log.Warn().Err(err).Str("short_code", job.code).
						Int64("delta", job.delta).Msg("failed to flush click delta")
					failed <- job
				}
			}
		}()
	}

	for code, delta := range deltas {
		jobs <- codeDelta{code: code, delta: delta}
	}
	close(jobs)
	workers.Wait()
	close(failed)

	for job := range failed {
		a.pendingDeltas[job.code] += job.delta
	}

	if len(visits) > 0 {
		if err := a.storage.VisitLogInsertBatch(ctx, visits); err != nil {
			a.log.Warn().Err(err).Int("visits", len(visits)).Msg("failed to flush visit logs")
			a.pendingVisits = append(visits, a.pendingVisits...)
		}
	}
}
