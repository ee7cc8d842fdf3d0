package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"charachat/internal/models"
)

const writeTimeout = 5 * time.Second

// ExchangeStore persists exchange records.
type ExchangeStore interface {
	Create(ctx context.Context, ex *models.Exchange) error
}

// Pool writes exchange records off the request path. Record never blocks;
// when the queue is full the record is dropped and logged.
type Pool struct {
	store       ExchangeStore
	queue       chan *models.Exchange
	workerCount int
	logger      *slog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewPool(store ExchangeStore, workerCount, queueSize int, logger *slog.Logger) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		store:       store,
		queue:       make(chan *models.Exchange, queueSize),
		workerCount: workerCount,
		logger:      logger,
	}
}

func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info("started exchange log workers", "count", p.workerCount)
}

// Record queues ex for writing. It is safe to call after Stop.
func (p *Pool) Record(ex *models.Exchange) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return
	}

	select {
	case p.queue <- ex:
	default:
		p.logger.Warn("exchange log queue full, dropping record", "exchange_id", ex.ID, "request_id", ex.RequestID)
	}
}

// Stop stops accepting records, drains the queue and waits for the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for ex := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := p.store.Create(ctx, ex); err != nil {
			p.logger.Error("failed to write exchange record",
				"worker", id,
				"exchange_id", ex.ID,
				"request_id", ex.RequestID,
				"error", err,
			)
		}
		cancel()
	}

	p.logger.Debug("exchange log worker shutting down", "worker", id)
}
