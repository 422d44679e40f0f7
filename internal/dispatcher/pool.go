package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/normalizer"

	"go.uber.org/zap"
)

// Processor runs one event to completion
type Processor interface {
	Process(ctx context.Context, ev normalizer.Event) Outcome
}

// PoolConfig sizes the worker pool
type PoolConfig struct {
	Workers         int           `yaml:"workers" envconfig:"WORKERS" validate:"gte=1"`
	QueueSize       int           `yaml:"queue_size" envconfig:"QUEUE_SIZE" validate:"gte=1"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// Pool is a bounded queue drained by a fixed set of workers. Submit never
// blocks: a full queue rejects the event.
type Pool struct {
	processor Processor
	cfg       PoolConfig
	queue     chan normalizer.Event

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup

	rejected atomic.Int64
	logger   *zap.Logger
}

// NewPool creates a pool; call Start before Submit.
func NewPool(processor Processor, cfg PoolConfig, logger *zap.Logger) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &Pool{
		processor: processor,
		cfg:       cfg,
		queue:     make(chan normalizer.Event, cfg.QueueSize),
		logger:    logger,
	}
}

// Start launches the workers. Events are processed with ctx as parent; it
// should outlive Shutdown so queued events can drain.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.logger.Info("Dispatch pool started",
		zap.Int("workers", p.cfg.Workers),
		zap.Int("queue_size", p.cfg.QueueSize))
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for ev := range p.queue {
		out := p.processor.Process(ctx, ev)
		p.logger.Debug("Unit of work finished",
			zap.Int("worker", id),
			zap.String("event_id", out.EventID),
			zap.String("state", string(out.State)))
	}
}

// Submit enqueues ev. It returns ErrQueueFull when the queue has no room and
// ErrPoolClosed once Shutdown has started.
func (p *Pool) Submit(ev normalizer.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queue <- ev:
		return nil
	default:
		p.rejected.Add(1)
		return ErrQueueFull
	}
}

// QueueDepth returns the number of events waiting for a worker
func (p *Pool) QueueDepth() int {
	return len(p.queue)
}

// Rejected returns how many events were refused because the queue was full
func (p *Pool) Rejected() int64 {
	return p.rejected.Load()
}

// Shutdown stops intake and waits for queued and in-flight events, bounded
// by ctx and the configured shutdown timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	started := p.started
	p.mu.Unlock()

	if !started {
		return nil
	}

	if p.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ShutdownTimeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Dispatch pool drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatch pool shutdown: %d events still queued: %w", len(p.queue), ctx.Err())
	}
}
