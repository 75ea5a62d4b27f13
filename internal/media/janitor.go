package media

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/models"
)

// Remover deletes assets from the media host.
type Remover interface {
	Remove(ctx context.Context, publicID string) error
}

// JanitorConfig controls the concurrency characteristics of the janitor.
type JanitorConfig struct {
	QueueSize     int
	Workers       int
	RemoveTimeout time.Duration
}

// Janitor removes superseded or orphaned assets in the background so that
// request handlers never wait on the media host for cleanup.
type Janitor struct {
	remover Remover
	logger  *slog.Logger
	timeout time.Duration

	jobs   chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	// mu guards jobs against sends after close.
	mu     sync.RWMutex
	closed bool
}

// NewJanitor starts cfg.Workers goroutines draining the removal queue.
func NewJanitor(remover Remover, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RemoveTimeout <= 0 {
		cfg.RemoveTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &Janitor{
		remover: remover,
		logger:  logger,
		timeout: cfg.RemoveTimeout,
		jobs:    make(chan string, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}
	return j
}

// Discard schedules removal of every asset with a public id. Assets that
// cannot be queued are logged and left behind.
func (j *Janitor) Discard(ctx context.Context, assets ...models.MediaAsset) {
	for _, asset := range assets {
		publicID := strings.TrimSpace(asset.PublicID)
		if publicID == "" {
			continue
		}
		if err := j.enqueue(ctx, publicID); err != nil {
			metrics.MediaOperations.WithLabelValues("discard", "dropped").Inc()
			j.logger.Warn("asset removal not scheduled", "publicId", publicID, "error", err)
		}
	}
}

func (j *Janitor) enqueue(ctx context.Context, publicID string) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return errJanitorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.ctx.Done():
		return errJanitorClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.ctx.Done():
		return errJanitorClosed
	case j.jobs <- publicID:
		return nil
	}
}

// Shutdown stops accepting work and waits for queued removals to finish.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.once.Do(func() {
		j.cancel()
		j.mu.Lock()
		j.closed = true
		close(j.jobs)
		j.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()
	for publicID := range j.jobs {
		j.remove(publicID)
	}
}

func (j *Janitor) remove(publicID string) {
	if j.remover == nil {
		j.logger.Error("asset janitor missing remover", "publicId", publicID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.remover.Remove(ctx, publicID); err != nil {
		j.logger.Error("asset removal failed", "publicId", publicID, "error", err)
		return
	}
	j.logger.Debug("asset removed", "publicId", publicID)
}
