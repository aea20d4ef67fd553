package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
)

// StorageCleanupConfig holds configuration for the retention worker
type StorageCleanupConfig struct {
	SweepInterval time.Duration
	RetentionDays int
	Prefix        string
}

// DefaultStorageCleanupConfig returns default configuration
func DefaultStorageCleanupConfig() StorageCleanupConfig {
	return StorageCleanupConfig{
		SweepInterval: 24 * time.Hour,
		RetentionDays: 365,
		Prefix:        "rma",
	}
}

// StorageCleanupWorker deletes evidence and label files older than the
// retention window. RMA rows and audit entries are never touched.
type StorageCleanupWorker struct {
	config  StorageCleanupConfig
	storage port.FileStorage
	logger  *zap.Logger

	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	isRunning    bool
	deletedTotal int
	lastSweep    time.Time
	lastError    error
}

// NewStorageCleanupWorker creates a new retention worker
func NewStorageCleanupWorker(config StorageCleanupConfig, storage port.FileStorage, logger *zap.Logger) *StorageCleanupWorker {
	return &StorageCleanupWorker{
		config:  config,
		storage: storage,
		logger:  logger,
	}
}

// Start begins the sweep loop
func (w *StorageCleanupWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("storage cleanup worker already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("StorageCleanupWorker started",
		zap.Duration("sweep_interval", w.config.SweepInterval),
		zap.Int("retention_days", w.config.RetentionDays))

	go w.sweepLoop()

	return nil
}

// Stop gracefully terminates the worker
func (w *StorageCleanupWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}

	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	w.logger.Info("StorageCleanupWorker stopped",
		zap.Int("deleted_total", w.deletedTotal))

	return nil
}

// Name returns the worker name for identification
func (w *StorageCleanupWorker) Name() string {
	return "StorageCleanupWorker"
}

func (w *StorageCleanupWorker) sweepLoop() {
	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	// Sweep once at startup so a long interval does not delay the first pass
	w.sweep()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Sweep loop context cancelled")
			return

		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *StorageCleanupWorker) sweep() {
	ctx := w.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -w.config.RetentionDays)

	deleted, err := w.storage.DeleteOlderThan(ctx, w.config.Prefix, cutoff)

	w.mu.Lock()
	w.lastSweep = time.Now()
	w.lastError = err
	w.deletedTotal += deleted
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("Retention sweep failed", zap.Error(err))
		return
	}

	if deleted > 0 {
		w.logger.Info("Retention sweep completed",
			zap.Int("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
}

// Verify interface compliance
var _ Worker = (*StorageCleanupWorker)(nil)
