package services

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"resumeats/analyzer/internal/repositories"
)

// CleanupScheduler prunes analysis records past their retention window on a
// fixed interval. Uploaded resume bytes are never stored, so records are the
// only thing to reap.
type CleanupScheduler interface {
	Start()
	Stop()
}

type cleanupScheduler struct {
	repo      repositories.AnalysisRepository
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
	stopChan  chan struct{}
}

func NewCleanupScheduler(repo repositories.AnalysisRepository, interval, retention time.Duration, logger *zap.Logger) CleanupScheduler {
	return &cleanupScheduler{
		repo:      repo,
		interval:  interval,
		retention: retention,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start implements CleanupScheduler.
func (c *cleanupScheduler) Start() {
	c.wg.Add(1)
	go c.run()
	c.logger.Info("cleanup scheduler started",
		zap.Duration("interval", c.interval),
		zap.Duration("retention", c.retention),
	)
}

// Stop implements CleanupScheduler.
func (c *cleanupScheduler) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("cleanup scheduler stopped")
}

func (c *cleanupScheduler) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-c.retention)
			deleted, err := c.repo.DeleteOlderThan(cutoff)
			if err != nil {
				c.logger.Warn("cleanup sweep failed", zap.Error(err))
				continue
			}
			if deleted > 0 {
				c.logger.Info("pruned old analysis records", zap.Int64("deleted", deleted))
			}
		}
	}
}
