package websocket

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// IdleReaper disconnects devices that stay silent for too long, ending
// their conversations
type IdleReaper struct {
	hub      *Hub
	maxIdle  time.Duration
	interval time.Duration
	logger   *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewIdleReaper creates a reaper that checks every maxIdle/4, at least once a second
func NewIdleReaper(hub *Hub, maxIdle time.Duration, logger *zap.Logger) *IdleReaper {
	return &IdleReaper{
		hub:      hub,
		maxIdle:  maxIdle,
		interval: max(maxIdle/4, time.Second),
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (r *IdleReaper) Start() {
	r.wg.Add(1)
	go r.cleanupLoop()
	r.logger.Info("Idle device reaper started", zap.Duration("maxIdle", r.maxIdle))
}

// Stop gracefully stops the reaper and waits for the loop to exit
func (r *IdleReaper) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		r.wg.Wait()
		r.logger.Info("Idle device reaper stopped")
	})
}

func (r *IdleReaper) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.runCleanup()
		}
	}
}

func (r *IdleReaper) runCleanup() {
	if closed := r.hub.closeIdle(r.maxIdle); closed > 0 {
		r.logger.Info("Closed idle device connections", zap.Int("count", closed))
	}
}
