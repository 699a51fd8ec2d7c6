package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staffrep-bot/internal/service"
)

// LeaderboardWorker periodically mirrors the points leaderboard into its
// dedicated channel message.
type LeaderboardWorker struct {
	leaderboard *service.LeaderboardService
	interval    time.Duration
	logger      *zap.Logger
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewLeaderboardWorker constructs the worker.
func NewLeaderboardWorker(leaderboard *service.LeaderboardService, interval time.Duration, logger *zap.Logger) *LeaderboardWorker {
	return &LeaderboardWorker{
		leaderboard: leaderboard,
		interval:    interval,
		logger:      logger,
	}
}

// Start launches the mirror loop. The first mirror runs immediately so the
// channel message is fresh after a restart.
func (w *LeaderboardWorker) Start(ctx context.Context) {
	if w.stopCh != nil {
		return
	}
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go func() {
		defer close(w.doneCh)

		w.mirror(ctx)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.mirror(ctx)
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the loop and waits for the in-flight mirror to finish.
func (w *LeaderboardWorker) Stop() {
	if w.stopCh == nil {
		return
	}
	close(w.stopCh)
	<-w.doneCh
	w.stopCh = nil
	w.doneCh = nil
}

func (w *LeaderboardWorker) mirror(ctx context.Context) {
	if err := w.leaderboard.Mirror(ctx); err != nil {
		w.logger.Error("leaderboard mirror failed", zap.Error(err))
	}
}
