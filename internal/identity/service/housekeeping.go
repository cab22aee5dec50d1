package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethnicdev/gatehouse/internal/identity/store"
)

// HousekeepingService periodically purges revocation records that can no
// longer matter: their token is past both exp and the refresh window.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// RefreshableDuration keeps records alive while a revoked token could
	// still pass the refresh-window check.
	RefreshableDuration time.Duration

	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to one hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval, refreshable time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:               store,
		Logger:              logger,
		Interval:            interval,
		RefreshableDuration: refreshable,
		Now:                 time.Now,
		stopCh:              make(chan struct{}),
		doneCh:              make(chan struct{}),
	}
}

// Start is non-blocking. Call Stop to shut the worker down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one purge pass and returns the number of records removed.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	cutoff := s.Now().Add(-s.RefreshableDuration)

	n, err := s.Store.RevokedTokens().DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to delete expired revocation records", "error", err)
		return 0
	}

	s.Logger.Info("housekeeping cleanup completed", "deleted", n, "cutoff", cutoff.Unix())
	return n
}
