package identity

import (
	"context"
	"time"

	"github.com/stitchkit/stitch/internal/logr"
	"github.com/stitchkit/stitch/internal/resource"
)

// By default sweep expired mappings every 10 minutes.
var sweeperDefaultInterval = 10 * time.Minute

type (
	// Sweeper periodically deletes expired mappings across all tenants. The
	// store only exposes the sweep primitive; the sweeper owns the schedule.
	Sweeper struct {
		logr.Logger

		OverrideInterval time.Duration
		Service          sweeperClient
	}

	sweeperClient interface {
		SweepExpired(ctx context.Context, tenantID *resource.ID) (int64, error)
	}
)

// Start the sweeper and block until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	interval := sweeperDefaultInterval
	if s.OverrideInterval != 0 {
		interval = s.OverrideInterval
	}

	if err := s.sweep(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) error {
	count, err := s.Service.SweepExpired(ctx, nil)
	if err != nil {
		s.Error(err, "sweeping expired mappings")
		return err
	}
	s.V(2).Info("sweep finished", "count", count)
	return nil
}
