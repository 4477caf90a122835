package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stitchkit/stitch/internal/logr"
	"github.com/stitchkit/stitch/internal/resource"
	"github.com/stretchr/testify/assert"
)

type fakeSweeperService struct {
	sweeps chan *resource.ID
}

func (f *fakeSweeperService) SweepExpired(ctx context.Context, tenantID *resource.ID) (int64, error) {
	f.sweeps <- tenantID
	return 0, nil
}

func TestSweeper(t *testing.T) {
	svc := &fakeSweeperService{sweeps: make(chan *resource.ID, 10)}
	sweeper := &Sweeper{
		Logger:           logr.Discard(),
		OverrideInterval: time.Millisecond,
		Service:          svc,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- sweeper.Start(ctx) }()

	// one sweep upon startup followed by one per tick, always site-wide
	for i := 0; i < 3; i++ {
		select {
		case scope := <-svc.sweeps:
			assert.Nil(t, scope)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for sweep")
		}
	}

	cancel()
	assert.NoError(t, <-done)
}
