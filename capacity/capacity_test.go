package capacity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestController(total int64) *Controller {
	return NewController(ControllerParams{
		Total:        total,
		PollInterval: 5 * time.Millisecond,
	})
}

func TestAcquireRelease(t *testing.T) {
	c := newTestController(100)

	require.NoError(t, c.Acquire(context.Background(), 10))
	reserved, total := c.Snapshot()
	require.EqualValues(t, 10, reserved)
	require.EqualValues(t, 100, total)

	c.Release(10)
	reserved, _ = c.Snapshot()
	require.EqualValues(t, 0, reserved)
}

func TestSoftCeilingOverAdmission(t *testing.T) {
	c := newTestController(100)

	// The admission test runs before the new units are added, so a request
	// arriving while reserved < total is admitted even when it pushes the
	// reservation past the total.
	require.NoError(t, c.Acquire(context.Background(), 90))
	require.NoError(t, c.Acquire(context.Background(), 50))
	reserved, _ := c.Snapshot()
	require.EqualValues(t, 140, reserved)

	// Now reserved >= total: the next acquire must block until a release.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Acquire(context.Background(), 5)
	}()

	select {
	case <-done:
		t.Fatal("acquire should block while reserved >= total")
	case <-time.After(50 * time.Millisecond):
	}

	c.Release(50)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquire should unblock after release")
	}

	reserved, _ = c.Snapshot()
	require.EqualValues(t, 95, reserved)
}

func TestAcquireZeroUnitsStillGated(t *testing.T) {
	c := newTestController(10)
	require.NoError(t, c.Acquire(context.Background(), 10))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Acquire(context.Background(), 0)
	}()

	select {
	case <-done:
		t.Fatal("zero-unit acquire should still wait for admission")
	case <-time.After(50 * time.Millisecond):
	}

	c.Release(10)
	<-done
	reserved, _ := c.Snapshot()
	require.EqualValues(t, 0, reserved)
}

func TestAcquireContextCanceled(t *testing.T) {
	c := newTestController(10)
	require.NoError(t, c.Acquire(context.Background(), 10))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Acquire(ctx, 5)
	}()

	cancel()
	select {
	case err := <-errCh:
		require.Error(t, err)
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("acquire should return promptly on cancellation")
	}

	// Nothing was reserved by the cancelled acquire.
	reserved, _ := c.Snapshot()
	require.EqualValues(t, 10, reserved)
}

func TestReleaseClampsAtZero(t *testing.T) {
	c := newTestController(100)
	require.NoError(t, c.Acquire(context.Background(), 5))

	c.Release(50)
	reserved, _ := c.Snapshot()
	require.EqualValues(t, 0, reserved)
}

func TestConcurrentAcquireReleaseBalances(t *testing.T) {
	c := newTestController(1000)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(units int64) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := c.Acquire(context.Background(), units); err != nil {
					t.Error(err)
					return
				}
				reserved, _ := c.Snapshot()
				if reserved < 0 {
					t.Error("reserved went negative")
					return
				}
				c.Release(units)
			}
		}(int64(i%7) * 10)
	}
	wg.Wait()

	reserved, _ := c.Snapshot()
	require.EqualValues(t, 0, reserved)
}

func TestNegativeUnitsRejected(t *testing.T) {
	c := newTestController(10)
	require.Error(t, c.Acquire(context.Background(), -1))
}
