package capacity

import (
	"context"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/mosheduminer/lmql/common/config"
	"github.com/mosheduminer/lmql/common/logger"
)

// ControllerParams describes the configuration of an admission controller.
type ControllerParams struct {
	// Total is the capacity budget in units; a stream holds
	// num_prompts * max_tokens units while in flight. Defaults to
	// config.CapacityTotal.
	Total int64
	// PollInterval is how often a blocked Acquire re-checks the budget.
	// Defaults to config.CapacityPollInterval.
	PollInterval time.Duration
}

// Controller is a soft admission gate over a shared capacity budget. It
// throttles rather than rejects: Acquire blocks while the budget is
// exhausted and never fails for lack of capacity. The admission check runs
// before the new reservation is added, so reserved may transiently exceed
// the total by one request's units; this keeps a single oversized request
// from deadlocking against an empty budget.
type Controller struct {
	params ControllerParams

	mu       sync.Mutex
	reserved int64
}

// NewController constructs an admission controller. Zero param fields fall
// back to the process configuration.
func NewController(params ControllerParams) *Controller {
	if params.Total <= 0 {
		params.Total = config.CapacityTotal
	}
	if params.PollInterval <= 0 {
		params.PollInterval = config.CapacityPollInterval
	}
	return &Controller{params: params}
}

// Acquire blocks until the budget admits the reservation, then records it
// and returns nil. It returns the context error when ctx is cancelled while
// waiting, in which case nothing was reserved.
func (c *Controller) Acquire(ctx context.Context, units int64) error {
	if units < 0 {
		return errors.Errorf("capacity units must not be negative, got %d", units)
	}

	for {
		c.mu.Lock()
		if c.reserved < c.params.Total {
			c.reserved += units
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "wait for capacity admission")
		case <-time.After(c.params.PollInterval):
		}
	}
}

// Release returns a reservation to the budget. It must be called exactly
// once per successful Acquire, on every exit path of the holding stream.
func (c *Controller) Release(units int64) {
	if units <= 0 {
		return
	}

	c.mu.Lock()
	c.reserved -= units
	if c.reserved < 0 {
		logger.Logger.Error("capacity released below zero, clamping",
			zap.Int64("units", units),
			zap.Int64("reserved", c.reserved))
		c.reserved = 0
	}
	c.mu.Unlock()
}

// Snapshot reports the currently reserved units and the total budget.
func (c *Controller) Snapshot() (reserved, total int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reserved, c.params.Total
}
