// Package trigger decides when a sync cycle runs. A single goroutine
// consumes explicit events (reconnect, timer tick, manual request) from one
// channel and dispatches at most one orchestration at a time.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/state"
	"github.com/dmitrijs2005/bizkeeper/internal/client/syncer"
	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/logging"
)

// Runner runs one sync cycle. Implemented by syncer.Orchestrator.
type Runner interface {
	Run(ctx context.Context, ownerID string) (*syncer.Report, error)
}

// Status is the controller state exposed to the UI layer.
type Status struct {
	Online   bool
	Syncing  bool
	LastSync time.Time
}

// Result is delivered to the caller of a manual sync request.
type Result struct {
	Report *syncer.Report
	Err    error
}

// Event is a trigger delivered to the controller loop.
type Event interface{ isEvent() }

// Reconnected signals that connectivity came back.
type Reconnected struct{}

// Disconnected signals that connectivity was lost.
type Disconnected struct{}

// TimerTick is the periodic trigger emitted while the process runs.
type TimerTick struct{}

// ManualRequest is an explicit user-triggered sync. The outcome is sent to
// Reply exactly once.
type ManualRequest struct {
	Reply chan Result
}

func (Reconnected) isEvent()   {}
func (Disconnected) isEvent()  {}
func (TimerTick) isEvent()     {}
func (ManualRequest) isEvent() {}

// Controller owns the sync schedule. It is the sole consumer of its event
// channel, which is what enforces the single-flight invariant: a cycle is
// only ever started from the loop goroutine, guarded by the syncing flag.
type Controller struct {
	runner    Runner
	state     state.Repository
	logger    logging.Logger
	staleness time.Duration
	events    chan Event

	mu       sync.RWMutex
	online   bool
	syncing  bool
	lastSync time.Time
	ownerID  string
}

// NewController builds a Controller. staleness is the minimum idle time
// before a reconnect or timer trigger starts a new cycle; manual requests
// ignore it.
func NewController(runner Runner, st state.Repository, logger logging.Logger, staleness time.Duration) *Controller {
	return &Controller{
		runner:    runner,
		state:     st,
		logger:    logger.With("module", "trigger"),
		staleness: staleness,
		events:    make(chan Event, 16),
	}
}

// SetIdentity binds the controller to the authenticated owner. An empty id
// unbinds it (logout); no cycle starts while unbound.
func (c *Controller) SetIdentity(ownerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ownerID = ownerID
}

// Status returns a snapshot for display.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{Online: c.online, Syncing: c.syncing, LastSync: c.lastSync}
}

// Notify delivers an event to the controller loop. It never blocks; if the
// queue is full the event is dropped, which is safe because every trigger is
// re-derivable (the next tick or probe fires again).
func (c *Controller) Notify(ev Event) {
	select {
	case c.events <- ev:
	default:
	}
}

// RequestSync runs a manual sync and waits for its outcome. Rejected with
// common.ErrorAlreadySyncing while a cycle is in flight and with
// common.ErrorOffline while disconnected.
func (c *Controller) RequestSync(ctx context.Context) (*syncer.Report, error) {
	reply := make(chan Result, 1)

	select {
	case c.events <- ManualRequest{Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-reply:
		return res.Report, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run consumes events until ctx is cancelled. It also owns the periodic
// timer, feeding TimerTick into the same stream as external events.
func (c *Controller) Run(ctx context.Context, tickInterval time.Duration) {
	c.restoreLastSync(ctx)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	// nil while idle; receiving from a nil channel blocks forever, so the
	// case is simply disabled until a cycle starts.
	var done chan Result

	for {
		select {
		case <-ticker.C:
			c.Notify(TimerTick{})

		case ev := <-c.events:
			done = c.handle(ctx, ev, done)

		case res := <-done:
			done = nil
			c.finishCycle(ctx, res)

		case <-ctx.Done():
			return
		}
	}
}

// handle processes one event. It returns the done channel of the cycle in
// flight (possibly just started), or nil when idle.
func (c *Controller) handle(ctx context.Context, ev Event, done chan Result) chan Result {
	switch ev := ev.(type) {
	case Reconnected:
		c.setOnline(true)
		if done == nil && c.authenticated() && c.stale() {
			return c.startCycle(ctx, nil)
		}

	case Disconnected:
		c.setOnline(false)

	case TimerTick:
		if done == nil && c.isOnline() && c.authenticated() && c.stale() {
			return c.startCycle(ctx, nil)
		}

	case ManualRequest:
		if done != nil {
			ev.Reply <- Result{Err: common.ErrorAlreadySyncing}
			return done
		}
		if !c.isOnline() {
			ev.Reply <- Result{Err: common.ErrorOffline}
			return done
		}
		return c.startCycle(ctx, ev.Reply)
	}
	return done
}

// startCycle flips the syncing flag before the first phase starts and kicks
// the orchestrator off in its own goroutine. The flag is cleared in
// finishCycle on the loop goroutine, error or not.
func (c *Controller) startCycle(ctx context.Context, reply chan Result) chan Result {
	c.mu.Lock()
	c.syncing = true
	ownerID := c.ownerID
	c.mu.Unlock()

	done := make(chan Result, 1)
	go func() {
		report, err := c.runner.Run(ctx, ownerID)
		res := Result{Report: report, Err: err}
		if reply != nil {
			reply <- res
		}
		done <- res
	}()
	return done
}

func (c *Controller) finishCycle(ctx context.Context, res Result) {
	c.mu.Lock()
	c.syncing = false
	c.mu.Unlock()

	if res.Err != nil {
		c.logger.Error(ctx, "sync cycle failed", "error", res.Err)
		return
	}

	// The last-sync time advances after every successful cycle, whether or
	// not any records moved.
	now := time.Now().UTC()
	c.mu.Lock()
	c.lastSync = now
	c.mu.Unlock()

	if err := c.state.Set(ctx, state.KeyLastSyncTimestamp, []byte(now.Format(time.RFC3339))); err != nil {
		c.logger.Error(ctx, "failed to persist last-sync time", "error", err)
	}
}

func (c *Controller) restoreLastSync(ctx context.Context) {
	raw, err := c.state.Get(ctx, state.KeyLastSyncTimestamp)
	if err != nil || len(raw) == 0 {
		return
	}
	ts, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		c.logger.Warn(ctx, "ignoring malformed last-sync time", "value", string(raw))
		return
	}
	c.mu.Lock()
	c.lastSync = ts
	c.mu.Unlock()
}

func (c *Controller) setOnline(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = v
}

func (c *Controller) isOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

func (c *Controller) authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ownerID != ""
}

func (c *Controller) stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Since(c.lastSync) >= c.staleness
}

// Describe renders a result the way the UI layer shows it.
func Describe(res Result) string {
	if res.Err != nil {
		if errors.Is(res.Err, common.ErrorAlreadySyncing) || errors.Is(res.Err, common.ErrorOffline) {
			return res.Err.Error()
		}
		return fmt.Sprintf("sync failed: %v", res.Err)
	}
	r := res.Report
	return fmt.Sprintf("uploaded %d, downloaded %d, errors %d in %s",
		r.Uploaded, r.Downloaded, r.Errors, r.Duration.Round(time.Millisecond))
}
