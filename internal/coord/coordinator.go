// Package coord runs the background loops that sit between the list
// controller, the detail cache and the Bubble Tea program.
package coord

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/abelbrown/pokedex/internal/controller"
	"github.com/abelbrown/pokedex/internal/logging"
	"github.com/abelbrown/pokedex/internal/ui"
)

// pruneInterval is the time between cache prune passes.
const pruneInterval = 10 * time.Minute

// Sender delivers messages into a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Pruner removes cached records older than a cutoff.
type Pruner interface {
	PruneBefore(cutoff time.Time) (int, error)
}

// Config configures a Coordinator.
type Config struct {
	// Snapshots is the controller subscription to forward. Required.
	Snapshots <-chan controller.Snapshot

	// Cache and MaxAge enable periodic pruning. A nil Cache or a
	// non-positive MaxAge disables it.
	Cache  Pruner
	MaxAge time.Duration

	// PruneInterval overrides the default pass interval.
	PruneInterval time.Duration

	Logger *log.Logger
}

// Coordinator forwards controller snapshots to the program and keeps the
// detail cache within its max age.
// Uses context cancellation as the ONLY stop mechanism, besides the
// snapshot channel closing when the controller shuts down.
type Coordinator struct {
	cfg    Config
	logger *log.Logger
	wg     sync.WaitGroup
}

// New creates a Coordinator. Call Start to begin.
func New(cfg Config) *Coordinator {
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = pruneInterval
	}
	return &Coordinator{
		cfg:    cfg,
		logger: logging.OrDiscard(cfg.Logger).WithPrefix("coord"),
	}
}

// Start launches the background goroutines. Call with a cancellable context.
func (c *Coordinator) Start(ctx context.Context, sender Sender) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.forward(ctx, sender)
	}()

	if c.cfg.Cache == nil || c.cfg.MaxAge <= 0 {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		// Prune once immediately, then every PruneInterval.
		c.prune()

		ticker := time.NewTicker(c.cfg.PruneInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.prune()
			}
		}
	}()
}

// Wait blocks until the background goroutines exit.
// Call after canceling the context passed to Start.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) forward(ctx context.Context, sender Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-c.cfg.Snapshots:
			if !ok {
				return
			}
			if sender != nil {
				sender.Send(ui.SnapshotMsg{Snapshot: snap})
			}
		}
	}
}

func (c *Coordinator) prune() {
	cutoff := time.Now().Add(-c.cfg.MaxAge)
	n, err := c.cfg.Cache.PruneBefore(cutoff)
	if err != nil {
		c.logger.Warn("cache prune failed", "err", err)
		return
	}
	if n > 0 {
		c.logger.Info("pruned cached records", "count", n, "max_age", c.cfg.MaxAge)
	}
}
