package coord

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/pokedex/internal/controller"
	"github.com/abelbrown/pokedex/internal/ui"
)

// mockSender records every message sent to it.
type mockSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (m *mockSender) Send(msg tea.Msg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
}

func (m *mockSender) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

func (m *mockSender) last() tea.Msg {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.msgs) == 0 {
		return nil
	}
	return m.msgs[len(m.msgs)-1]
}

// mockPruner records cutoffs and returns a fixed result.
type mockPruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int
	err     error
}

func (p *mockPruner) PruneBefore(cutoff time.Time) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, cutoff)
	return p.n, p.err
}

func (p *mockPruner) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cutoffs)
}

func TestCoordinatorForwardsSnapshots(t *testing.T) {
	snaps := make(chan controller.Snapshot, 4)
	sender := &mockSender{}

	c := New(Config{Snapshots: snaps})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx, sender)

	snaps <- controller.Snapshot{Seq: 1}
	snaps <- controller.Snapshot{Seq: 2, State: controller.LoadingPage}

	require.Eventually(t, func() bool { return sender.count() == 2 }, time.Second, 5*time.Millisecond)

	msg, ok := sender.last().(ui.SnapshotMsg)
	if !ok {
		t.Fatalf("expected ui.SnapshotMsg, got %T", sender.last())
	}
	if msg.Seq != 2 || msg.State != controller.LoadingPage {
		t.Errorf("forwarded snapshot = seq %d state %v, want seq 2 loading", msg.Seq, msg.State)
	}

	cancel()
	c.Wait()
}

func TestCoordinatorStopsWhenSubscriptionCloses(t *testing.T) {
	snaps := make(chan controller.Snapshot)
	c := New(Config{Snapshots: snaps})
	c.Start(context.Background(), &mockSender{})

	close(snaps)

	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the subscription closed")
	}
}

func TestCoordinatorStopsOnCancel(t *testing.T) {
	snaps := make(chan controller.Snapshot)
	pruner := &mockPruner{}
	c := New(Config{Snapshots: snaps, Cache: pruner, MaxAge: time.Hour, PruneInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx, nil)
	cancel()

	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancel")
	}
}

func TestCoordinatorPrunesImmediatelyAndPeriodically(t *testing.T) {
	pruner := &mockPruner{n: 3}
	c := New(Config{
		Snapshots:     make(chan controller.Snapshot),
		Cache:         pruner,
		MaxAge:        time.Hour,
		PruneInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	c.Start(ctx, nil)

	require.Eventually(t, func() bool { return pruner.calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	c.Wait()

	pruner.mu.Lock()
	first := pruner.cutoffs[0]
	pruner.mu.Unlock()
	want := start.Add(-time.Hour)
	if d := first.Sub(want); d < -time.Second || d > time.Second {
		t.Errorf("first cutoff %v, want about %v", first, want)
	}
}

func TestCoordinatorPruneErrorKeepsRunning(t *testing.T) {
	pruner := &mockPruner{err: errors.New("disk I/O error")}
	c := New(Config{
		Snapshots:     make(chan controller.Snapshot),
		Cache:         pruner,
		MaxAge:        time.Minute,
		PruneInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx, nil)
	require.Eventually(t, func() bool { return pruner.calls() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	c.Wait()
}

func TestCoordinatorPruneDisabled(t *testing.T) {
	tests := []struct {
		name   string
		cache  Pruner
		maxAge time.Duration
	}{
		{"no cache", nil, time.Hour},
		{"zero max age", &mockPruner{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Config{
				Snapshots:     make(chan controller.Snapshot),
				Cache:         tt.cache,
				MaxAge:        tt.maxAge,
				PruneInterval: time.Millisecond,
			})
			ctx, cancel := context.WithCancel(context.Background())
			c.Start(ctx, nil)
			time.Sleep(20 * time.Millisecond)
			cancel()
			c.Wait()

			if p, ok := tt.cache.(*mockPruner); ok && p.calls() != 0 {
				t.Errorf("pruner called %d times, want 0", p.calls())
			}
		})
	}
}
