// Package controller implements the incremental list controller.
//
// A Controller owns one browsing session: it pages through the remote
// catalogue, merges each page into a model.List, fans out one detail fetch
// per new summary, and keeps a derived view equal to
//
//	filter.Sort(filter.Apply(records, predicate), criteria)
//
// recomputed whenever records, predicate or criteria change.
//
// # State machine
//
//	Idle --LoadInitial/Refresh--> LoadingPage (list reset, offset 0)
//	Idle --LoadMore (HasMore)---> LoadingPage (current offset)
//	LoadingPage --success-------> Idle
//	LoadingPage --failure-------> Error (HasMore untouched)
//	Error --Refresh/LoadMore----> LoadingPage
//
// # Concurrency
//
// At most one page fetch is in flight. LoadInitial, Refresh and LoadMore
// issued while a page is loading are no-ops. Detail fetches run
// concurrently (bounded by Config.DetailConcurrency) and may complete in
// any order. A detail that completes after its session was reset is
// dropped, keyed by a generation counter.
//
// Every change publishes a Snapshot to subscribers. Sends never block: a
// subscriber that falls behind loses its oldest queued snapshot, not the
// newest.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/pokedex/internal/fetch"
	"github.com/abelbrown/pokedex/internal/filter"
	"github.com/abelbrown/pokedex/internal/logging"
	"github.com/abelbrown/pokedex/internal/model"
	"github.com/abelbrown/pokedex/internal/otel"
)

// subscriberBuffer is the capacity of each Subscribe channel.
const subscriberBuffer = 16

// State is the pagination state.
type State int

const (
	Idle State = iota
	LoadingPage
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingPage:
		return "loading"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PageFetcher is the list-page boundary.
type PageFetcher interface {
	FetchPage(ctx context.Context, offset, limit int) (fetch.Page, error)
}

// DetailFetcher is the per-record boundary.
type DetailFetcher interface {
	FetchRecord(ctx context.Context, locator string) (model.Record, error)
}

// Config configures a Controller.
type Config struct {
	PageSize          int // summaries requested per page (default: 25)
	MaxCriteria       int // active sort criteria cap, oldest dropped first; 0 = no cap (default: 3)
	DetailConcurrency int // parallel detail fetches; 0 = unbounded (default: 8)
	Logger            *log.Logger
	Events            *otel.Logger
}

// DefaultConfig returns the defaults used by the CLI and TUI.
func DefaultConfig() Config {
	return Config{
		PageSize:          25,
		MaxCriteria:       3,
		DetailConcurrency: 8,
	}
}

// Validate replaces out-of-range values with defaults.
func (c *Config) Validate() {
	d := DefaultConfig()
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.MaxCriteria < 0 {
		c.MaxCriteria = d.MaxCriteria
	}
	if c.DetailConcurrency < 0 {
		c.DetailConcurrency = d.DetailConcurrency
	}
}

// Snapshot is the observable controller state at one instant.
//
// View and Criteria are shared with the controller and with other
// subscribers; treat them as read-only.
type Snapshot struct {
	State     State
	Err       error // set in Error state
	Cursor    model.Cursor
	Summaries int // summaries merged this session
	Loaded    int // full records received this session
	Pending   int // detail fetches not yet finished this session
	View      []model.Record
	Predicate filter.Predicate
	Criteria  filter.Criteria
	Seq       uint64 // increases with every published change
}

// Settled reports whether no page or detail fetch is outstanding.
func (s Snapshot) Settled() bool {
	return s.State != LoadingPage && s.Pending == 0
}

// Controller drives one list session. Create with New, release with Close.
type Controller struct {
	pages   PageFetcher
	details DetailFetcher
	cfg     Config
	log     *log.Logger
	events  *otel.Logger
	list    *model.List

	ctx    context.Context // cancelled by Close
	cancel context.CancelFunc
	wg     sync.WaitGroup // page and detail goroutines

	mu            sync.Mutex
	state         State
	err           error
	predicate     filter.Predicate
	criteria      filter.Criteria
	view          []model.Record
	seq           uint64
	gen           uint64 // bumped on every reset
	pending       int    // detail fetches outstanding for gen
	sessionCtx    context.Context
	sessionCancel context.CancelFunc
	subs          []chan Snapshot
	closed        bool
}

// New creates an idle Controller. Nothing is fetched until LoadInitial.
func New(pages PageFetcher, details DetailFetcher, cfg Config) *Controller {
	cfg.Validate()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		pages:   pages,
		details: details,
		cfg:     cfg,
		log:     logging.OrDiscard(cfg.Logger).WithPrefix("controller"),
		events:  cfg.Events,
		list:    model.NewList(cfg.PageSize),
		ctx:     ctx,
		cancel:  cancel,
		view:    []model.Record{},
	}
	c.sessionCtx, c.sessionCancel = context.WithCancel(ctx)
	return c
}

// LoadInitial resets the session and fetches the first page.
func (c *Controller) LoadInitial() { c.restart("initial") }

// Refresh discards everything loaded so far and starts again at offset 0.
// It also clears a page error.
func (c *Controller) Refresh() { c.restart("refresh") }

func (c *Controller) restart(op string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.state == LoadingPage {
		c.mu.Unlock()
		c.skipped(op, "page fetch in flight")
		return
	}

	c.sessionCancel()
	c.sessionCtx, c.sessionCancel = context.WithCancel(c.ctx)
	c.gen++
	c.list.Reset()
	c.pending = 0
	c.err = nil
	c.state = LoadingPage
	c.view = []model.Record{}
	gen, ctx := c.gen, c.sessionCtx
	c.publishLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	c.log.Debug("session reset", "op", op, "gen", gen)
	c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSessionReset, Comp: "controller", Gen: gen, Msg: op})
	go c.fetchPage(ctx, gen, 0)
}

// LoadMore fetches the next page. It is a no-op while a page is loading
// or once the last page has been merged.
func (c *Controller) LoadMore() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	cur := c.list.Cursor()
	switch {
	case c.state == LoadingPage:
		c.mu.Unlock()
		c.skipped("load more", "page fetch in flight")
		return
	case !cur.HasMore:
		c.mu.Unlock()
		c.skipped("load more", "no more pages")
		return
	}

	c.err = nil
	c.state = LoadingPage
	gen, ctx := c.gen, c.sessionCtx
	c.publishLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	go c.fetchPage(ctx, gen, cur.Offset)
}

func (c *Controller) skipped(op, reason string) {
	c.log.Debug("ignored", "op", op, "reason", reason)
	c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPageSkipped, Comp: "controller", Msg: op + ": " + reason})
}

// fetchPage runs one page request. The caller has already done wg.Add.
func (c *Controller) fetchPage(ctx context.Context, gen uint64, offset int) {
	defer c.wg.Done()

	limit := c.cfg.PageSize
	start := time.Now()
	c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindPageStart, Comp: "controller", Gen: gen, Offset: offset, Count: limit})

	page, err := c.pages.FetchPage(ctx, offset, limit)
	dur := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		c.log.Debug("dropping page for closed session", "offset", offset, "gen", gen)
		return
	}

	if err != nil {
		c.state = Error
		c.err = err
		c.log.Warn("page fetch failed", "offset", offset, "kind", fetch.KindOf(err), "err", err)
		c.events.Emit(otel.Event{
			Level:  otel.LevelWarn,
			Kind:   otel.KindPageError,
			Comp:   "controller",
			Gen:    gen,
			Offset: offset,
			Code:   fetch.StatusCode(err),
			Dur:    dur,
			Err:    err.Error(),
		})
		c.publishLocked()
		return
	}

	added := c.list.MergeCounted(page.Items, page.Consumed(), limit, page.Total)
	c.state = Idle
	c.pending += len(added)
	cur := c.list.Cursor()
	c.log.Info("page merged", "offset", offset, "items", len(page.Items), "new", len(added), "has_more", cur.HasMore, "total", cur.Total)
	c.events.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindPageComplete,
		Comp:   "controller",
		Gen:    gen,
		Offset: offset,
		Count:  len(page.Items),
		Dur:    dur,
	})
	c.publishLocked()

	if len(added) > 0 {
		c.wg.Add(1)
		go c.fetchDetails(ctx, gen, added)
	}
}

// fetchDetails fans out one detail fetch per summary. Failures are
// recovered per record and never fail the group.
func (c *Controller) fetchDetails(ctx context.Context, gen uint64, summaries []model.Summary) {
	defer c.wg.Done()

	var g errgroup.Group
	if n := c.cfg.DetailConcurrency; n > 0 {
		g.SetLimit(n)
	}

	var (
		skipMu  sync.Mutex
		skipped int
	)
	for _, s := range summaries {
		g.Go(func() error {
			if ctx.Err() != nil {
				skipMu.Lock()
				skipped++
				skipMu.Unlock()
				return nil
			}
			c.fetchDetail(ctx, gen, s)
			return nil
		})
	}
	_ = g.Wait()

	if skipped > 0 {
		c.log.Debug("detail fetches not started; session superseded", "count", skipped, "gen", gen)
		c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindDetailStale, Comp: "controller", Gen: gen, Count: skipped})
	}
}

func (c *Controller) fetchDetail(ctx context.Context, gen uint64, s model.Summary) {
	start := time.Now()
	rec, err := c.details.FetchRecord(ctx, s.Locator)
	dur := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		c.log.Debug("dropping detail for superseded session", "name", s.Name, "gen", gen)
		c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindDetailStale, Comp: "controller", Gen: gen, Name: s.Name, Count: 1})
		return
	}
	c.pending--

	if err != nil {
		c.log.Warn("detail fetch failed", "name", s.Name, "kind", fetch.KindOf(err), "err", err)
		c.events.Emit(otel.Event{
			Level: otel.LevelWarn,
			Kind:  otel.KindDetailError,
			Comp:  "controller",
			Gen:   gen,
			Name:  s.Name,
			Code:  fetch.StatusCode(err),
			Dur:   dur,
			Err:   err.Error(),
		})
		c.publishLocked()
		return
	}

	if rec.Name == "" {
		rec.Name = s.Name
	}
	// Storing under rec.Name would overwrite another summary's record.
	if rec.Name != s.Name || !c.list.AddRecord(rec) {
		c.log.Warn("record does not match its summary; ignored", "name", rec.Name, "summary", s.Name)
		c.events.Emit(otel.Event{
			Level: otel.LevelWarn,
			Kind:  otel.KindDetailError,
			Comp:  "controller",
			Gen:   gen,
			Name:  s.Name,
			Dur:   dur,
			Err:   fmt.Sprintf("record named %q", rec.Name),
		})
		c.publishLocked()
		return
	}
	c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindDetailComplete, Comp: "controller", Gen: gen, Name: rec.Name, Dur: dur})
	c.recomputeLocked()
	c.publishLocked()
}

// SetPredicate replaces the active search.
func (c *Controller) SetPredicate(p filter.Predicate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || p == c.predicate {
		return
	}
	c.predicate = p
	c.recomputeLocked()
	c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindViewRecompute, Comp: "controller", Query: p.Query, Count: len(c.view), Msg: "predicate"})
	c.publishLocked()
}

// AddCriterion sets key's direction and moves it to the lowest priority.
func (c *Controller) AddCriterion(key filter.Key, ascending bool) {
	c.updateCriteria(func(cs filter.Criteria) filter.Criteria { return cs.With(key, ascending) })
}

// ToggleCriterion flips key's direction if active, otherwise adds it.
func (c *Controller) ToggleCriterion(key filter.Key, ascending bool) {
	c.updateCriteria(func(cs filter.Criteria) filter.Criteria { return cs.Toggled(key, ascending) })
}

// RemoveCriterion drops key from the active criteria.
func (c *Controller) RemoveCriterion(key filter.Key) {
	c.updateCriteria(func(cs filter.Criteria) filter.Criteria { return cs.Without(key) })
}

// SetCriteria replaces the active criteria. Index 0 is primary.
func (c *Controller) SetCriteria(cs filter.Criteria) {
	next := make(filter.Criteria, len(cs))
	copy(next, cs)
	c.updateCriteria(func(filter.Criteria) filter.Criteria { return next })
}

func (c *Controller) updateCriteria(fn func(filter.Criteria) filter.Criteria) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	next := fn(c.criteria)
	if capped := next.Capped(c.cfg.MaxCriteria); len(capped) < len(next) {
		c.log.Debug("sort criteria capped", "max", c.cfg.MaxCriteria, "dropped", next[:len(next)-len(capped)].String())
		next = capped
	}
	c.criteria = next
	c.recomputeLocked()
	c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindViewRecompute, Comp: "controller", Count: len(c.view), Msg: "criteria " + next.String()})
	c.publishLocked()
}

// recomputeLocked rebuilds the view. Caller must hold c.mu.
func (c *Controller) recomputeLocked() {
	c.view = filter.Sort(filter.Apply(c.list.Records(), c.predicate), c.criteria)
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:     c.state,
		Err:       c.err,
		Cursor:    c.list.Cursor(),
		Summaries: c.list.Len(),
		Loaded:    c.list.Loaded(),
		Pending:   c.pending,
		View:      c.view,
		Predicate: c.predicate,
		Criteria:  c.criteria,
		Seq:       c.seq,
	}
}

// publishLocked bumps Seq and offers the new snapshot to every subscriber.
// Caller must hold c.mu.
func (c *Controller) publishLocked() {
	c.seq++
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// Full: discard the oldest queued snapshot and retry once.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// View returns a copy of the current filtered and sorted records.
func (c *Controller) View() []model.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Record, len(c.view))
	copy(out, c.view)
	return out
}

// Record returns a loaded record by name, visible in the view or not.
func (c *Controller) Record(name string) (model.Record, bool) {
	return c.list.Record(name)
}

// Subscribe returns a channel that receives a Snapshot on every change,
// starting with the current one. The channel is closed by Close.
func (c *Controller) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, subscriberBuffer)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch
	}
	ch <- c.snapshotLocked()
	c.subs = append(c.subs, ch)
	return ch
}

// Close cancels every in-flight fetch, waits for them to return and
// closes subscriber channels. Later calls on the Controller are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	for _, ch := range c.subs {
		close(ch)
	}
	c.subs = nil
	c.mu.Unlock()
	c.log.Debug("closed")
}
