package controller

import (
	"context"
	"strings"
	"sync"

	"github.com/abelbrown/pokedex/internal/fetch"
	"github.com/abelbrown/pokedex/internal/model"
)

var kanto = []string{
	"bulbasaur", "ivysaur", "venusaur", "charmander", "charmeleon",
	"charizard", "squirtle", "wartortle", "blastoise", "caterpie",
	"metapod", "butterfree", "weedle", "kakuna", "beedrill",
	"pidgey", "pidgeotto", "pidgeot", "rattata", "raticate",
	"spearow", "fearow", "ekans", "arbok", "pikachu",
	"raichu", "sandshrew", "sandslash", "nidoran-f", "nidorina",
	"nidoqueen", "nidoran-m", "nidorino", "nidoking", "clefairy",
}

func summaries(names []string) []model.Summary {
	out := make([]model.Summary, len(names))
	for i, n := range names {
		out[i] = model.Summary{Name: n, Locator: "loc/" + n}
	}
	return out
}

// fakePages serves fixed pages keyed by offset.
type fakePages struct {
	mu    sync.Mutex
	pages map[int]fetch.Page
	errs  map[int]error
	calls []int
	gate  chan struct{} // when set, each call waits for one receive
}

func newFakePages() *fakePages {
	return &fakePages{pages: make(map[int]fetch.Page), errs: make(map[int]error)}
}

// paginate splits names into pages of size and registers them by offset.
func (f *fakePages) paginate(names []string, size int) *fakePages {
	f.mu.Lock()
	defer f.mu.Unlock()
	for off := 0; off < len(names); off += size {
		end := min(off+size, len(names))
		f.pages[off] = fetch.Page{Items: summaries(names[off:end]), Total: len(names)}
	}
	return f
}

func (f *fakePages) setErr(offset int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, offset)
		return
	}
	f.errs[offset] = err
}

func (f *fakePages) FetchPage(ctx context.Context, offset, limit int) (fetch.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, offset)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return fetch.Page{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[offset]; err != nil {
		return fetch.Page{}, err
	}
	return f.pages[offset], nil
}

func (f *fakePages) callCount(offset int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.calls {
		if o == offset {
			n++
		}
	}
	return n
}

// fakeDetails builds records from the locator and counts calls.
type fakeDetails struct {
	mu          sync.Mutex
	types       map[string][]string
	stats       map[string]map[model.StatID]int
	fail        map[string]error
	rename      map[string]string // name -> name the returned record carries
	calls       map[string]int
	hold        map[string]chan struct{} // first call for a name waits for close, ignoring ctx
	gate        chan struct{}            // when set, every call waits for close or ctx
	inflight    int
	maxInflight int
}

func newFakeDetails() *fakeDetails {
	return &fakeDetails{
		types:  make(map[string][]string),
		stats:  make(map[string]map[model.StatID]int),
		fail:   make(map[string]error),
		rename: make(map[string]string),
		calls:  make(map[string]int),
		hold:   make(map[string]chan struct{}),
	}
}

func (f *fakeDetails) FetchRecord(ctx context.Context, locator string) (model.Record, error) {
	name := strings.TrimPrefix(locator, "loc/")

	f.mu.Lock()
	f.calls[name]++
	call := f.calls[name]
	hold := f.hold[name]
	gate := f.gate
	f.inflight++
	f.maxInflight = max(f.maxInflight, f.inflight)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if hold != nil && call == 1 {
		<-hold
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return model.Record{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[name]; err != nil {
		return model.Record{}, err
	}
	recName := name
	if r, ok := f.rename[name]; ok {
		recName = r
	}
	return model.Record{
		Name:   recName,
		Height: call, // lets tests tell which call produced a record
		Types:  f.types[name],
		Stats:  f.stats[name],
	}, nil
}

func (f *fakeDetails) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeDetails) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func names(records []model.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}
