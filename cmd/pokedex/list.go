package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/abelbrown/pokedex/internal/controller"
	"github.com/abelbrown/pokedex/internal/model"
)

// pager is the controller surface the headless list drives.
type pager interface {
	LoadInitial()
	LoadMore()
	Snapshot() controller.Snapshot
}

func runList(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var opts listOptions
	opts.register(fs)
	pages := fs.IntP("pages", "n", 1, "Number of pages to load")
	all := fs.Bool("all", false, "Load every page")
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}
	if *all {
		*pages = 0
	} else if *pages < 1 {
		fmt.Fprintln(errOut, "error: --pages must be at least 1")
		return 2
	}

	cfg, err := loadConfig(fs, opts.dataDir)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	pred, criteria, err := opts.apply(cfg)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 2
	}

	sess, err := openSession(cfg, errOut)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer sess.Close()

	ctrl := sess.newController(opts.pageSize)
	defer ctrl.Close()
	ctrl.SetCriteria(criteria)
	ctrl.SetPredicate(pred)

	snap, err := loadPages(ctx, ctrl, ctrl.Subscribe(), *pages)
	printTable(out, snap.View)
	fmt.Fprintf(out, "\n%d shown, %d of %d loaded", len(snap.View), snap.Loaded, snap.Summaries)
	if snap.Cursor.Total > 0 {
		fmt.Fprintf(out, " (catalogue has %d)", snap.Cursor.Total)
	}
	fmt.Fprintln(out)

	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

// loadPages loads up to pages pages (0 = all) and waits for every detail
// fetch to finish. A page error ends loading and is returned along with
// whatever was loaded before it.
func loadPages(ctx context.Context, p pager, snaps <-chan controller.Snapshot, pages int) (controller.Snapshot, error) {
	p.LoadInitial()
	for loaded := 1; ; loaded++ {
		snap, err := waitSettled(ctx, snaps, p.Snapshot().Seq)
		if err != nil {
			return p.Snapshot(), err
		}
		if snap.State == controller.Error {
			return snap, snap.Err
		}
		if !snap.Cursor.HasMore || (pages > 0 && loaded >= pages) {
			return snap, nil
		}
		p.LoadMore()
	}
}

// waitSettled returns the first settled snapshot at or after minSeq.
func waitSettled(ctx context.Context, snaps <-chan controller.Snapshot, minSeq uint64) (controller.Snapshot, error) {
	for {
		select {
		case <-ctx.Done():
			return controller.Snapshot{}, ctx.Err()
		case snap, ok := <-snaps:
			if !ok {
				return controller.Snapshot{}, fmt.Errorf("controller closed")
			}
			if snap.Seq >= minSeq && snap.Settled() {
				return snap, nil
			}
		}
	}
}

// printTable writes records as aligned columns.
func printTable(w io.Writer, records []model.Record) {
	fmt.Fprintf(w, "%4s  %-14s %-17s", "#", "NAME", "TYPE")
	for _, id := range model.Stats {
		fmt.Fprintf(w, " %4s", strings.ToUpper(id.Short()))
	}
	fmt.Fprintf(w, " %5s\n", "TOTAL")

	for _, r := range records {
		fmt.Fprintf(w, "%4d  %-14s %-17s", r.ID, truncate(r.Name, 14), truncate(r.TypeLabel(), 17))
		for _, id := range model.Stats {
			fmt.Fprintf(w, " %4d", r.Stat(id))
		}
		fmt.Fprintf(w, " %5d\n", r.Total())
	}
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
