package main

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/pokedex/internal/controller"
	"github.com/abelbrown/pokedex/internal/model"
)

func runCompare(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	fs.SetOutput(errOut)
	dataDir := dataDirFlag(fs)
	fs.Usage = func() {
		fmt.Fprintln(errOut, "Usage: pokedex compare NAME_A NAME_B")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(fs, *dataDir)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	sess, err := openSession(cfg, errOut)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer sess.Close()

	a, b, err := fetchPair(ctx, sess.details, fs.Arg(0), fs.Arg(1))
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	printComparison(out, a, b)
	return 0
}

// fetchPair fetches both records concurrently.
func fetchPair(ctx context.Context, details controller.DetailFetcher, nameA, nameB string) (model.Record, model.Record, error) {
	var a, b model.Record
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = details.FetchRecord(ctx, nameA)
		if err != nil {
			return fmt.Errorf("%s: %w", nameA, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		b, err = details.FetchRecord(ctx, nameB)
		if err != nil {
			return fmt.Errorf("%s: %w", nameB, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Record{}, model.Record{}, err
	}
	return a, b, nil
}

func printComparison(w io.Writer, a, b model.Record) {
	rows := model.Compare(a, b)
	left, right := model.Tally(rows)

	fmt.Fprintf(w, "%-16s %12s %12s\n", "", truncate(a.Name, 12), truncate(b.Name, 12))
	fmt.Fprintf(w, "%-16s %12s %12s\n", "Type", truncate(a.TypeLabel(), 12), truncate(b.TypeLabel(), 12))
	for _, r := range rows {
		marker := "  "
		switch r.Winner {
		case model.Left:
			marker = "< "
		case model.Right:
			marker = " >"
		}
		fmt.Fprintf(w, "%-16s %12d %12d  %s\n", r.Stat.Label(), r.Left, r.Right, marker)
	}
	fmt.Fprintf(w, "%-16s %12d %12d\n", "Total", a.Total(), b.Total())

	switch {
	case left > right:
		fmt.Fprintf(w, "\n%s wins %d of %d stats\n", a.Name, left, len(rows))
	case right > left:
		fmt.Fprintf(w, "\n%s wins %d of %d stats\n", b.Name, right, len(rows))
	default:
		fmt.Fprintf(w, "\neven: %d stats each\n", left)
	}
}
