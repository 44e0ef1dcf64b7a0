package main

import (
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

func runCache(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("cache", flag.ContinueOnError)
	fs.SetOutput(errOut)
	dataDir := dataDirFlag(fs)
	fs.Usage = func() {
		fmt.Fprintln(errOut, "Usage: pokedex cache stats|clear|prune")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(fs, *dataDir)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	st, err := openCache(cfg)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer st.Close()

	switch fs.Arg(0) {
	case "stats":
		info, err := st.Info()
		if err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
		fmt.Fprintf(out, "Cache file:            %s\n", cfg.CachePath())
		fmt.Fprintf(out, "Enabled:               %t\n", cfg.Cache.Enabled)
		fmt.Fprintf(out, "Records:               %d\n", info.Records)
		if info.Records > 0 {
			fmt.Fprintf(out, "Oldest:                %s (%s ago)\n", info.Oldest.Format(time.RFC3339), time.Since(info.Oldest).Round(time.Second))
			fmt.Fprintf(out, "Newest:                %s (%s ago)\n", info.Newest.Format(time.RFC3339), time.Since(info.Newest).Round(time.Second))
		}
		if maxAge := cfg.Cache.MaxAge.D(); maxAge > 0 {
			fmt.Fprintf(out, "Max age:               %s\n", maxAge)
		} else {
			fmt.Fprintf(out, "Max age:               none\n")
		}
	case "clear":
		n, err := st.Clear()
		if err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
		fmt.Fprintf(out, "Removed %d cached records\n", n)
	case "prune":
		maxAge := cfg.Cache.MaxAge.D()
		if maxAge <= 0 {
			fmt.Fprintln(errOut, "error: cache.max_age is not set")
			return 1
		}
		n, err := st.PruneBefore(time.Now().Add(-maxAge))
		if err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
		fmt.Fprintf(out, "Removed %d records older than %s\n", n, maxAge)
	default:
		fmt.Fprintf(errOut, "pokedex cache: unknown action %q\n", fs.Arg(0))
		fs.Usage()
		return 2
	}
	return 0
}
