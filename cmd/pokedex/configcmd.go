package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/abelbrown/pokedex/internal/config"
)

func runConfig(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(errOut)
	dataDir := dataDirFlag(fs)
	force := fs.Bool("force", false, "Overwrite an existing config file (init)")
	fs.Usage = func() {
		fmt.Fprintln(errOut, "Usage: pokedex config init|show|path")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	path := config.Path(*dataDir)
	switch fs.Arg(0) {
	case "init":
		if _, err := os.Stat(path); err == nil && !*force {
			fmt.Fprintf(errOut, "error: %s already exists (use --force to overwrite)\n", path)
			return 1
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
		fmt.Fprintf(out, "Wrote %s\n", path)
	case "show":
		cfg, err := loadConfig(fs, *dataDir)
		if err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
		fmt.Fprintln(out, string(data))
	case "path":
		fmt.Fprintln(out, path)
	default:
		fmt.Fprintf(errOut, "pokedex config: unknown action %q\n", fs.Arg(0))
		fs.Usage()
		return 2
	}
	return 0
}
