// Command pokedex browses the PokeAPI catalogue.
//
// Usage:
//
//	pokedex                     Run the TUI
//	pokedex list                Print the list headlessly
//	pokedex compare A B         Compare two records' base stats
//	pokedex cache stats|clear   Detail cache maintenance
//	pokedex config init|show    Write defaults or print the effective config
//	pokedex events              JSONL event log viewer
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
)

const usage = `pokedex - incremental PokeAPI browser

Usage:
  pokedex [command] [flags]

Commands:
  tui         Interactive list (default)
  list        Load pages and print the filtered, sorted list
  compare     Compare the base stats of two records
  cache       Detail cache maintenance (stats, clear)
  config      Configuration file (init, show)
  events      JSONL event log viewer

Environment:
  POKEDEX_DATA_DIR   Data directory (default: ~/.pokedex)
  POKEDEX_BASE_URL   API root (default: https://pokeapi.co/api/v2)
  POKEDEX_PAGE_SIZE  Summaries per page (default: 25)
  POKEDEX_CACHE      Enable the detail cache (default: true)

Run 'pokedex <command> -h' for command-specific help.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches to a subcommand and returns the exit code.
func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return runTUI(ctx, nil, out, errOut)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "tui":
		return runTUI(ctx, rest, out, errOut)
	case "list":
		return runList(ctx, rest, out, errOut)
	case "compare":
		return runCompare(ctx, rest, out, errOut)
	case "cache":
		return runCache(rest, out, errOut)
	case "config":
		return runConfig(rest, out, errOut)
	case "events":
		return runEvents(ctx, rest, out, errOut)
	case "-h", "--help", "help":
		fmt.Fprint(out, usage)
		return 0
	default:
		// Flags without a command go to the TUI.
		if len(cmd) > 0 && cmd[0] == '-' {
			return runTUI(ctx, args, out, errOut)
		}
		fmt.Fprintf(errOut, "pokedex: unknown command %q\n\n", cmd)
		fmt.Fprint(errOut, usage)
		return 1
	}
}
