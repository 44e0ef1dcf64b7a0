package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"github.com/abelbrown/pokedex/internal/config"
	"github.com/abelbrown/pokedex/internal/controller"
	"github.com/abelbrown/pokedex/internal/coord"
	"github.com/abelbrown/pokedex/internal/filter"
	"github.com/abelbrown/pokedex/internal/ui"
)

// listOptions are the flags shared by the TUI and the headless list.
type listOptions struct {
	dataDir  string
	pageSize int
	sort     string
	mode     string
	search   string
}

func (o *listOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.dataDir, "data-dir", defaultDataDir(), dataDirUsage)
	fs.IntVar(&o.pageSize, "page-size", 0, "Summaries per page (default from config)")
	fs.StringVar(&o.sort, "sort", "", "Sort criteria, e.g. hp:desc,name (default from config)")
	fs.StringVar(&o.mode, "mode", "", "Search mode: name or type (default from config)")
	fs.StringVarP(&o.search, "search", "s", "", "Initial search query")
}

// apply resolves the flags against cfg, flags winning.
func (o *listOptions) apply(cfg *config.Config) (filter.Predicate, filter.Criteria, error) {
	mode := cfg.Mode()
	if o.mode != "" {
		m, err := filter.ParseMode(o.mode)
		if err != nil {
			return filter.Predicate{}, nil, err
		}
		mode = m
	}
	criteria := cfg.SortCriteria()
	if o.sort != "" {
		cs, err := filter.ParseCriteria(o.sort)
		if err != nil {
			return filter.Predicate{}, nil, err
		}
		criteria = cs
	}
	return filter.Predicate{Mode: mode, Query: o.search}, criteria, nil
}

func runTUI(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var opts listOptions
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
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
	ctrl.SetCriteria(criteria)
	ctrl.SetPredicate(pred)
	scroll := controller.NewDebouncer(cfg.List.Debounce.D(), ctrl.LoadMore)

	app := ui.NewApp(ui.AppConfig{
		Lister:     ctrl,
		Scroll:     scroll,
		Ring:       sess.ring,
		SearchMode: pred.Mode,
	})
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(out))

	coordCfg := coord.Config{
		Snapshots: ctrl.Subscribe(),
		MaxAge:    cfg.Cache.MaxAge.D(),
		Logger:    sess.log,
	}
	if sess.cache != nil {
		coordCfg.Cache = sess.cache
	}
	bgCtx, cancel := context.WithCancel(ctx)
	coordinator := coord.New(coordCfg)
	coordinator.Start(bgCtx, program)

	// Run UI (blocks until quit)
	_, runErr := program.Run()

	// Graceful shutdown
	scroll.Stop()
	ctrl.Close()
	cancel()
	coordinator.Wait()

	if runErr != nil && ctx.Err() == nil {
		sess.log.Error("program exited", "err", runErr)
		fmt.Fprintln(errOut, "error:", runErr)
		return 1
	}
	return 0
}

// exitCode maps a flag parse error to an exit status; -h is success.
func exitCode(err error) int {
	if err == flag.ErrHelp {
		return 0
	}
	return 2
}
