package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/spelltimer/internal/clock"
	"github.com/five82/spelltimer/internal/config"
	"github.com/five82/spelltimer/internal/engine"
	"github.com/five82/spelltimer/internal/logtail"
	"github.com/five82/spelltimer/internal/prefs"
	"github.com/five82/spelltimer/internal/spells"
	"github.com/five82/spelltimer/internal/state"
	"github.com/five82/spelltimer/internal/timers"
	"github.com/five82/spelltimer/internal/triggers"
	"github.com/five82/spelltimer/internal/ui"
)

// Options configure the spelltimer application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses prefs.toml in the state directory
	Level      int    // zero keeps the configured level
}

// Run boots the timer engine and console until the context is cancelled or
// the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Level > 0 {
		cfg.Level = opts.Level
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	logger, err := newLogger(cfg.AppLogPath())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = cfg.PrefsPath()
	}
	userPrefs, _ := prefs.Load(prefsPath)

	store := &state.Store{}
	clk := clock.Real()
	registry := timers.NewRegistry(clk, newNotifier(store, clk, logger.Named("timers")))

	eng := engine.New(engine.Deps{
		Catalog:  loadCatalog(cfg, store, logger),
		Matcher:  loadMatcher(cfg, logger),
		Registry: registry,
		Clock:    clk,
		Logger:   logger.Named("engine"),
	}, engine.Options{
		Level:        cfg.Level,
		Window:       spells.Window{Enabled: cfg.CastingWindow, Buffer: cfg.CastingBuffer()},
		Resolver:     spells.NewResolver(cfg.UseSecondary, cfg.UseSecondaryAll),
		ItemTriggers: cfg.ItemTriggers,
	})

	health := &tailHealth{}
	tailer := logtail.New(logtail.Options{
		Dir:          cfg.LogDir,
		Pattern:      cfg.LogPattern,
		PollInterval: cfg.PollInterval(),
		MaxBatch:     cfg.BatchSize,
		Resume:       resumePoint(cfg, userPrefs),
		OnPoll:       health.record,
	}, logger.Named("logtail"))

	logger.Info("spelltimer starting",
		zap.String("log_dir", cfg.LogDir),
		zap.String("pattern", cfg.LogPattern),
		zap.Int("level", cfg.Level),
		zap.Bool("casting_window", cfg.CastingWindow),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := &poller{engine: eng, registry: registry, store: store, health: health, clock: clk}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tailer.Run(gctx, func(lines []logtail.Line) { dispatch(eng, lines) })
	})
	g.Go(func() error {
		p.run(gctx, tickInterval)
		return nil
	})
	g.Go(func() error {
		// Leaving the console stops everything else.
		defer cancel()
		return ui.Run(ui.Options{
			Context:   gctx,
			Store:     store,
			Dismisser: registry,
			PollTick:  consoleRefresh,
			ThemeName: userPrefs.Theme,
			PrefsPath: prefsPath,
		})
	})

	runErr := g.Wait()
	saveBookmark(prefsPath, tailer.Bookmark(), logger)
	logger.Info("spelltimer stopped")
	return runErr
}

// loadCatalog returns nil when the spell file is unusable; custom triggers
// keep working without it.
func loadCatalog(cfg config.Config, store *state.Store, logger *zap.Logger) *spells.Catalog {
	catalog, err := spells.LoadCatalog(cfg.SpellsFile, logger.Named("spells"))
	if err != nil {
		logger.Error("spell timers disabled", zap.String("spells_file", cfg.SpellsFile), zap.Error(err))
		store.SetCatalog(0, err)
		return nil
	}
	store.SetCatalog(catalog.Len(), nil)
	logger.Info("spell catalog loaded", zap.Int("spells", catalog.Len()))
	return catalog
}

func loadMatcher(cfg config.Config, logger *zap.Logger) *triggers.Matcher {
	rules, err := triggers.LoadRules(cfg.TriggersFile)
	if err != nil {
		logger.Warn("custom triggers disabled", zap.String("triggers_file", cfg.TriggersFile), zap.Error(err))
		rules = nil
	}
	matcher := triggers.NewMatcher(rules, logger.Named("triggers"))
	logger.Info("custom triggers loaded", zap.Int("rules", matcher.Len()))
	return matcher
}

// resumePoint returns the saved read position when resuming is enabled.
func resumePoint(cfg config.Config, p prefs.Prefs) *logtail.Bookmark {
	if !cfg.Resume || !p.Bookmark.Valid() {
		return nil
	}
	return &logtail.Bookmark{Path: p.Bookmark.LogPath, Offset: p.Bookmark.Offset}
}

// saveBookmark stores the tailer position while keeping the other
// preferences, which the console may have changed since startup.
func saveBookmark(path string, b logtail.Bookmark, logger *zap.Logger) {
	if b.Path == "" {
		return
	}
	p, _ := prefs.Load(path)
	p.Bookmark = prefs.Bookmark{LogPath: b.Path, Offset: b.Offset}
	if err := prefs.Save(path, p); err != nil {
		logger.Warn("save bookmark failed", zap.String("path", path), zap.Error(err))
	}
}
