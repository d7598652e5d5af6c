package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/roboplan/internal/config"
	"github.com/roach88/roboplan/internal/planner"
	"github.com/roach88/roboplan/internal/scene"
	"github.com/roach88/roboplan/internal/store"
	"github.com/roach88/roboplan/internal/synth"
)

// HeuristicModel names the offline synthesizer in output and history.
const HeuristicModel = "heuristic"

// PlannerFlags are the flags shared by commands that synthesize plans.
// Set flags override the config file and the environment.
type PlannerFlags struct {
	APIKey  string
	Model   string
	Catalog string
	DB      string
	Offline bool
	Strict  bool
}

func (f *PlannerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.APIKey, "api-key", "", "API key (default: $"+synth.APIKeyEnv+")")
	cmd.Flags().StringVar(&f.Model, "model", "", "chat model (default: "+synth.DefaultModel+")")
	cmd.Flags().BoolVar(&f.Offline, "offline", false, "use the deterministic offline synthesizer")
	cmd.Flags().StringVar(&f.Catalog, "catalog", "", "scene catalog file (.cue, .yaml)")
	cmd.Flags().StringVar(&f.DB, "db", "", "record plans in this SQLite history database")
	cmd.Flags().BoolVar(&f.Strict, "strict", false, "reject plans whose targets are not in the scene")
}

// apply overlays set flags onto cfg.
func (f *PlannerFlags) apply(cfg *config.Config) {
	if f.APIKey != "" {
		cfg.APIKey = f.APIKey
	}
	if f.Model != "" {
		cfg.Model = f.Model
	}
	if f.Catalog != "" {
		cfg.Catalog = f.Catalog
	}
	if f.DB != "" {
		cfg.DB = f.DB
	}
	cfg.Offline = cfg.Offline || f.Offline
	cfg.Strict = cfg.Strict || f.Strict
}

// runtime is the wired planning stack for one command invocation.
type runtime struct {
	cfg      *config.Config
	resolver *scene.CatalogResolver
	planner  *planner.Planner
	history  *store.Store // nil unless a database is configured
	ids      store.IDGenerator
	model    string
	logger   *slog.Logger
}

// loadConfig reads --config and the environment, then applies flags.
func loadConfig(opts *RootOptions, flags *PlannerFlags) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	if flags != nil {
		flags.apply(cfg)
	}
	return cfg, nil
}

// loadResolver returns a resolver over the configured catalog, or over the
// built-in catalog when none is configured.
func loadResolver(cfg *config.Config) (*scene.CatalogResolver, error) {
	if cfg.Catalog == "" {
		return scene.NewResolver(scene.DefaultCatalog()), nil
	}
	catalog, err := scene.LoadCatalogFile(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	return scene.NewResolver(catalog), nil
}

// newRuntime wires config, catalog, synthesizer, planner and the optional
// history store. Failures are reported through f and returned as exit
// errors with ExitCommandError.
func newRuntime(opts *RootOptions, flags *PlannerFlags, f *OutputFormatter, logw io.Writer) (*runtime, error) {
	logger := newLogger(opts, logw)

	cfg, err := loadConfig(opts, flags)
	if err != nil {
		return nil, commandError(f, ErrCodeConfig, "invalid configuration", err)
	}

	resolver, err := loadResolver(cfg)
	if err != nil {
		return nil, commandError(f, ErrCodeCatalog, "failed to load scene catalog", err)
	}
	logger.Debug("scene catalog loaded", "scenes", resolver.ListAvailable())

	rt := &runtime{
		cfg:      cfg,
		resolver: resolver,
		ids:      store.UUIDv7Generator{},
		logger:   logger,
	}

	var synthesizer synth.Synthesizer
	if cfg.Offline {
		synthesizer = synth.Heuristic{}
		rt.model = HeuristicModel
	} else {
		if cfg.APIKey == "" {
			return nil, commandError(f, ErrCodeMissingAPIKey,
				fmt.Sprintf("no API key: set $%s, pass --api-key, or use --offline", synth.APIKeyEnv), nil)
		}
		client := synth.NewClient(cfg.APIKey, cfg.ClientOptions(logger))
		synthesizer = synth.NewLLMSynthesizer(client,
			synth.WithRetryConfig(cfg.RetryConfig()),
			synth.WithLogger(logger),
		)
		rt.model = client.Model()
	}

	var plannerOpts []planner.Option
	if cfg.Strict {
		plannerOpts = append(plannerOpts, planner.WithStrictGrounding())
	}
	rt.planner = planner.New(resolver, synthesizer, plannerOpts...)

	if cfg.DB != "" {
		st, err := store.Open(cfg.DB)
		if err != nil {
			return nil, commandError(f, ErrCodeDatabase, "failed to open history database", err)
		}
		rt.history = st
		logger.Debug("history database opened", "path", cfg.DB)
	}

	return rt, nil
}

// Close releases the history store, if any.
func (r *runtime) Close() error {
	if r.history == nil {
		return nil
	}
	return r.history.Close()
}

// commandError reports a command-level failure and returns it as an
// ExitError with ExitCommandError.
func commandError(f *OutputFormatter, code, message string, err error) error {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %v", message, err)
	}
	_ = f.Error(code, msg, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), err)
}
