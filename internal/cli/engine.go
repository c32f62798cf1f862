package cli

import (
	"github.com/HendryAvila/taskroute/internal/config"
	"github.com/HendryAvila/taskroute/internal/logging"
	"github.com/HendryAvila/taskroute/internal/server"
)

// engine is the wired core plus the configuration it was built from.
// It is built lazily on first use and shared by every subcommand in the
// process.
type engine struct {
	root    string
	cfg     *config.Config
	logger  *logging.Logger
	core    *server.Engine
	cleanup func()
}

var eng *engine

// getEngine builds the engine on first use.
func getEngine() (*engine, error) {
	if eng != nil {
		return eng, nil
	}

	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)
	core, cleanup, err := server.BuildEngine(root, cfg, logger)
	if err != nil {
		return nil, err
	}

	eng = &engine{root: root, cfg: cfg, logger: logger, core: core, cleanup: cleanup}
	return eng, nil
}

// closeEngine releases the engine's stores, if one was built.
func closeEngine() {
	if eng != nil {
		eng.cleanup()
		eng = nil
	}
}

// resolveRoot picks the project root: the --root flag when given,
// otherwise the nearest ancestor with a .taskroute/config.json.
func resolveRoot() (string, error) {
	if flagRoot != "" {
		return flagRoot, nil
	}
	return config.FindRoot()
}

// newLogger builds the logger from config with flag overrides applied.
func newLogger(cfg *config.Config) *logging.Logger {
	format := cfg.Logging.Format
	if flagLogFormat != "" {
		format = flagLogFormat
	}
	level := cfg.Logging.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	return logging.New(logging.Config{
		Format: logging.Format(format),
		Level:  logging.ParseLevel(level),
	})
}
