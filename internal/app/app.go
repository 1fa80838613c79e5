package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/born-ml/statedict/internal/config"
	"github.com/born-ml/statedict/internal/ctxlog"
	"github.com/born-ml/statedict/internal/statedict"
)

// App runs one command with its own logger and configuration.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *config.Config
	filter *statedict.Filter
}

// New loads the config file, applies command-line overrides and builds the
// logger. Log records go to logW, command output to outW.
func New(ctx context.Context, outW, logW io.Writer, opts *Options) (*App, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath == "" {
		cfg, err = config.LoadOptional(ctx, config.DefaultPath())
	} else {
		cfg, err = config.Load(ctx, opts.ConfigPath)
	}
	if err != nil {
		return nil, err
	}

	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := ctxlog.New(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.", "level", cfg.LogLevel, "format", cfg.LogFormat)

	a := &App{outW: outW, logger: logger, cfg: cfg}
	if cfg.Filter != "" {
		if a.filter, err = statedict.CompileFilter(cfg.Filter); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func applyOverrides(cfg *config.Config, opts *Options) {
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.LogFormat = opts.LogFormat
	}
	if opts.Trace != nil {
		cfg.Trace = *opts.Trace
	}
	if opts.Filter != "" {
		cfg.Filter = opts.Filter
	}
	if opts.Catalog != "" {
		cfg.Catalog = opts.Catalog
	}
	if opts.Compression != "" {
		cfg.Output.Compression = opts.Compression
	}
	if opts.Indent != nil {
		cfg.Output.Indent = *opts.Indent
	}
	if opts.Flat != nil {
		cfg.Output.Flat = *opts.Flat
	}
}

// Config returns the effective configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Run executes opts.Command.
func (a *App) Run(ctx context.Context, opts *Options) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("Running command.", "command", opts.Command, "args", opts.Args)

	switch opts.Command {
	case CmdInspect:
		return a.inspect(ctx, opts.Args[0])
	case CmdConvert:
		return a.convert(ctx, opts.Args[0], opts.Args[1])
	case CmdDigest:
		return a.digest(ctx, opts.Args)
	case CmdIndex:
		return a.index(ctx, opts.Args)
	case CmdList:
		return a.list(ctx)
	case CmdDiff:
		return a.diff(ctx, opts.Args[0], opts.Args[1])
	case CmdVersion:
		_, err := fmt.Fprintf(a.outW, "statedict %s\n", Version)
		return err
	default:
		return fmt.Errorf("unknown command %q", opts.Command)
	}
}
