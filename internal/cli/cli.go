package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/born-ml/statedict/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// argCount is the accepted number of positional arguments per command;
// -1 means one or more.
var argCount = map[string]int{
	app.CmdInspect: 1,
	app.CmdConvert: 2,
	app.CmdDigest:  -1,
	app.CmdIndex:   -1,
	app.CmdList:    0,
	app.CmdDiff:    2,
	app.CmdVersion: 0,
}

const usageText = `
statedict - load, inspect and convert JSON state dicts.

Usage:
  statedict [options] COMMAND [ARGS]

Commands:
  inspect FILE         List every tensor with dtype, shape and digest.
  convert IN OUT       Re-save IN as OUT (.born, .safetensors, .json[.gz|.zst|.lz4]).
  digest FILE...       Print the dict digest of each file.
  index FILE...        Record each file in the catalog.
  list                 List recorded checkpoints.
  diff OLD NEW         Record both files and print entry-level differences.
  version              Print the version.

Convert options:
  -compression NAME    none, gzip, zstd or lz4 (default: from extension)
  -indent              Indent JSON output.
  -flat                Write payloads as flat lists.

Options:
`

// Parse processes command-line arguments. It returns the parsed options,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Options, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("statedict", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageText)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the HCL config file (default ~/.statedict/config.hcl).")
	logLevelFlag := flagSet.String("log-level", "", "Logging level: 'debug', 'info', 'warn', 'error'.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format: 'text' or 'json'.")
	traceFlag := flagSet.Bool("trace", false, "Log every parse event at debug level.")
	filterFlag := flagSet.String("filter", "", "Keep only entries matching this expression, e.g. 'rank > 1'.")
	catalogFlag := flagSet.String("catalog", "", "Path to the catalog database.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	opts := &app.Options{
		ConfigPath: *configFlag,
		LogLevel:   strings.ToLower(*logLevelFlag),
		LogFormat:  strings.ToLower(*logFormatFlag),
		Filter:     *filterFlag,
		Catalog:    *catalogFlag,
		Command:    flagSet.Arg(0),
		Args:       flagSet.Args()[1:],
	}
	flagSet.Visit(func(f *flag.Flag) {
		if f.Name == "trace" {
			opts.Trace = traceFlag
		}
	})

	switch opts.LogFormat {
	case "", "text", "json":
	default:
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}
	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	if opts.Command == app.CmdConvert {
		if err := parseConvert(opts, output); err != nil {
			return nil, false, err
		}
	}

	want, ok := argCount[opts.Command]
	if !ok {
		return nil, false, usageError("unknown command %q", opts.Command)
	}
	switch {
	case want < 0 && len(opts.Args) == 0:
		return nil, false, usageError("%s: at least one file is required", opts.Command)
	case want >= 0 && len(opts.Args) != want:
		return nil, false, usageError("%s: expected %d arguments, got %d", opts.Command, want, len(opts.Args))
	}

	slog.Debug("CLI parser finished successfully.", "command", opts.Command)
	return opts, false, nil
}

// parseConvert consumes convert's own flags, which may appear before or
// after the file arguments.
func parseConvert(opts *app.Options, output io.Writer) error {
	convertFlags := flag.NewFlagSet("statedict convert", flag.ContinueOnError)
	convertFlags.SetOutput(output)
	compression := convertFlags.String("compression", "", "Output compression.")
	indent := convertFlags.Bool("indent", false, "Indent JSON output.")
	flat := convertFlags.Bool("flat", false, "Write flat payload lists.")

	var positional []string
	rest := opts.Args
	for {
		if err := convertFlags.Parse(rest); err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
		rest = convertFlags.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		rest = rest[1:]
	}
	opts.Args = positional

	convertFlags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "compression":
			opts.Compression = strings.ToLower(*compression)
		case "indent":
			opts.Indent = indent
		case "flat":
			opts.Flat = flat
		}
	})
	return nil
}
