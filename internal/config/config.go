// Package config loads the statedict HCL configuration file.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/born-ml/statedict/internal/ctxlog"
	"github.com/born-ml/statedict/internal/statedict"
)

// Config is the decoded configuration file.
//
//	log_level  = "debug"
//	log_format = "json"
//	trace      = true
//	catalog    = "${env.HOME}/.statedict/catalog.db"
//	filter     = "rank > 1"
//
//	output {
//	  compression = "zstd"
//	  indent      = false
//	}
type Config struct {
	LogLevel    string  `hcl:"log_level,optional"`
	LogFormat   string  `hcl:"log_format,optional"`
	Trace       bool    `hcl:"trace,optional"`
	Catalog     string  `hcl:"catalog,optional"`
	Filter      string  `hcl:"filter,optional"`
	MaxElements int     `hcl:"max_elements,optional"`
	Output      *Output `hcl:"output,block"`
}

// Output controls files written by convert.
type Output struct {
	Compression string `hcl:"compression,optional"` // none|gzip|zstd|lz4, empty picks by extension
	Indent      bool   `hcl:"indent,optional"`
	Flat        bool   `hcl:"flat,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Catalog:     filepath.Join(stateDir(), "catalog.db"),
		MaxElements: statedict.DefaultMaxElements,
		Output:      &Output{},
	}
}

// DefaultPath is where the CLI looks for a config file when none is given.
func DefaultPath() string {
	return filepath.Join(stateDir(), "config.hcl")
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".statedict"
	}
	return filepath.Join(home, ".statedict")
}

// Load reads and validates the config file at path.
func Load(ctx context.Context, path string) (*Config, error) {
	//nolint:gosec // G304: config path comes from the command line
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(ctx, src, path)
}

// LoadOptional is Load, except that a missing file yields Default.
func LoadOptional(ctx context.Context, path string) (*Config, error) {
	cfg, err := Load(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		ctxlog.FromContext(ctx).Debug("No config file, using defaults.", "path", path)
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes HCL source. filename is used in diagnostics only.
func Parse(ctx context.Context, src []byte, filename string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding config file.", "path", filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", filename, diags.Error())
	}

	cfg := Default()
	cfg.Output = nil
	diags = gohcl.DecodeBody(file.Body, evalContext(), cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", filename, diags.Error())
	}
	if cfg.Output == nil {
		cfg.Output = &Output{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	logger.Debug("Successfully decoded config file.", "path", filename)
	return cfg, nil
}

// Validate checks enumerated values and compiles the filter.
func (c *Config) Validate() error {
	var errs []error
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q: must be 'debug', 'info', 'warn', or 'error'", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q: must be 'text' or 'json'", c.LogFormat))
	}
	if c.MaxElements <= 0 {
		errs = append(errs, fmt.Errorf("max_elements %d: must be positive", c.MaxElements))
	}
	if c.Output != nil && c.Output.Compression != "" {
		if _, err := statedict.ParseCompression(c.Output.Compression); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Filter != "" {
		if _, err := statedict.CompileFilter(c.Filter); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// evalContext exposes the process environment as env.NAME.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !hclIdentifier(name) {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

// hclIdentifier reports whether name can be used in an env.NAME traversal.
func hclIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
