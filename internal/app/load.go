package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/born-ml/statedict/internal/ctxlog"
	"github.com/born-ml/statedict/internal/serialization"
	"github.com/born-ml/statedict/internal/statedict"
)

// Format is a state dict file format, chosen by file extension.
type Format int

// Known formats.
const (
	FormatJSON Format = iota
	FormatBorn
	FormatSafeTensors
)

func (f Format) String() string {
	switch f {
	case FormatBorn:
		return "born"
	case FormatSafeTensors:
		return "safetensors"
	default:
		return "json"
	}
}

// FormatFromPath maps ".born" and ".safetensors" to their formats; anything
// else, compressed or not, is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".born":
		return FormatBorn
	case ".safetensors":
		return FormatSafeTensors
	default:
		return FormatJSON
	}
}

// loadDict reads path in whatever format its extension names and applies
// the configured filter.
func (a *App) loadDict(ctx context.Context, path string) (*statedict.Dict, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()
	format := FormatFromPath(path)

	var (
		d   *statedict.Dict
		err error
	)
	switch format {
	case FormatBorn:
		d, err = serialization.Load(path)
	case FormatSafeTensors:
		d, _, err = serialization.LoadSafeTensors(path)
	default:
		d, err = statedict.Load(ctx, path,
			statedict.WithLogger(logger),
			statedict.WithTrace(a.cfg.Trace),
			statedict.WithFilter(a.filter),
			statedict.WithMaxElements(a.cfg.MaxElements))
	}
	if err != nil {
		var perr *statedict.ParseError
		if errors.As(err, &perr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if format != FormatJSON && a.filter != nil {
		if err := applyFilter(d, a.filter); err != nil {
			return nil, err
		}
	}

	logger.Info("Loaded state dict.",
		"path", path,
		"format", format.String(),
		"tensors", d.Len(),
		"elements", d.NumElements(),
		"elapsed", time.Since(start))
	return d, nil
}

func applyFilter(d *statedict.Dict, f *statedict.Filter) error {
	for _, name := range d.Keys() {
		t, _ := d.Get(name)
		keep, err := f.Match(name, t.Shape())
		if err != nil {
			return err
		}
		if !keep {
			d.Delete(name)
		}
	}
	return nil
}
