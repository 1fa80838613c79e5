package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/born-ml/statedict/internal/catalog"
	"github.com/born-ml/statedict/internal/ctxlog"
	"github.com/born-ml/statedict/internal/parallel"
	"github.com/born-ml/statedict/internal/serialization"
	"github.com/born-ml/statedict/internal/statedict"
)

func (a *App) inspect(ctx context.Context, path string) error {
	d, err := a.loadDict(ctx, path)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.outW, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDTYPE\tSHAPE\tNUMEL\tDIGEST")
	for name, t := range d.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			name, t.DType(), t.Shape(), t.NumElements(), statedict.FormatDigest(statedict.TensorDigest(t)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.outW, "%d tensors, %d elements, digest %s\n",
		d.Len(), d.NumElements(), statedict.FormatDigest(statedict.DictDigest(d)))
	return err
}

func (a *App) convert(ctx context.Context, in, out string) error {
	d, err := a.loadDict(ctx, in)
	if err != nil {
		return err
	}

	format := FormatFromPath(out)
	switch format {
	case FormatBorn:
		err = serialization.Save(out, d, serialization.WriteOptions{Source: in})
	case FormatSafeTensors:
		err = serialization.SaveSafeTensors(out, d, map[string]string{
			"source": in,
			"digest": statedict.FormatDigest(statedict.DictDigest(d)),
		})
	default:
		var opts []statedict.WriteOption
		if c := a.cfg.Output.Compression; c != "" {
			compression, perr := statedict.ParseCompression(c)
			if perr != nil {
				return perr
			}
			opts = append(opts, statedict.WithCompression(compression))
		}
		if a.cfg.Output.Indent {
			opts = append(opts, statedict.WithIndent())
		}
		if a.cfg.Output.Flat {
			opts = append(opts, statedict.WithFlatPayload())
		}
		err = statedict.Save(out, d, opts...)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	ctxlog.FromContext(ctx).Info("Wrote state dict.", "path", out, "format", format.String(), "tensors", d.Len())
	_, err = fmt.Fprintf(a.outW, "%s -> %s (%s, %d tensors)\n", in, out, format, d.Len())
	return err
}

// loadAll loads every path concurrently. Results keep the order of paths.
func (a *App) loadAll(ctx context.Context, paths []string) ([]*statedict.Dict, error) {
	dicts := make([]*statedict.Dict, len(paths))
	err := parallel.Do(ctx, len(paths), parallel.DefaultConfig(), func(ctx context.Context, i int) error {
		d, err := a.loadDict(ctx, paths[i])
		if err != nil {
			return err
		}
		dicts[i] = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dicts, nil
}

func (a *App) digest(ctx context.Context, paths []string) error {
	dicts, err := a.loadAll(ctx, paths)
	if err != nil {
		return err
	}
	for i, d := range dicts {
		if _, err := fmt.Fprintf(a.outW, "%s  %s\n", statedict.FormatDigest(statedict.DictDigest(d)), paths[i]); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) openCatalog(ctx context.Context) (*catalog.Catalog, error) {
	c, err := catalog.Open(ctx, a.cfg.Catalog)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Catalog opened.", "path", a.cfg.Catalog)
	return c, nil
}

func (a *App) index(ctx context.Context, paths []string) error {
	c, err := a.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	dicts, err := a.loadAll(ctx, paths)
	if err != nil {
		return err
	}
	for i, d := range dicts {
		path := paths[i]
		cp, err := c.Record(ctx, path, d)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(a.outW, "%d\t%s\t%s\n", cp.ID, cp.Digest, path); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) list(ctx context.Context) error {
	c, err := a.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	cps, err := c.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.outW, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECORDED\tTENSORS\tELEMENTS\tDIGEST\tPATH")
	for _, cp := range cps {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\n",
			cp.ID, cp.CreatedAt.Local().Format("2006-01-02 15:04:05"), cp.Tensors, cp.Elements, cp.Digest, cp.Path)
	}
	return tw.Flush()
}

func (a *App) diff(ctx context.Context, oldPath, newPath string) error {
	c, err := a.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	dicts, err := a.loadAll(ctx, []string{oldPath, newPath})
	if err != nil {
		return err
	}
	old, err := c.Record(ctx, oldPath, dicts[0])
	if err != nil {
		return err
	}
	cur, err := c.Record(ctx, newPath, dicts[1])
	if err != nil {
		return err
	}

	changes := catalog.Diff(old, cur)
	if len(changes) == 0 {
		_, err := fmt.Fprintln(a.outW, "identical")
		return err
	}
	for _, ch := range changes {
		if _, err := fmt.Fprintln(a.outW, ch.String()); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(a.outW, "%d changes\n", len(changes))
	return err
}
