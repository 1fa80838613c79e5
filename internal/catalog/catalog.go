package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/born-ml/statedict/internal/statedict"
)

// ErrNotFound is returned when no checkpoint matches a lookup.
var ErrNotFound = errors.New("checkpoint not found")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Catalog is a handle to the checkpoint database.
type Catalog struct {
	db *gorm.DB
}

// Open opens (creating if needed) the catalog database at path and migrates
// its schema. Parent directories are created.
func Open(ctx context.Context, path string) (*Catalog, error) {
	if path == "" {
		return nil, errors.New("catalog path is empty")
	}
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create catalog directory %s: %w", dir, err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:          newGormLog(),
		CreateBatchSize: 500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	if err := db.WithContext(ctx).AutoMigrate(tables...); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the database connection.
func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record stores d as a new checkpoint for path. Entries keep dict order.
func (c *Catalog) Record(ctx context.Context, path string, d *statedict.Dict) (*Checkpoint, error) {
	cp := &Checkpoint{
		Path:    path,
		Digest:  statedict.FormatDigest(statedict.DictDigest(d)),
		Tensors: d.Len(),
		Entries: make([]Entry, 0, d.Len()),
	}
	for name, t := range d.All() {
		cp.Entries = append(cp.Entries, Entry{
			Position:    len(cp.Entries),
			Name:        name,
			DType:       t.DType().String(),
			Shape:       t.Shape().Clone(),
			NumElements: int64(t.NumElements()),
			Digest:      statedict.FormatDigest(statedict.TensorDigest(t)),
		})
		cp.Elements += int64(t.NumElements())
	}

	if err := c.db.WithContext(ctx).Create(cp).Error; err != nil {
		return nil, fmt.Errorf("failed to record %s: %w", path, err)
	}
	return cp, nil
}

// Latest returns the most recent checkpoint recorded for path.
func (c *Catalog) Latest(ctx context.Context, path string) (*Checkpoint, error) {
	var cp Checkpoint
	err := c.withEntries(ctx).
		Where("path = ?", path).
		Order("id DESC").
		First(&cp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", path, err)
	}
	return &cp, nil
}

// Get returns the checkpoint with the given id.
func (c *Catalog) Get(ctx context.Context, id uint64) (*Checkpoint, error) {
	var cp Checkpoint
	err := c.withEntries(ctx).First(&cp, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up checkpoint %d: %w", id, err)
	}
	return &cp, nil
}

// List returns every checkpoint without entries, newest first.
func (c *Catalog) List(ctx context.Context) ([]Checkpoint, error) {
	var cps []Checkpoint
	if err := c.db.WithContext(ctx).Order("id DESC").Find(&cps).Error; err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	return cps, nil
}

// FindByDigest returns checkpoints whose dict digest equals digest.
func (c *Catalog) FindByDigest(ctx context.Context, digest string) ([]Checkpoint, error) {
	var cps []Checkpoint
	if err := c.db.WithContext(ctx).Where("digest = ?", digest).Order("id").Find(&cps).Error; err != nil {
		return nil, fmt.Errorf("failed to search digest %s: %w", digest, err)
	}
	return cps, nil
}

func (c *Catalog) withEntries(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx).Preload("Entries", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}
