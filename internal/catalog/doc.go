// Package catalog records loaded state dicts in a SQLite database so that
// checkpoints can be listed and compared entry by entry.
package catalog
