package catalog

import (
	"fmt"
	"slices"
)

// ChangeKind classifies one difference between two checkpoints.
type ChangeKind int

// Change kinds.
const (
	Added ChangeKind = iota + 1
	Removed
	Reshaped // dtype or shape differs
	Changed  // same dtype and shape, different values
	Moved    // same tensor at a different position
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Reshaped:
		return "reshaped"
	case Changed:
		return "changed"
	case Moved:
		return "moved"
	default:
		return "unknown"
	}
}

// Change is one entry-level difference. Old is nil for Added, New for Removed.
type Change struct {
	Name string
	Kind ChangeKind
	Old  *Entry
	New  *Entry
}

func (c Change) String() string {
	switch c.Kind {
	case Added:
		return fmt.Sprintf("+ %s %s%v", c.Name, c.New.DType, c.New.Shape)
	case Removed:
		return fmt.Sprintf("- %s %s%v", c.Name, c.Old.DType, c.Old.Shape)
	case Reshaped:
		return fmt.Sprintf("~ %s %s%v -> %s%v", c.Name, c.Old.DType, c.Old.Shape, c.New.DType, c.New.Shape)
	case Changed:
		return fmt.Sprintf("* %s %s -> %s", c.Name, c.Old.Digest, c.New.Digest)
	case Moved:
		return fmt.Sprintf("> %s %d -> %d", c.Name, c.Old.Position, c.New.Position)
	default:
		return c.Name
	}
}

// Diff compares two checkpoints. Removed entries come first in old order,
// then the remaining changes in new order. Identical checkpoints yield nil.
func Diff(old, cur *Checkpoint) []Change {
	if old.Digest == cur.Digest {
		return nil
	}

	byName := func(entries []Entry) map[string]*Entry {
		m := make(map[string]*Entry, len(entries))
		for i := range entries {
			m[entries[i].Name] = &entries[i]
		}
		return m
	}
	oldByName := byName(old.Entries)
	curByName := byName(cur.Entries)

	var changes []Change
	for i := range old.Entries {
		e := &old.Entries[i]
		if _, ok := curByName[e.Name]; !ok {
			changes = append(changes, Change{Name: e.Name, Kind: Removed, Old: e})
		}
	}

	// Positions are compared after dropping removed and added names, so one
	// insertion does not report every later entry as moved.
	oldRank := relativeOrder(old.Entries, curByName)
	curRank := relativeOrder(cur.Entries, oldByName)

	for i := range cur.Entries {
		e := &cur.Entries[i]
		prev, ok := oldByName[e.Name]
		switch {
		case !ok:
			changes = append(changes, Change{Name: e.Name, Kind: Added, New: e})
		case prev.DType != e.DType || !slices.Equal(prev.Shape, e.Shape):
			changes = append(changes, Change{Name: e.Name, Kind: Reshaped, Old: prev, New: e})
		case prev.Digest != e.Digest:
			changes = append(changes, Change{Name: e.Name, Kind: Changed, Old: prev, New: e})
		case oldRank[e.Name] != curRank[e.Name]:
			changes = append(changes, Change{Name: e.Name, Kind: Moved, Old: prev, New: e})
		}
	}
	return changes
}

// relativeOrder numbers the entries that also appear in other.
func relativeOrder(entries []Entry, other map[string]*Entry) map[string]int {
	rank := make(map[string]int, len(entries))
	for _, e := range entries {
		if _, ok := other[e.Name]; ok {
			rank[e.Name] = len(rank)
		}
	}
	return rank
}
