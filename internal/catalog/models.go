package catalog

import "time"

// Checkpoint is one recorded state dict.
type Checkpoint struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Path      string    `gorm:"index"`
	Digest    string    `gorm:"index"`
	Tensors   int       // number of entries
	Elements  int64     // total element count
	CreatedAt time.Time `gorm:"autoCreateTime"`
	Entries   []Entry   `gorm:"foreignKey:CheckpointID;constraint:OnDelete:CASCADE"`
}

// Entry is one tensor of a recorded checkpoint.
type Entry struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	CheckpointID uint64 `gorm:"index"`
	Position     int    // zero-based index in file order
	Name         string
	DType        string
	Shape        []int `gorm:"serializer:json;type:text"`
	NumElements  int64
	Digest       string
}

// tables lists every model AutoMigrate must create.
var tables = []any{
	&Checkpoint{},
	&Entry{},
}
