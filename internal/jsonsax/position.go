package jsonsax

import (
	"bytes"
	"io"
	"sort"
)

// positionReader records newline offsets as input flows through so byte
// offsets reported by the tokenizer can be mapped to line and column.
type positionReader struct {
	r        io.Reader
	n        int64
	newlines []int64
	err      error // first non-EOF error from r
}

func (p *positionReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	chunk := b[:n]
	base := p.n
	for {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			break
		}
		base += int64(i)
		p.newlines = append(p.newlines, base)
		base++
		chunk = chunk[i+1:]
	}
	p.n += int64(n)
	if err != nil && err != io.EOF && p.err == nil {
		p.err = err
	}
	return n, err
}

// position converts a byte offset into a Position.
func (p *positionReader) position(offset int64) Position {
	// Number of newlines strictly before offset.
	idx := sort.Search(len(p.newlines), func(i int) bool {
		return p.newlines[i] >= offset
	})
	lineStart := int64(0)
	if idx > 0 {
		lineStart = p.newlines[idx-1] + 1
	}
	return Position{
		Offset: offset,
		Line:   idx + 1,
		Column: int(offset-lineStart) + 1,
	}
}
