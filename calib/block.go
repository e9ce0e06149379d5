package calib

import (
	"fmt"

	"github.com/meenmo/curvecal/errs"
)

// BlockEntry locates one curve's parameters inside a flat parameter vector.
type BlockEntry struct {
	Name  string
	Start int
	Len   int
}

// CurveBuildingBlock maps curve names to contiguous ranges of a shared
// parameter vector. Entries always tile [0, TotalParameters()) in order.
type CurveBuildingBlock struct {
	entries []BlockEntry
	index   map[string]int
	total   int
}

// NewCurveBuildingBlock validates and wraps a non-empty entry list. Each entry must start
// where the previous one ended (the first at 0), have a positive length and a
// unique non-empty name.
func NewCurveBuildingBlock(entries []BlockEntry) (*CurveBuildingBlock, error) {
	if len(entries) == 0 {
		return nil, errs.InvalidArgument("building block: no curves")
	}
	b := &CurveBuildingBlock{
		entries: make([]BlockEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	next := 0
	for i, e := range entries {
		if e.Name == "" {
			return nil, errs.InvalidArgument("building block entry %d has an empty name", i)
		}
		if _, dup := b.index[e.Name]; dup {
			return nil, errs.InvalidArgument("building block: duplicate curve %q", e.Name)
		}
		if e.Len <= 0 {
			return nil, errs.InvalidArgument("building block: curve %q has %d parameters", e.Name, e.Len)
		}
		if e.Start != next {
			return nil, errs.InvalidArgument("building block: curve %q starts at %d, expected %d", e.Name, e.Start, next)
		}
		b.index[e.Name] = len(b.entries)
		b.entries = append(b.entries, e)
		next += e.Len
	}
	b.total = next
	return b, nil
}

// NewCurveBuildingBlockFromSizes lays curves out back to back in the given order.
func NewCurveBuildingBlockFromSizes(names []string, sizes []int) (*CurveBuildingBlock, error) {
	if len(names) != len(sizes) {
		return nil, errs.InvalidArgument("building block: %d names for %d sizes", len(names), len(sizes))
	}
	entries := make([]BlockEntry, len(names))
	start := 0
	for i := range names {
		entries[i] = BlockEntry{Name: names[i], Start: start, Len: sizes[i]}
		start += sizes[i]
	}
	return NewCurveBuildingBlock(entries)
}

func (b *CurveBuildingBlock) entry(name string) (BlockEntry, error) {
	i, ok := b.index[name]
	if !ok {
		return BlockEntry{}, errs.NotFound("curve %q in building block", name)
	}
	return b.entries[i], nil
}

// Start returns the index of the first parameter of the named curve.
func (b *CurveBuildingBlock) Start(name string) (int, error) {
	e, err := b.entry(name)
	if err != nil {
		return 0, err
	}
	return e.Start, nil
}

// NbParameters returns the number of parameters of the named curve.
func (b *CurveBuildingBlock) NbParameters(name string) (int, error) {
	e, err := b.entry(name)
	if err != nil {
		return 0, err
	}
	return e.Len, nil
}

// Contains reports whether the block lists the named curve.
func (b *CurveBuildingBlock) Contains(name string) bool {
	_, ok := b.index[name]
	return ok
}

// Names returns the curve names in layout order.
func (b *CurveBuildingBlock) Names() []string {
	out := make([]string, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.Name
	}
	return out
}

// Entries returns a copy of the layout.
func (b *CurveBuildingBlock) Entries() []BlockEntry {
	out := make([]BlockEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// TotalParameters is the length of the parameter vector the block describes.
func (b *CurveBuildingBlock) TotalParameters() int {
	return b.total
}

// Slice returns the sub-slice of x holding the named curve's parameters.
func (b *CurveBuildingBlock) Slice(x []float64, name string) ([]float64, error) {
	if len(x) != b.total {
		return nil, errs.InvalidArgument("parameter vector has length %d, block expects %d", len(x), b.total)
	}
	e, err := b.entry(name)
	if err != nil {
		return nil, err
	}
	return x[e.Start : e.Start+e.Len], nil
}

func (b *CurveBuildingBlock) String() string {
	return fmt.Sprintf("CurveBuildingBlock%v", b.entries)
}
