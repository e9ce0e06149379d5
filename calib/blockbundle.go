package calib

import (
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvecal/errs"
)

// BlockJacobian pairs the building block a curve was calibrated in with the
// sensitivity of that curve's parameters to the block's market quotes. The
// matrix has NbParameters(curve) rows and Block.TotalParameters() columns.
type BlockJacobian struct {
	Block  *CurveBuildingBlock
	Matrix *mat.Dense
}

// CurveBuildingBlockBundle collects the BlockJacobian of every calibrated
// curve. It is built by a single calibration goroutine and read-only after.
type CurveBuildingBlockBundle struct {
	names   []string
	entries map[string]BlockJacobian
}

// NewCurveBuildingBlockBundle returns an empty bundle.
func NewCurveBuildingBlockBundle() *CurveBuildingBlockBundle {
	return &CurveBuildingBlockBundle{entries: make(map[string]BlockJacobian)}
}

// Add stores the block and Jacobian for name, replacing any previous entry.
func (b *CurveBuildingBlockBundle) Add(name string, block *CurveBuildingBlock, jacobian *mat.Dense) error {
	if block == nil {
		return errs.InvalidArgument("block bundle: nil block for curve %q", name)
	}
	if jacobian == nil {
		return errs.InvalidArgument("block bundle: nil Jacobian for curve %q", name)
	}
	n, err := block.NbParameters(name)
	if err != nil {
		return errs.InvalidArgument("block bundle: block does not describe curve %q", name)
	}
	r, c := jacobian.Dims()
	if r != n || c != block.TotalParameters() {
		return errs.InvalidArgument("block bundle: Jacobian for %q is %dx%d, expected %dx%d",
			name, r, c, n, block.TotalParameters())
	}
	b.put(name, BlockJacobian{Block: block, Matrix: jacobian})
	return nil
}

func (b *CurveBuildingBlockBundle) put(name string, bj BlockJacobian) {
	if _, ok := b.entries[name]; !ok {
		b.names = append(b.names, name)
	}
	b.entries[name] = bj
}

// AddAll merges other into b. On a name collision other's entry wins.
func (b *CurveBuildingBlockBundle) AddAll(other *CurveBuildingBlockBundle) {
	if other == nil {
		return
	}
	for _, name := range other.names {
		b.put(name, other.entries[name])
	}
}

// Block returns the entry for name.
func (b *CurveBuildingBlockBundle) Block(name string) (BlockJacobian, error) {
	bj, ok := b.entries[name]
	if !ok {
		return BlockJacobian{}, errs.NotFound("curve %q in block bundle", name)
	}
	return bj, nil
}

// Names returns the curve names in first-insertion order.
func (b *CurveBuildingBlockBundle) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// Len returns the number of curves in the bundle.
func (b *CurveBuildingBlockBundle) Len() int {
	return len(b.names)
}
