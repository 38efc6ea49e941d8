package pda

import (
	"fmt"
)

type BlockKind uint8

const (
	Homogeneous BlockKind = iota
	Forcing
)

func (k BlockKind) String() string {
	switch k {
	case Homogeneous:
		return "b"
	case Forcing:
		return "a"
	}
	return "?"
}

// Block is the slice [Offset, Offset+Length) of the parameter vector holding
// the coefficients of one estimated weight function.
type Block struct {
	Kind   BlockKind
	Index  int // derivative order for Homogeneous, forcing term for Forcing
	Offset int
	Length int
}

func (b Block) String() string {
	return fmt.Sprintf("%s%d[%d:%d]", b.Kind, b.Index, b.Offset, b.Offset+b.Length)
}

// Layout maps the flat parameter vector onto the estimated weight functions
// of an operator: all free b_0 coefficients, then b_1, ..., then a_1, a_2, ...
// Weights that are not estimated have no block.
type Layout struct {
	Blocks       []Block
	NHomogeneous int
	Size         int
}

func NewLayout(op *Operator) (l *Layout) {
	l = &Layout{}
	for j, wf := range op.Bwt {
		if wf.Estimate {
			l.add(Homogeneous, j, wf.NBasis())
		}
	}
	l.NHomogeneous = l.Size
	for k, wf := range op.Awt {
		if wf.Estimate {
			l.add(Forcing, k, wf.NBasis())
		}
	}
	return
}

func (l *Layout) add(kind BlockKind, index, length int) {
	l.Blocks = append(l.Blocks, Block{
		Kind:   kind,
		Index:  index,
		Offset: l.Size,
		Length: length,
	})
	l.Size += length
}

// Pack gathers the coefficients of the estimated weights into one vector
func (l *Layout) Pack(op *Operator) (bvec []float64) {
	bvec = make([]float64, l.Size)
	for _, blk := range l.Blocks {
		copy(bvec[blk.Offset:blk.Offset+blk.Length], op.Weight(blk).Coefficients())
	}
	return
}

// Unpack returns a copy of op with the estimated coefficients taken from bvec
func (l *Layout) Unpack(bvec []float64, op *Operator) (opU *Operator, err error) {
	if len(bvec) != l.Size {
		err = fmt.Errorf("%w: have %d, need %d", ErrParameterLength, len(bvec), l.Size)
		return
	}
	opU = op.Copy()
	for _, blk := range l.Blocks {
		if err = opU.Weight(blk).SetCoefficients(bvec[blk.Offset : blk.Offset+blk.Length]); err != nil {
			opU = nil
			return
		}
	}
	return
}

// Names labels every parameter, e.g. "b0[2]"
func (l *Layout) Names() (names []string) {
	names = make([]string, 0, l.Size)
	for _, blk := range l.Blocks {
		for p := 0; p < blk.Length; p++ {
			names = append(names, fmt.Sprintf("%s%d[%d]", blk.Kind, blk.Index, p))
		}
	}
	return
}
