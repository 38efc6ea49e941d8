// Package pda estimates the weight functions of a linear differential
// operator from sampled curves by profiled parameter cascading.
package pda

import (
	"errors"
	"fmt"

	"github.com/notargets/gopda/basis"
	"github.com/notargets/gopda/fda"
)

var (
	ErrNoOperator      = errors.New("operator has no homogeneous weight functions")
	ErrForcingMismatch = errors.New("forcing weights and forcing functions differ in number")
	ErrParameterLength = errors.New("parameter vector length does not match the layout")
	ErrSingular        = errors.New("regularized normal equations are singular")
	ErrNoData          = errors.New("no smoothing data")
)

// Operator is L x = sum_j Bwt[j] D^j x + D^m x with m = len(Bwt), together
// with the forcing term sum_k Awt[k] u_k where u_k = Ufd[k].
type Operator struct {
	Bwt []*fda.WeightFunction
	Awt []*fda.WeightFunction
	Ufd []*fda.FD
}

func (op *Operator) Order() int { return len(op.Bwt) }

func (op *Operator) HasForcing() bool { return len(op.Awt) != 0 && len(op.Ufd) != 0 }

func (op *Operator) Validate() error {
	if op == nil || len(op.Bwt) == 0 {
		return ErrNoOperator
	}
	for j, wf := range op.Bwt {
		if err := wf.Validate(); err != nil {
			return fmt.Errorf("homogeneous weight %d: %w", j, err)
		}
	}
	if len(op.Awt) != len(op.Ufd) {
		return fmt.Errorf("%w: %d weights, %d functions", ErrForcingMismatch, len(op.Awt), len(op.Ufd))
	}
	for k, wf := range op.Awt {
		if err := wf.Validate(); err != nil {
			return fmt.Errorf("forcing weight %d: %w", k, err)
		}
	}
	for k, u := range op.Ufd {
		if u == nil {
			return fmt.Errorf("forcing function %d: %w: missing functional data object", k, basis.ErrInvalidBasis)
		}
		if err := basis.Validate(u.Basis); err != nil {
			return fmt.Errorf("forcing function %d: %w", k, err)
		}
		if nc := u.NCurves(); nc != 1 {
			return fmt.Errorf("forcing function %d: %w: %d columns", k, fda.ErrMultiVariable, nc)
		}
	}
	return nil
}

// Copy duplicates the weight functions; forcing functions are shared as
// they are never modified.
func (op *Operator) Copy() *Operator {
	c := &Operator{
		Bwt: make([]*fda.WeightFunction, len(op.Bwt)),
		Awt: make([]*fda.WeightFunction, len(op.Awt)),
		Ufd: append([]*fda.FD(nil), op.Ufd...),
	}
	for j, wf := range op.Bwt {
		c.Bwt[j] = wf.Copy()
	}
	for k, wf := range op.Awt {
		c.Awt[k] = wf.Copy()
	}
	return c
}

// Weight returns the weight function a layout block refers to
func (op *Operator) Weight(blk Block) *fda.WeightFunction {
	if blk.Kind == Homogeneous {
		return op.Bwt[blk.Index]
	}
	return op.Awt[blk.Index]
}
