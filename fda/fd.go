// Package fda holds functional data objects: curves and weight functions
// expressed as coefficient expansions in a basis.
package fda

import (
	"errors"
	"fmt"

	"github.com/notargets/gopda/basis"
	"github.com/notargets/gopda/utils"
)

var (
	ErrDimension     = errors.New("dimension mismatch")
	ErrMultiVariable = errors.New("weight function has more than one variable")
	ErrNonFinite     = errors.New("non finite value")
)

// FD is a set of curves sharing a basis. Coef is NBasis x NCurves.
type FD struct {
	Coef  utils.Matrix
	Basis basis.Basis
}

func NewFD(coef utils.Matrix, b basis.Basis) (fd *FD, err error) {
	if err = basis.Validate(b); err != nil {
		return
	}
	if coef.IsEmpty() {
		err = fmt.Errorf("%w: empty coefficient matrix", ErrDimension)
		return
	}
	nr, _ := coef.Dims()
	if nr != b.NBasis() {
		err = fmt.Errorf("%w: %d coefficient rows for %s with %d functions",
			ErrDimension, nr, b.Name(), b.NBasis())
		return
	}
	fd = &FD{Coef: coef, Basis: b}
	return
}

// NewFDVector builds a single curve from its coefficient vector
func NewFDVector(coef []float64, b basis.Basis) (fd *FD, err error) {
	c := make([]float64, len(coef))
	copy(c, coef)
	if len(c) == 0 {
		err = fmt.Errorf("%w: empty coefficient vector", ErrDimension)
		return
	}
	return NewFD(utils.NewMatrix(len(c), 1, c), b)
}

func (fd *FD) NCurves() int {
	_, nc := fd.Coef.Dims()
	return nc
}

func (fd *FD) NBasis() int { return fd.Basis.NBasis() }

// Eval returns the nderiv-th derivative of every curve, len(t) x NCurves
func (fd *FD) Eval(t []float64, nderiv int) (V utils.Matrix, err error) {
	var Phi utils.Matrix
	if Phi, err = fd.Basis.Eval(t, nderiv); err != nil {
		return
	}
	V = Phi.Mul(fd.Coef)
	return
}

// EvalCurve evaluates a single curve as a slice
func (fd *FD) EvalCurve(t []float64, nderiv, curve int) (v []float64, err error) {
	var V utils.Matrix
	if V, err = fd.Eval(t, nderiv); err != nil {
		return
	}
	v = V.Col(curve).Data()
	return
}

func (fd *FD) Copy() *FD {
	return &FD{Coef: fd.Coef.Copy(), Basis: fd.Basis}
}
