package fda

import (
	"fmt"

	"github.com/notargets/gopda/basis"
	"github.com/notargets/gopda/utils"
)

// WeightFunction is one coefficient function of a differential operator.
// When Estimate is set its coefficients are free parameters; Lambda > 0 adds
// Lambda * c^T P c, with P the roughness matrix of order PenaltyOrder.
type WeightFunction struct {
	FD           *FD
	Estimate     bool
	Lambda       float64
	PenaltyOrder int
}

func NewWeightFunction(fd *FD, estimate bool) (wf *WeightFunction, err error) {
	wf = &WeightFunction{FD: fd, Estimate: estimate}
	if err = wf.Validate(); err != nil {
		wf = nil
	}
	return
}

// NewConstantWeight is a time invariant weight with the given value
func NewConstantWeight(rangeval [2]float64, value float64, estimate bool) (wf *WeightFunction, err error) {
	var (
		cb *basis.Constant
		fd *FD
	)
	if cb, err = basis.NewConstant(rangeval); err != nil {
		return
	}
	if fd, err = NewFDVector([]float64{value}, cb); err != nil {
		return
	}
	return NewWeightFunction(fd, estimate)
}

// WithRoughness sets the weight's own smoothing parameter and penalty order
func (wf *WeightFunction) WithRoughness(lambda float64, order int) *WeightFunction {
	wf.Lambda, wf.PenaltyOrder = lambda, order
	return wf
}

func (wf *WeightFunction) Validate() error {
	if wf == nil || wf.FD == nil {
		return fmt.Errorf("%w: missing functional data object", basis.ErrInvalidBasis)
	}
	if err := basis.Validate(wf.FD.Basis); err != nil {
		return err
	}
	if nc := wf.FD.NCurves(); nc != 1 {
		return fmt.Errorf("%w: %d columns", ErrMultiVariable, nc)
	}
	if wf.PenaltyOrder < 0 {
		return fmt.Errorf("%w: penalty order %d", basis.ErrNegativeDeriv, wf.PenaltyOrder)
	}
	return nil
}

func (wf *WeightFunction) NBasis() int { return wf.FD.NBasis() }

func (wf *WeightFunction) Basis() basis.Basis { return wf.FD.Basis }

// Coefficients returns a copy of the coefficient vector
func (wf *WeightFunction) Coefficients() []float64 {
	return wf.FD.Coef.Col(0).Data()
}

func (wf *WeightFunction) SetCoefficients(c []float64) error {
	if len(c) != wf.NBasis() {
		return fmt.Errorf("%w: %d coefficients for %d basis functions", ErrDimension, len(c), wf.NBasis())
	}
	wf.FD.Coef.SetCol(0, c)
	return nil
}

// Penalty is the roughness matrix of the weight's basis
func (wf *WeightFunction) Penalty() (utils.Matrix, error) {
	return basis.Penalty(wf.FD.Basis, wf.PenaltyOrder)
}

// RoughnessPenalty is Lambda * c^T P c, zero when Lambda <= 0
func (wf *WeightFunction) RoughnessPenalty() (pen float64, err error) {
	if wf.Lambda <= 0 {
		return
	}
	var P utils.Matrix
	if P, err = wf.Penalty(); err != nil {
		return
	}
	pen = wf.Lambda * basis.EvalQuadratic(P, wf.Coefficients())
	return
}

// QuadValues evaluates the weight at the points of a quadrature rule
func (wf *WeightFunction) QuadValues(q basis.Quadrature) ([]float64, error) {
	return wf.FD.EvalCurve(q.Points, 0, 0)
}

func (wf *WeightFunction) Copy() *WeightFunction {
	c := *wf
	c.FD = wf.FD.Copy()
	return &c
}
