package basis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gopda/utils"
)

// Penalty returns the roughness matrix int D^q phi(t) D^q phi(t)^T dt of
// order q, integrated with the basis quadrature rule.
func Penalty(b Basis, order int) (P utils.Matrix, err error) {
	if err = Validate(b); err != nil {
		return
	}
	if order < 0 {
		err = fmt.Errorf("%w: penalty order %d", ErrNegativeDeriv, order)
		return
	}
	var (
		Phi = b.QuadValues(order)
		W   = b.Quadrature().Weights
	)
	P = Phi.Copy().ScaleRows(W).TransposeMul(Phi)
	return
}

// EvalQuadratic computes c^T P c
func EvalQuadratic(P utils.Matrix, c []float64) float64 {
	v := mat.NewVecDense(len(c), c)
	return mat.Inner(v, P, v)
}
