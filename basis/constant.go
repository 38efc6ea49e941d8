package basis

import (
	"fmt"

	"github.com/notargets/gopda/utils"
)

// Constant is the single function f(t) = 1 over a range. Operator weights
// that do not vary in time are expressed in it.
type Constant struct {
	rangeval [2]float64
	*quadCache
}

func NewConstant(rangeval [2]float64) (cb *Constant, err error) {
	if !(rangeval[0] < rangeval[1]) {
		err = fmt.Errorf("%w: constant basis range [%g, %g]", ErrInvalidBasis, rangeval[0], rangeval[1])
		return
	}
	cb = &Constant{
		rangeval:  rangeval,
		quadCache: newQuadCache(GaussLegendre(2, rangeval[0], rangeval[1])),
	}
	return
}

func (cb *Constant) Name() string           { return "constant" }
func (cb *Constant) NBasis() int            { return 1 }
func (cb *Constant) Range() [2]float64      { return cb.rangeval }
func (cb *Constant) Quadrature() Quadrature { return cb.quad }

func (cb *Constant) QuadValues(nderiv int) utils.Matrix { return cb.get(cb, nderiv) }

func (cb *Constant) Eval(t []float64, nderiv int) (V utils.Matrix, err error) {
	if err = checkEval(cb.rangeval, t, nderiv); err != nil {
		return
	}
	V = utils.NewMatrix(len(t), 1)
	if nderiv == 0 {
		V.SetCol(0, utils.ConstArray(len(t), 1))
	}
	return
}
