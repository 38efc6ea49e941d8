package basis

import (
	"fmt"

	"github.com/notargets/gopda/utils"
)

// Legendre is the orthonormal Legendre polynomial basis of degrees
// 0..NBasis-1 mapped from [-1,1] onto the basis range.
type Legendre struct {
	nbasis   int
	rangeval [2]float64
	*quadCache
}

// NewLegendre builds a Legendre basis; nquad <= 0 selects nbasis+4 Gauss points
func NewLegendre(rangeval [2]float64, nbasis, nquad int) (lb *Legendre, err error) {
	if nbasis < 1 {
		err = fmt.Errorf("%w: Legendre basis needs at least one function, have %d", ErrInvalidBasis, nbasis)
		return
	}
	if !(rangeval[0] < rangeval[1]) {
		err = fmt.Errorf("%w: Legendre range [%g, %g]", ErrInvalidBasis, rangeval[0], rangeval[1])
		return
	}
	if nquad <= 0 {
		nquad = nbasis + 4
	}
	lb = &Legendre{
		nbasis:    nbasis,
		rangeval:  rangeval,
		quadCache: newQuadCache(GaussLegendre(nquad, rangeval[0], rangeval[1])),
	}
	return
}

func (lb *Legendre) Name() string           { return fmt.Sprintf("legendre(%d)", lb.nbasis) }
func (lb *Legendre) NBasis() int            { return lb.nbasis }
func (lb *Legendre) Range() [2]float64      { return lb.rangeval }
func (lb *Legendre) Quadrature() Quadrature { return lb.quad }

func (lb *Legendre) QuadValues(nderiv int) utils.Matrix { return lb.get(lb, nderiv) }

func (lb *Legendre) Eval(t []float64, nderiv int) (V utils.Matrix, err error) {
	if err = checkEval(lb.rangeval, t, nderiv); err != nil {
		return
	}
	var (
		a, b  = lb.rangeval[0], lb.rangeval[1]
		r     = make([]float64, len(t))
		scale = utils.POW(2./(b-a), nderiv)
	)
	for i, tt := range t {
		r[i] = 2.*(clamp(tt, lb.rangeval)-a)/(b-a) - 1.
	}
	V = utils.NewMatrix(len(t), lb.nbasis)
	for j := 0; j < lb.nbasis; j++ {
		p := DerivJacobiP(r, 0, 0, j, nderiv)
		for i := range p {
			p[i] *= scale
		}
		V.SetCol(j, p)
	}
	return
}
