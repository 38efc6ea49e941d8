package basis

import (
	"fmt"
	"math"

	"github.com/notargets/gopda/utils"
)

// Monomial is the basis t^e for each exponent e, the exponents distinct and
// non negative.
type Monomial struct {
	exponents []int
	rangeval  [2]float64
	*quadCache
}

// NewMonomial uses exponents 0..nbasis-1 when exponents is empty
func NewMonomial(rangeval [2]float64, nbasis int, exponents ...int) (mb *Monomial, err error) {
	if !(rangeval[0] < rangeval[1]) {
		err = fmt.Errorf("%w: monomial range [%g, %g]", ErrInvalidBasis, rangeval[0], rangeval[1])
		return
	}
	if len(exponents) == 0 {
		for e := 0; e < nbasis; e++ {
			exponents = append(exponents, e)
		}
	}
	if len(exponents) != nbasis || nbasis < 1 {
		err = fmt.Errorf("%w: %d exponents for %d monomials", ErrInvalidBasis, len(exponents), nbasis)
		return
	}
	var (
		seen   = make(map[int]bool)
		maxExp int
	)
	for _, e := range exponents {
		if e < 0 || seen[e] {
			err = fmt.Errorf("%w: monomial exponents must be distinct and non negative, have %v",
				ErrInvalidBasis, exponents)
			return
		}
		seen[e] = true
		maxExp = max(maxExp, e)
	}
	mb = &Monomial{
		exponents: append([]int(nil), exponents...),
		rangeval:  rangeval,
		// exact for products of two monomials
		quadCache: newQuadCache(GaussLegendre(maxExp+2, rangeval[0], rangeval[1])),
	}
	return
}

func (mb *Monomial) Name() string           { return fmt.Sprintf("monomial%v", mb.exponents) }
func (mb *Monomial) NBasis() int            { return len(mb.exponents) }
func (mb *Monomial) Range() [2]float64      { return mb.rangeval }
func (mb *Monomial) Quadrature() Quadrature { return mb.quad }

func (mb *Monomial) QuadValues(nderiv int) utils.Matrix { return mb.get(mb, nderiv) }

func (mb *Monomial) Eval(t []float64, nderiv int) (V utils.Matrix, err error) {
	if err = checkEval(mb.rangeval, t, nderiv); err != nil {
		return
	}
	V = utils.NewMatrix(len(t), len(mb.exponents))
	for j, e := range mb.exponents {
		if nderiv > e {
			continue
		}
		// e!/(e-nderiv)!
		fac := 1.
		for k := e - nderiv + 1; k <= e; k++ {
			fac *= float64(k)
		}
		for i, tt := range t {
			V.M.Set(i, j, fac*math.Pow(clamp(tt, mb.rangeval), float64(e-nderiv)))
		}
	}
	return
}
