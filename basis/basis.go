// Package basis provides the basis function systems used to represent curves
// and operator weight functions, together with the quadrature rule each basis
// integrates over.
package basis

import (
	"errors"
	"fmt"
	"sync"

	"github.com/notargets/gopda/utils"
)

var (
	ErrInvalidBasis  = errors.New("invalid basis")
	ErrOutOfRange    = errors.New("evaluation point outside basis range")
	ErrNegativeDeriv = errors.New("negative derivative order")
)

// Basis is a finite system of functions over a closed interval. A Basis is
// immutable once constructed.
type Basis interface {
	Name() string
	NBasis() int
	Range() [2]float64
	// Eval returns a len(t) x NBasis matrix of the nderiv-th derivative of
	// every basis function at every point of t.
	Eval(t []float64, nderiv int) (utils.Matrix, error)
	Quadrature() Quadrature
	// QuadValues is Eval at the quadrature points, computed once per order
	// and returned read only.
	QuadValues(nderiv int) utils.Matrix
}

// Quadrature is a rule sum_q W[q] f(Points[q]) approximating the integral
// over the basis range.
type Quadrature struct {
	Points, Weights []float64
}

func (q Quadrature) Len() int { return len(q.Points) }

// Integrate applies the rule to samples f(Points[q])
func (q Quadrature) Integrate(f []float64) (sum float64) {
	for i, w := range q.Weights {
		sum += w * f[i]
	}
	return
}

// Validate checks that b can be used as a basis object.
func Validate(b Basis) error {
	if b == nil {
		return fmt.Errorf("%w: nil basis", ErrInvalidBasis)
	}
	if b.NBasis() < 1 {
		return fmt.Errorf("%w: %s has %d basis functions", ErrInvalidBasis, b.Name(), b.NBasis())
	}
	rng := b.Range()
	if !(rng[0] < rng[1]) {
		return fmt.Errorf("%w: %s range [%g, %g]", ErrInvalidBasis, b.Name(), rng[0], rng[1])
	}
	return nil
}

// quadCache holds the quadrature rule of a basis and its evaluations there.
type quadCache struct {
	quad   Quadrature
	mu     sync.Mutex
	values map[int]utils.Matrix
}

func newQuadCache(q Quadrature) *quadCache {
	return &quadCache{
		quad:   q,
		values: make(map[int]utils.Matrix),
	}
}

func (qc *quadCache) get(b Basis, nderiv int) utils.Matrix {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	if M, ok := qc.values[nderiv]; ok {
		return M
	}
	M, err := b.Eval(qc.quad.Points, nderiv)
	if err != nil {
		// Quadrature points lie inside the range by construction
		panic(err)
	}
	M.SetReadOnly(fmt.Sprintf("%s quadrature values, derivative %d", b.Name(), nderiv))
	qc.values[nderiv] = M
	return M
}

func checkEval(rng [2]float64, t []float64, nderiv int) error {
	if nderiv < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeDeriv, nderiv)
	}
	if len(t) == 0 {
		return fmt.Errorf("%w: no evaluation points", ErrOutOfRange)
	}
	// Allow roundoff at the ends of the interval
	tol := utils.NODETOL * (rng[1] - rng[0])
	for _, tt := range t {
		if tt < rng[0]-tol || tt > rng[1]+tol {
			return fmt.Errorf("%w: %g not in [%g, %g]", ErrOutOfRange, tt, rng[0], rng[1])
		}
	}
	return nil
}

func clamp(t float64, rng [2]float64) float64 {
	if t < rng[0] {
		return rng[0]
	}
	if t > rng[1] {
		return rng[1]
	}
	return t
}

// GaussLegendre returns the nq point Gauss-Legendre rule mapped to [a, b]
func GaussLegendre(nq int, a, b float64) (q Quadrature) {
	var (
		half = 0.5 * (b - a)
	)
	r, w := JacobiGQ(0, 0, nq-1)
	q.Points = make([]float64, nq)
	q.Weights = make([]float64, nq)
	for i := range r {
		q.Points[i] = a + (r[i]+1.)*half
		q.Weights[i] = w[i] * half
	}
	return
}

// CompositeGaussLegendre applies an nq point rule on every interval of breaks
func CompositeGaussLegendre(nq int, breaks []float64) (q Quadrature) {
	for i := 0; i < len(breaks)-1; i++ {
		qi := GaussLegendre(nq, breaks[i], breaks[i+1])
		q.Points = append(q.Points, qi.Points...)
		q.Weights = append(q.Weights, qi.Weights...)
	}
	return
}
