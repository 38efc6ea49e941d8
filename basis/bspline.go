package basis

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
	"github.com/notargets/gopda/utils"
)

// BSpline is a B-spline basis of a given order (degree+1) over a set of
// breakpoints, with the end knots repeated order times.
type BSpline struct {
	norder int
	breaks []float64
	knots  []float64
	*quadCache
}

// NewBSpline builds a B-spline basis with nbasis functions and equally spaced
// breakpoints
func NewBSpline(rangeval [2]float64, nbasis, norder int) (bs *BSpline, err error) {
	if norder < 1 {
		err = fmt.Errorf("%w: B-spline order %d", ErrInvalidBasis, norder)
		return
	}
	nbreaks := nbasis - norder + 2
	if nbreaks < 2 {
		err = fmt.Errorf("%w: B-spline of order %d needs at least %d functions, have %d",
			ErrInvalidBasis, norder, norder, nbasis)
		return
	}
	breaks := utils.NewVector(nbreaks).Linspace(rangeval[0], rangeval[1]).Data()
	return NewBSplineBreaks(breaks, norder)
}

func NewBSplineBreaks(breaks []float64, norder int) (bs *BSpline, err error) {
	if norder < 1 {
		err = fmt.Errorf("%w: B-spline order %d", ErrInvalidBasis, norder)
		return
	}
	if len(breaks) < 2 {
		err = fmt.Errorf("%w: B-spline needs at least two breakpoints", ErrInvalidBasis)
		return
	}
	for i := 1; i < len(breaks); i++ {
		if !(breaks[i] > breaks[i-1]) {
			err = fmt.Errorf("%w: B-spline breakpoints must be strictly increasing", ErrInvalidBasis)
			return
		}
	}
	var (
		nb    = len(breaks)
		knots = make([]float64, 0, nb+2*(norder-1))
	)
	for i := 0; i < norder-1; i++ {
		knots = append(knots, breaks[0])
	}
	knots = append(knots, breaks...)
	for i := 0; i < norder-1; i++ {
		knots = append(knots, breaks[nb-1])
	}
	bs = &BSpline{
		norder:    norder,
		breaks:    append([]float64(nil), breaks...),
		knots:     knots,
		quadCache: newQuadCache(CompositeGaussLegendre(norder+2, breaks)),
	}
	return
}

func (bs *BSpline) Name() string {
	return fmt.Sprintf("bspline(%d, order %d)", bs.NBasis(), bs.norder)
}
func (bs *BSpline) NBasis() int            { return len(bs.breaks) + bs.norder - 2 }
func (bs *BSpline) Order() int             { return bs.norder }
func (bs *BSpline) Breaks() []float64      { return bs.breaks }
func (bs *BSpline) Range() [2]float64      { return [2]float64{bs.breaks[0], bs.breaks[len(bs.breaks)-1]} }
func (bs *BSpline) Quadrature() Quadrature { return bs.quad }

func (bs *BSpline) QuadValues(nderiv int) utils.Matrix { return bs.get(bs, nderiv) }

func (bs *BSpline) Eval(t []float64, nderiv int) (V utils.Matrix, err error) {
	if err = checkEval(bs.Range(), t, nderiv); err != nil {
		return
	}
	V = utils.NewMatrix(len(t), bs.NBasis())
	bs.eachNonZero(t, nderiv, func(i, j int, val float64) {
		V.M.Set(i, j, val)
	})
	return
}

// EvalSparse returns the same values as Eval in compressed sparse row form;
// at most Order() entries per row are nonzero.
func (bs *BSpline) EvalSparse(t []float64, nderiv int) (S *sparse.CSR, err error) {
	if err = checkEval(bs.Range(), t, nderiv); err != nil {
		return
	}
	dok := sparse.NewDOK(len(t), bs.NBasis())
	bs.eachNonZero(t, nderiv, func(i, j int, val float64) {
		if val != 0 {
			dok.Set(i, j, val)
		}
	})
	S = dok.ToCSR()
	return
}

func (bs *BSpline) eachNonZero(t []float64, nderiv int, f func(i, j int, val float64)) {
	var (
		p   = bs.norder - 1
		rng = bs.Range()
	)
	if nderiv > p {
		return
	}
	for i, tt := range t {
		u := clamp(tt, rng)
		span := bs.findSpan(u)
		ders := dersBasisFuns(span, u, p, nderiv, bs.knots)
		for r := 0; r <= p; r++ {
			f(i, span-p+r, ders[nderiv][r])
		}
	}
}

// findSpan returns the knot span index s with knots[s] <= u < knots[s+1],
// using the last nonempty span for u at the right end.
func (bs *BSpline) findSpan(u float64) int {
	var (
		p = bs.norder - 1
		n = bs.NBasis() - 1
	)
	if u >= bs.knots[n+1] {
		return n
	}
	// first knot index > u, minus one
	s := sort.SearchFloat64s(bs.knots, u)
	for s < len(bs.knots) && bs.knots[s] <= u {
		s++
	}
	s--
	if s < p {
		s = p
	}
	return s
}

// dersBasisFuns computes the nonvanishing basis functions and their
// derivatives up to order nd at u in knot span i (The NURBS Book, A2.3).
// Row k of the result holds the k-th derivatives of functions i-p..i.
func dersBasisFuns(i int, u float64, p, nd int, U []float64) (ders [][]float64) {
	var (
		ndu   = zeros2d(p+1, p+1)
		left  = make([]float64, p+1)
		right = make([]float64, p+1)
		a     = zeros2d(2, p+1)
	)
	ndu[0][0] = 1
	for j := 1; j <= p; j++ {
		left[j] = u - U[i+1-j]
		right[j] = U[i+j] - u
		var saved float64
		for r := 0; r < j; r++ {
			ndu[j][r] = right[r+1] + left[j-r]
			temp := ndu[r][j-1] / ndu[j][r]
			ndu[r][j] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		ndu[j][j] = saved
	}

	ders = zeros2d(nd+1, p+1)
	for j := 0; j <= p; j++ {
		ders[0][j] = ndu[j][p]
	}
	for r := 0; r <= p; r++ {
		s1, s2 := 0, 1
		a[0][0] = 1
		for k := 1; k <= nd; k++ {
			var (
				d      float64
				rk, pk = r - k, p - k
				j1, j2 int
			)
			if r >= k {
				a[s2][0] = a[s1][0] / ndu[pk+1][rk]
				d = a[s2][0] * ndu[rk][pk]
			}
			if rk >= -1 {
				j1 = 1
			} else {
				j1 = -rk
			}
			if r-1 <= pk {
				j2 = k - 1
			} else {
				j2 = p - r
			}
			for j := j1; j <= j2; j++ {
				a[s2][j] = (a[s1][j] - a[s1][j-1]) / ndu[pk+1][rk+j]
				d += a[s2][j] * ndu[rk+j][pk]
			}
			if r <= pk {
				a[s2][k] = -a[s1][k-1] / ndu[pk+1][r]
				d += a[s2][k] * ndu[r][pk]
			}
			ders[k][r] = d
			s1, s2 = s2, s1
		}
	}
	acc := p
	for k := 1; k <= nd; k++ {
		for j := 0; j <= p; j++ {
			ders[k][j] *= float64(acc)
		}
		acc *= p - k
	}
	return
}

func zeros2d(n, m int) [][]float64 {
	result := make([][]float64, n)
	for i := range result {
		result[i] = make([]float64, m)
	}
	return result
}
