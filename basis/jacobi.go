package basis

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func gamma1(alpha, beta float64) float64 {
	ab := alpha + beta
	a1 := alpha + 1.
	b1 := beta + 1.
	return a1 * b1 * gamma0(alpha, beta) / (ab + 3.0)
}

// JacobiGQ computes the N+1 point Gauss quadrature for the Jacobi weight
// (1-r)^alpha (1+r)^beta on [-1,1], using the Golub-Welsch eigenvalue method.
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	var (
		fac        float64
		h1, d0, d1 []float64
		VVr        *mat.Dense
	)
	if N == 0 {
		X = []float64{-(alpha - beta) / (alpha + beta + 2.)}
		W = []float64{2.}
		return
	}

	h1 = make([]float64, N+1)
	for i := 0; i < N+1; i++ {
		h1[i] = 2*float64(i) + alpha + beta
	}

	// main diagonal: diag(-1/2*(alpha^2-beta^2)./(h1+2)./h1)
	d0 = make([]float64, N+1)
	fac = -.5 * (alpha*alpha - beta*beta)
	for i := 0; i < N+1; i++ {
		val := h1[i]
		d0[i] = fac / (val * (val + 2.))
	}
	// Handle division by zero
	eps := 1.e-16
	if alpha+beta < 10*eps {
		d0[0] = 0.
	}

	// 1st upper diagonal
	var ip1 float64
	d1 = make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 = float64(i + 1)
		val := h1[i]
		d1[i] = 2. / (val + 2.)
		d1[i] *= math.Sqrt(ip1 * (ip1 + alpha + beta) * (ip1 + alpha) * (ip1 + beta) / ((val + 1.) * (val + 3.)))
	}

	JJ := mat.NewSymDense(N+1, nil)
	for i := 0; i < N+1; i++ {
		JJ.SetSym(i, i, d0[i])
		if i < N {
			JJ.SetSym(i, i+1, d1[i])
		}
	}

	var eig mat.EigenSym
	ok := eig.Factorize(JJ, true)
	if !ok {
		panic("eigenvalue decomposition failed")
	}
	X = eig.Values(nil)

	VVr = mat.NewDense(N+1, N+1, nil)
	eig.VectorsTo(VVr)
	g0 := gamma0(alpha, beta)
	W = make([]float64, N+1)
	for i, v := range VVr.RawRowView(0) {
		W[i] = v * v * g0
	}
	return
}

// JacobiP evaluates the orthonormal Jacobi polynomial of order N at r
func JacobiP(r []float64, alpha, beta float64, N int) (p []float64) {
	var (
		Nc = len(r)
	)
	rg := 1. / math.Sqrt(gamma0(alpha, beta))
	pm1 := make([]float64, Nc)
	for i := range pm1 {
		pm1[i] = rg
	}
	if N == 0 {
		return pm1
	}
	ab := alpha + beta
	rg1 := 1. / math.Sqrt(gamma1(alpha, beta))
	pc := make([]float64, Nc)
	for i, x := range r {
		pc[i] = rg1 * ((ab+2.0)*x/2.0 + (alpha-beta)/2.0)
	}
	if N == 1 {
		return pc
	}

	a1 := alpha + 1.
	b1 := beta + 1.
	ab1 := ab + 1.
	aold := 2.0 * math.Sqrt(a1*b1/(ab+3.0)) / (ab + 2.0)
	for i := 0; i < N-1; i++ {
		ip1 := float64(i + 1)
		ip2 := ip1 + 1
		h1 := 2.0*ip1 + ab
		anew := 2.0 / (h1 + 2.0) * math.Sqrt(ip2*(ip1+ab1)*(ip1+a1)*(ip1+b1)/(h1+1.0)/(h1+3.0))
		bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2.0)
		pn := make([]float64, Nc)
		for j, x := range r {
			pn[j] = (-aold*pm1[j] + (x-bnew)*pc[j]) / anew
		}
		pm1, pc = pc, pn
		aold = anew
	}
	p = pc
	return
}

// DerivJacobiP is the k-th derivative of JacobiP, from repeated use of
// d/dr P_n^(a,b) = sqrt(n(n+a+b+1)) P_{n-1}^(a+1,b+1)
func DerivJacobiP(r []float64, alpha, beta float64, N, k int) (p []float64) {
	if k > N {
		return make([]float64, len(r))
	}
	fac := 1.
	for i := 0; i < k; i++ {
		fN := float64(N - i)
		a, b := alpha+float64(i), beta+float64(i)
		fac *= math.Sqrt(fN * (fN + a + b + 1))
	}
	p = JacobiP(r, alpha+float64(k), beta+float64(k), N-k)
	for i, val := range p {
		p[i] = val * fac
	}
	return
}
