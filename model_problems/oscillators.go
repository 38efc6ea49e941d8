// Package model_problems generates noisy sampled curves from differential
// equations with known coefficients, for exercising the estimators.
package model_problems

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/notargets/gopda/utils"
)

// Truth lists the constant operator coefficients that generated a sample,
// in the sign convention L x = sum_j B[j] D^j x + D^m x + sum_k A[k] U[k] = 0
type Truth struct {
	B []float64
	A []float64
	U []float64
}

type ModelProblem interface {
	Name() string
	Range() [2]float64
	Truth() Truth
	// Curve evaluates curve number c at time t without noise
	Curve(c int, t float64) float64
}

type ModelType uint8

const (
	M_Harmonic ModelType = iota
	M_DampedForced
)

func NewModelType(label string) (mt ModelType, err error) {
	switch label {
	case "Harmonic", "harmonic":
		mt = M_Harmonic
	case "DampedForced", "dampedforced", "damped":
		mt = M_DampedForced
	default:
		err = fmt.Errorf("unknown model problem %q, have Harmonic, DampedForced", label)
	}
	return
}

// Harmonic is x'' + Omega^2 x = 0 on [0, TMax], curve c having phase
// 2*pi*c/NCurves
type Harmonic struct {
	Omega, TMax float64
	NCurves     int
}

func NewHarmonic(omega, tmax float64, ncurves int) *Harmonic {
	return &Harmonic{Omega: omega, TMax: tmax, NCurves: ncurves}
}

func (h *Harmonic) Name() string      { return fmt.Sprintf("Harmonic(omega=%g)", h.Omega) }
func (h *Harmonic) Range() [2]float64 { return [2]float64{0, h.TMax} }
func (h *Harmonic) Truth() Truth      { return Truth{B: []float64{h.Omega * h.Omega, 0}} }

func (h *Harmonic) Curve(c int, t float64) float64 {
	phase := 2 * math.Pi * float64(c) / float64(h.NCurves)
	return math.Sin(h.Omega*t + phase)
}

// DampedForced is x'' + 2 Zeta Omega x' + Omega^2 x = Force, started from
// rest at x(0) = -c/NCurves for curve c
type DampedForced struct {
	Omega, Zeta, Force, TMax float64
	NCurves                  int
}

func NewDampedForced(omega, zeta, force, tmax float64, ncurves int) *DampedForced {
	return &DampedForced{Omega: omega, Zeta: zeta, Force: force, TMax: tmax, NCurves: ncurves}
}

func (d *DampedForced) Name() string {
	return fmt.Sprintf("DampedForced(omega=%g, zeta=%g, force=%g)", d.Omega, d.Zeta, d.Force)
}
func (d *DampedForced) Range() [2]float64 { return [2]float64{0, d.TMax} }

// The forcing enters as A*U with U = 1, so A = -Force
func (d *DampedForced) Truth() Truth {
	return Truth{
		B: []float64{d.Omega * d.Omega, 2 * d.Zeta * d.Omega},
		A: []float64{-d.Force},
		U: []float64{1},
	}
}

func (d *DampedForced) Curve(c int, t float64) float64 {
	if d.Zeta >= 1 {
		panic("DampedForced requires an underdamped system, zeta < 1")
	}
	var (
		xs  = d.Force / (d.Omega * d.Omega)
		x0  = -float64(c) / float64(d.NCurves)
		wd  = d.Omega * math.Sqrt(1-d.Zeta*d.Zeta)
		A   = x0 - xs
		B   = d.Zeta * d.Omega * A / wd
		dec = math.Exp(-d.Zeta * d.Omega * t)
	)
	return xs + dec*(A*math.Cos(wd*t)+B*math.Sin(wd*t))
}

// Sample draws npoints equally spaced observations of every curve with
// Gaussian noise of standard deviation noiseSD
func Sample(mp ModelProblem, ncurves, npoints int, noiseSD float64, seed uint64) (times []float64, Y utils.Matrix) {
	var (
		rng   = mp.Range()
		noise = distuv.Normal{Mu: 0, Sigma: noiseSD, Src: rand.NewPCG(seed, seed+1)}
	)
	times = utils.NewVector(npoints).Linspace(rng[0], rng[1]).Data()
	Y = utils.NewMatrix(npoints, ncurves)
	for c := 0; c < ncurves; c++ {
		for i, t := range times {
			v := mp.Curve(c, t)
			if noiseSD > 0 {
				v += noise.Rand()
			}
			Y.Set(i, c, v)
		}
	}
	return
}
