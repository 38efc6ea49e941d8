package utils

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ConditionNumber is the 2-norm condition number from the singular values,
// +Inf when the factorization fails or the matrix is singular
func (m Matrix) ConditionNumber() float64 {
	var svd mat.SVD
	if !svd.Factorize(m.M, mat.SVDNone) {
		return math.Inf(1)
	}
	values := svd.Values(nil)
	if len(values) == 0 || values[len(values)-1] == 0 {
		return math.Inf(1)
	}
	return values[0] / values[len(values)-1]
}
