// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package study

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrLengthMismatch is returned when the two samples differ in length.
	ErrLengthMismatch = errors.New("samples differ in length")
	// ErrTooFewSamples is returned when fewer than three pairs are given.
	ErrTooFewSamples = errors.New("at least 3 samples are required")
	// ErrConstantInput is returned when either sample has no variance.
	ErrConstantInput = errors.New("sample is constant")
)

// Rank returns fractional ranks starting at 1. Tied values receive the
// average of the ranks they span.
func Rank(xs []float64) []float64 {
	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case xs[a] < xs[b]:
			return -1
		case xs[a] > xs[b]:
			return 1
		}
		return 0
	})

	ranks := make([]float64, len(xs))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && xs[order[j+1]] == xs[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// Spearman computes the rank correlation of x and y and its two-sided
// p-value under the t approximation with n-2 degrees of freedom.
func Spearman(x, y []float64) (rho, pValue float64, err error) {
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("%w: %d and %d", ErrLengthMismatch, len(x), len(y))
	}
	n := len(x)
	if n < 3 {
		return 0, 0, fmt.Errorf("%w: got %d", ErrTooFewSamples, n)
	}

	rx, ry := Rank(x), Rank(y)
	if constant(rx) || constant(ry) {
		return 0, 0, ErrConstantInput
	}

	rho = stat.Correlation(rx, ry, nil)
	// Snap rounding noise so perfect rank agreement reports exactly +/-1.
	if 1-math.Abs(rho) < 1e-12 {
		rho = math.Copysign(1, rho)
	}

	if math.Abs(rho) == 1 {
		return rho, 0, nil
	}

	df := float64(n - 2)
	t := rho * math.Sqrt(df/(1-rho*rho))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	pValue = 2 * dist.CDF(-math.Abs(t))
	return rho, pValue, nil
}

func constant(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}
