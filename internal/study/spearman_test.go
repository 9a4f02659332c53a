// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"empty", nil, []float64{}},
		{"distinct", []float64{30, 10, 20}, []float64{3, 1, 2}},
		{"pair tie", []float64{10, 20, 20, 30}, []float64{1, 2.5, 2.5, 4}},
		{"all tied", []float64{7, 7, 7}, []float64{2, 2, 2}},
		{"tie at end", []float64{5, 1, 5}, []float64{2.5, 1, 2.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rank(tt.in))
		})
	}
}

func TestSpearman_PerfectMonotonic(t *testing.T) {
	rho, p, err := Spearman([]float64{1, 2, 3, 4}, []float64{10, 100, 1000, 10000})
	require.NoError(t, err)
	assert.Equal(t, 1.0, rho)
	assert.Equal(t, 0.0, p)

	rho, _, err = Spearman([]float64{1, 2, 3, 4}, []float64{4, 3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, -1.0, rho)
}

func TestSpearman_WithTies(t *testing.T) {
	// Reference values from scipy.stats.spearmanr.
	rho, p, err := Spearman([]float64{1, 2, 3, 4, 5}, []float64{5, 6, 7, 8, 7})
	require.NoError(t, err)
	assert.InDelta(t, 0.8208, rho, 1e-4)
	assert.InDelta(t, 0.0886, p, 1e-3)
}

func TestSpearman_Errors(t *testing.T) {
	_, _, err := Spearman([]float64{1, 2, 3}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, _, err = Spearman([]float64{1, 2}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrTooFewSamples)

	_, _, err = Spearman([]float64{1, 2, 3}, []float64{4, 4, 4})
	assert.ErrorIs(t, err, ErrConstantInput)
}
