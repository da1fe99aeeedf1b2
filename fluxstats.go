/*
Copyright © 2024 the pgwcloud authors.
This file is part of pgwcloud.

pgwcloud is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

pgwcloud is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with pgwcloud.  If not, see <http://www.gnu.org/licenses/>.
*/

package pgwcloud

import (
	"fmt"
	"math"
	"sort"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/stat"
)

// checkRank3 makes sure that a is a [time, y, x] array and returns its shape.
func checkRank3(a *sparse.DenseArray) (nt, ny, nx int, err error) {
	if a == nil || len(a.Shape) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: not a [time, y, x] array", ErrShape)
	}
	return a.Shape[0], a.Shape[1], a.Shape[2], nil
}

// DomainMean returns the horizontal mean of field [time, y, x] at each
// time, leaving out border grid cells on every side of the domain.
func DomainMean(field *sparse.DenseArray, border int) ([]float64, error) {
	nt, ny, nx, err := checkRank3(field)
	if err != nil {
		return nil, err
	}
	if border < 0 || 2*border >= ny || 2*border >= nx {
		return nil, fmt.Errorf("%w: border of %d cells leaves no interior in %dx%d domain", ErrShape, border, ny, nx)
	}
	o := make([]float64, nt)
	n := float64((ny - 2*border) * (nx - 2*border))
	for it := 0; it < nt; it++ {
		var sum float64
		for j := border; j < ny-border; j++ {
			for i := border; i < nx-border; i++ {
				sum += field.Get(it, j, i)
			}
		}
		o[it] = sum / n
	}
	return o, nil
}

// CloudRadiativeEffect returns the difference between all-sky and
// clear-sky radiative fluxes [W/m2].
func CloudRadiativeEffect(allSky, clearSky []float64) ([]float64, error) {
	if len(allSky) != len(clearSky) {
		return nil, fmt.Errorf("%w: %d all-sky and %d clear-sky values", ErrShape, len(allSky), len(clearSky))
	}
	o := make([]float64, len(allSky))
	for i, v := range allSky {
		o[i] = v - clearSky[i]
	}
	return o, nil
}

// BoxStats summarizes the distribution of a series.
type BoxStats struct {
	Min, Q1, Median, Q3, Max, Mean float64
}

// NewBoxStats calculates the box plot statistics of x.
// Quartiles are empirical quantiles.
func NewBoxStats(x []float64) (BoxStats, error) {
	if len(x) == 0 {
		return BoxStats{}, fmt.Errorf("pgwcloud: box statistics of empty series")
	}
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	return BoxStats{
		Min:    s[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, s, nil),
		Median: stat.Quantile(0.5, stat.Empirical, s, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, s, nil),
		Max:    s[len(s)-1],
		Mean:   stat.Mean(s, nil),
	}, nil
}

// Lag1Autocorrelation returns the lag-1 sample autocorrelation of x.
// It is zero for series with fewer than two values or no variance.
func Lag1Autocorrelation(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	m := stats.StatsMean(x)
	var num, den float64
	for i, v := range x {
		d := v - m
		den += d * d
		if i+1 < len(x) {
			num += d * (x[i+1] - m)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// StandardError returns the mean and standard error of the mean of x,
// using the population standard deviation. If lagCorrected is true,
// the standard error is inflated to account for lag-1 autocorrelation.
func StandardError(x []float64, lagCorrected bool) (mean, se float64) {
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	mean = stats.StatsMean(x)
	sigma := stats.StatsPopulationStandardDeviation(x)
	se = sigma / math.Sqrt(float64(len(x)))
	if lagCorrected && se > 0 {
		r1 := Lag1Autocorrelation(x)
		se *= math.Sqrt((1 + r1) / (1 - r1))
	}
	return mean, se
}

// CellStats holds the time mean and standard error of a field
// at each horizontal grid cell.
type CellStats struct {
	Mean, StdErr *sparse.DenseArray // [y, x]
}

// TemporalStats calculates the time mean and standard error of field
// [time, y, x] at each grid cell.
func TemporalStats(field *sparse.DenseArray, lagCorrected bool) (*CellStats, error) {
	nt, ny, nx, err := checkRank3(field)
	if err != nil {
		return nil, err
	}
	if nt == 0 {
		return nil, fmt.Errorf("%w: no time steps", ErrShape)
	}
	s := &CellStats{
		Mean:   sparse.ZerosDense(ny, nx),
		StdErr: sparse.ZerosDense(ny, nx),
	}
	x := make([]float64, nt)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			for it := range x {
				x[it] = field.Get(it, j, i)
			}
			m, se := StandardError(x, lagCorrected)
			s.Mean.Set(m, j, i)
			s.StdErr.Set(se, j, i)
		}
	}
	return s, nil
}

// SignificantDifference returns the difference b-a between the time means
// of two simulations, and the same difference with every grid cell set to
// zero where the ranges of one standard error around each mean overlap.
func SignificantDifference(a, b *CellStats) (diff, significant *sparse.DenseArray, err error) {
	if len(a.Mean.Shape) != 2 || len(b.Mean.Shape) != 2 ||
		a.Mean.Shape[0] != b.Mean.Shape[0] || a.Mean.Shape[1] != b.Mean.Shape[1] {
		return nil, nil, fmt.Errorf("%w: mean shapes %v and %v differ", ErrShape, a.Mean.Shape, b.Mean.Shape)
	}
	diff = sparse.ZerosDense(a.Mean.Shape...)
	significant = sparse.ZerosDense(a.Mean.Shape...)
	for i, ma := range a.Mean.Elements {
		mb := b.Mean.Elements[i]
		sa, sb := a.StdErr.Elements[i], b.StdErr.Elements[i]
		d := mb - ma
		diff.Elements[i] = d
		lo, hi := ma+sa, mb-sb
		if mb < ma {
			lo, hi = mb+sb, ma-sa
		}
		if hi > lo {
			significant.Elements[i] = d
		}
	}
	return diff, significant, nil
}
