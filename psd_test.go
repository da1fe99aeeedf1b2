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
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/integrate"
)

const testTolerance = 1.e-8

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func absDifferent(a, b, tolerance float64) bool {
	return math.Abs(a-b) > tolerance || math.IsNaN(a) || math.IsNaN(b)
}

// testMoments is a typical low-level Arctic mixed-phase cloud.
var testMoments = Moments{N: 9.e6, Q: 1.e-4, P: 85000, T: 270}

func TestShapeParameter(t *testing.T) {
	c := DefaultConstants()
	if mu := ShapeParameter(1.e12, 85000, 270, c); mu != 2 {
		t.Errorf("high concentration: have %g, want 2", mu)
	}
	if mu := ShapeParameter(1, 85000, 270, c); mu != 10 {
		t.Errorf("low concentration: have %g, want 10", mu)
	}
	if mu := ShapeParameter(testMoments.N, testMoments.P, testMoments.T, c); mu != 10 {
		t.Errorf("test moments: have %g, want 10", mu)
	}

	// Air density of 1 kg/m3 and a denominator of 0.4.
	T := 300.
	P := c.Rd * T
	N := (0.4 - 0.2714) / 0.0005714 * 1.e6
	want := 1/(0.4*0.4) - 1
	if mu := ShapeParameter(N, P, T, c); different(mu, want, testTolerance) {
		t.Errorf("unclamped: have %g, want %g", mu, want)
	}
}

func TestLambdaParameter(t *testing.T) {
	c := DefaultConstants()
	l := LambdaParameter(testMoments.N, testMoments.Q, 10, c)
	if !l.Valid {
		t.Fatal("lambda should be defined")
	}
	if different(l.Value, 432000.77, 1.e-5) {
		t.Errorf("have %g, want 432000.77", l.Value)
	}

	prev := math.Inf(1)
	for _, q := range []float64{1.e-7, 1.e-6, 1.e-5, 1.e-4, 1.e-3} {
		l := LambdaParameter(testMoments.N, q, 10, c)
		if !l.Valid {
			t.Fatalf("q=%g: undefined", q)
		}
		if !(l.Value < prev) {
			t.Errorf("q=%g: lambda %g should decrease with q", q, l.Value)
		}
		prev = l.Value
	}

	for _, q := range []float64{0, -1} {
		if l := LambdaParameter(testMoments.N, q, 10, c); l.Valid {
			t.Errorf("q=%g: lambda should be undefined but is %g", q, l.Value)
		}
	}
	if l := LambdaParameter(0, 1.e-4, 10, c); l.Valid {
		t.Errorf("N=0: lambda should be undefined but is %g", l.Value)
	}
}

func TestInterceptParameter(t *testing.T) {
	const lambda, mu, N = 2.e5, 4., 1.e8
	n0 := InterceptParameter(N, lambda, mu)
	// The integral of the distribution over all diameters is N.
	D := make([]float64, 5001)
	f := make([]float64, len(D))
	p := GammaParams{Mu: mu, Lambda: lambda, N0: n0}
	for i := range D {
		D[i] = float64(i) * 2.e-7
		f[i] = p.Density(D[i])
	}
	if n := integrate.Trapezoidal(D, f); different(n, N, 1.e-4) {
		t.Errorf("have %g, want %g", n, N)
	}
}

func TestSizeDistribution(t *testing.T) {
	c := DefaultConstants()
	D := make([]float64, 2001)
	Dum := make([]float64, len(D))
	for i := range D {
		D[i] = float64(i) * 1.e-7
		Dum[i] = D[i] * 1.e6
	}
	n, err := SizeDistribution(D, testMoments, c)
	if err != nil {
		t.Fatal(err)
	}
	if total := integrate.Trapezoidal(Dum, n); different(total, testMoments.N, 1.e-3) {
		t.Errorf("total number: have %g, want %g", total, testMoments.N)
	}
	m := testMoments
	m.Q = 0
	if _, err := SizeDistribution(D, m, c); err == nil {
		t.Error("expected error for q=0")
	}
}

func TestEffectiveRadiusDroplets(t *testing.T) {
	c := DefaultConstants()
	grid := DefaultRadiusGrid()
	r, err := EffectiveRadiusDroplets(grid, testMoments, c)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Valid {
		t.Fatal("radius should be defined")
	}
	// The moment ratio gives about 15 µm for these moments. The coarse
	// grid is only checked against the range of observed droplet radii;
	// the exact value is checked on the refined grid below.
	if r.Value < 5.e-6 || r.Value > 20.e-6 {
		t.Errorf("radius %g m outside of the physical range", r.Value)
	}

	fine, err := EffectiveRadiusDroplets(RefineGrid(grid, 4), testMoments, c)
	if err != nil {
		t.Fatal(err)
	}
	if different(r.Value, fine.Value, 0.01) {
		t.Errorf("grid refinement changed radius from %g to %g", r.Value, fine.Value)
	}

	// For a complete gamma distribution the ratio of moments is (mu+3)/(2 lambda).
	l := LambdaParameter(testMoments.N, testMoments.Q, 10, c)
	if want := 13 / (2 * l.Value); different(fine.Value, want, 0.01) {
		t.Errorf("have %g, want %g", fine.Value, want)
	}
}

func TestEffectiveRadiusDropletsUndefined(t *testing.T) {
	c := DefaultConstants()
	m := testMoments
	m.Q = 0
	r, err := EffectiveRadiusDroplets(DefaultRadiusGrid(), m, c)
	if err != nil {
		t.Fatal(err)
	}
	if r.Valid {
		t.Errorf("radius should be undefined but is %g", r.Value)
	}
}

func TestEffectiveRadiusDropletsGrid(t *testing.T) {
	c := DefaultConstants()
	for _, grid := range [][]float64{
		nil,
		{1.e-6},
		{0, 2.e-6, 1.e-6},
		{0, 1.e-6, 1.e-6},
	} {
		if _, err := EffectiveRadiusDroplets(grid, testMoments, c); !errors.Is(err, ErrGrid) {
			t.Errorf("grid %v: have error %v, want ErrGrid", grid, err)
		}
	}
}

func TestEffectiveRadiusOther(t *testing.T) {
	c := DefaultConstants()
	const N, q = 1.e3, 1.e-5
	r := EffectiveRadiusOther(N, q, c)
	if !r.Valid {
		t.Fatal("radius should be defined")
	}
	want := 1.5 / math.Cbrt(c.RhoWater*math.Pi*N/q)
	if different(r.Value, want, testTolerance) {
		t.Errorf("have %g, want %g", r.Value, want)
	}
	if r := EffectiveRadiusOther(N, 0, c); r.Valid {
		t.Errorf("q=0: radius should be undefined but is %g", r.Value)
	}
	if r := EffectiveRadiusOther(0, q, c); r.Valid {
		t.Errorf("N=0: radius should be undefined but is %g", r.Value)
	}
}

func TestRefineGrid(t *testing.T) {
	grid := []float64{0, 1, 3}
	have := RefineGrid(grid, 2)
	want := []float64{0, 0.5, 1, 2, 3}
	if len(have) != len(want) {
		t.Fatalf("have %v, want %v", have, want)
	}
	for i := range want {
		if absDifferent(have[i], want[i], testTolerance) {
			t.Errorf("have %v, want %v", have, want)
			break
		}
	}
	if r := RefineGrid(DefaultRadiusGrid(), 4); len(r) != 33*4+1 {
		t.Errorf("refined default grid has %d points", len(r))
	}
	if r := RefineGrid(grid, 1); len(r) != len(grid) {
		t.Errorf("k=1 should not change the grid: %v", r)
	}
}
