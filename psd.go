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

	"gonum.org/v1/gonum/integrate"
)

// Shape parameter bounds.
const (
	minShape = 2.
	maxShape = 10.
)

// Moments holds the bulk properties of a hydrometeor population in one
// grid cell at one time.
type Moments struct {
	N float64 // number concentration [m-3]
	Q float64 // mass mixing ratio [kg/kg]
	P float64 // pressure [Pa]
	T float64 // temperature [K]
}

// GammaParams are the parameters of the gamma size distribution
// N(D) = N0 D^Mu exp(-Lambda D), with D the particle diameter [m].
type GammaParams struct {
	Mu     float64 // shape parameter [-]
	Lambda float64 // slope parameter [m-1]
	N0     float64 // intercept parameter [m-(4+Mu)]
}

// ShapeParameter diagnoses the gamma shape parameter of the cloud droplet
// size distribution from the droplet number concentration N [m-3],
// pressure P [Pa] and temperature T [K]. The result is clamped to [2, 10].
func ShapeParameter(N, P, T float64, c Constants) float64 {
	rhoAir := P / (c.Rd * T)
	pgam := 0.0005714*(N/1.e6*rhoAir) + 0.2714
	pgam = 1./(pgam*pgam) - 1.
	return math.Min(math.Max(pgam, minShape), maxShape)
}

// LambdaParameter returns the slope parameter [m-1] of a gamma size
// distribution of spherical water particles with number concentration
// N [m-3], mass mixing ratio q [kg/kg] and shape parameter mu.
// The result is undefined when q is not positive or when the closure does
// not yield a finite, positive slope.
func LambdaParameter(N, q, mu float64, c Constants) Maybe {
	if !(q > 0) {
		return None()
	}
	const d = 3.
	a := c.RhoWater * math.Pi / 6 * N * math.Gamma(mu+d+1)
	b := q * math.Gamma(mu+1)
	lambda := math.Pow(a/b, 1/d)
	if !(lambda > 0) {
		return None()
	}
	return Some(lambda)
}

// InterceptParameter returns the intercept parameter that normalizes a
// gamma distribution with slope lambda and shape mu to the number
// concentration N.
func InterceptParameter(N, lambda, mu float64) float64 {
	return N * math.Pow(lambda, mu+1) / math.Gamma(mu+1)
}

// NewGammaParams diagnoses the cloud droplet size distribution parameters
// from m. ok is false when the distribution is undefined because no
// condensate is present.
func NewGammaParams(m Moments, c Constants) (p GammaParams, ok bool) {
	p.Mu = ShapeParameter(m.N, m.P, m.T, c)
	lambda := LambdaParameter(m.N, m.Q, p.Mu, c)
	if !lambda.Valid {
		return p, false
	}
	p.Lambda = lambda.Value
	p.N0 = InterceptParameter(m.N, p.Lambda, p.Mu)
	if math.IsInf(p.N0, 0) || math.IsNaN(p.N0) {
		return p, false
	}
	return p, true
}

// Density returns the number density of particles with diameter D [m].
func (p GammaParams) Density(D float64) float64 {
	return p.N0 * math.Exp(-p.Lambda*D) * math.Pow(D, p.Mu)
}

// SizeDistribution evaluates the droplet number size distribution
// [µm-1 m-3] at each of the diameters D [m].
func SizeDistribution(D []float64, m Moments, c Constants) ([]float64, error) {
	p, ok := NewGammaParams(m, c)
	if !ok {
		return nil, fmt.Errorf("pgwcloud: size distribution undefined for q=%g", m.Q)
	}
	out := make([]float64, len(D))
	for i, d := range D {
		out[i] = p.Density(d) * 1.e-6
	}
	return out, nil
}

// checkGrid makes sure that x can be used with trapezoidal integration.
func checkGrid(x []float64) error {
	if len(x) < 2 {
		return fmt.Errorf("%w: need at least 2 points but have %d", ErrGrid, len(x))
	}
	for i := 1; i < len(x); i++ {
		if !(x[i] > x[i-1]) {
			return fmt.Errorf("%w: not strictly ascending at index %d", ErrGrid, i)
		}
	}
	return nil
}

// EffectiveRadiusDroplets calculates the effective radius [m] of the cloud
// droplet population m as the ratio of the third to the second moment of
// its size distribution, integrated with the trapezoidal rule over the
// ascending radius grid r [m]. The result is undefined when no cloud water
// is present.
func EffectiveRadiusDroplets(r []float64, m Moments, c Constants) (Maybe, error) {
	if err := checkGrid(r); err != nil {
		return None(), err
	}
	if !(m.Q > 0) {
		return None(), nil
	}
	p, ok := NewGammaParams(m, c)
	if !ok {
		return None(), nil
	}
	r2 := make([]float64, len(r))
	r3 := make([]float64, len(r))
	for i, ri := range r {
		n := p.Density(2 * ri)
		r2[i] = ri * ri * n
		r3[i] = r2[i] * ri
	}
	a := integrate.Trapezoidal(r, r3)
	b := integrate.Trapezoidal(r, r2)
	if b == 0 {
		return None(), nil
	}
	return Some(a / b), nil
}

// EffectiveRadiusOther calculates the effective radius [m] of rain, ice,
// snow or graupel from the number concentration N [m-3] and mass mixing
// ratio q [kg/kg], assuming an exponential size distribution.
func EffectiveRadiusOther(N, q float64, c Constants) Maybe {
	lambda := LambdaParameter(N, q, 0, c)
	if !lambda.Valid {
		return None()
	}
	return Some(3 / (2 * lambda.Value))
}

// DefaultRadiusGrid returns the radius grid [m] used to integrate the
// droplet size distribution. It spans 0 to 1 mm and is densest at small
// radii.
func DefaultRadiusGrid() []float64 {
	return []float64{0, 5e-7, 1e-6, 2e-6, 3e-6, 4e-6, 6e-6, 8e-6, 1e-5, 1.4e-5,
		1.8e-5, 2.2e-5, 2.6e-5, 3.1e-5, 3.6e-5, 4.1e-5, 4.7e-5,
		5.3e-5, 5.9e-5, 6.5e-5, 7.2e-5, 7.9e-5, 8.6e-5, 9.4e-5,
		1.2e-4, 2.0e-4, 2.8e-4, 3.7e-4, 4.6e-4, 5.4e-4, 6.4e-4,
		7.4e-4, 8.6e-4, 1e-3}
}

// RefineGrid returns a grid with k-1 evenly spaced points inserted into
// every interval of grid, which must be sorted.
func RefineGrid(grid []float64, k int) []float64 {
	if k <= 1 || len(grid) < 2 {
		return append([]float64(nil), grid...)
	}
	if !sort.Float64sAreSorted(grid) {
		panic("pgwcloud: RefineGrid: grid is not sorted")
	}
	out := make([]float64, 0, (len(grid)-1)*k+1)
	for i := 0; i < len(grid)-1; i++ {
		dx := (grid[i+1] - grid[i]) / float64(k)
		for j := 0; j < k; j++ {
			out = append(out, grid[i]+dx*float64(j))
		}
	}
	return append(out, grid[len(grid)-1])
}
