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

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/integrate"
)

// checkRank2 makes sure that each of the arrays is 2-D with the
// same shape and returns the shape.
func checkRank2(arrays ...*sparse.DenseArray) (nt, nz int, err error) {
	for i, a := range arrays {
		if a == nil || len(a.Shape) != 2 {
			return 0, 0, fmt.Errorf("%w: argument %d is not a [time, level] array", ErrShape, i)
		}
		if i == 0 {
			nt, nz = a.Shape[0], a.Shape[1]
			continue
		}
		if a.Shape[0] != nt || a.Shape[1] != nz {
			return 0, 0, fmt.Errorf("%w: argument %d has shape %v but want [%d %d]", ErrShape, i, a.Shape, nt, nz)
		}
	}
	return nt, nz, nil
}

// AirDensity returns the dry air density [kg/m3] at pressure p [Pa] and
// temperature t [K] using the gas constant for water content calculations.
func AirDensity(p, t float64, c Constants) float64 {
	return p / (c.RdWaterContent * t)
}

// TemperatureFromTheta converts model perturbation potential temperature
// [K] and full pressure [Pa] to air temperature [K].
func TemperatureFromTheta(thetaPert, p float64, c Constants) float64 {
	return (thetaPert + c.Theta0) * math.Pow(p/c.P0, c.Kappa)
}

// WaterContent converts the mixing ratio q [kg/kg] to water content
// [kg/m3] for each element of the [time, level] arrays.
func WaterContent(q, p, t *sparse.DenseArray, c Constants) (*sparse.DenseArray, error) {
	if _, _, err := checkRank2(q, p, t); err != nil {
		return nil, err
	}
	wc := sparse.ZerosDense(q.Shape...)
	for i, qq := range q.Elements {
		wc.Elements[i] = qq * AirDensity(p.Elements[i], t.Elements[i], c)
	}
	return wc, nil
}

// AltitudeLevels calculates the altitude [m] of the mass levels of a model
// column from the perturbation (ph) and base state (phb) geopotential
// [m2/s2] on the vertically staggered levels. The result has one fewer
// element than the inputs.
func AltitudeLevels(ph, phb []float64, c Constants) ([]float64, error) {
	if len(ph) != len(phb) {
		return nil, fmt.Errorf("%w: ph has %d levels but phb has %d", ErrShape, len(ph), len(phb))
	}
	if len(ph) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 staggered levels", ErrShape)
	}
	h := make([]float64, len(ph)-1)
	for k := range h {
		h[k] = 0.5 * (phb[k] + ph[k] + phb[k+1] + ph[k+1]) / c.G
	}
	return h, nil
}

// StaggeredHeights returns the altitude [m] of the staggered levels
// of a model column.
func StaggeredHeights(ph, phb []float64, c Constants) ([]float64, error) {
	if len(ph) != len(phb) {
		return nil, fmt.Errorf("%w: ph has %d levels but phb has %d", ErrShape, len(ph), len(phb))
	}
	h := make([]float64, len(ph))
	for k := range h {
		h[k] = (ph[k] + phb[k]) / c.G
	}
	return h, nil
}

// WaterPath vertically integrates the water content of one hydrometeor
// category over the altitudes z [m] and returns the water path [kg/m2] for
// each time step. q, p and t are [time, level] arrays of mixing ratio
// [kg/kg], pressure [Pa] and temperature [K]. The same altitudes are used
// for every time step.
func WaterPath(q, p, t *sparse.DenseArray, z []float64, c Constants) ([]float64, error) {
	nt, nz, err := checkRank2(q, p, t)
	if err != nil {
		return nil, err
	}
	if len(z) != nz {
		return nil, fmt.Errorf("%w: %d altitudes for %d levels", ErrShape, len(z), nz)
	}
	if err := checkGrid(z); err != nil {
		return nil, err
	}
	wc, err := WaterContent(q, p, t, c)
	if err != nil {
		return nil, err
	}
	wp := make([]float64, nt)
	for it := 0; it < nt; it++ {
		wp[it] = integrate.Trapezoidal(z, wc.Elements[it*nz:(it+1)*nz])
	}
	return wp, nil
}
