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

// Package pgwcloud derives cloud microphysical and radiative quantities from
// regional atmospheric model output for pseudo-global-warming experiments.
//
// The central computation assumes a gamma size distribution for each
// hydrometeor category, diagnoses effective radius from the bulk number
// concentration and mass mixing ratio, integrates water content over a model
// column to get water path, and combines the two into a shortwave cloud
// optical depth per category.
package pgwcloud

import (
	"errors"
	"fmt"
	"math"
)

// Version gives the version number.
const Version = "1.0.0"

var (
	// ErrShape is returned when input arrays do not have the
	// rank or dimensions that an operation requires.
	ErrShape = errors.New("pgwcloud: array shape mismatch")

	// ErrGrid is returned when an integration grid has too few
	// points or is not strictly ascending.
	ErrGrid = errors.New("pgwcloud: invalid integration grid")
)

// Constants holds the physical constants used by the calculations.
// They are passed explicitly so that alternative values can be tested.
type Constants struct {
	// Rd is the specific gas constant for dry air used when
	// diagnosing the gamma shape parameter [J/(kg K)].
	Rd float64

	// RdWaterContent is the specific gas constant for dry air used
	// when converting mixing ratios to water content [J/(kg K)].
	RdWaterContent float64

	// G is gravitational acceleration [m/s2].
	G float64

	// RhoWater is the density of water in the size distribution
	// moment closure [kg/m3].
	RhoWater float64

	// Material densities of the hydrometeor categories used in the
	// optical depth calculation [kg/m3].
	RhoLiquid, RhoIce, RhoSnow, RhoGraupel float64

	// Kappa is R/cp, P0 the reference pressure [Pa] and Theta0 the
	// base state potential temperature [K] of the model output.
	Kappa, P0, Theta0 float64
}

// DefaultConstants returns the constants used for the published analysis.
func DefaultConstants() Constants {
	return Constants{
		Rd:             287.15,
		RdWaterContent: 287.058,
		G:              9.81,
		RhoWater:       997.,
		RhoLiquid:      1000.,
		RhoIce:         500.,
		RhoSnow:        100.,
		RhoGraupel:     900.,
		Kappa:          0.2854,
		P0:             100000.,
		Theta0:         300.,
	}
}

// Maybe is a value that may be undefined, for example the effective
// radius of a hydrometeor category that is not present.
type Maybe struct {
	Value float64
	Valid bool
}

// Some returns a defined value. Non-finite values are undefined.
func Some(v float64) Maybe {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Maybe{}
	}
	return Maybe{Value: v, Valid: true}
}

// None returns an undefined value.
func None() Maybe { return Maybe{} }

// Or returns the value if it is defined and def otherwise.
func (m Maybe) Or(def float64) float64 {
	if m.Valid {
		return m.Value
	}
	return def
}

// Add returns the sum of m and o, which is undefined if either is.
func (m Maybe) Add(o Maybe) Maybe {
	if !m.Valid || !o.Valid {
		return Maybe{}
	}
	return Maybe{Value: m.Value + o.Value, Valid: true}
}

func (m Maybe) String() string {
	if !m.Valid {
		return "--"
	}
	return fmt.Sprintf("%g", m.Value)
}

// MeanDefined returns the arithmetic mean of the defined values in v,
// which is undefined if no value is defined.
func MeanDefined(v []Maybe) Maybe {
	var sum float64
	var n int
	for _, x := range v {
		if x.Valid {
			sum += x.Value
			n++
		}
	}
	if n == 0 {
		return Maybe{}
	}
	return Maybe{Value: sum / float64(n), Valid: true}
}
