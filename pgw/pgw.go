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

// Package pgw applies pseudo-global-warming perturbations to the
// meteorological input (met_em) files of the WRF model.
package pgw

import (
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/pgwclouds/pgwcloud/wrfout"
	"gonum.org/v1/gonum/interp"
)

// StandardPressures are the CMIP6 standard pressure levels [Pa] on which
// climate model temperature changes are given.
var StandardPressures = []float64{100000., 92500., 85000., 70000., 60000., 50000., 40000.,
	30000., 25000., 20000., 15000., 10000., 7000., 5000.,
	3000., 2000., 1000., 500., 100.}

// SoilVars are the soil temperature variables from the top layer down to
// the deep soil temperature.
var SoilVars = []string{"ST000007", "ST007028", "ST028100", "ST100289", "SOILTEMP"}

// Profile is a vertical profile of temperature change that can be
// evaluated at any pressure.
type Profile struct {
	spline interp.NotAKnotCubic
	x      []float64
}

// NewProfile fits a cubic spline with not-a-knot end conditions to the
// temperature changes dT [K] at pressures p [Pa]. Pressures must be
// strictly decreasing.
func NewProfile(p, dT []float64) (*Profile, error) {
	if len(p) != len(dT) {
		return nil, fmt.Errorf("pgw: %d pressures but %d temperature changes", len(p), len(dT))
	}
	x := make([]float64, len(p))
	for i, pp := range p {
		x[i] = -pp
		if i > 0 && !(x[i] > x[i-1]) {
			return nil, fmt.Errorf("pgw: pressure levels must be strictly decreasing")
		}
	}
	if len(x) < 2 {
		return nil, fmt.Errorf("pgw: at least 2 pressure levels are needed, have %d", len(x))
	}
	prof := &Profile{x: x}
	if err := prof.spline.Fit(x, dT); err != nil {
		return nil, fmt.Errorf("pgw: fitting temperature change profile: %v", err)
	}
	return prof, nil
}

// At returns the temperature change [K] at pressure p [Pa]. Outside of the
// fitted pressure range the cubic of the nearest end segment is continued.
func (prof *Profile) At(p float64) float64 {
	x, n := -p, len(prof.x)
	switch {
	case x < prof.x[0]:
		return prof.segment(0, x)
	case x > prof.x[n-1]:
		return prof.segment(n-2, x)
	}
	return prof.spline.Predict(x)
}

// segment evaluates the cubic of segment i, which is fixed by the values
// and slopes at its two knots, at any x.
func (prof *Profile) segment(i int, x float64) float64 {
	x0, x1 := prof.x[i], prof.x[i+1]
	h := x1 - x0
	t := (x - x0) / h
	t2, t3 := t*t, t*t*t
	return (2*t3-3*t2+1)*prof.spline.Predict(x0) +
		(t3-2*t2+t)*h*prof.spline.PredictDerivative(x0) +
		(-2*t3+3*t2)*prof.spline.Predict(x1) +
		(t3-t2)*h*prof.spline.PredictDerivative(x1)
}

// PerturbAir adds the temperature change profile to air temperature
// tt [time, level, y, x]. The change at each level is evaluated at the
// horizontal mean of pressure pres at that level and time.
func PerturbAir(tt, pres *sparse.DenseArray, prof *Profile) error {
	if len(tt.Shape) != 4 || len(pres.Shape) != 4 {
		return fmt.Errorf("pgw: temperature and pressure must be [time, level, y, x]")
	}
	for i, d := range tt.Shape {
		if pres.Shape[i] != d {
			return fmt.Errorf("pgw: temperature shape %v does not match pressure %v", tt.Shape, pres.Shape)
		}
	}
	nt, nz, nxy := tt.Shape[0], tt.Shape[1], tt.Shape[2]*tt.Shape[3]
	for it := 0; it < nt; it++ {
		for k := 0; k < nz; k++ {
			i0 := (it*nz + k) * nxy
			var pmean float64
			for _, p := range pres.Elements[i0 : i0+nxy] {
				pmean += p
			}
			pmean /= float64(nxy)
			dT := prof.At(pmean)
			for i := i0; i < i0+nxy; i++ {
				tt.Elements[i] += dT
			}
		}
	}
	return nil
}

// PerturbSST adds dT to the sea surface temperature sst wherever it is
// non-zero. Zero values mark land.
func PerturbSST(sst *sparse.DenseArray, dT float64) {
	for i, v := range sst.Elements {
		if v != 0 {
			sst.Elements[i] = v + dT
		}
	}
}

// PerturbSnow adds d to snow depth or snow water equivalent wherever snow
// is present, removing snow where the result would be negative.
func PerturbSnow(snow *sparse.DenseArray, d float64) {
	for i, v := range snow.Elements {
		if v != 0 {
			snow.Elements[i] = max(v+d, 0)
		}
	}
}

// PerturbSoil adds dT to every value of a soil temperature field.
func PerturbSoil(st *sparse.DenseArray, dT float64) {
	for i := range st.Elements {
		st.Elements[i] += dT
	}
}

// Perturbation is a set of changes to apply to a met_em file.
type Perturbation struct {
	// Air is the air temperature change profile.
	// It is not applied if it is nil.
	Air *Profile

	// SST is the sea surface temperature change [K].
	SST float64

	// SnowDepth [m] and SnowWater [kg/m2] are the changes in snow depth
	// and snow water equivalent.
	SnowDepth, SnowWater float64

	// Soil are the temperature changes [K] of the layers in SoilVars.
	Soil []float64
}

// Changes between the present day and a warmer climate derived from the
// NorESM2 model for the Svalbard region in autumn.
var (
	// NorESM2AirDT is the air temperature change [K] on StandardPressures.
	NorESM2AirDT = []float64{5.700079, 3.9012942, 2.6720777, 1.4589857,
		1.310517, 1.3398547, 1.3253641, 0.7276636,
		0.080419, -0.7028041, -1.0362593, -0.6750148,
		-0.80173016, -1.3064933, -2.4018993, -3.1721463,
		-4.4073796, -4.686991, -4.532767}

	// NorESM2SoilDT are the soil temperature changes [K] of SoilVars.
	NorESM2SoilDT = []float64{5.35247425, 5.41100253, 5.5025648, 4.25167636, 2.06164913}
)

const (
	// NorESM2SSTDT is the sea surface temperature change [K].
	NorESM2SSTDT = 6.0

	// NorESM2SnowDepthChange is the snow depth change [m].
	NorESM2SnowDepthChange = -1.6792828

	// SnowDensity converts snow depth [m] to snow water equivalent [kg/m2].
	SnowDensity = 250.
)

// NorESM2Perturbation returns the NorESM2 changes as a Perturbation.
func NorESM2Perturbation() (*Perturbation, error) {
	air, err := NewProfile(StandardPressures, NorESM2AirDT)
	if err != nil {
		return nil, err
	}
	return &Perturbation{
		Air:       air,
		SST:       NorESM2SSTDT,
		SnowDepth: NorESM2SnowDepthChange,
		SnowWater: NorESM2SnowDepthChange * SnowDensity,
		Soil:      append([]float64(nil), NorESM2SoilDT...),
	}, nil
}

// Apply applies the perturbation to f, which must be open for writing.
func (pt *Perturbation) Apply(f *wrfout.File) error {
	if len(pt.Soil) > len(SoilVars) {
		return fmt.Errorf("pgw: %d soil temperature changes for %d soil layers", len(pt.Soil), len(SoilVars))
	}
	if pt.Air != nil {
		tt, err := f.ReadAll("TT")
		if err != nil {
			return err
		}
		pres, err := f.ReadAll("PRES")
		if err != nil {
			return err
		}
		tt = tt.Copy()
		if err := PerturbAir(tt, pres, pt.Air); err != nil {
			return err
		}
		if err := f.Write("TT", tt); err != nil {
			return err
		}
	}
	type change struct {
		v       string
		d       float64
		perturb func(*sparse.DenseArray, float64)
	}
	changes := []change{
		{"SST", pt.SST, PerturbSST},
		{"SNOWH", pt.SnowDepth, PerturbSnow},
		{"SNOW", pt.SnowWater, PerturbSnow},
	}
	for i, d := range pt.Soil {
		changes = append(changes, change{SoilVars[i], d, PerturbSoil})
	}
	for _, c := range changes {
		if c.d == 0 {
			continue
		}
		data, err := f.ReadAll(c.v)
		if err != nil {
			return err
		}
		data = data.Copy()
		c.perturb(data, c.d)
		if err := f.Write(c.v, data); err != nil {
			return err
		}
	}
	return nil
}
