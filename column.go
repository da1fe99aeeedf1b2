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

	"github.com/ctessum/sparse"
)

// DefaultCloudNumber is the prescribed cloud droplet number
// concentration [m-3] of the two-moment microphysics scheme.
const DefaultCloudNumber = 9.e6

// Column holds the model output needed to calculate cloud optical depth
// for a single grid column over a window of time steps. Two-dimensional
// arrays are indexed [time, level].
type Column struct {
	// P is full pressure [Pa] and T air temperature [K].
	P, T *sparse.DenseArray

	// Q holds the mass mixing ratio [kg/kg] of each hydrometeor category.
	Q map[Category]*sparse.DenseArray

	// N holds the number concentration [m-3] of each hydrometeor category
	// except cloud water.
	N map[Category]*sparse.DenseArray

	// NCloud is the cloud droplet number concentration [m-3].
	NCloud float64

	// Z is the altitude [m] of each level. It is held constant over
	// the time window.
	Z []float64

	// ZW is the altitude [m] of the staggered levels below and above each
	// level, with one more element than Z. It is optional.
	ZW []float64
}

// Times returns the number of time steps in the column.
func (col *Column) Times() int { return col.P.Shape[0] }

// Levels returns the number of vertical levels in the column.
func (col *Column) Levels() int { return col.P.Shape[1] }

// Check makes sure that the column holds every field required for the
// given categories and that the fields have consistent shapes.
func (col *Column) Check(cats ...Category) error {
	arrays := []*sparse.DenseArray{col.P, col.T}
	for _, cat := range cats {
		q, ok := col.Q[cat]
		if !ok {
			return fmt.Errorf("pgwcloud: column is missing %s mixing ratio", cat)
		}
		arrays = append(arrays, q)
		if cat == Cloud {
			continue
		}
		n, ok := col.N[cat]
		if !ok {
			return fmt.Errorf("pgwcloud: column is missing %s number concentration", cat)
		}
		arrays = append(arrays, n)
	}
	_, nz, err := checkRank2(arrays...)
	if err != nil {
		return err
	}
	if len(col.Z) != nz {
		return fmt.Errorf("%w: column has %d altitudes for %d levels", ErrShape, len(col.Z), nz)
	}
	if col.ZW != nil && len(col.ZW) != nz+1 {
		return fmt.Errorf("%w: column has %d staggered altitudes for %d levels", ErrShape, len(col.ZW), nz)
	}
	return nil
}

// CODSeries holds the time series of cloud properties in a column.
type CODSeries struct {
	// WaterPath is the water path [kg/m2] of each category at each time.
	WaterPath map[Category][]float64

	// Radius is the vertically averaged effective radius [m] of each
	// category at each time.
	Radius map[Category][]Maybe

	// Depth is the optical depth of each category at each time.
	Depth []CategoryDepths
}

// Liquid returns the liquid optical depth at each time.
func (s *CODSeries) Liquid() []Maybe {
	o := make([]Maybe, len(s.Depth))
	for i, d := range s.Depth {
		o[i] = d.Liquid()
	}
	return o
}

// Frozen returns the frozen optical depth at each time.
func (s *CODSeries) Frozen() []Maybe {
	o := make([]Maybe, len(s.Depth))
	for i, d := range s.Depth {
		o[i] = d.Frozen()
	}
	return o
}

// Total returns the total optical depth at each time.
func (s *CODSeries) Total() []Maybe {
	o := make([]Maybe, len(s.Depth))
	for i, d := range s.Depth {
		o[i] = d.Total()
	}
	return o
}

// CODSummary holds time means of a CODSeries. Means skip undefined values.
type CODSummary struct {
	Depth                 CategoryDepths
	Liquid, Frozen, Total Maybe
	WaterPath             map[Category]float64
	Radius                map[Category]Maybe
}

// Summary returns the time means of the series.
func (s *CODSeries) Summary() CODSummary {
	o := CODSummary{
		WaterPath: make(map[Category]float64),
		Radius:    make(map[Category]Maybe),
		Liquid:    MeanDefined(s.Liquid()),
		Frozen:    MeanDefined(s.Frozen()),
		Total:     MeanDefined(s.Total()),
	}
	for _, cat := range Categories {
		v := make([]Maybe, len(s.Depth))
		for i, d := range s.Depth {
			v[i] = d.Get(cat)
		}
		o.Depth.Set(cat, MeanDefined(v))
		if wp, ok := s.WaterPath[cat]; ok {
			var sum float64
			for _, x := range wp {
				sum += x
			}
			if len(wp) > 0 {
				o.WaterPath[cat] = sum / float64(len(wp))
			}
		}
		if r, ok := s.Radius[cat]; ok {
			o.Radius[cat] = MeanDefined(r)
		}
	}
	return o
}

// VerticalMeanRadius calculates the effective radius [m] of category cat at
// each level and time of the column and averages it over the levels where
// it is defined. grid is the radius grid used for cloud droplets.
func VerticalMeanRadius(col *Column, cat Category, grid []float64, c Constants) ([]Maybe, error) {
	if err := col.Check(cat); err != nil {
		return nil, err
	}
	nt, nz := col.Times(), col.Levels()
	q := col.Q[cat]
	out := make([]Maybe, nt)
	levels := make([]Maybe, nz)
	for it := 0; it < nt; it++ {
		for k := 0; k < nz; k++ {
			qq := q.Get(it, k)
			if cat == Cloud {
				r, err := EffectiveRadiusDroplets(grid, Moments{
					N: col.NCloud,
					Q: qq,
					P: col.P.Get(it, k),
					T: col.T.Get(it, k),
				}, c)
				if err != nil {
					return nil, err
				}
				levels[k] = r
			} else {
				levels[k] = EffectiveRadiusOther(col.N[cat].Get(it, k), qq, c)
			}
		}
		out[it] = MeanDefined(levels)
	}
	return out, nil
}

// ColumnOpticalDepth calculates water path, effective radius and optical
// depth of the given hydrometeor categories for every time step in col.
// If no categories are given, all are calculated. Categories that are not
// calculated are given zero optical depth.
func ColumnOpticalDepth(col *Column, grid []float64, c Constants, cats ...Category) (*CODSeries, error) {
	if len(cats) == 0 {
		cats = Categories
	}
	if err := col.Check(cats...); err != nil {
		return nil, err
	}
	nt := col.Times()
	s := &CODSeries{
		WaterPath: make(map[Category][]float64),
		Radius:    make(map[Category][]Maybe),
		Depth:     make([]CategoryDepths, nt),
	}
	for it := range s.Depth {
		for _, cat := range Categories {
			s.Depth[it].Set(cat, Some(0))
		}
	}
	for _, cat := range cats {
		wp, err := WaterPath(col.Q[cat], col.P, col.T, col.Z, c)
		if err != nil {
			return nil, fmt.Errorf("pgwcloud: %s water path: %w", cat, err)
		}
		r, err := VerticalMeanRadius(col, cat, grid, c)
		if err != nil {
			return nil, fmt.Errorf("pgwcloud: %s effective radius: %w", cat, err)
		}
		s.WaterPath[cat] = wp
		s.Radius[cat] = r
		rho := cat.Density(c)
		for it := 0; it < nt; it++ {
			s.Depth[it].Set(cat, OpticalDepth(wp[it], r[it], rho))
		}
	}
	return s, nil
}
