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

// Liquid and frozen hydrometeor categories, and the categories that stay
// in the cloud rather than precipitate out of it.
var (
	LiquidCategories  = []Category{Cloud, Rain}
	FrozenCategories  = []Category{Ice, Snow, Graupel}
	InCloudCategories = []Category{Cloud, Ice}
)

// WCProfile holds time-averaged vertical profiles of a column.
type WCProfile struct {
	// Z is the altitude of each level [m].
	Z []float64

	// LWC and IWC are liquid and frozen water content [g/m3].
	LWC, IWC []float64

	// T is air temperature [K].
	T []float64
}

// SumWaterContent returns the water content [kg/m3] of the sum of the
// given categories at each time and level of col.
func SumWaterContent(col *Column, c Constants, cats ...Category) (*sparse.DenseArray, error) {
	if len(cats) == 0 {
		return nil, fmt.Errorf("pgwcloud: no hydrometeor categories given")
	}
	if _, _, err := checkRank2(col.P, col.T); err != nil {
		return nil, err
	}
	sum := sparse.ZerosDense(col.P.Shape...)
	for _, cat := range cats {
		q, ok := col.Q[cat]
		if !ok {
			return nil, fmt.Errorf("pgwcloud: column is missing %s mixing ratio", cat)
		}
		wc, err := WaterContent(q, col.P, col.T, c)
		if err != nil {
			return nil, err
		}
		sum.AddDense(wc)
	}
	return sum, nil
}

// TimeMean returns the mean over the first dimension of a [time, level] array.
func TimeMean(a *sparse.DenseArray) []float64 {
	nt, nz := a.Shape[0], a.Shape[1]
	o := make([]float64, nz)
	if nt == 0 {
		return o
	}
	for it := 0; it < nt; it++ {
		for k := 0; k < nz; k++ {
			o[k] += a.Elements[it*nz+k]
		}
	}
	for k := range o {
		o[k] /= float64(nt)
	}
	return o
}

// WaterContentProfiles returns the time-mean liquid (cloud and rain) and
// frozen (ice, snow and graupel) water content and air temperature at
// each level of col.
func WaterContentProfiles(col *Column, c Constants) (*WCProfile, error) {
	if err := col.Check(Categories...); err != nil {
		return nil, err
	}
	lwc, err := SumWaterContent(col, c, LiquidCategories...)
	if err != nil {
		return nil, err
	}
	iwc, err := SumWaterContent(col, c, FrozenCategories...)
	if err != nil {
		return nil, err
	}
	p := &WCProfile{
		Z:   append([]float64(nil), col.Z...),
		LWC: TimeMean(lwc),
		IWC: TimeMean(iwc),
		T:   TimeMean(col.T),
	}
	for k := range p.LWC {
		p.LWC[k] *= 1000
		p.IWC[k] *= 1000
	}
	return p, nil
}

// CloudBase finds the cloud base at each time step as the altitude of the
// lowest level below maxLevel above which the condensed water content cwc
// [time, level] increases. The height is undefined at time steps where no
// such level exists.
func CloudBase(cwc *sparse.DenseArray, z []float64, maxLevel int) ([]Maybe, error) {
	nt, nz, err := checkRank2(cwc)
	if err != nil {
		return nil, err
	}
	if len(z) < nz {
		return nil, fmt.Errorf("%w: %d altitudes for %d levels", ErrShape, len(z), nz)
	}
	if maxLevel > nz-1 {
		maxLevel = nz - 1
	}
	o := make([]Maybe, nt)
	for it := 0; it < nt; it++ {
		for k := 0; k < maxLevel; k++ {
			if cwc.Get(it, k+1)-cwc.Get(it, k) > 0 {
				o[it] = Some(z[k])
				break
			}
		}
	}
	return o, nil
}

// ColumnCloudBase finds the cloud base at each time step of col from the
// water content of the in-cloud categories, so that precipitation falling
// below the cloud is not mistaken for its base. The height of a cloud base
// at level k is the altitude of the staggered level below it, so col must
// have ZW.
func ColumnCloudBase(col *Column, c Constants, maxLevel int) ([]Maybe, error) {
	if err := col.Check(InCloudCategories...); err != nil {
		return nil, err
	}
	if col.ZW == nil {
		return nil, fmt.Errorf("%w: column has no staggered altitudes", ErrShape)
	}
	cwc, err := SumWaterContent(col, c, InCloudCategories...)
	if err != nil {
		return nil, err
	}
	return CloudBase(cwc, col.ZW, maxLevel)
}

// TotalIceNumber returns the summed number concentration [m-3] of ice,
// snow and graupel at each time and level of col.
func TotalIceNumber(col *Column) (*sparse.DenseArray, error) {
	if err := col.Check(FrozenCategories...); err != nil {
		return nil, err
	}
	sum := sparse.ZerosDense(col.P.Shape...)
	for _, cat := range FrozenCategories {
		sum.AddDense(col.N[cat])
	}
	return sum, nil
}
