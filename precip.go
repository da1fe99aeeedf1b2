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

// Accumulation returns the amount accumulated in field [time, y, x] between
// the records start and end, for example total grid-scale precipitation
// [mm] from RAINNC.
func Accumulation(field *sparse.DenseArray, start, end int) (*sparse.DenseArray, error) {
	nt, ny, nx, err := checkRank3(field)
	if err != nil {
		return nil, err
	}
	if start < 0 || end >= nt || start > end {
		return nil, fmt.Errorf("pgwcloud: accumulation records %d to %d out of range [0, %d)", start, end, nt)
	}
	o := sparse.ZerosDense(ny, nx)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			o.Set(field.Get(end, j, i)-field.Get(start, j, i), j, i)
		}
	}
	return o, nil
}

// Precipitation holds accumulated precipitation fields [mm]. Frozen is
// the sum of Snow and Graupel and Rain is the liquid rest of Total.
type Precipitation struct {
	Rain, Snow, Graupel, Frozen, Total *sparse.DenseArray
}

// PrecipAmounts holds precipitation amounts [mm] at one place or averaged
// over an area.
type PrecipAmounts struct {
	Rain, Snow, Graupel, Frozen, Total float64
}

// NewPrecipitation calculates precipitation accumulated between records
// start and end from accumulated total (rainnc), snow (snownc) and graupel
// (graupelnc) grid-scale precipitation [time, y, x]. graupelnc may be nil
// for microphysics schemes without graupel.
func NewPrecipitation(rainnc, snownc, graupelnc *sparse.DenseArray, start, end int) (*Precipitation, error) {
	total, err := Accumulation(rainnc, start, end)
	if err != nil {
		return nil, err
	}
	snow, err := Accumulation(snownc, start, end)
	if err != nil {
		return nil, err
	}
	graupel := sparse.ZerosDense(total.Shape...)
	if graupelnc != nil {
		if graupel, err = Accumulation(graupelnc, start, end); err != nil {
			return nil, err
		}
	}
	for _, a := range []*sparse.DenseArray{snow, graupel} {
		if len(a.Shape) != len(total.Shape) || a.Shape[0] != total.Shape[0] || a.Shape[1] != total.Shape[1] {
			return nil, fmt.Errorf("%w: total precipitation %v and frozen precipitation %v", ErrShape, total.Shape, a.Shape)
		}
	}
	frozen := snow.Copy()
	frozen.AddDense(graupel)
	rain := total.Copy()
	for i, f := range frozen.Elements {
		rain.Elements[i] -= f
	}
	return &Precipitation{Rain: rain, Snow: snow, Graupel: graupel, Frozen: frozen, Total: total}, nil
}

func (p *Precipitation) fields() []*sparse.DenseArray {
	return []*sparse.DenseArray{p.Rain, p.Snow, p.Graupel, p.Frozen, p.Total}
}

func newPrecipAmounts(v []float64) PrecipAmounts {
	return PrecipAmounts{Rain: v[0], Snow: v[1], Graupel: v[2], Frozen: v[3], Total: v[4]}
}

// Mean returns the domain means of the precipitation fields, leaving out
// border cells on every side.
func (p *Precipitation) Mean(border int) (PrecipAmounts, error) {
	fields := p.fields()
	m := make([]float64, len(fields))
	for i, a := range fields {
		f := sparse.ZerosDense(append([]int{1}, a.Shape...)...)
		copy(f.Elements, a.Elements)
		v, err := DomainMean(f, border)
		if err != nil {
			return PrecipAmounts{}, err
		}
		m[i] = v[0]
	}
	return newPrecipAmounts(m), nil
}

// At returns the precipitation at grid cell (y, x).
func (p *Precipitation) At(y, x int) PrecipAmounts {
	fields := p.fields()
	v := make([]float64, len(fields))
	for i, a := range fields {
		v[i] = a.Get(y, x)
	}
	return newPrecipAmounts(v)
}
