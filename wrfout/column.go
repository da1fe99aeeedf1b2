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

package wrfout

import (
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/pgwclouds/pgwcloud"
)

// MixingRatioVars are the names of the mass mixing ratio variables
// of each hydrometeor category.
var MixingRatioVars = map[pgwcloud.Category]string{
	pgwcloud.Cloud:   "QCLOUD",
	pgwcloud.Rain:    "QRAIN",
	pgwcloud.Ice:     "QICE",
	pgwcloud.Snow:    "QSNOW",
	pgwcloud.Graupel: "QGRAUP",
}

// NumberVars are the names of the number concentration variables
// of each hydrometeor category with a prognostic number.
var NumberVars = map[pgwcloud.Category]string{
	pgwcloud.Rain:    "QNRAIN",
	pgwcloud.Ice:     "QNICE",
	pgwcloud.Snow:    "QNSNOW",
	pgwcloud.Graupel: "QNGRAUPEL",
}

// ColumnOptions specify which part of a file to read into a column.
type ColumnOptions struct {
	// Y and X are the south_north and west_east indices of the grid cell.
	Y, X int

	// Start and End are the first and one past the last time record.
	// Values of End less than or equal to zero count back from the
	// number of records in the file.
	Start, End int

	// Levels is the number of vertical levels, counting from the surface.
	Levels int

	// RefRecord is the time record whose geopotential is used for the
	// altitude of the levels at every time. Negative values count back
	// from the number of records.
	RefRecord int

	// NCloud is the cloud droplet number concentration [m-3].
	NCloud float64

	// Categories are the hydrometeor categories to read.
	// All categories are read if it is empty.
	Categories []pgwcloud.Category
}

// DefaultColumnOptions returns the options for the grid cell at
// Ny-Ålesund in the 1 km domain, for the second day of the simulation
// at 5 minute output intervals and up to about 3 km altitude.
func DefaultColumnOptions() ColumnOptions {
	return ColumnOptions{
		Y:         60,
		X:         55,
		Start:     144,
		End:       -1,
		Levels:    93,
		RefRecord: 288,
		NCloud:    pgwcloud.DefaultCloudNumber,
	}
}

// recordRange resolves the record range of o for a file with n records.
func (o ColumnOptions) recordRange(n int) (start, end, ref int, err error) {
	start, end, ref = o.Start, o.End, o.RefRecord
	if end <= 0 {
		end += n
	}
	if ref < 0 {
		ref += n
	}
	if start < 0 || end > n || start >= end {
		return 0, 0, 0, fmt.Errorf("wrfout: record range [%d, %d) invalid for file with %d records", start, end, n)
	}
	if ref < 0 || ref >= n {
		return 0, 0, 0, fmt.Errorf("wrfout: reference record %d invalid for file with %d records", o.RefRecord, n)
	}
	return start, end, ref, nil
}

// Column reads the fields needed to calculate the optical depth of a
// single grid column.
func (f *File) Column(o ColumnOptions, c pgwcloud.Constants) (*pgwcloud.Column, error) {
	n, err := f.NumRecords()
	if err != nil {
		return nil, err
	}
	start, end, ref, err := o.recordRange(n)
	if err != nil {
		return nil, err
	}
	read := func(v string) (*sparse.DenseArray, error) {
		return f.ColumnSeries(v, o.Y, o.X, start, end, o.Levels)
	}

	p, err := sumVars(read, "P", "PB")
	if err != nil {
		return nil, err
	}
	theta, err := read("T")
	if err != nil {
		return nil, err
	}
	t := sparse.ZerosDense(p.Shape...)
	for i, pp := range p.Elements {
		t.Elements[i] = pgwcloud.TemperatureFromTheta(theta.Elements[i], pp, c)
	}

	ph, err := f.ColumnSeries("PH", o.Y, o.X, ref, ref+1, o.Levels+1)
	if err != nil {
		return nil, err
	}
	phb, err := f.ColumnSeries("PHB", o.Y, o.X, ref, ref+1, o.Levels+1)
	if err != nil {
		return nil, err
	}
	z, err := pgwcloud.AltitudeLevels(ph.Elements, phb.Elements, c)
	if err != nil {
		return nil, err
	}
	zw, err := pgwcloud.StaggeredHeights(ph.Elements, phb.Elements, c)
	if err != nil {
		return nil, err
	}

	col := &pgwcloud.Column{
		P:      p,
		T:      t,
		Q:      make(map[pgwcloud.Category]*sparse.DenseArray),
		N:      make(map[pgwcloud.Category]*sparse.DenseArray),
		NCloud: o.NCloud,
		Z:      z,
		ZW:     zw,
	}
	cats := o.Categories
	if len(cats) == 0 {
		cats = pgwcloud.Categories
	}
	for _, cat := range cats {
		if col.Q[cat], err = read(MixingRatioVars[cat]); err != nil {
			return nil, err
		}
		if cat == pgwcloud.Cloud {
			continue
		}
		if col.N[cat], err = read(NumberVars[cat]); err != nil {
			return nil, err
		}
	}
	return col, col.Check(cats...)
}

// sumVars returns the sum of the named variables read with read.
func sumVars(read func(string) (*sparse.DenseArray, error), vars ...string) (*sparse.DenseArray, error) {
	var out *sparse.DenseArray
	for _, v := range vars {
		a, err := read(v)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = a.Copy()
			continue
		}
		out.AddDense(a)
	}
	return out, nil
}

// Surface returns the 3-D variable v [time, y, x] for the time records
// in [start, end). Values of end less than or equal to zero count back
// from the number of records in the file.
func (f *File) Surface(v string, start, end int) (*sparse.DenseArray, error) {
	dims, err := f.Shape(v)
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 || !f.ff.Header.IsRecordVariable(v) {
		return nil, fmt.Errorf("wrfout: variable %s is not [time, y, x]", v)
	}
	n, err := f.NumRecords()
	if err != nil {
		return nil, err
	}
	if end <= 0 {
		end += n
	}
	if start < 0 || end > n || start >= end {
		return nil, fmt.Errorf("wrfout: record range [%d, %d) invalid for file with %d records", start, end, n)
	}
	return f.Records(v, start, end)
}
