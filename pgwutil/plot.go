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

package pgwutil

import (
	"fmt"

	"github.com/pgwclouds/pgwcloud"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	figWidth  = 5 * vg.Inch
	figHeight = 4 * vg.Inch
)

// PlotSizeDistribution plots number size distributions n [µm-1 m-3] against
// particle diameter d [m] on logarithmic axes. Non-positive values are
// left out.
func PlotSizeDistribution(fileName string, d []float64, n map[string][]float64) error {
	p := plot.New()
	p.X.Label.Text = "Diameter [µm]"
	p.Y.Label.Text = "dN/dD [µm⁻¹ m⁻³]"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	for i, name := range sortedKeys(n) {
		v := n[name]
		if len(v) != len(d) {
			return fmt.Errorf("pgwutil: plotting %s: %d values for %d diameters", name, len(v), len(d))
		}
		xy := make(plotter.XYs, 0, len(d))
		for j, x := range d {
			if x > 0 && v[j] > 0 {
				xy = append(xy, plotter.XY{X: x * 1.e6, Y: v[j]})
			}
		}
		if len(xy) == 0 {
			continue
		}
		l, err := plotter.NewLine(xy)
		if err != nil {
			return fmt.Errorf("pgwutil: plotting %s: %v", name, err)
		}
		l.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(name, l)
	}
	return save(p, fileName)
}

// PlotBoxes draws one box for each series.
func PlotBoxes(fileName, yLabel string, names []string, series [][]float64) error {
	if len(names) != len(series) {
		return fmt.Errorf("pgwutil: %d names for %d box plot series", len(names), len(series))
	}
	p := plot.New()
	p.Y.Label.Text = yLabel
	for i, s := range series {
		b, err := plotter.NewBoxPlot(vg.Points(20), float64(i), plotter.Values(s))
		if err != nil {
			return fmt.Errorf("pgwutil: box plot %s: %v", names[i], err)
		}
		b.FillColor = plotutil.Color(i)
		p.Add(b)
	}
	p.NominalX(names...)
	return save(p, fileName)
}

// PlotProfiles plots liquid and frozen water content profiles against
// altitude.
func PlotProfiles(fileName string, profiles map[string]*pgwcloud.WCProfile) error {
	p := plot.New()
	p.X.Label.Text = "Water content [g m⁻³]"
	p.Y.Label.Text = "Altitude [km]"
	p.Add(plotter.NewGrid())
	for i, name := range sortedKeys(profiles) {
		prof := profiles[name]
		for j, v := range []struct {
			label string
			wc    []float64
		}{{"LWC", prof.LWC}, {"IWC", prof.IWC}} {
			xy := make(plotter.XYs, len(prof.Z))
			for k, z := range prof.Z {
				xy[k] = plotter.XY{X: v.wc[k], Y: z / 1000}
			}
			l, err := plotter.NewLine(xy)
			if err != nil {
				return fmt.Errorf("pgwutil: plotting %s %s: %v", name, v.label, err)
			}
			l.Color = plotutil.Color(i)
			l.Dashes = plotutil.Dashes(j)
			p.Add(l)
			p.Legend.Add(fmt.Sprintf("%s %s", name, v.label), l)
		}
	}
	return save(p, fileName)
}

func save(p *plot.Plot, fileName string) error {
	if err := p.Save(figWidth, figHeight, fileName); err != nil {
		return fmt.Errorf("pgwutil: saving figure %s: %v", fileName, err)
	}
	return nil
}
