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

	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
	"github.com/pgwclouds/pgwcloud"
	"github.com/pgwclouds/pgwcloud/pgw"
	"github.com/pgwclouds/pgwcloud/wrfout"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// quantity returns m as a quantity with dimensions d, or m itself if it
// is undefined.
func quantity(m pgwcloud.Maybe, d unit.Dimensions) interface{} {
	if !m.Valid {
		return m
	}
	return unit.New(m.Value, d)
}

// CODResult holds the time-mean optical depth of one simulation.
type CODResult struct {
	Simulation string
	Summary    pgwcloud.CODSummary
	Derived    map[string]pgwcloud.Maybe
}

// Values returns the named results of r that output variables can use.
// Results of categories that were not calculated are undefined.
func (r *CODResult) Values() map[string]pgwcloud.Maybe {
	s := r.Summary
	v := map[string]pgwcloud.Maybe{
		"cod_total":  s.Total,
		"cod_liquid": s.Liquid,
		"cod_frozen": s.Frozen,
	}
	for _, cat := range pgwcloud.Categories {
		v["cod_"+cat.String()] = s.Depth.Get(cat)
		v["wp_"+cat.String()] = pgwcloud.None()
		if wp, ok := s.WaterPath[cat]; ok {
			v["wp_"+cat.String()] = pgwcloud.Some(wp)
		}
		v["reff_"+cat.String()] = s.Radius[cat]
	}
	return v
}

// COD calculates the time-mean optical depth of a grid column in each
// simulation. If outputter is not nil its output variables are
// calculated from the results.
func COD(sims []Simulation, o wrfout.ColumnOptions, grid []float64, c pgwcloud.Constants, outputter *Outputter) ([]*CODResult, error) {
	var results []*CODResult
	for _, sim := range sims {
		log := logrus.WithFields(logrus.Fields{"simulation": sim.Name, "file": sim.File, "y": o.Y, "x": o.X})
		log.Info("reading column")
		col, err := readColumn(sim.File, o, c)
		if err != nil {
			return nil, fmt.Errorf("pgwutil: simulation %s: %v", sim.Name, err)
		}
		log.WithField("times", col.Times()).Info("calculating optical depth")
		series, err := pgwcloud.ColumnOpticalDepth(col, grid, c, o.Categories...)
		if err != nil {
			return nil, fmt.Errorf("pgwutil: simulation %s: %v", sim.Name, err)
		}
		r := &CODResult{Simulation: sim.Name, Summary: series.Summary()}
		if outputter != nil {
			if r.Derived, err = outputter.Evaluate(r.Values()); err != nil {
				return nil, err
			}
		}
		results = append(results, r)
	}
	return results, nil
}

func readColumn(fileName string, o wrfout.ColumnOptions, c pgwcloud.Constants) (*pgwcloud.Column, error) {
	f, err := wrfout.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Column(o, c)
}

// CODTable returns the optical depth results as a table with one row
// per simulation.
func CODTable(results []*CODResult, cats []pgwcloud.Category, outputter *Outputter) (*Table, error) {
	header := []string{"simulation", "cod_total", "cod_liquid", "cod_frozen"}
	for _, cat := range cats {
		header = append(header, "cod_"+cat.String())
	}
	for _, cat := range cats {
		header = append(header, "wp_"+cat.String())
	}
	for _, cat := range cats {
		header = append(header, "reff_"+cat.String())
	}
	if outputter != nil {
		header = append(header, outputter.Names()...)
	}
	t := NewTable("optical depth", header...)
	for _, r := range results {
		s := r.Summary
		row := []interface{}{r.Simulation,
			quantity(s.Total, dimless), quantity(s.Liquid, dimless), quantity(s.Frozen, dimless)}
		for _, cat := range cats {
			row = append(row, quantity(s.Depth.Get(cat), dimless))
		}
		for _, cat := range cats {
			row = append(row, unit.New(s.WaterPath[cat], waterPathUnits))
		}
		for _, cat := range cats {
			row = append(row, quantity(s.Radius[cat], lengthUnits))
		}
		if outputter != nil {
			for _, name := range outputter.Names() {
				row = append(row, r.Derived[name])
			}
		}
		if err := t.AddRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ColumnMoments reads the moments of hydrometeor category cat at record
// o.Start and level of the grid column (o.Y, o.X).
func ColumnMoments(fileName string, o wrfout.ColumnOptions, level int, cat pgwcloud.Category, c pgwcloud.Constants) (pgwcloud.Moments, error) {
	if level < 0 {
		return pgwcloud.Moments{}, fmt.Errorf("pgwutil: invalid level %d", level)
	}
	o.End = o.Start + 1
	o.RefRecord = o.Start
	o.Levels = level + 1
	o.Categories = []pgwcloud.Category{cat}
	col, err := readColumn(fileName, o, c)
	if err != nil {
		return pgwcloud.Moments{}, err
	}
	m := pgwcloud.Moments{
		Q: col.Q[cat].Get(0, level),
		P: col.P.Get(0, level),
		T: col.T.Get(0, level),
		N: col.NCloud,
	}
	if cat != pgwcloud.Cloud {
		m.N = col.N[cat].Get(0, level)
	}
	return m, nil
}

// PSDResult holds the size distribution of a hydrometeor population.
type PSDResult struct {
	Moments pgwcloud.Moments
	Params  pgwcloud.GammaParams
	Valid   bool

	// Diameter [m] and Number [µm-1 m-3] are the size distribution.
	// Number is nil when the distribution is undefined.
	Diameter, Number []float64

	// RadiusDroplets and RadiusOther are the effective radii [m] from the
	// droplet and non-droplet methods.
	RadiusDroplets, RadiusOther pgwcloud.Maybe
}

// logSpace returns n points evenly spaced on a logarithmic scale
// from min to max.
func logSpace(min, max float64, n int) []float64 {
	o := make([]float64, n)
	floats.LogSpan(o, min, max)
	return o
}

// PSD calculates the size distribution at n diameters between dMin and
// dMax [m] and the effective radius of a hydrometeor population.
func PSD(m pgwcloud.Moments, grid []float64, c pgwcloud.Constants, dMin, dMax float64, n int) (*PSDResult, error) {
	if !(dMin > 0) || !(dMax > dMin) || n < 2 {
		return nil, fmt.Errorf("pgwutil: invalid diameter range %g to %g with %d points", dMin, dMax, n)
	}
	r := &PSDResult{Moments: m, Diameter: logSpace(dMin, dMax, n)}
	r.Params, r.Valid = pgwcloud.NewGammaParams(m, c)
	var err error
	if r.Valid {
		if r.Number, err = pgwcloud.SizeDistribution(r.Diameter, m, c); err != nil {
			return nil, err
		}
	}
	if r.RadiusDroplets, err = pgwcloud.EffectiveRadiusDroplets(grid, m, c); err != nil {
		return nil, err
	}
	r.RadiusOther = pgwcloud.EffectiveRadiusOther(m.N, m.Q, c)
	return r, nil
}

// Tables returns the parameters and size distribution as tables.
func (r *PSDResult) Tables() ([]*Table, error) {
	params := NewTable("parameters", "parameter", "value")
	lambda, n0 := pgwcloud.None(), pgwcloud.None()
	if r.Valid {
		lambda, n0 = pgwcloud.Some(r.Params.Lambda), pgwcloud.Some(r.Params.N0)
	}
	rows := [][]interface{}{
		{"N", unit.New(r.Moments.N, numberUnits)},
		{"q", unit.New(r.Moments.Q, dimless)},
		{"mu", unit.New(r.Params.Mu, dimless)},
		{"lambda", quantity(lambda, unit.Dimensions{unit.LengthDim: -1})},
		{"N0", n0},
		{"reff_droplets", quantity(r.RadiusDroplets, lengthUnits)},
		{"reff_other", quantity(r.RadiusOther, lengthUnits)},
	}
	for _, row := range rows {
		if err := params.AddRow(row...); err != nil {
			return nil, err
		}
	}
	dist := NewTable("size distribution", "diameter", "dN/dD [µm-1 m-3]")
	for i, d := range r.Diameter {
		n := pgwcloud.None()
		if r.Number != nil {
			n = pgwcloud.Some(r.Number[i])
		}
		if err := dist.AddRow(unit.New(d, lengthUnits), n); err != nil {
			return nil, err
		}
	}
	return []*Table{params, dist}, nil
}

// ProfileResult holds the time-mean profiles of one simulation.
type ProfileResult struct {
	Simulation string
	Profile    *pgwcloud.WCProfile
	CloudBase  pgwcloud.Maybe

	// IceNumber is the total number concentration [m-3] of ice, snow
	// and graupel at each level.
	IceNumber []float64
}

// Profiles calculates time-mean liquid and frozen water content and total
// ice number profiles, and the mean cloud base below level maxLevel, of a
// grid column in each simulation.
func Profiles(sims []Simulation, o wrfout.ColumnOptions, c pgwcloud.Constants, maxLevel int) ([]*ProfileResult, error) {
	o.Categories = pgwcloud.Categories
	var results []*ProfileResult
	for _, sim := range sims {
		logrus.WithFields(logrus.Fields{"simulation": sim.Name, "file": sim.File}).Info("calculating profiles")
		col, err := readColumn(sim.File, o, c)
		if err != nil {
			return nil, fmt.Errorf("pgwutil: simulation %s: %v", sim.Name, err)
		}
		prof, err := pgwcloud.WaterContentProfiles(col, c)
		if err != nil {
			return nil, err
		}
		base, err := pgwcloud.ColumnCloudBase(col, c, maxLevel)
		if err != nil {
			return nil, err
		}
		ni, err := pgwcloud.TotalIceNumber(col)
		if err != nil {
			return nil, err
		}
		results = append(results, &ProfileResult{
			Simulation: sim.Name,
			Profile:    prof,
			CloudBase:  pgwcloud.MeanDefined(base),
			IceNumber:  pgwcloud.TimeMean(ni),
		})
	}
	return results, nil
}

// ProfileTables returns a summary table and one profile table for each
// simulation.
func ProfileTables(results []*ProfileResult) ([]*Table, error) {
	summary := NewTable("cloud base", "simulation", "cloud_base", "max_lwc", "max_iwc")
	tables := []*Table{summary}
	for _, r := range results {
		p := r.Profile
		err := summary.AddRow(r.Simulation, quantity(r.CloudBase, lengthUnits),
			floats.Max(p.LWC), floats.Max(p.IWC))
		if err != nil {
			return nil, err
		}
		t := NewTable(r.Simulation, "altitude", "lwc [g m-3]", "iwc [g m-3]", "temperature", "ice_number")
		for k := range p.Z {
			if err := t.AddRow(unit.New(p.Z[k], lengthUnits), p.LWC[k], p.IWC[k], unit.New(p.T[k], tempUnits),
				unit.New(r.IceNumber[k], numberUnits)); err != nil {
				return nil, err
			}
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// FluxResult holds the domain-mean flux series of one simulation.
type FluxResult struct {
	Simulation string

	// AllSky is the domain-mean all-sky flux [W/m2] and CRE the
	// cloud radiative effect, which is nil without a clear-sky flux.
	AllSky, CRE []float64

	AllSkyStats, CREStats pgwcloud.BoxStats
}

// Fluxes calculates domain-mean time series of the all-sky flux variable
// and, if clearSky is not empty, of the cloud radiative effect for the
// records [start, end) of each simulation. border grid cells are left out
// on every side of the domain.
func Fluxes(sims []Simulation, allSky, clearSky string, start, end, border int) ([]*FluxResult, error) {
	var results []*FluxResult
	for _, sim := range sims {
		logrus.WithFields(logrus.Fields{"simulation": sim.Name, "var": allSky}).Info("calculating domain means")
		r := &FluxResult{Simulation: sim.Name}
		f, err := wrfout.Open(sim.File)
		if err != nil {
			return nil, err
		}
		r.AllSky, err = domainMean(f, allSky, start, end, border)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("pgwutil: simulation %s: %v", sim.Name, err)
		}
		if clearSky != "" {
			var clear []float64
			clear, err = domainMean(f, clearSky, start, end, border)
			if err == nil {
				r.CRE, err = pgwcloud.CloudRadiativeEffect(r.AllSky, clear)
			}
		}
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("pgwutil: simulation %s: %v", sim.Name, err)
		}
		if r.AllSkyStats, err = pgwcloud.NewBoxStats(r.AllSky); err != nil {
			return nil, err
		}
		if r.CRE != nil {
			if r.CREStats, err = pgwcloud.NewBoxStats(r.CRE); err != nil {
				return nil, err
			}
		}
		results = append(results, r)
	}
	return results, nil
}

func domainMean(f *wrfout.File, v string, start, end, border int) ([]float64, error) {
	field, err := f.Surface(v, start, end)
	if err != nil {
		return nil, err
	}
	return pgwcloud.DomainMean(field, border)
}

// FluxTable returns the box statistics of the flux results.
func FluxTable(results []*FluxResult, allSky string) (*Table, error) {
	t := NewTable("fluxes", "simulation", "variable", "min", "q1", "median", "q3", "max", "mean")
	add := func(sim, v string, s pgwcloud.BoxStats) error {
		row := []interface{}{sim, v}
		for _, x := range []float64{s.Min, s.Q1, s.Median, s.Q3, s.Max, s.Mean} {
			row = append(row, unit.New(x, fluxUnits))
		}
		return t.AddRow(row...)
	}
	for _, r := range results {
		if err := add(r.Simulation, allSky, r.AllSkyStats); err != nil {
			return nil, err
		}
		if r.CRE != nil {
			if err := add(r.Simulation, "CRE", r.CREStats); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// Significance compares the time means of variable v [time, y, x] in
// simulations a and b over the records [start, end). If outFile is not
// empty the means, standard errors and differences are written to it as
// a netCDF file.
func Significance(a, b Simulation, v string, start, end int, lagCorrected bool, outFile string) (*Table, error) {
	stats := make([]*pgwcloud.CellStats, 2)
	for i, sim := range []Simulation{a, b} {
		logrus.WithFields(logrus.Fields{"simulation": sim.Name, "var": v}).Info("calculating temporal statistics")
		f, err := wrfout.Open(sim.File)
		if err != nil {
			return nil, err
		}
		field, err := f.Surface(v, start, end)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("pgwutil: simulation %s: %v", sim.Name, err)
		}
		if stats[i], err = pgwcloud.TemporalStats(field, lagCorrected); err != nil {
			return nil, err
		}
	}
	diff, sig, err := pgwcloud.SignificantDifference(stats[0], stats[1])
	if err != nil {
		return nil, err
	}

	if outFile != "" {
		dims := []string{"south_north", "west_east"}
		vars := []wrfout.Variable{
			{Name: "MEAN_A", Dims: dims, Data: stats[0].Mean, Attributes: map[string]string{"simulation": a.Name}},
			{Name: "SE_A", Dims: dims, Data: stats[0].StdErr, Attributes: map[string]string{"simulation": a.Name}},
			{Name: "MEAN_B", Dims: dims, Data: stats[1].Mean, Attributes: map[string]string{"simulation": b.Name}},
			{Name: "SE_B", Dims: dims, Data: stats[1].StdErr, Attributes: map[string]string{"simulation": b.Name}},
			{Name: "DIFF", Dims: dims, Data: diff, Attributes: map[string]string{"description": "MEAN_B - MEAN_A"}},
			{Name: "SIGDIFF", Dims: dims, Data: sig,
				Attributes: map[string]string{"description": "DIFF where the standard error ranges do not overlap, otherwise 0"}},
		}
		if err := wrfout.Create(outFile, dims, diff.Shape, vars); err != nil {
			return nil, err
		}
	}

	var nSig int
	for _, d := range sig.Elements {
		if d != 0 {
			nSig++
		}
	}
	t := NewTable("significance", "variable", "mean_a", "mean_b", "mean_diff", "significant_fraction")
	err = t.AddRow(v, mean(stats[0].Mean), mean(stats[1].Mean), mean(diff),
		float64(nSig)/float64(len(sig.Elements)))
	return t, err
}

func mean(a *sparse.DenseArray) float64 {
	return floats.Sum(a.Elements) / float64(len(a.Elements))
}

// PrecipResult holds the accumulated precipitation of one simulation.
type PrecipResult struct {
	Simulation string

	// Domain means and values at the grid cell of interest [mm].
	Mean, Cell pgwcloud.PrecipAmounts
}

// Precip calculates precipitation accumulated between the records start
// and end of each simulation. Negative record indices count back from the
// number of records. Domain means leave out border cells on every side.
// Frozen precipitation includes graupel when the file has GRAUPELNC.
func Precip(sims []Simulation, start, end, border, y, x int) ([]*PrecipResult, error) {
	var results []*PrecipResult
	for _, sim := range sims {
		logrus.WithFields(logrus.Fields{"simulation": sim.Name, "file": sim.File}).Info("calculating precipitation")
		f, err := wrfout.Open(sim.File)
		if err != nil {
			return nil, err
		}
		rain, err := f.Surface("RAINNC", 0, 0)
		var snow, graupel *sparse.DenseArray
		if err == nil {
			snow, err = f.Surface("SNOWNC", 0, 0)
		}
		if err == nil && f.Has("GRAUPELNC") {
			graupel, err = f.Surface("GRAUPELNC", 0, 0)
		}
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("pgwutil: simulation %s: %v", sim.Name, err)
		}
		s, e := start, end
		if s < 0 {
			s += rain.Shape[0]
		}
		if e < 0 {
			e += rain.Shape[0]
		}
		p, err := pgwcloud.NewPrecipitation(rain, snow, graupel, s, e)
		if err != nil {
			return nil, fmt.Errorf("pgwutil: simulation %s: %v", sim.Name, err)
		}
		if y < 0 || y >= p.Total.Shape[0] || x < 0 || x >= p.Total.Shape[1] {
			return nil, fmt.Errorf("pgwutil: grid cell (%d, %d) outside of %v domain", y, x, p.Total.Shape)
		}
		r := &PrecipResult{Simulation: sim.Name}
		if r.Mean, err = p.Mean(border); err != nil {
			return nil, err
		}
		r.Cell = p.At(y, x)
		results = append(results, r)
	}
	return results, nil
}

// PrecipTable returns the precipitation results as a table.
// Amounts are water equivalents.
func PrecipTable(results []*PrecipResult) (*Table, error) {
	t := NewTable("precipitation", "simulation",
		"rain_mean", "snow_mean", "graupel_mean", "frozen_mean", "total_mean",
		"rain_cell", "snow_cell", "graupel_cell", "frozen_cell", "total_cell")
	for _, r := range results {
		row := []interface{}{r.Simulation}
		for _, v := range []float64{
			r.Mean.Rain, r.Mean.Snow, r.Mean.Graupel, r.Mean.Frozen, r.Mean.Total,
			r.Cell.Rain, r.Cell.Snow, r.Cell.Graupel, r.Cell.Frozen, r.Cell.Total,
		} {
			// 1 mm of precipitation is 1 kg m-2.
			row = append(row, unit.New(v, waterPathUnits))
		}
		if err := t.AddRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Perturb applies a climate change perturbation to each of the given
// met_em files in place.
func Perturb(files []string, pt *pgw.Perturbation) error {
	for _, name := range files {
		logrus.WithField("file", name).Info("applying perturbation")
		f, err := wrfout.OpenWrite(name)
		if err != nil {
			return err
		}
		if err := pt.Apply(f); err != nil {
			f.Close()
			return fmt.Errorf("pgwutil: perturbing %s: %v", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
