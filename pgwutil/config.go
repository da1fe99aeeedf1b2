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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/pgwclouds/pgwcloud"
	"github.com/pgwclouds/pgwcloud/pgw"
	"github.com/pgwclouds/pgwcloud/wrfout"
	"github.com/spf13/cast"
)

// Simulation is a named model run.
type Simulation struct {
	Name string
	File string
}

// simulationList is the layout of a simulation list file:
//
//	[[Simulation]]
//	Name = "CTRL"
//	File = "ctrl/wrfout_d03_2019-11-11_12:00:00"
type simulationList struct {
	Simulation []Simulation
}

// LoadSimulations reads a TOML simulation list, expanding environment
// variables in the file paths. Relative paths are relative to the
// directory of the list file.
func LoadSimulations(fileName string) ([]Simulation, error) {
	if fileName == "" {
		return nil, fmt.Errorf("pgwutil: you need to specify a simulation list file (for example: Simulations=\"simulations.toml\")")
	}
	fileName = os.ExpandEnv(fileName)
	var l simulationList
	if _, err := toml.DecodeFile(fileName, &l); err != nil {
		return nil, fmt.Errorf("pgwutil: reading simulation list: %v", err)
	}
	if len(l.Simulation) == 0 {
		return nil, fmt.Errorf("pgwutil: simulation list %s is empty", fileName)
	}
	dir := filepath.Dir(fileName)
	names := make(map[string]bool)
	for i, s := range l.Simulation {
		if s.Name == "" || s.File == "" {
			return nil, fmt.Errorf("pgwutil: simulation %d in %s needs both a Name and a File", i, fileName)
		}
		if names[s.Name] {
			return nil, fmt.Errorf("pgwutil: duplicate simulation name %s", s.Name)
		}
		names[s.Name] = true
		f := os.ExpandEnv(s.File)
		if !filepath.IsAbs(f) {
			f = filepath.Join(dir, f)
		}
		l.Simulation[i].File = f
	}
	return l.Simulation, nil
}

// findSimulation returns the simulation with the given name.
func findSimulation(sims []Simulation, name string) (Simulation, error) {
	for _, s := range sims {
		if s.Name == name {
			return s, nil
		}
	}
	return Simulation{}, fmt.Errorf("pgwutil: no simulation named %s", name)
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkOutputFile expands any environment variables in the output file
// name and makes sure its directory exists. An empty name means standard
// output.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", nil
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("pgwutil: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkInputFile expands any environment variables in an input file name
// and makes sure the file exists.
func checkInputFile(varName, f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("pgwutil: you need to specify the %s configuration variable", varName)
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(f); err != nil {
		return f, fmt.Errorf("pgwutil: %s: %v", varName, err)
	}
	return f, nil
}

// checkOutputVars removes end lines and expands environment
// variables in the output variables.
func checkOutputVars(vars map[string]string) map[string]string {
	o := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		o[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return o
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if strings.TrimSpace(v) == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("pgwutil: parsing %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("pgwutil: invalid type for %s: %#v", varName, i)
	}
}

// parseCategories converts hydrometeor category names to categories.
// Empty input means all categories.
func parseCategories(names []string) ([]pgwcloud.Category, error) {
	var o []pgwcloud.Category
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		found := false
		for _, c := range pgwcloud.Categories {
			if c.String() == n {
				o = append(o, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("pgwutil: unknown hydrometeor category '%s'", n)
		}
	}
	if len(o) == 0 {
		return pgwcloud.Categories, nil
	}
	return o, nil
}

// ColumnOptions unmarshals the grid column and time window to analyze
// from a viper configuration.
func ColumnOptions(cfg *viper.Viper) (wrfout.ColumnOptions, error) {
	cats, err := parseCategories(cfg.GetStringSlice("Column.Categories"))
	if err != nil {
		return wrfout.ColumnOptions{}, err
	}
	if cfg.GetBool("LiquidOnly") {
		cats = intersect(cats, pgwcloud.LiquidCategories)
	}
	o := wrfout.ColumnOptions{
		Y:          cfg.GetInt("Column.Y"),
		X:          cfg.GetInt("Column.X"),
		Start:      cfg.GetInt("Start"),
		End:        cfg.GetInt("End"),
		Levels:     cfg.GetInt("Column.Levels"),
		RefRecord:  cfg.GetInt("Column.RefRecord"),
		NCloud:     cfg.GetFloat64("Column.NCloud"),
		Categories: cats,
	}
	if o.Levels < 2 {
		return o, fmt.Errorf("pgwutil: Column.Levels=%d but should be at least 2", o.Levels)
	}
	if !(o.NCloud > 0) {
		return o, fmt.Errorf("pgwutil: Column.NCloud=%g but should be >0", o.NCloud)
	}
	if len(o.Categories) == 0 {
		return o, fmt.Errorf("pgwutil: no hydrometeor categories selected")
	}
	return o, nil
}

func intersect(a, b []pgwcloud.Category) []pgwcloud.Category {
	var o []pgwcloud.Category
	for _, x := range a {
		for _, y := range b {
			if x == y {
				o = append(o, x)
			}
		}
	}
	return o
}

// radiusGrid returns the radius grid for the droplet effective radius,
// refined by the RadiusGridRefinement configuration variable.
func radiusGrid(cfg *viper.Viper) ([]float64, error) {
	k := cfg.GetInt("RadiusGridRefinement")
	if k < 1 {
		return nil, fmt.Errorf("pgwutil: RadiusGridRefinement=%d but should be >= 1", k)
	}
	return pgwcloud.RefineGrid(pgwcloud.DefaultRadiusGrid(), k), nil
}

// moments unmarshals the hydrometeor properties for the size distribution
// command.
func moments(cfg *viper.Viper) (pgwcloud.Moments, error) {
	m := pgwcloud.Moments{
		N: cfg.GetFloat64("PSD.N"),
		Q: cfg.GetFloat64("PSD.Q"),
		P: cfg.GetFloat64("PSD.P"),
		T: cfg.GetFloat64("PSD.T"),
	}
	if m.N < 0 || m.Q < 0 {
		return m, fmt.Errorf("pgwutil: PSD.N=%g and PSD.Q=%g must not be negative", m.N, m.Q)
	}
	if !(m.P > 0) || !(m.T > 0) {
		return m, fmt.Errorf("pgwutil: PSD.P=%g and PSD.T=%g must be >0", m.P, m.T)
	}
	return m, nil
}

// toFloat64SliceE converts a configuration value to a slice of numbers.
// Values set from the command line are JSON arrays.
func toFloat64SliceE(i interface{}) ([]float64, error) {
	switch v := i.(type) {
	case nil:
		return nil, nil
	case []float64:
		return v, nil
	case []interface{}:
		o := make([]float64, len(v))
		for j, val := range v {
			f, err := cast.ToFloat64E(val)
			if err != nil {
				return nil, err
			}
			o[j] = f
		}
		return o, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		var o []float64
		if err := json.Unmarshal([]byte(v), &o); err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("invalid type %T for list of numbers", i)
	}
}

// perturbation unmarshals a climate change perturbation from a viper
// configuration.
func perturbation(cfg *viper.Viper) (*pgw.Perturbation, error) {
	airDT, err := toFloat64SliceE(cfg.Get("Perturb.AirDT"))
	if err != nil {
		return nil, fmt.Errorf("pgwutil: Perturb.AirDT: %v", err)
	}
	soil, err := toFloat64SliceE(cfg.Get("Perturb.SoilDT"))
	if err != nil {
		return nil, fmt.Errorf("pgwutil: Perturb.SoilDT: %v", err)
	}
	pt := &pgw.Perturbation{
		SST:       cfg.GetFloat64("Perturb.SSTDT"),
		SnowDepth: cfg.GetFloat64("Perturb.SnowDepthChange"),
		Soil:      soil,
	}
	pt.SnowWater = pt.SnowDepth * cfg.GetFloat64("Perturb.SnowDensity")
	if len(airDT) > 0 {
		if len(airDT) != len(pgw.StandardPressures) {
			return nil, fmt.Errorf("pgwutil: Perturb.AirDT has %d values but there are %d standard pressure levels",
				len(airDT), len(pgw.StandardPressures))
		}
		if pt.Air, err = pgw.NewProfile(pgw.StandardPressures, airDT); err != nil {
			return nil, err
		}
	}
	return pt, nil
}

// simulations returns the simulations to analyze: the ones in the
// Simulations list file if it is set, and otherwise the WRFOut file.
func simulations(cfg *viper.Viper) ([]Simulation, error) {
	if s := cfg.GetString("Simulations"); s != "" {
		return LoadSimulations(s)
	}
	f, err := checkInputFile("WRFOut", cfg.GetString("WRFOut"))
	if err != nil {
		return nil, err
	}
	return []Simulation{{Name: filepath.Base(f), File: f}}, nil
}
