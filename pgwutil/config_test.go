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
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kr/pretty"
	"github.com/lnashier/viper"
	"github.com/pgwclouds/pgwcloud"
	"github.com/pgwclouds/pgwcloud/pgw"
)

func writeFile(t *testing.T, name, contents string) string {
	if err := os.WriteFile(name, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestLoadSimulations(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("PGWCLOUD_TEST_DIR", "/data/pgw")
	defer os.Unsetenv("PGWCLOUD_TEST_DIR")
	name := writeFile(t, filepath.Join(dir, "sims.toml"), `
[[Simulation]]
Name = "CTRL"
File = "ctrl/wrfout_d03"

[[Simulation]]
Name = "PGW"
File = "${PGWCLOUD_TEST_DIR}/wrfout_d03"
`)
	sims, err := LoadSimulations(name)
	if err != nil {
		t.Fatal(err)
	}
	want := []Simulation{
		{Name: "CTRL", File: filepath.Join(dir, "ctrl", "wrfout_d03")},
		{Name: "PGW", File: "/data/pgw/wrfout_d03"},
	}
	if !reflect.DeepEqual(sims, want) {
		t.Errorf("simulations: %v", pretty.Diff(sims, want))
	}
	s, err := findSimulation(sims, "PGW")
	if err != nil {
		t.Fatal(err)
	}
	if s != want[1] {
		t.Errorf("found %+v", s)
	}
	if _, err := findSimulation(sims, "PGW2"); err == nil {
		t.Error("expected error for missing simulation")
	}
}

func TestLoadSimulationsErrors(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"empty":     "",
		"duplicate": "[[Simulation]]\nName = \"a\"\nFile = \"x\"\n[[Simulation]]\nName = \"a\"\nFile = \"y\"\n",
		"no_file":   "[[Simulation]]\nName = \"a\"\n",
		"invalid":   "[[Simulation]\nName = a\n",
	}
	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			f := writeFile(t, filepath.Join(dir, name+".toml"), contents)
			if _, err := LoadSimulations(f); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if _, err := LoadSimulations(""); err == nil {
		t.Error("expected error for missing file name")
	}
}

func TestGetStringMapString(t *testing.T) {
	cfg := viper.New()
	cfg.Set("json", `{"a": "b * 2", "c": "d"}`)
	cfg.Set("map", map[string]interface{}{"a": "b * 2", "c": "d"})
	cfg.Set("empty", "")
	cfg.Set("bad", `{"a": `)
	want := map[string]string{"a": "b * 2", "c": "d"}
	for _, v := range []string{"json", "map"} {
		m, err := GetStringMapString(v, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(m, want) {
			t.Errorf("%s: %v", v, pretty.Diff(m, want))
		}
	}
	for _, v := range []string{"empty", "unset"} {
		m, err := GetStringMapString(v, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if len(m) != 0 {
			t.Errorf("%s: %v", v, m)
		}
	}
	if _, err := GetStringMapString("bad", cfg); err == nil {
		t.Error("expected error for invalid json")
	}
}

func TestCheckOutputVars(t *testing.T) {
	os.Setenv("PGWCLOUD_TEST_SCALE", "100")
	defer os.Unsetenv("PGWCLOUD_TEST_SCALE")
	have := checkOutputVars(map[string]string{"pct": "cod_liquid /\ncod_total * $PGWCLOUD_TEST_SCALE"})
	want := map[string]string{"pct": "cod_liquid / cod_total * 100"}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("%v", pretty.Diff(have, want))
	}
}

func TestParseCategories(t *testing.T) {
	cats, err := parseCategories([]string{"Cloud", " ice", ""})
	if err != nil {
		t.Fatal(err)
	}
	if want := []pgwcloud.Category{pgwcloud.Cloud, pgwcloud.Ice}; !reflect.DeepEqual(cats, want) {
		t.Errorf("have %v, want %v", cats, want)
	}
	if cats, _ := parseCategories(nil); !reflect.DeepEqual(cats, pgwcloud.Categories) {
		t.Errorf("empty input: %v", cats)
	}
	if _, err := parseCategories([]string{"hail"}); err == nil {
		t.Error("expected error for unknown category")
	}
}

func columnConfig() *viper.Viper {
	cfg := viper.New()
	cfg.Set("Column.Y", 3)
	cfg.Set("Column.X", 4)
	cfg.Set("Start", 10)
	cfg.Set("End", -2)
	cfg.Set("Column.Levels", 20)
	cfg.Set("Column.RefRecord", -1)
	cfg.Set("Column.NCloud", 5.e7)
	return cfg
}

func TestColumnOptions(t *testing.T) {
	cfg := columnConfig()
	cfg.Set("Column.Categories", []string{"snow", "rain", "cloud"})
	o, err := ColumnOptions(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if o.Y != 3 || o.X != 4 || o.Start != 10 || o.End != -2 || o.Levels != 20 || o.RefRecord != -1 || o.NCloud != 5.e7 {
		t.Errorf("options %+v", o)
	}
	if want := []pgwcloud.Category{pgwcloud.Snow, pgwcloud.Rain, pgwcloud.Cloud}; !reflect.DeepEqual(o.Categories, want) {
		t.Errorf("categories %v", o.Categories)
	}

	cfg.Set("LiquidOnly", true)
	o, err = ColumnOptions(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if want := []pgwcloud.Category{pgwcloud.Rain, pgwcloud.Cloud}; !reflect.DeepEqual(o.Categories, want) {
		t.Errorf("liquid categories %v", o.Categories)
	}

	cfg.Set("Column.Categories", []string{"ice"})
	if _, err := ColumnOptions(cfg); err == nil {
		t.Error("expected error for no liquid categories")
	}
	cfg = columnConfig()
	cfg.Set("Column.Levels", 1)
	if _, err := ColumnOptions(cfg); err == nil {
		t.Error("expected error for one level")
	}
	cfg = columnConfig()
	cfg.Set("Column.NCloud", 0.)
	if _, err := ColumnOptions(cfg); err == nil {
		t.Error("expected error for zero droplet number")
	}
}

func TestRadiusGrid(t *testing.T) {
	cfg := viper.New()
	cfg.Set("RadiusGridRefinement", 2)
	grid, err := radiusGrid(cfg)
	if err != nil {
		t.Fatal(err)
	}
	n := len(pgwcloud.DefaultRadiusGrid())
	if len(grid) != 2*n-1 {
		t.Errorf("have %d points, want %d", len(grid), 2*n-1)
	}
	cfg.Set("RadiusGridRefinement", 0)
	if _, err := radiusGrid(cfg); err == nil {
		t.Error("expected error for zero refinement")
	}
}

func TestMoments(t *testing.T) {
	cfg := viper.New()
	cfg.Set("PSD.N", 1.e8)
	cfg.Set("PSD.Q", 2.e-4)
	cfg.Set("PSD.P", 80000.)
	cfg.Set("PSD.T", 265.)
	m, err := moments(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if want := (pgwcloud.Moments{N: 1.e8, Q: 2.e-4, P: 80000, T: 265}); m != want {
		t.Errorf("have %+v, want %+v", m, want)
	}
	cfg.Set("PSD.T", 0.)
	if _, err := moments(cfg); err == nil {
		t.Error("expected error for zero temperature")
	}
}

func TestToFloat64SliceE(t *testing.T) {
	tests := []struct {
		in   interface{}
		want []float64
	}{
		{in: nil},
		{in: ""},
		{in: "[1, 2.5]", want: []float64{1, 2.5}},
		{in: []float64{3}, want: []float64{3}},
		{in: []interface{}{1, "2", 3.5}, want: []float64{1, 2, 3.5}},
	}
	for _, test := range tests {
		have, err := toFloat64SliceE(test.in)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(have, test.want) {
			t.Errorf("%#v: have %v, want %v", test.in, have, test.want)
		}
	}
	for _, in := range []interface{}{"[1, ", 4.} {
		if _, err := toFloat64SliceE(in); err == nil {
			t.Errorf("%#v: expected an error", in)
		}
	}
}

func TestPerturbationConfig(t *testing.T) {
	cfg := viper.New()
	cfg.Set("Perturb.AirDT", pgw.NorESM2AirDT)
	cfg.Set("Perturb.SoilDT", "[1, 2]")
	cfg.Set("Perturb.SSTDT", 3.)
	cfg.Set("Perturb.SnowDepthChange", -0.1)
	cfg.Set("Perturb.SnowDensity", 300.)
	pt, err := perturbation(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if pt.Air == nil || different(pt.Air.At(85000), pgw.NorESM2AirDT[2], 1.e-6) {
		t.Errorf("air temperature profile %+v", pt.Air)
	}
	if pt.SST != 3 || pt.SnowDepth != -0.1 || different(pt.SnowWater, -30, 1.e-12) {
		t.Errorf("perturbation %+v", pt)
	}
	if !reflect.DeepEqual(pt.Soil, []float64{1, 2}) {
		t.Errorf("soil %v", pt.Soil)
	}

	cfg.Set("Perturb.AirDT", "[1, 2, 3]")
	if _, err := perturbation(cfg); err == nil {
		t.Error("expected error for wrong number of air temperature changes")
	}
	cfg.Set("Perturb.AirDT", "")
	pt, err = perturbation(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if pt.Air != nil {
		t.Error("air temperature should not be perturbed")
	}
}

func TestSimulationsConfig(t *testing.T) {
	cfg := viper.New()
	if _, err := simulations(cfg); err == nil {
		t.Error("expected error without input files")
	}
	f := writeFile(t, filepath.Join(t.TempDir(), "wrfout_d03"), "")
	cfg.Set("WRFOut", f)
	sims, err := simulations(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if want := []Simulation{{Name: "wrfout_d03", File: f}}; !reflect.DeepEqual(sims, want) {
		t.Errorf("%v", pretty.Diff(sims, want))
	}
}

func TestCheckOutputFile(t *testing.T) {
	if f, err := checkOutputFile(""); f != "" || err != nil {
		t.Errorf("empty file: %q, %v", f, err)
	}
	dir := t.TempDir()
	if _, err := checkOutputFile(filepath.Join(dir, "out.xlsx")); err != nil {
		t.Error(err)
	}
	if _, err := checkOutputFile(filepath.Join(dir, "missing", "out.xlsx")); err == nil {
		t.Error("expected error for missing directory")
	}
}
