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
	"math"
	"reflect"
	"testing"

	"github.com/Knetic/govaluate"
	"github.com/kr/pretty"
	"github.com/pgwclouds/pgwcloud"
)

func TestOutputter(t *testing.T) {
	wp := 0.01
	o, err := NewOutputter(map[string]string{
		"frozen_fraction": "ratio(cod_frozen, cod_total)",
		"percent_frozen":  "frozen_fraction * 100",
		"emis":            "emissivity(wp_cloud)",
		"log_total":       "log(cod_total)",
		"double_reff":     "2 * reff_ice",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"cod_frozen", "cod_total", "reff_ice", "wp_cloud"}; !reflect.DeepEqual(o.InputVariables(), want) {
		t.Errorf("input variables: %v", pretty.Diff(o.InputVariables(), want))
	}
	if want := []string{"double_reff", "emis", "frozen_fraction", "log_total", "percent_frozen"}; !reflect.DeepEqual(o.Names(), want) {
		t.Errorf("names: %v", pretty.Diff(o.Names(), want))
	}

	out, err := o.Evaluate(map[string]pgwcloud.Maybe{
		"cod_frozen": pgwcloud.Some(2),
		"cod_total":  pgwcloud.Some(8),
		"wp_cloud":   pgwcloud.Some(wp),
		"reff_ice":   pgwcloud.None(),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]pgwcloud.Maybe{
		"frozen_fraction": pgwcloud.Some(0.25),
		"percent_frozen":  pgwcloud.Some(25),
		"emis":            pgwcloud.Some(1 - math.Exp(-130*wp)),
		"log_total":       pgwcloud.Some(math.Log(8)),
		"double_reff":     pgwcloud.None(),
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("results: %v", pretty.Diff(out, want))
	}

	out, err = o.Evaluate(map[string]pgwcloud.Maybe{
		"cod_frozen": pgwcloud.Some(0),
		"cod_total":  pgwcloud.Some(0),
		"wp_cloud":   pgwcloud.Some(0),
		"reff_ice":   pgwcloud.Some(1.e-5),
	})
	if err != nil {
		t.Fatal(err)
	}
	if out["frozen_fraction"] != pgwcloud.Some(0) {
		t.Errorf("ratio with zero denominator: %v", out["frozen_fraction"])
	}
	if out["log_total"].Valid {
		t.Errorf("log(0) should be undefined: %v", out["log_total"])
	}
	if out["double_reff"] != pgwcloud.Some(2.e-5) {
		t.Errorf("double_reff: %v", out["double_reff"])
	}

	if _, err := o.Evaluate(map[string]pgwcloud.Maybe{"cod_total": pgwcloud.Some(1)}); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestOutputterErrors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{name: "name", vars: map[string]string{"1bad": "cod_total"}},
		{name: "syntax", vars: map[string]string{"a": "cod_total +* 2"}},
		{name: "self", vars: map[string]string{"a": "a + 1"}},
		{name: "cycle", vars: map[string]string{"a": "b + 1", "b": "c * 2", "c": "a"}},
		{name: "function", vars: map[string]string{"a": "cube(cod_total)"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := NewOutputter(test.vars, nil); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestOutputterFunctions(t *testing.T) {
	o, err := NewOutputter(map[string]string{"v": "cube(cod_total)"}, map[string]govaluate.ExpressionFunction{
		"cube": func(args ...interface{}) (interface{}, error) {
			x := args[0].(float64)
			return x * x * x, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	out, err := o.Evaluate(map[string]pgwcloud.Maybe{"cod_total": pgwcloud.Some(3)})
	if err != nil {
		t.Fatal(err)
	}
	if out["v"] != pgwcloud.Some(27) {
		t.Errorf("have %v", out["v"])
	}
}
