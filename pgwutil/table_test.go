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
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/unit"
	"github.com/pgwclouds/pgwcloud"
	"github.com/tealeg/xlsx"
)

func testTable(t *testing.T) *Table {
	tab := NewTable("optical depth: test", "simulation", "cod_total", "wp_cloud", "fraction")
	if err := tab.AddRow("CTRL", pgwcloud.Some(12.5), unit.New(0.05, waterPathUnits), 0.25); err != nil {
		t.Fatal(err)
	}
	if err := tab.AddRow("PGW", pgwcloud.None(), unit.New(0.04, waterPathUnits), 0.5); err != nil {
		t.Fatal(err)
	}
	return tab
}

func TestTableAddRow(t *testing.T) {
	tab := NewTable("t", "a", "b")
	if err := tab.AddRow(1.); err == nil {
		t.Error("expected error for short row")
	}
	if len(tab.Rows) != 0 {
		t.Errorf("rows: %v", tab.Rows)
	}
}

func TestTableFloat(t *testing.T) {
	tab := testTable(t)
	tests := []struct {
		i, j  int
		v     float64
		valid bool
	}{
		{0, 0, 0, false},
		{0, 1, 12.5, true},
		{1, 1, 0, false},
		{0, 2, 0.05, true},
		{1, 3, 0.5, true},
	}
	for _, test := range tests {
		v, ok := tab.Float(test.i, test.j)
		if v != test.v || ok != test.valid {
			t.Errorf("cell (%d, %d): have %g, %v; want %g, %v", test.i, test.j, v, ok, test.v, test.valid)
		}
	}
	if j := tab.Column("wp_cloud"); j != 2 {
		t.Errorf("column %d", j)
	}
	if j := tab.Column("missing"); j != -1 {
		t.Errorf("column %d", j)
	}
}

func TestTableWriteText(t *testing.T) {
	b := new(bytes.Buffer)
	if err := testTable(t).WriteText(b); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("have %d lines:\n%s", len(lines), b)
	}
	if lines[0] != "# optical depth: test" {
		t.Errorf("title %q", lines[0])
	}
	want := [][]string{
		{"simulation", "cod_total", "wp_cloud", "fraction"},
		{"CTRL", "12.5", "0.05", "kg", "m^-2", "0.25"},
		{"PGW", "undefined", "0.04", "kg", "m^-2", "0.5"},
	}
	for i, w := range want {
		have := strings.Fields(lines[i+1])
		if strings.Join(have, " ") != strings.Join(w, " ") {
			t.Errorf("line %d: have %q, want %q", i+1, have, w)
		}
	}
}

func TestSheetName(t *testing.T) {
	tests := map[string]string{
		"fluxes":                                 "fluxes",
		"wrfout_d03_2019-11-11_12:00:00":         "wrfout_d03_2019-11-11_12-00-00",
		"a/b[c]":                                 "a_b(c)",
		"a very long name for a spreadsheet tab": "a very long name for a spreadsh",
	}
	for in, want := range tests {
		if have := sheetName(in); have != want {
			t.Errorf("%q: have %q, want %q", in, have, want)
		}
	}
}

func TestSaveTablesXLSX(t *testing.T) {
	name := filepath.Join(t.TempDir(), "tables.xlsx")
	tab := testTable(t)
	other := NewTable("", "x")
	if err := other.AddRow(1.); err != nil {
		t.Fatal(err)
	}
	if err := SaveTables(name, tab, other); err != nil {
		t.Fatal(err)
	}
	f, err := xlsx.OpenFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Sheets) != 2 {
		t.Fatalf("have %d sheets", len(f.Sheets))
	}
	s := f.Sheets[0]
	if s.Name != "optical depth- test" {
		t.Errorf("sheet name %q", s.Name)
	}
	if f.Sheets[1].Name != "Sheet2" {
		t.Errorf("sheet name %q", f.Sheets[1].Name)
	}
	header := s.Rows[0].Cells
	if header[1].Value != "cod_total" || header[2].Value != "wp_cloud [kg m^-2]" {
		t.Errorf("header %q, %q", header[1].Value, header[2].Value)
	}
	row := s.Rows[1].Cells
	if row[0].Value != "CTRL" || row[1].Value != "12.5" || row[2].Value != "0.05" {
		t.Errorf("row %q, %q, %q", row[0].Value, row[1].Value, row[2].Value)
	}
}

func TestSaveTablesText(t *testing.T) {
	name := filepath.Join(t.TempDir(), "tables.txt")
	if err := SaveTables(name, testTable(t), testTable(t)); err != nil {
		t.Fatal(err)
	}
	if err := SaveTables(filepath.Join(t.TempDir(), "missing", "tables.txt"), testTable(t)); err == nil {
		t.Error("expected error for missing directory")
	}
}
