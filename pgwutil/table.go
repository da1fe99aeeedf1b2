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
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/ctessum/unit"
	"github.com/pgwclouds/pgwcloud"
	"github.com/tealeg/xlsx"
)

// Units of the quantities reported by the commands.
var (
	waterPathUnits = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -2}
	fluxUnits      = unit.Dimensions{unit.MassDim: 1, unit.TimeDim: -3}
	numberUnits    = unit.Dimensions{unit.LengthDim: -3}
	lengthUnits    = unit.Meter
	tempUnits      = unit.Kelvin
	dimless        = unit.Dimless
)

// Table is a named set of rows. Cells may be strings, float64s,
// pgwcloud.Maybe values or *unit.Unit quantities.
type Table struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// NewTable returns an empty table with the given column names.
func NewTable(name string, header ...string) *Table {
	return &Table{Name: name, Header: header}
}

// AddRow appends a row to the table.
func (t *Table) AddRow(cells ...interface{}) error {
	if len(cells) != len(t.Header) {
		return fmt.Errorf("pgwutil: table %s: row has %d cells but there are %d columns", t.Name, len(cells), len(t.Header))
	}
	t.Rows = append(t.Rows, cells)
	return nil
}

// Float returns the numeric value of cell (i, j) and whether it is defined.
func (t *Table) Float(i, j int) (float64, bool) {
	switch v := t.Rows[i][j].(type) {
	case float64:
		return v, true
	case pgwcloud.Maybe:
		return v.Value, v.Valid
	case *unit.Unit:
		return v.Value(), true
	default:
		return 0, false
	}
}

// Column returns the index of the named column, or -1.
func (t *Table) Column(name string) int {
	for j, h := range t.Header {
		if h == name {
			return j
		}
	}
	return -1
}

func formatCell(c interface{}) string {
	switch v := c.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.4g", v)
	case pgwcloud.Maybe:
		if !v.Valid {
			return "undefined"
		}
		return fmt.Sprintf("%.4g", v.Value)
	case *unit.Unit:
		return strings.TrimSpace(fmt.Sprintf("%.4g", v))
	default:
		return fmt.Sprint(v)
	}
}

// WriteText writes the table to w as aligned columns.
func (t *Table) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if t.Name != "" {
		fmt.Fprintf(tw, "# %s\n", t.Name)
	}
	fmt.Fprintln(tw, strings.Join(t.Header, "\t"))
	for _, r := range t.Rows {
		s := make([]string, len(r))
		for j, c := range r {
			s[j] = formatCell(c)
		}
		fmt.Fprintln(tw, strings.Join(s, "\t"))
	}
	return tw.Flush()
}

// unitLabel returns the units of column j, taken from the first quantity
// in the column.
func (t *Table) unitLabel(j int) string {
	for _, r := range t.Rows {
		if u, ok := r[j].(*unit.Unit); ok {
			return u.Dimensions().String()
		}
	}
	return ""
}

// AddToXLSX adds the table to f as a new sheet. Quantities are written
// as numbers with their units in the header.
func (t *Table) AddToXLSX(f *xlsx.File) error {
	name := sheetName(t.Name)
	if name == "" {
		name = fmt.Sprintf("Sheet%d", len(f.Sheets)+1)
	}
	sheet, err := f.AddSheet(name)
	if err != nil {
		return fmt.Errorf("pgwutil: adding sheet %s: %v", name, err)
	}
	row := sheet.AddRow()
	for j, h := range t.Header {
		if u := t.unitLabel(j); u != "" {
			h = fmt.Sprintf("%s [%s]", h, u)
		}
		row.AddCell().SetString(h)
	}
	for _, r := range t.Rows {
		row = sheet.AddRow()
		for _, c := range r {
			cell := row.AddCell()
			switch v := c.(type) {
			case string:
				cell.SetString(v)
			case float64:
				cell.SetFloat(v)
			case pgwcloud.Maybe:
				if v.Valid {
					cell.SetFloat(v.Value)
				}
			case *unit.Unit:
				cell.SetFloat(v.Value())
			default:
				cell.SetString(fmt.Sprint(v))
			}
		}
	}
	return nil
}

// sheetName replaces characters that spreadsheet sheet names cannot
// contain and shortens the name to 31 characters.
func sheetName(name string) string {
	r := strings.NewReplacer("[", "(", "]", ")", ":", "-", "*", "_", "?", "_", "/", "_", "\\", "_")
	name = r.Replace(name)
	if rn := []rune(name); len(rn) > 31 {
		name = string(rn[:31])
	}
	return name
}

// SaveTables writes the tables to fileName. Files ending in .xlsx get one
// sheet per table. Other files, or standard output if fileName is empty,
// get the tables as text.
func SaveTables(fileName string, tables ...*Table) error {
	if strings.ToLower(filepath.Ext(fileName)) == ".xlsx" {
		f := xlsx.NewFile()
		for _, t := range tables {
			if err := t.AddToXLSX(f); err != nil {
				return err
			}
		}
		if err := f.Save(fileName); err != nil {
			return fmt.Errorf("pgwutil: saving %s: %v", fileName, err)
		}
		return nil
	}
	var w io.Writer = os.Stdout
	if fileName != "" {
		f, err := os.Create(fileName)
		if err != nil {
			return fmt.Errorf("pgwutil: creating output file: %v", err)
		}
		defer f.Close()
		w = f
	}
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := t.WriteText(w); err != nil {
			return err
		}
	}
	return nil
}
