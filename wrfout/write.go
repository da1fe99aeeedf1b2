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
	"io"
	"os"
	"sync"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// RecordDim is the name of the unlimited time dimension.
const RecordDim = "Time"

// ReadAll returns every value of variable v. For record variables the
// first dimension is the number of records in the file.
func (f *File) ReadAll(v string) (*sparse.DenseArray, error) {
	dims, err := f.Shape(v)
	if err != nil {
		return nil, err
	}
	if !f.ff.Header.IsRecordVariable(v) {
		data := sparse.ZerosDense(dims...)
		if err := f.read(v, nil, nil, data.Elements); err != nil {
			return nil, err
		}
		return data, nil
	}
	n, err := f.NumRecords()
	if err != nil {
		return nil, err
	}
	return f.Records(v, 0, n)
}

// Write replaces the values of variable v with data, which must have the
// shape returned by ReadAll. Cached reads are discarded.
func (f *File) Write(v string, data *sparse.DenseArray) error {
	old, err := f.ReadAll(v)
	if err != nil {
		return err
	}
	if len(old.Elements) != len(data.Elements) {
		return fmt.Errorf("wrfout: writing %d values to %s which has %d", len(data.Elements), v, len(old.Elements))
	}
	f.mu.Lock()
	err = write(f.ff.Writer(v, nil, nil), data.Elements)
	f.mu.Unlock()
	if err != nil {
		return fmt.Errorf("wrfout: writing variable %s: %v", v, err)
	}
	f.cacheInit = sync.Once{}
	f.cache = nil
	return nil
}

// write writes data as 32-bit floats. Writers of non-record variables
// report io.EOF when the last element is written.
func write(w cdf.Writer, data []float64) error {
	data32 := make([]float32, len(data))
	for i, val := range data {
		data32[i] = float32(val)
	}
	n, err := w.Write(data32)
	if err == io.EOF && n == len(data32) {
		return nil
	}
	return err
}

// Variable is a variable to be written to a new file.
type Variable struct {
	Name string

	// Dims are the names of the dimensions of the variable.
	Dims []string

	// Data holds the values. For record variables the first dimension
	// is the number of records.
	Data *sparse.DenseArray

	// Attributes are text attributes such as units and description.
	Attributes map[string]string
}

// Create creates a new netCDF file with the given dimensions and
// variables. A dimension named RecordDim is the record dimension and its
// length is ignored.
func Create(name string, dims []string, lengths []int, vars []Variable) error {
	if len(dims) != len(lengths) {
		return fmt.Errorf("wrfout: %d dimension names but %d lengths", len(dims), len(lengths))
	}
	l := append([]int(nil), lengths...)
	for i, d := range dims {
		if d == RecordDim {
			l[i] = 0
		}
	}
	h := cdf.NewHeader(dims, l)
	for _, v := range vars {
		h.AddVariable(v.Name, v.Dims, []float32{0})
		for key, val := range v.Attributes {
			h.AddAttribute(v.Name, key, val)
		}
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("wrfout: creating %s: %v", name, errs[0])
	}

	w, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("wrfout: creating file: %v", err)
	}
	ff, err := cdf.Create(w, h)
	if err != nil {
		w.Close()
		return fmt.Errorf("wrfout: creating %s: %v", name, err)
	}
	for _, v := range vars {
		if err := write(ff.Writer(v.Name, nil, nil), v.Data.Elements); err != nil {
			w.Close()
			return fmt.Errorf("wrfout: writing variable %s: %v", v.Name, err)
		}
	}
	if err := cdf.UpdateNumRecs(w); err != nil {
		w.Close()
		return fmt.Errorf("wrfout: finalizing %s: %v", name, err)
	}
	return w.Close()
}
