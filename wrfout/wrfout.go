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

// Package wrfout reads and modifies netCDF output and intermediate files of
// the WRF model.
package wrfout

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/ctessum/cdf"
	"github.com/ctessum/requestcache"
	"github.com/ctessum/sparse"
)

// DefaultCacheSize is the default number of variable reads kept in memory.
const DefaultCacheSize = 64

// File is a WRF netCDF file.
type File struct {
	Name string

	// CacheSize specifies the number of variable reads
	// to keep in memory. It must be set before the first read.
	CacheSize int

	f  *os.File
	ff *cdf.File

	cacheInit sync.Once
	cache     *requestcache.Cache

	// mu serializes access to the underlying file.
	mu sync.Mutex
}

// Open opens the named file for reading.
func Open(name string) (*File, error) {
	return open(name, os.O_RDONLY)
}

// OpenWrite opens the named file for reading and modification.
func OpenWrite(name string) (*File, error) {
	return open(name, os.O_RDWR)
}

func open(name string, flag int) (*File, error) {
	f, err := os.OpenFile(name, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("wrfout: opening file: %v", err)
	}
	ff, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("wrfout: opening %s as netCDF: %v", name, err)
	}
	return &File{Name: name, CacheSize: DefaultCacheSize, f: f, ff: ff}, nil
}

// Close closes the file.
func (f *File) Close() error {
	return f.f.Close()
}

// Has returns whether the file contains variable v.
func (f *File) Has(v string) bool {
	return f.ff.Header.Lengths(v) != nil
}

// Variables returns the names of the variables in the file.
func (f *File) Variables() []string {
	return f.ff.Header.Variables()
}

// NumRecords returns the number of time records in the file.
func (f *File) NumRecords() (int, error) {
	fi, err := f.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("wrfout: %v", err)
	}
	return int(f.ff.Header.NumRecs(fi.Size())), nil
}

// Shape returns the dimensions of variable v, excluding the record
// dimension of record variables.
func (f *File) Shape(v string) ([]int, error) {
	dims := f.ff.Header.Lengths(v)
	if dims == nil {
		return nil, fmt.Errorf("wrfout: variable %s not in %s", v, f.Name)
	}
	if f.ff.Header.IsRecordVariable(v) {
		dims = dims[1:]
	}
	return append([]int(nil), dims...), nil
}

type recordRequest struct {
	v      string
	record int
}

type columnRequest struct {
	v                        string
	y, x, start, end, levels int
}

func (f *File) initCache() {
	f.cacheInit.Do(func() {
		f.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			switch r := request.(type) {
			case recordRequest:
				return f.record(r.v, r.record)
			case columnRequest:
				return f.column(r.v, r.y, r.x, r.start, r.end, r.levels)
			default:
				panic(fmt.Errorf("wrfout: invalid request type %T", request))
			}
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(f.CacheSize))
	})
}

// Record returns the values of variable v at time record index.
// For variables without a record dimension, index is ignored and the
// whole variable is returned. Results are cached and must not be modified.
func (f *File) Record(v string, index int) (*sparse.DenseArray, error) {
	f.initCache()
	req := f.cache.NewRequest(context.TODO(), recordRequest{v: v, record: index},
		fmt.Sprintf("record_%s_%d", v, index))
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.(*sparse.DenseArray), nil
}

// record reads variable v at time record index.
func (f *File) record(v string, index int) (*sparse.DenseArray, error) {
	dims, err := f.Shape(v)
	if err != nil {
		return nil, err
	}
	nread := 1
	for _, d := range dims {
		nread *= d
	}
	var start, end []int
	if f.ff.Header.IsRecordVariable(v) {
		n, err := f.NumRecords()
		if err != nil {
			return nil, err
		}
		if index < 0 || index >= n {
			return nil, fmt.Errorf("wrfout: record %d of %s out of range [0, %d)", index, v, n)
		}
		start, end = make([]int, len(dims)+1), make([]int, len(dims)+1)
		start[0], end[0] = index, index+1
	}
	data := sparse.ZerosDense(dims...)
	if err := f.read(v, start, end, data.Elements); err != nil {
		return nil, err
	}
	return data, nil
}

// read reads len(dst) values of variable v starting at index start.
func (f *File) read(v string, start, end []int, dst []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.ff.Reader(v, start, end)
	if r == nil {
		return fmt.Errorf("wrfout: variable %s not in %s", v, f.Name)
	}
	buf := r.Zero(len(dst))
	if _, err := r.Read(buf); err != nil {
		return fmt.Errorf("wrfout: reading variable %s: %v", v, err)
	}
	switch b := buf.(type) {
	case []float32:
		for i, val := range b {
			dst[i] = float64(val)
		}
	case []float64:
		copy(dst, b)
	default:
		return fmt.Errorf("wrfout: variable %s has unsupported type %T", v, buf)
	}
	return nil
}

// Records returns variable v for the time records in [start, end) stacked
// into an array with time as the first dimension.
func (f *File) Records(v string, start, end int) (*sparse.DenseArray, error) {
	dims, err := f.Shape(v)
	if err != nil {
		return nil, err
	}
	if end < start {
		return nil, fmt.Errorf("wrfout: record range [%d, %d) of %s is empty", start, end, v)
	}
	out := sparse.ZerosDense(append([]int{end - start}, dims...)...)
	n := len(out.Elements) / max(end-start, 1)
	for i := start; i < end; i++ {
		rec, err := f.Record(v, i)
		if err != nil {
			return nil, err
		}
		copy(out.Elements[(i-start)*n:(i-start+1)*n], rec.Elements)
	}
	return out, nil
}

// ColumnSeries returns the lowest levels of the 4-D variable v
// [time, level, y, x] at horizontal grid cell (y, x) for the time
// records in [start, end) as a [time, level] array.
// Results are cached and must not be modified.
func (f *File) ColumnSeries(v string, y, x, start, end, levels int) (*sparse.DenseArray, error) {
	f.initCache()
	req := f.cache.NewRequest(context.TODO(),
		columnRequest{v: v, y: y, x: x, start: start, end: end, levels: levels},
		fmt.Sprintf("column_%s_%d_%d_%d_%d_%d", v, y, x, start, end, levels))
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.(*sparse.DenseArray), nil
}

// column reads a column time series one value at a time, which avoids
// reading whole records for a single grid cell.
func (f *File) column(v string, y, x, start, end, levels int) (*sparse.DenseArray, error) {
	dims, err := f.Shape(v)
	if err != nil {
		return nil, err
	}
	if !f.ff.Header.IsRecordVariable(v) || len(dims) != 3 {
		return nil, fmt.Errorf("wrfout: variable %s is not [time, level, y, x]", v)
	}
	if levels <= 0 || levels > dims[0] {
		return nil, fmt.Errorf("wrfout: %d levels requested but %s has %d", levels, v, dims[0])
	}
	if y < 0 || y >= dims[1] || x < 0 || x >= dims[2] {
		return nil, fmt.Errorf("wrfout: grid cell (%d, %d) outside of %s domain %dx%d", y, x, v, dims[1], dims[2])
	}
	n, err := f.NumRecords()
	if err != nil {
		return nil, err
	}
	if start < 0 || end > n || end < start {
		return nil, fmt.Errorf("wrfout: record range [%d, %d) of %s out of range [0, %d)", start, end, v, n)
	}
	out := sparse.ZerosDense(end-start, levels)
	for it := start; it < end; it++ {
		for k := 0; k < levels; k++ {
			idx := []int{it, k, y, x}
			if err := f.read(v, idx, idx, out.Elements[(it-start)*levels+k:(it-start)*levels+k+1]); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
