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

package pgwcloud

import (
	"math"
	"testing"

	"github.com/kr/pretty"
)

func TestDomainMean(t *testing.T) {
	field := fill(100, 2, 4, 4)
	field.Set(10, 1, 1, 1)
	field.Set(-1000, 1, 0, 3) // border
	m, err := DomainMean(field, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{100, 77.5}
	for i := range want {
		if different(m[i], want[i], testTolerance) {
			t.Errorf("time %d: have %g, want %g", i, m[i], want[i])
		}
	}
	if _, err := DomainMean(field, 2); err == nil {
		t.Error("expected error for border larger than domain")
	}
	if _, err := DomainMean(fill(0, 4, 4), 0); err == nil {
		t.Error("expected error for 2-D field")
	}
}

func TestCloudRadiativeEffect(t *testing.T) {
	cre, err := CloudRadiativeEffect([]float64{250, 260}, []float64{200, 190})
	if err != nil {
		t.Fatal(err)
	}
	if cre[0] != 50 || cre[1] != 70 {
		t.Errorf("have %v", cre)
	}
	if _, err := CloudRadiativeEffect([]float64{1}, nil); err == nil {
		t.Error("expected length error")
	}
}

func TestBoxStats(t *testing.T) {
	b, err := NewBoxStats([]float64{5, 3, 1, 4, 2})
	if err != nil {
		t.Fatal(err)
	}
	want := BoxStats{Min: 1, Q1: 2, Median: 3, Q3: 4, Max: 5, Mean: 3}
	if b != want {
		t.Error(pretty.Diff(b, want))
	}
	if _, err := NewBoxStats(nil); err == nil {
		t.Error("expected error for empty series")
	}
}

func TestStandardError(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	if r1 := Lag1Autocorrelation(x); different(r1, 0.25, testTolerance) {
		t.Errorf("autocorrelation: have %g, want 0.25", r1)
	}
	m, se := StandardError(x, false)
	wantSE := math.Sqrt(1.25) / 2
	if m != 2.5 || different(se, wantSE, 1.e-6) {
		t.Errorf("have %g ± %g, want 2.5 ± %g", m, se, wantSE)
	}
	_, se = StandardError(x, true)
	if want := wantSE * math.Sqrt(1.25/0.75); different(se, want, 1.e-6) {
		t.Errorf("lag corrected: have %g, want %g", se, want)
	}
	if _, se := StandardError([]float64{2, 2, 2}, true); se != 0 {
		t.Errorf("constant series: have %g, want 0", se)
	}
}

func TestSignificantDifference(t *testing.T) {
	// Cell 0 is a significant increase, cell 1 overlaps and cell 2 is a
	// significant decrease.
	a := &CellStats{
		Mean:   dense([]int{1, 3}, 10, 10, 10),
		StdErr: dense([]int{1, 3}, 1, 1, 1),
	}
	b := &CellStats{
		Mean:   dense([]int{1, 3}, 13, 11, 5),
		StdErr: dense([]int{1, 3}, 1, 1, 1),
	}
	diff, sig, err := SignificantDifference(a, b)
	if err != nil {
		t.Fatal(err)
	}
	wantDiff := []float64{3, 1, -5}
	wantSig := []float64{3, 0, -5}
	for i := range wantDiff {
		if diff.Elements[i] != wantDiff[i] || sig.Elements[i] != wantSig[i] {
			t.Errorf("cell %d: have %g, %g; want %g, %g", i, diff.Elements[i], sig.Elements[i], wantDiff[i], wantSig[i])
		}
	}
}

func TestTemporalStats(t *testing.T) {
	field := dense([]int{4, 1, 2},
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	)
	s, err := TemporalStats(field, false)
	if err != nil {
		t.Fatal(err)
	}
	if s.Mean.Get(0, 0) != 2.5 || s.Mean.Get(0, 1) != 5 {
		t.Errorf("means: %v", s.Mean.Elements)
	}
	if different(s.StdErr.Get(0, 0), math.Sqrt(1.25)/2, 1.e-6) || s.StdErr.Get(0, 1) != 0 {
		t.Errorf("standard errors: %v", s.StdErr.Elements)
	}
}
