// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package query

import (
	"encoding/binary"
	"testing"

	"github.com/taehyounpark/queryosity/column"
	"github.com/taehyounpark/queryosity/selection"
)

func runQuery[R any](t *testing.T, q *Query[R], n uint64) R {
	t.Helper()
	if err := q.Sel.Initialize(0, n); err != nil {
		t.Fatalf("Sel.Initialize: %v", err)
	}
	if err := q.Initialize(0, n); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for e := uint64(0); e < n; e++ {
		if err := q.Sel.Execute(e); err != nil {
			t.Fatalf("Sel.Execute(%d): %v", e, err)
		}
		if err := q.Execute(e); err != nil {
			t.Fatalf("Execute(%d): %v", e, err)
		}
	}
	return q.Result()
}

func alwaysPass() *selection.Selection {
	return selection.NewCut("all", nil, column.Column[bool](column.NewFixed(true)))
}

func TestCountUnweighted(t *testing.T) {
	q := New[float64](alwaysPass(), Count())
	q.UseWeight = false
	got := runQuery(t, q, 5)
	if got != 5 {
		t.Fatalf("Count = %f, want 5", got)
	}
}

func TestSumOfColumn(t *testing.T) {
	sel := alwaysPass()
	vals := []int64{1, 2, 3, 4}
	idx := -1
	col := column.Column[int64](valueFunc[int64](func() (int64, error) {
		idx++
		return vals[idx], nil
	}))
	q := New[float64](sel, Sum(col))
	q.UseWeight = false
	got := runQuery(t, q, 4)
	if got != 10 {
		t.Fatalf("Sum = %f, want 10", got)
	}
}

func TestMeanAndVariance(t *testing.T) {
	sel := alwaysPass()
	vals := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	idx := -1
	col := column.Column[float64](valueFunc[float64](func() (float64, error) {
		idx++
		return vals[idx], nil
	}))
	q := New[MeanResult](sel, Mean(col))
	q.UseWeight = false
	got := runQuery(t, q, uint64(len(vals)))
	if got.Mean() != 5 {
		t.Fatalf("Mean = %f, want 5", got.Mean())
	}
	if got.Variance() != 4 {
		t.Fatalf("Variance = %f, want 4", got.Variance())
	}
}

func TestMergeMeanMatchesSinglePass(t *testing.T) {
	a := MeanResult{SumWeight: 2, SumWV: 10, SumWV2: 60}
	b := MeanResult{SumWeight: 3, SumWV: 15, SumWV2: 90}
	merged := MergeMean([]MeanResult{a, b})
	whole := MeanResult{SumWeight: 5, SumWV: 25, SumWV2: 150}
	if merged != whole {
		t.Fatalf("MergeMean = %+v, want %+v", merged, whole)
	}
}

func TestCutExcludesEntryFromQuery(t *testing.T) {
	passes := []bool{true, false, true, false}
	idx := -1
	cutCol := column.Column[bool](valueFunc[bool](func() (bool, error) {
		idx++
		return passes[idx], nil
	}))
	sel := selection.NewCut("half", nil, cutCol)
	q := New[float64](sel, Count())
	q.UseWeight = false
	got := runQuery(t, q, 4)
	if got != 2 {
		t.Fatalf("Count = %f, want 2 (only passing entries counted)", got)
	}
}

func TestScaleAppliesMultiplicatively(t *testing.T) {
	q := New[float64](alwaysPass(), Count())
	q.UseWeight = false
	q.ApplyScale(2.0)
	got := runQuery(t, q, 3)
	if got != 6 {
		t.Fatalf("Count = %f, want 6 after 2x scale", got)
	}
}

func TestMergeCountOrderIndependent(t *testing.T) {
	parts := []float64{3, 5, 2}
	a := MergeCount(parts)
	b := MergeCount([]float64{2, 3, 5})
	if a != b || a != 10 {
		t.Fatalf("MergeCount = %f / %f, want 10 regardless of order", a, b)
	}
}

func TestCountDistinctUniqueValues(t *testing.T) {
	vals := []int64{1, 2, 2, 3, 1}
	idx := -1
	col := column.Column[int64](valueFunc[int64](func() (int64, error) {
		idx++
		return vals[idx], nil
	}))
	enc := func(v int64) []byte {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(v))
		return b[:]
	}
	q := New[DistinctSet](alwaysPass(), CountDistinct(col, enc))
	q.UseWeight = false
	got := runQuery(t, q, uint64(len(vals)))
	if got.Count() != 3 {
		t.Fatalf("DistinctSet.Count() = %d, want 3", got.Count())
	}
}

func TestMergeDistinctUnions(t *testing.T) {
	a := DistinctSet{1: 2, 2: 1}
	b := DistinctSet{2: 3, 3: 1}
	merged := MergeDistinct([]DistinctSet{a, b})
	if merged.Count() != 3 {
		t.Fatalf("merged.Count() = %d, want 3", merged.Count())
	}
	if merged[2] != 4 {
		t.Fatalf("merged[2] = %f, want 4", merged[2])
	}
}

func TestAddGroupFillsEachGroupIndependently(t *testing.T) {
	sel := alwaysPass()
	a := []int64{1, 2, 3}
	b := []int64{10, 20, 30}
	ia, ib := -1, -1
	colA := column.Column[int64](valueFunc[int64](func() (int64, error) { ia++; return a[ia], nil }))
	colB := column.Column[int64](valueFunc[int64](func() (int64, error) { ib++; return b[ib], nil }))

	q := New[float64](sel, Sum(colA))
	q.UseWeight = false
	q.AddGroup(Sum(colB))

	if err := q.Sel.Initialize(0, 3); err != nil {
		t.Fatalf("Sel.Initialize: %v", err)
	}
	if err := q.Initialize(0, 3); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for e := uint64(0); e < 3; e++ {
		if err := q.Sel.Execute(e); err != nil {
			t.Fatalf("Sel.Execute(%d): %v", e, err)
		}
		if err := q.Execute(e); err != nil {
			t.Fatalf("Execute(%d): %v", e, err)
		}
	}
	results := q.Results()
	if len(results) != 2 {
		t.Fatalf("Results() has %d groups, want 2", len(results))
	}
	if results[0] != 6 || results[1] != 60 {
		t.Fatalf("Results() = %v, want [6 60]", results)
	}
	if q.Result() != results[0] {
		t.Fatalf("Result() = %f, want first group's result %f", q.Result(), results[0])
	}
}

func TestSeriesCollectsWeightedEntries(t *testing.T) {
	vals := []string{"a", "b", "c"}
	idx := -1
	col := column.Column[string](valueFunc[string](func() (string, error) {
		idx++
		return vals[idx], nil
	}))
	q := New[[]Entry[string]](alwaysPass(), Series(col))
	q.UseWeight = false
	got := runQuery(t, q, 3)
	if len(got) != 3 || got[1].Value != "b" {
		t.Fatalf("Series result = %+v", got)
	}
}

type valueFunc[T any] func() (T, error)

func (f valueFunc[T]) Value() (T, error) { return f() }
