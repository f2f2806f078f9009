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

package dataflow

import (
	"github.com/taehyounpark/queryosity/column"
	"github.com/taehyounpark/queryosity/player"
	"github.com/taehyounpark/queryosity/query"
	"github.com/taehyounpark/queryosity/selection"
)

// LazyQuery is a non-owning handle to a query booked against a selection.
// Its first Result() call runs the whole dataflow (if not already
// analyzed), then merges every slot's partial accumulator via merge;
// repeated calls return the cached merged value.
type LazyQuery[R any] struct {
	id    int
	df    *Dataflow
	merge func([]R) R
	cache *R
}

// Book registers a query producing accumulators from newAcc (one call per
// slot, given that slot's Player so its node list can be appended to),
// bound to sel, combined across slots via merge.
func Book[R any](df *Dataflow, sel LazySelection, newAcc func(slot int, pl *player.Player, reg map[int]any) (query.Accumulator[R], error), merge func([]R) R) LazyQuery[R] {
	var id int
	id = df.addStep(func(slot int, pl *player.Player, reg map[int]any) error {
		selNode, err := lookup[*selection.Selection](reg, sel.id, "Book")
		if err != nil {
			return err
		}
		acc, err := newAcc(slot, pl, reg)
		if err != nil {
			return err
		}
		q := query.New[R](selNode, acc)
		pl.AddQuery(q)
		reg[id] = q
		return nil
	})
	return LazyQuery[R]{id: id, df: df, merge: merge}
}

// Count books an (optionally weighted) entry count against sel.
func Count(df *Dataflow, sel LazySelection) LazyQuery[float64] {
	return Book(df, sel, func(slot int, pl *player.Player, reg map[int]any) (query.Accumulator[float64], error) {
		return query.Count(), nil
	}, query.MergeCount)
}

// Sum books the weighted sum of col against sel.
func Sum[T query.Number](df *Dataflow, sel LazySelection, col LazyColumn[T]) LazyQuery[float64] {
	return Book(df, sel, func(slot int, pl *player.Player, reg map[int]any) (query.Accumulator[float64], error) {
		cv, err := lookup[column.Column[T]](reg, col.id, "Sum")
		if err != nil {
			return nil, err
		}
		return query.Sum(cv), nil
	}, query.MergeSum)
}

// Mean books the weighted mean (and variance) of col against sel.
func Mean(df *Dataflow, sel LazySelection, col LazyColumn[float64]) LazyQuery[query.MeanResult] {
	return Book(df, sel, func(slot int, pl *player.Player, reg map[int]any) (query.Accumulator[query.MeanResult], error) {
		cv, err := lookup[column.Column[float64]](reg, col.id, "Mean")
		if err != nil {
			return nil, err
		}
		return query.Mean(cv), nil
	}, query.MergeMean)
}

// Series books the raw (value, weight) samples of col against sel.
func Series[T any](df *Dataflow, sel LazySelection, col LazyColumn[T]) LazyQuery[[]query.Entry[T]] {
	return Book(df, sel, func(slot int, pl *player.Player, reg map[int]any) (query.Accumulator[[]query.Entry[T]], error) {
		cv, err := lookup[column.Column[T]](reg, col.id, "Series")
		if err != nil {
			return nil, err
		}
		return query.Series(cv), nil
	}, query.MergeSeries[T])
}

// CountDistinct books the number of distinct values of col against sel,
// hashed through encode.
func CountDistinct[T comparable](df *Dataflow, sel LazySelection, col LazyColumn[T], encode func(T) []byte) LazyQuery[query.DistinctSet] {
	return Book(df, sel, func(slot int, pl *player.Player, reg map[int]any) (query.Accumulator[query.DistinctSet], error) {
		cv, err := lookup[column.Column[T]](reg, col.id, "CountDistinct")
		if err != nil {
			return nil, err
		}
		return query.CountDistinct(cv, encode), nil
	}, query.MergeDistinct)
}

// Result runs the dataflow if needed and returns the merged result across
// every slot, caching it on the handle: later calls return the cached
// value, even after further booking has made the dataflow run again.
func (lq *LazyQuery[R]) Result() (R, error) {
	var zero R
	if lq.cache != nil {
		return *lq.cache, nil
	}
	if err := lq.df.run(); err != nil {
		return zero, err
	}
	lq.df.mu.Lock()
	parts := make([]R, 0, len(lq.df.slotRegs))
	for _, reg := range lq.df.slotRegs {
		q, err := lookup[*query.Query[R]](reg, lq.id, "Result")
		if err != nil {
			lq.df.mu.Unlock()
			return zero, err
		}
		parts = append(parts, q.Result())
	}
	lq.df.mu.Unlock()
	merged := lq.merge(parts)
	lq.cache = &merged
	return merged, nil
}
