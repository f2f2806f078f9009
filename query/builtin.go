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
	"github.com/dchest/siphash"
	"github.com/taehyounpark/queryosity/column"
)

// Number is the set of column element types the built-in numeric
// accumulators accept.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// --- Count ---------------------------------------------------------------

// count accumulates the sum of per-entry weights: an unweighted query
// therefore counts entries one-for-one.
type count struct {
	sum float64
}

// Count returns an Accumulator counting (weighted) passing entries.
func Count() Accumulator[float64] { return &count{} }

func (c *count) Fill(weight float64) error {
	c.sum += weight
	return nil
}

func (c *count) Result() float64 { return c.sum }

// MergeCount combines per-slot counts by addition.
func MergeCount(parts []float64) float64 {
	var total float64
	for _, p := range parts {
		total += p
	}
	return total
}

// --- Sum -------------------------------------------------------------------

type sum[T Number] struct {
	col column.Column[T]
	acc float64
}

// Sum returns an Accumulator of the weighted sum of col's values.
func Sum[T Number](col column.Column[T]) Accumulator[float64] {
	return &sum[T]{col: col}
}

func (s *sum[T]) Fill(weight float64) error {
	v, err := s.col.Value()
	if err != nil {
		return err
	}
	s.acc += weight * float64(v)
	return nil
}

func (s *sum[T]) Result() float64 { return s.acc }

// MergeSum combines per-slot sums by addition.
func MergeSum(parts []float64) float64 {
	var total float64
	for _, p := range parts {
		total += p
	}
	return total
}

// --- Mean --------------------------------------------------------------

// MeanResult carries the sum-of-moments representation rather than a
// running average, so partial results from independent slots combine by
// plain addition (Welford-style running state does not merge this way).
type MeanResult struct {
	SumWeight float64
	SumWV     float64
	SumWV2    float64
}

// Mean reports the weighted arithmetic mean.
func (m MeanResult) Mean() float64 {
	if m.SumWeight == 0 {
		return 0
	}
	return m.SumWV / m.SumWeight
}

// Variance reports the weighted population variance.
func (m MeanResult) Variance() float64 {
	if m.SumWeight == 0 {
		return 0
	}
	mean := m.Mean()
	return m.SumWV2/m.SumWeight - mean*mean
}

type meanAcc struct {
	col column.Column[float64]
	res MeanResult
}

// Mean returns an Accumulator of the weighted mean (and variance) of
// col's values.
func Mean(col column.Column[float64]) Accumulator[MeanResult] {
	return &meanAcc{col: col}
}

func (m *meanAcc) Fill(weight float64) error {
	v, err := m.col.Value()
	if err != nil {
		return err
	}
	m.res.SumWeight += weight
	m.res.SumWV += weight * v
	m.res.SumWV2 += weight * v * v
	return nil
}

func (m *meanAcc) Result() MeanResult { return m.res }

// MergeMean combines per-slot moment sums by addition.
func MergeMean(parts []MeanResult) MeanResult {
	var total MeanResult
	for _, p := range parts {
		total.SumWeight += p.SumWeight
		total.SumWV += p.SumWV
		total.SumWV2 += p.SumWV2
	}
	return total
}

// --- Series ------------------------------------------------------------

// Entry pairs a series sample with the weight it was filled under.
type Entry[T any] struct {
	Value  T
	Weight float64
}

type series[T any] struct {
	col  column.Column[T]
	rows []Entry[T]
}

// Series returns an Accumulator collecting every passing entry's value
// and weight, for callers that need the raw distribution.
func Series[T any](col column.Column[T]) Accumulator[[]Entry[T]] {
	return &series[T]{col: col}
}

func (s *series[T]) Fill(weight float64) error {
	v, err := s.col.Value()
	if err != nil {
		return err
	}
	s.rows = append(s.rows, Entry[T]{Value: v, Weight: weight})
	return nil
}

func (s *series[T]) Result() []Entry[T] { return s.rows }

// MergeSeries concatenates per-slot rows. Order across slots is not
// meaningful and must not be relied upon by callers.
func MergeSeries[T any](parts [][]Entry[T]) []Entry[T] {
	var total int
	for _, p := range parts {
		total += len(p)
	}
	out := make([]Entry[T], 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// --- CountDistinct -------------------------------------------------------

// DistinctSet maps a siphash-64 digest of an observed value to the
// weighted count of entries that hashed to it, so slots can be merged
// without re-hashing or retaining the original values.
type DistinctSet map[uint64]float64

type countDistinct[T comparable] struct {
	col    column.Column[T]
	set    DistinctSet
	k0, k1 uint64
	encode func(T) []byte
}

// CountDistinct returns an Accumulator of the number of distinct values of
// col observed among passing entries, hashed via siphash-2-4 to avoid
// retaining the full value set for large-cardinality columns. encode
// serializes a column value to bytes for hashing.
func CountDistinct[T comparable](col column.Column[T], encode func(T) []byte) Accumulator[DistinctSet] {
	return &countDistinct[T]{col: col, set: make(DistinctSet), k0: 0x0123456789abcdef, k1: 0xfedcba9876543210, encode: encode}
}

func (d *countDistinct[T]) Fill(weight float64) error {
	v, err := d.col.Value()
	if err != nil {
		return err
	}
	h := siphash.Hash(d.k0, d.k1, d.encode(v))
	d.set[h] += weight
	return nil
}

func (d *countDistinct[T]) Result() DistinctSet { return d.set }

// MergeDistinct unions per-slot distinct sets, summing weights for hashes
// seen in more than one slot.
func MergeDistinct(parts []DistinctSet) DistinctSet {
	out := make(DistinctSet)
	for _, p := range parts {
		for h, w := range p {
			out[h] += w
		}
	}
	return out
}

// Count reports the number of distinct hashes observed.
func (d DistinctSet) Count() int { return len(d) }
