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

// Package query implements the accumulator side of a Player's query list
// (C5): a per-entry fillable bound to exactly one selection, with zero or
// more fill groups, a scale factor, and a use-weight flag. Every built-in
// accumulator defines an associative, commutative Merge over its own
// per-slot result type, since a Processor run may shard the same query
// across many slots and must combine their partial results order-
// independently (see spec.md §8 Property 4).
package query

import "github.com/taehyounpark/queryosity/selection"

// Accumulator is the per-entry fill contract a built-in or user-defined
// query result type implements.
type Accumulator[R any] interface {
	// Fill consumes one passing, weighted entry.
	Fill(weight float64) error
	// Result snapshots the accumulator's current state.
	Result() R
}

// Query binds zero or more fill groups to a single selection and drives
// every group once per passing entry, applying the bound scale on top of
// the selection's own weight when UseWeight is set. A group is an
// independent Accumulator: the same Query instance can hold several,
// each filled from its own tuple of columns, per spec.md §3/§4.5.
type Query[R any] struct {
	Sel       *selection.Selection
	Groups    []Accumulator[R]
	Scale     float64
	UseWeight bool
}

// New binds acc to sel as the query's first fill group, with a neutral
// scale and weighting enabled.
func New[R any](sel *selection.Selection, acc Accumulator[R]) *Query[R] {
	return &Query[R]{Sel: sel, Groups: []Accumulator[R]{acc}, Scale: 1, UseWeight: true}
}

// AddGroup registers an additional fill group (enter_columns), filled
// alongside every other group already on this query.
func (q *Query[R]) AddGroup(acc Accumulator[R]) {
	q.Groups = append(q.Groups, acc)
}

// ApplyScale multiplies the query's current scale by factor; called once
// per play, before the entry loop, per spec.md §4.6 step 1.
func (q *Query[R]) ApplyScale(factor float64) {
	q.Scale *= factor
}

func (q *Query[R]) Initialize(begin, end uint64) error { return nil }

func (q *Query[R]) Execute(entry uint64) error {
	passed, err := q.Sel.Passed()
	if err != nil {
		return err
	}
	if !passed {
		return nil
	}
	w := q.Scale
	if q.UseWeight {
		sw, err := q.Sel.Weight()
		if err != nil {
			return err
		}
		w *= sw
	}
	for _, g := range q.Groups {
		if err := g.Fill(w); err != nil {
			return err
		}
	}
	return nil
}

func (q *Query[R]) Finalize() error { return nil }

// Result reads the first fill group's current snapshot, for the common
// case of a query with exactly one group.
func (q *Query[R]) Result() R { return q.Groups[0].Result() }

// Results reads every fill group's current snapshot, in registration order.
func (q *Query[R]) Results() []R {
	out := make([]R, len(q.Groups))
	for i, g := range q.Groups {
		out[i] = g.Result()
	}
	return out
}
