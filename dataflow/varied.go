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
	"github.com/taehyounpark/queryosity/qerr"
	"github.com/taehyounpark/queryosity/variation"
)

// Vary bundles a nominal lazy handle with named alternates into a single
// systematic-variation carrier, for use with the VaryDefine*/VaryBook
// family below.
func Vary[T any](nominal LazyColumn[T], alts map[string]LazyColumn[T]) variation.Varied[LazyColumn[T]] {
	return variation.New(nominal, alts)
}

// VaryDefine1 books f once per name in a's variation set (plus once for
// the nominal), bundling the results back into a Varied handle so the
// variation propagates to whatever reads this column next.
func VaryDefine1[A, R any](df *Dataflow, name string, f func(A) (R, error), a variation.Varied[LazyColumn[A]]) variation.Varied[LazyColumn[R]] {
	nominal := Define1(df, name, f, a.Nominal())
	alts := make(map[string]LazyColumn[R], len(a.Names()))
	for _, n := range a.Names() {
		alts[n] = Define1(df, name+"::"+n, f, a.Variation(n))
	}
	return variation.New(nominal, alts)
}

// VaryDefine2 is VaryDefine1 generalized to a two-input step, unioning
// both inputs' variation names.
func VaryDefine2[A, B, R any](df *Dataflow, name string, f func(A, B) (R, error), a variation.Varied[LazyColumn[A]], b variation.Varied[LazyColumn[B]]) variation.Varied[LazyColumn[R]] {
	nominal := Define2(df, name, f, a.Nominal(), b.Nominal())
	names := unionOf(a.Names(), b.Names())
	alts := make(map[string]LazyColumn[R], len(names))
	for _, n := range names {
		alts[n] = Define2(df, name+"::"+n, f, a.Variation(n), b.Variation(n))
	}
	return variation.New(nominal, alts)
}

func unionOf(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, n := range a {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	for _, n := range b {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// VariedQuery carries a nominal LazyQuery result alongside per-name
// alternates, with Result/Variation lazily running the dataflow and
// surfacing an unknown name via UnknownVariationError.
type VariedQuery[R any] struct {
	name string
	v    variation.Varied[LazyQuery[R]]
}

// VaryBook bundles an already-booked nominal query with already-booked
// named alternates into one VariedQuery; it books no query itself.
func VaryBook[R any](name string, nominal LazyQuery[R], alts map[string]LazyQuery[R]) VariedQuery[R] {
	return VariedQuery[R]{name: name, v: variation.New(nominal, alts)}
}

// Result returns the nominal result.
func (vq VariedQuery[R]) Result() (R, error) {
	nominal := vq.v.Nominal()
	return nominal.Result()
}

// Variation returns the named alternate's result, or UnknownVariationError
// if name was never introduced along this query's transitive inputs.
func (vq VariedQuery[R]) Variation(name string) (R, error) {
	var zero R
	if !vq.v.Has(name) {
		return zero, &qerr.UnknownVariationError{Query: vq.name, Name: name}
	}
	lq := vq.v.Variation(name)
	return lq.Result()
}

// Names reports every variation introduced along this query's ancestry.
func (vq VariedQuery[R]) Names() []string { return vq.v.Names() }
