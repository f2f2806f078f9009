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

// Package variation implements the systematic-variation algebra (C9): a
// sum type carrying a nominal value alongside zero or more named
// alternates, and the fan-out rule that propagates variation names
// through a DAG of derived values without every step needing to know the
// full set of names in play.
package variation

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Varied carries a nominal T alongside any number of named alternates.
type Varied[T any] struct {
	nominal    T
	variations map[string]T
}

// Plain wraps a bare value with no alternates.
func Plain[T any](nominal T) Varied[T] {
	return Varied[T]{nominal: nominal}
}

// New builds a Varied from a nominal value and an explicit alternates map.
// The map is copied; callers may reuse or mutate their own copy freely.
func New[T any](nominal T, alts map[string]T) Varied[T] {
	v := Varied[T]{nominal: nominal}
	if len(alts) > 0 {
		v.variations = make(map[string]T, len(alts))
		for k, val := range alts {
			v.variations[k] = val
		}
	}
	return v
}

// Nominal returns the unvaried value.
func (v Varied[T]) Nominal() T { return v.nominal }

// IsVaried reports whether v carries any named alternate.
func (v Varied[T]) IsVaried() bool { return len(v.variations) > 0 }

// Names returns v's alternate names, sorted for deterministic iteration.
func (v Varied[T]) Names() []string {
	names := maps.Keys(v.variations)
	slices.Sort(names)
	return names
}

// Variation returns the value under name, or the nominal if v has no such
// alternate (the fan-out substitution rule: an input lacking a name
// contributes its nominal in that name's branch).
func (v Varied[T]) Variation(name string) T {
	if val, ok := v.variations[name]; ok {
		return val
	}
	return v.nominal
}

// Has reports whether name is one of v's own alternates (as opposed to
// falling back to nominal via Variation).
func (v Varied[T]) Has(name string) bool {
	_, ok := v.variations[name]
	return ok
}

// unionNames returns the sorted union of every input's variation names.
func unionNames[T any](inputs ...Varied[T]) []string {
	set := make(map[string]struct{})
	for _, in := range inputs {
		for k := range in.variations {
			set[k] = struct{}{}
		}
	}
	names := maps.Keys(set)
	slices.Sort(names)
	return names
}

// Fan1 applies step to a's nominal to produce O's nominal, then to each
// name in the union of a's variation names to produce O's corresponding
// alternate, substituting a's nominal where a itself lacks that name.
func Fan1[A, O any](step func(A) (O, error), a Varied[A]) (Varied[O], error) {
	nominal, err := step(a.nominal)
	if err != nil {
		return Varied[O]{}, err
	}
	out := Plain(nominal)
	for _, name := range unionNames(a) {
		val, err := step(a.Variation(name))
		if err != nil {
			return Varied[O]{}, err
		}
		out.set(name, val)
	}
	return out, nil
}

// Fan2 is Fan1 generalized to a two-input step, unioning both inputs'
// variation names.
func Fan2[A, B, O any](step func(A, B) (O, error), a Varied[A], b Varied[B]) (Varied[O], error) {
	nominal, err := step(a.nominal, b.nominal)
	if err != nil {
		return Varied[O]{}, err
	}
	out := Plain(nominal)
	for _, name := range unionNames2(a, b) {
		val, err := step(a.Variation(name), b.Variation(name))
		if err != nil {
			return Varied[O]{}, err
		}
		out.set(name, val)
	}
	return out, nil
}

// Fan3 is Fan1 generalized to a three-input step.
func Fan3[A, B, C, O any](step func(A, B, C) (O, error), a Varied[A], b Varied[B], c Varied[C]) (Varied[O], error) {
	nominal, err := step(a.nominal, b.nominal, c.nominal)
	if err != nil {
		return Varied[O]{}, err
	}
	out := Plain(nominal)
	names := unionNames2(a, b)
	for _, n := range unionNames(c) {
		if !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		val, err := step(a.Variation(name), b.Variation(name), c.Variation(name))
		if err != nil {
			return Varied[O]{}, err
		}
		out.set(name, val)
	}
	return out, nil
}

func unionNames2[A, B any](a Varied[A], b Varied[B]) []string {
	set := make(map[string]struct{})
	for k := range a.variations {
		set[k] = struct{}{}
	}
	for k := range b.variations {
		set[k] = struct{}{}
	}
	names := maps.Keys(set)
	slices.Sort(names)
	return names
}

func (v *Varied[T]) set(name string, val T) {
	if v.variations == nil {
		v.variations = make(map[string]T)
	}
	v.variations[name] = val
}
