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

// Package selection implements the cut/weight cascade (C4): a chain of
// selections, each with an optional parent (its preselection), folding to
// a per-entry (passed, weight) pair through an associative but
// non-commutative combination with the parent's own result.
package selection

import "github.com/taehyounpark/queryosity/column"

// Kind distinguishes a selection's own contribution: a Cut narrows entries
// (boolean AND with the parent), a Weight scales the accumulated weight
// (product with the parent's).
type Kind int

const (
	Cut Kind = iota
	Weight
)

// Selection is one node of the cascade. A root selection (Parent == nil)
// folds against the neutral element: passed defaults true, weight
// defaults 1.
type Selection struct {
	Name   string
	Kind   Kind
	Parent *Selection

	cut    column.Column[bool]
	weight column.Column[float64]

	passed bool
	wght   float64
	cur    uint64
	done   bool
}

// NewCut builds a root or chained cut selection from a boolean column.
func NewCut(name string, parent *Selection, cut column.Column[bool]) *Selection {
	return &Selection{Name: name, Kind: Cut, Parent: parent, cut: cut}
}

// NewWeight builds a root or chained weight selection from a float column.
func NewWeight(name string, parent *Selection, weight column.Column[float64]) *Selection {
	return &Selection{Name: name, Kind: Weight, Parent: parent, weight: weight}
}

func (s *Selection) Initialize(begin, end uint64) error { s.done = false; return nil }

func (s *Selection) Execute(entry uint64) error {
	s.cur = entry
	s.done = false
	return nil
}

func (s *Selection) Finalize() error { return nil }

// Passed reports whether this entry survives the cascade up to and
// including this node: the parent's own passed state (true if no parent)
// ANDed with this node's own cut (always true for a Weight node).
func (s *Selection) Passed() (bool, error) {
	if err := s.evaluate(); err != nil {
		return false, err
	}
	return s.passed, nil
}

// Weight reports the accumulated weight up to and including this node:
// the parent's own weight (1 if no parent) multiplied by this node's own
// weight factor (1 for a Cut node).
func (s *Selection) Weight() (float64, error) {
	if err := s.evaluate(); err != nil {
		return 0, err
	}
	return s.wght, nil
}

func (s *Selection) evaluate() error {
	if s.done {
		return nil
	}
	parentPassed, parentWeight := true, 1.0
	if s.Parent != nil {
		var err error
		parentPassed, err = s.Parent.Passed()
		if err != nil {
			return err
		}
		parentWeight, err = s.Parent.Weight()
		if err != nil {
			return err
		}
	}
	switch s.Kind {
	case Cut:
		ownCut := true
		if s.cut != nil {
			v, err := s.cut.Value()
			if err != nil {
				return err
			}
			ownCut = v
		}
		s.passed = parentPassed && ownCut
		s.wght = parentWeight
	case Weight:
		ownWeight := 1.0
		if s.weight != nil {
			v, err := s.weight.Value()
			if err != nil {
				return err
			}
			ownWeight = v
		}
		s.passed = parentPassed
		s.wght = parentWeight * ownWeight
	}
	s.done = true
	return nil
}
