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

package selection

import (
	"testing"

	"github.com/taehyounpark/queryosity/column"
)

func TestRootCutDefaultsToNeutral(t *testing.T) {
	c := column.NewFixed(true)
	s := NewCut("root", nil, column.Column[bool](c))
	s.Initialize(0, 1)
	s.Execute(0)
	passed, err := s.Passed()
	if err != nil {
		t.Fatalf("Passed: %v", err)
	}
	if !passed {
		t.Fatal("Passed = false, want true")
	}
	w, err := s.Weight()
	if err != nil {
		t.Fatalf("Weight: %v", err)
	}
	if w != 1 {
		t.Fatalf("Weight = %f, want 1", w)
	}
}

func TestChainedCutIsConjunction(t *testing.T) {
	root := NewCut("root", nil, column.Column[bool](column.NewFixed(true)))
	child := NewCut("child", root, column.Column[bool](column.NewFixed(false)))
	root.Initialize(0, 1)
	child.Initialize(0, 1)
	root.Execute(0)
	child.Execute(0)
	passed, err := child.Passed()
	if err != nil {
		t.Fatalf("Passed: %v", err)
	}
	if passed {
		t.Fatal("Passed = true, want false (child cut fails)")
	}
}

func TestWeightAccumulatesAsProduct(t *testing.T) {
	root := NewWeight("root", nil, column.Column[float64](column.NewFixed(2.0)))
	child := NewWeight("child", root, column.Column[float64](column.NewFixed(3.0)))
	root.Initialize(0, 1)
	child.Initialize(0, 1)
	root.Execute(0)
	child.Execute(0)
	w, err := child.Weight()
	if err != nil {
		t.Fatalf("Weight: %v", err)
	}
	if w != 6 {
		t.Fatalf("Weight = %f, want 6", w)
	}
}

func TestCutDoesNotAffectWeightAndViceVersa(t *testing.T) {
	root := NewWeight("root", nil, column.Column[float64](column.NewFixed(5.0)))
	cut := NewCut("cut", root, column.Column[bool](column.NewFixed(true)))
	root.Initialize(0, 1)
	cut.Initialize(0, 1)
	root.Execute(0)
	cut.Execute(0)
	w, err := cut.Weight()
	if err != nil {
		t.Fatalf("Weight: %v", err)
	}
	if w != 5 {
		t.Fatalf("Weight = %f, want 5 (cut must not alter accumulated weight)", w)
	}
	passed, err := cut.Passed()
	if err != nil {
		t.Fatalf("Passed: %v", err)
	}
	if !passed {
		t.Fatal("Passed = false, want true (weight parent must not alter passed)")
	}
}

func TestEvaluationIsCachedPerEntry(t *testing.T) {
	calls := 0
	cutCol := boolFunc(func() (bool, error) { calls++; return true, nil })
	s := NewCut("root", nil, cutCol)
	s.Initialize(0, 2)
	s.Execute(0)
	for i := 0; i < 3; i++ {
		if _, err := s.Passed(); err != nil {
			t.Fatalf("Passed: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("cut column read %d times in one entry, want 1", calls)
	}
	s.Execute(1)
	s.Passed()
	if calls != 2 {
		t.Fatalf("cut column read %d times across two entries, want 2", calls)
	}
}

type boolFunc func() (bool, error)

func (f boolFunc) Value() (bool, error) { return f() }
