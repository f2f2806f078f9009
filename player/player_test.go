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

package player

import (
	"testing"

	"github.com/taehyounpark/queryosity/partition"
	"github.com/taehyounpark/queryosity/source"
)

// fakeSource is a minimal source.Source that only tracks ExecuteSlot calls,
// for asserting Play drives it once per entry ahead of the node lists.
type fakeSource struct {
	log *[]string
}

func (fakeSource) Parallelize(int)                {}
func (fakeSource) Partition() partition.Partition { return nil }
func (fakeSource) Initialize() error              { return nil }
func (fakeSource) Finalize() error                { return nil }
func (fakeSource) InitializeSlot(int, uint64, uint64) error { return nil }
func (f fakeSource) ExecuteSlot(slot int, entry uint64) error {
	*f.log = append(*f.log, "execslot")
	return nil
}
func (fakeSource) FinalizeSlot(int) error            { return nil }
func (fakeSource) OpenColumn(int, string) (any, error) { return nil, nil }

type recorder struct {
	name  string
	log   *[]string
	scale float64
}

func (r *recorder) Initialize(begin, end uint64) error {
	*r.log = append(*r.log, "init:"+r.name)
	return nil
}
func (r *recorder) Execute(entry uint64) error {
	*r.log = append(*r.log, "exec:"+r.name)
	return nil
}
func (r *recorder) Finalize() error {
	*r.log = append(*r.log, "final:"+r.name)
	return nil
}
func (r *recorder) ApplyScale(factor float64) { r.scale *= factor }

func TestPlayOrdersInitializeSourceToQuery(t *testing.T) {
	var log []string
	p := New()
	p.AddColumn(&recorder{name: "col", log: &log})
	p.AddSelection(&recorder{name: "sel", log: &log})
	p.AddQuery(&recorder{name: "qry", log: &log})

	if err := p.Play(0, 1); err != nil {
		t.Fatalf("Play: %v", err)
	}
	wantInitOrder := []string{"init:col", "init:sel", "init:qry"}
	for i, w := range wantInitOrder {
		if log[i] != w {
			t.Fatalf("init order[%d] = %s, want %s (full log %v)", i, log[i], w, log)
		}
	}
}

func TestPlayFinalizesInReverseCreationOrder(t *testing.T) {
	var log []string
	p := New()
	p.AddColumn(&recorder{name: "col", log: &log})
	p.AddSelection(&recorder{name: "sel", log: &log})
	p.AddQuery(&recorder{name: "qry", log: &log})

	if err := p.Play(0, 1); err != nil {
		t.Fatalf("Play: %v", err)
	}
	n := len(log)
	wantFinalOrder := []string{"final:qry", "final:sel", "final:col"}
	got := log[n-3:]
	for i, w := range wantFinalOrder {
		if got[i] != w {
			t.Fatalf("final order[%d] = %s, want %s (full log %v)", i, got[i], w, log)
		}
	}
}

func TestPlayExecutesEveryEntryInRange(t *testing.T) {
	var log []string
	p := New()
	p.AddColumn(&recorder{name: "col", log: &log})

	if err := p.Play(5, 8); err != nil {
		t.Fatalf("Play: %v", err)
	}
	count := 0
	for _, l := range log {
		if l == "exec:col" {
			count++
		}
	}
	if count != 3 {
		t.Fatalf("exec count = %d, want 3 for [5,8)", count)
	}
}

func TestPlayAppliesScaleBeforeLoop(t *testing.T) {
	var log []string
	r := &recorder{name: "qry", log: &log, scale: 1}
	p := New()
	p.Scale = 4
	p.AddQuery(r)
	if err := p.Play(0, 2); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if r.scale != 4 {
		t.Fatalf("scale = %f, want 4", r.scale)
	}
}

func TestPlayExecutesSourceBeforeColumnsPerEntry(t *testing.T) {
	var log []string
	p := New()
	p.Sources = []source.Source{fakeSource{log: &log}}
	p.AddColumn(&recorder{name: "col", log: &log})

	if err := p.Play(0, 3); err != nil {
		t.Fatalf("Play: %v", err)
	}
	wantFirstThree := []string{"execslot", "exec:col", "execslot"}
	for i, w := range wantFirstThree {
		if log[i] != w {
			t.Fatalf("log[%d] = %s, want %s (full log %v)", i, log[i], w, log)
		}
	}
	count := 0
	for _, l := range log {
		if l == "execslot" {
			count++
		}
	}
	if count != 3 {
		t.Fatalf("execslot count = %d, want 3 for [0,3)", count)
	}
}

func TestPlayClearsQueriesAfterFinalize(t *testing.T) {
	var log []string
	p := New()
	p.AddQuery(&recorder{name: "qry", log: &log})
	if err := p.Play(0, 1); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(p.Queries) != 0 {
		t.Fatalf("Queries = %v, want empty after Play", p.Queries)
	}
}
