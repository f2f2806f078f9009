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

// Package dataflow is the builder façade (C8): it mints lazy,
// non-owning handles to columns, selections and queries, and records the
// steps that build each node as a construction log. A run replays that
// log into a fresh Player per slot every time the analyzed flag is
// false, which sidesteps any question of stale per-slot state surviving
// across repeated runs: nothing survives, the whole graph is rebuilt.
package dataflow

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/taehyounpark/queryosity/column"
	"github.com/taehyounpark/queryosity/player"
	"github.com/taehyounpark/queryosity/processor"
	"github.com/taehyounpark/queryosity/qerr"
	"github.com/taehyounpark/queryosity/selection"
	"github.com/taehyounpark/queryosity/source"
)

// buildStep constructs one node of slot's DAG, registering it in reg
// under its own handle id, and booking it onto pl.
type buildStep func(slot int, pl *player.Player, reg map[int]any) error

// Config holds the run-level knobs a Dataflow is opened with: the
// processor/weight/row-limit options of spec.md §2.
type Config struct {
	nslots  int
	maxRows int64
	scale   float64
	logger  *log.Logger
}

// Option configures a Dataflow at construction time.
type Option func(*Config)

// WithSlots sets the requested concurrency (see processor.New for the
// meaning of zero/negative/positive values).
func WithSlots(n int) Option { return func(c *Config) { c.nslots = n } }

// WithMaxRows caps the total entries processed; negative means no cap.
func WithMaxRows(n int64) Option { return func(c *Config) { c.maxRows = n } }

// WithScale sets the dataflow-global scale factor every query's own scale
// is multiplied by during a play (spec.md §4.5).
func WithScale(n float64) Option { return func(c *Config) { c.scale = n } }

// WithLogger attaches a logger for partition and slot-failure diagnostics.
func WithLogger(w io.Writer) Option {
	return func(c *Config) { c.logger = log.New(w, "queryosity: ", log.LstdFlags) }
}

// SourceHandle is a non-owning reference to a source registered on a
// Dataflow via AddSource, letting ReadColumn target a specific source
// without exposing source.Source through the builder API.
type SourceHandle struct {
	idx int
}

// Dataflow is the entry point: open one, register the set of sources it
// reads from, build columns, selections and queries against it, then read
// results from the lazy query handles it hands back. A Dataflow owns the
// set of sources (spec.md §3), not a single one: Align at run time takes
// the common refinement of every registered source's own partition.
type Dataflow struct {
	srcs   []source.Source
	cfg    Config
	steps  []buildStep
	nextID int

	mu       sync.Mutex
	analyzed bool
	slotRegs map[int]map[int]any
	nslots   int
}

// Open returns an empty Dataflow with a neutral (no cap, single slot,
// unit scale by default) configuration overridden by opts. Register
// sources against it with AddSource before booking any column that reads
// from them.
func Open(opts ...Option) *Dataflow {
	cfg := Config{nslots: 0, maxRows: -1, scale: 1}
	for _, o := range opts {
		o(&cfg)
	}
	return &Dataflow{cfg: cfg}
}

// AddSource registers src against df and returns a handle ReadColumn can
// target. Sources may be added at any point before a run, in any order;
// each keeps the index it was registered under.
func (df *Dataflow) AddSource(src source.Source) SourceHandle {
	idx := len(df.srcs)
	df.srcs = append(df.srcs, src)
	return SourceHandle{idx: idx}
}

func (df *Dataflow) addStep(step buildStep) int {
	id := df.nextID
	df.nextID++
	df.steps = append(df.steps, step)
	df.analyzed = false
	return id
}

// run replays the full construction log into fresh players, once, unless
// a later builder call has reset the analyzed flag. addStep clears the
// flag for every new node, not only for queries, so booking a column or a
// selection after a run also makes the next run replay the whole log.
func (df *Dataflow) run() error {
	df.mu.Lock()
	if df.analyzed {
		df.mu.Unlock()
		return nil
	}
	df.mu.Unlock()

	slotRegs := make(map[int]map[int]any)
	var regMu sync.Mutex
	df.nslots = 0

	build := func(slot int) (*player.Player, error) {
		pl := player.New()
		pl.Scale = df.cfg.scale
		reg := make(map[int]any)
		for _, step := range df.steps {
			if err := step(slot, pl, reg); err != nil {
				return nil, err
			}
		}
		regMu.Lock()
		slotRegs[slot] = reg
		df.nslots++
		regMu.Unlock()
		return pl, nil
	}

	proc := processor.New(df.srcs, build, df.cfg.nslots)
	proc.MaxRows = df.cfg.maxRows
	proc.Logger = df.cfg.logger

	if err := proc.Process(); err != nil {
		return err
	}

	df.mu.Lock()
	df.slotRegs = slotRegs
	df.analyzed = true
	df.mu.Unlock()
	return nil
}

// LazyColumn is a non-owning handle to a column booked on df.
type LazyColumn[T any] struct {
	id int
	df *Dataflow
}

// LazySelection is a non-owning handle to a selection booked on df.
type LazySelection struct {
	id int
	df *Dataflow
}

// ReadColumn books a column streamed from the source registered under src.
func ReadColumn[T any](df *Dataflow, src SourceHandle, name string) LazyColumn[T] {
	var id int
	id = df.addStep(func(slot int, pl *player.Player, reg map[int]any) error {
		rd := column.NewReader[T](df.srcs[src.idx], slot, name)
		pl.AddColumn(rd)
		reg[id] = column.Column[T](rd)
		return nil
	})
	return LazyColumn[T]{id: id, df: df}
}

// Constant books a fixed column holding the same value on every entry.
func Constant[T any](df *Dataflow, val T) LazyColumn[T] {
	var id int
	id = df.addStep(func(slot int, pl *player.Player, reg map[int]any) error {
		c := column.NewFixed(val)
		pl.AddColumn(c)
		reg[id] = column.Column[T](c)
		return nil
	})
	return LazyColumn[T]{id: id, df: df}
}

// Define1 books a derived column computed from a by f.
func Define1[A, R any](df *Dataflow, name string, f func(A) (R, error), a LazyColumn[A]) LazyColumn[R] {
	var id int
	id = df.addStep(func(slot int, pl *player.Player, reg map[int]any) error {
		av, err := lookup[column.Column[A]](reg, a.id, "Define1")
		if err != nil {
			return err
		}
		c := column.Define1(name, f, av)
		pl.AddColumn(c)
		reg[id] = column.Column[R](c)
		return nil
	})
	return LazyColumn[R]{id: id, df: df}
}

// Define2 books a derived column computed from a and b by f.
func Define2[A, B, R any](df *Dataflow, name string, f func(A, B) (R, error), a LazyColumn[A], b LazyColumn[B]) LazyColumn[R] {
	var id int
	id = df.addStep(func(slot int, pl *player.Player, reg map[int]any) error {
		av, err := lookup[column.Column[A]](reg, a.id, "Define2")
		if err != nil {
			return err
		}
		bv, err := lookup[column.Column[B]](reg, b.id, "Define2")
		if err != nil {
			return err
		}
		c := column.Define2(name, f, av, bv)
		pl.AddColumn(c)
		reg[id] = column.Column[R](c)
		return nil
	})
	return LazyColumn[R]{id: id, df: df}
}

// Define3 books a derived column computed from a, b and c by f.
func Define3[A, B, C, R any](df *Dataflow, name string, f func(A, B, C) (R, error), a LazyColumn[A], b LazyColumn[B], c LazyColumn[C]) LazyColumn[R] {
	var id int
	id = df.addStep(func(slot int, pl *player.Player, reg map[int]any) error {
		av, err := lookup[column.Column[A]](reg, a.id, "Define3")
		if err != nil {
			return err
		}
		bv, err := lookup[column.Column[B]](reg, b.id, "Define3")
		if err != nil {
			return err
		}
		cv, err := lookup[column.Column[C]](reg, c.id, "Define3")
		if err != nil {
			return err
		}
		col := column.Define3(name, f, av, bv, cv)
		pl.AddColumn(col)
		reg[id] = column.Column[R](col)
		return nil
	})
	return LazyColumn[R]{id: id, df: df}
}

// Filter books a root cut selection gated by cut.
func Filter(df *Dataflow, name string, cut LazyColumn[bool]) LazySelection {
	var id int
	id = df.addStep(func(slot int, pl *player.Player, reg map[int]any) error {
		cv, err := lookup[column.Column[bool]](reg, cut.id, "Filter")
		if err != nil {
			return err
		}
		s := selection.NewCut(name, nil, cv)
		pl.AddSelection(s)
		reg[id] = s
		return nil
	})
	return LazySelection{id: id, df: df}
}

// Weight books a root weight selection scaled by w.
func Weight(df *Dataflow, name string, w LazyColumn[float64]) LazySelection {
	var id int
	id = df.addStep(func(slot int, pl *player.Player, reg map[int]any) error {
		wv, err := lookup[column.Column[float64]](reg, w.id, "Weight")
		if err != nil {
			return err
		}
		s := selection.NewWeight(name, nil, wv)
		pl.AddSelection(s)
		reg[id] = s
		return nil
	})
	return LazySelection{id: id, df: df}
}

// Filter chains a cut onto sel as its parent.
func (sel LazySelection) Filter(name string, cut LazyColumn[bool]) LazySelection {
	df := sel.df
	var id int
	id = df.addStep(func(slot int, pl *player.Player, reg map[int]any) error {
		parent, err := lookup[*selection.Selection](reg, sel.id, "Filter")
		if err != nil {
			return err
		}
		cv, err := lookup[column.Column[bool]](reg, cut.id, "Filter")
		if err != nil {
			return err
		}
		s := selection.NewCut(name, parent, cv)
		pl.AddSelection(s)
		reg[id] = s
		return nil
	})
	return LazySelection{id: id, df: df}
}

// Weight chains a weight factor onto sel as its parent.
func (sel LazySelection) Weight(name string, w LazyColumn[float64]) LazySelection {
	df := sel.df
	var id int
	id = df.addStep(func(slot int, pl *player.Player, reg map[int]any) error {
		parent, err := lookup[*selection.Selection](reg, sel.id, "Weight")
		if err != nil {
			return err
		}
		wv, err := lookup[column.Column[float64]](reg, w.id, "Weight")
		if err != nil {
			return err
		}
		s := selection.NewWeight(name, parent, wv)
		pl.AddSelection(s)
		reg[id] = s
		return nil
	})
	return LazySelection{id: id, df: df}
}

func lookup[T any](reg map[int]any, id int, op string) (T, error) {
	var zero T
	raw, ok := reg[id]
	if !ok {
		return zero, &qerr.ConstructionError{Op: op, Msg: fmt.Sprintf("handle %d not yet built (construction log out of order)", id)}
	}
	v, ok := raw.(T)
	if !ok {
		return zero, &qerr.ConstructionError{Op: op, Msg: fmt.Sprintf("handle %d has unexpected type %T", id, raw)}
	}
	return v, nil
}
