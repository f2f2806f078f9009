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

// Package player drives one slot's DAG through a single play: the bound
// sources are advanced one entry at a time ahead of the three ordered node
// lists (columns, selections, queries), which are initialized source-to-
// query, executed per entry in that same source/column/selection/query
// order, and finalized in the exact reverse order they were created (C6,
// spec.md §4.6).
package player

import (
	"github.com/taehyounpark/queryosity/node"
	"github.com/taehyounpark/queryosity/source"
)

// scaler is implemented by queries so Play can apply the run's global
// scale factor before the entry loop begins.
type scaler interface {
	ApplyScale(factor float64)
}

// Player owns one slot's worth of columns, selections and queries, in the
// order they were booked against the owning Dataflow. Sources and Slot are
// set by the Processor that built this Player, so Play can drive each
// source's own per-entry advance ahead of the node lists it owns.
type Player struct {
	Sources    []source.Source
	Slot       int
	Columns    []node.Lifecycle
	Selections []node.Lifecycle
	Queries    []node.Lifecycle
	Scale      float64
}

// New returns an empty Player with a neutral scale.
func New() *Player {
	return &Player{Scale: 1}
}

// AddColumn appends a column node, created after every node already booked.
func (p *Player) AddColumn(n node.Lifecycle) { p.Columns = append(p.Columns, n) }

// AddSelection appends a selection node.
func (p *Player) AddSelection(n node.Lifecycle) { p.Selections = append(p.Selections, n) }

// AddQuery appends a query node.
func (p *Player) AddQuery(n node.Lifecycle) { p.Queries = append(p.Queries, n) }

// Play runs the full lifecycle over [begin, end): scale application,
// initialize, the per-entry loop, finalize in reverse creation order, then
// clears the query list so a reused Player cannot double-count on a
// second Play.
func (p *Player) Play(begin, end uint64) error {
	for _, q := range p.Queries {
		if s, ok := q.(scaler); ok {
			s.ApplyScale(p.Scale)
		}
	}

	for _, n := range p.Columns {
		if err := n.Initialize(begin, end); err != nil {
			return err
		}
	}
	for _, n := range p.Selections {
		if err := n.Initialize(begin, end); err != nil {
			return err
		}
	}
	for _, n := range p.Queries {
		if err := n.Initialize(begin, end); err != nil {
			return err
		}
	}

	for entry := begin; entry < end; entry++ {
		for _, src := range p.Sources {
			if err := src.ExecuteSlot(p.Slot, entry); err != nil {
				return err
			}
		}
		for _, n := range p.Columns {
			if err := n.Execute(entry); err != nil {
				return err
			}
		}
		for _, n := range p.Selections {
			if err := n.Execute(entry); err != nil {
				return err
			}
		}
		for _, n := range p.Queries {
			if err := n.Execute(entry); err != nil {
				return err
			}
		}
	}

	for i := len(p.Queries) - 1; i >= 0; i-- {
		if err := p.Queries[i].Finalize(); err != nil {
			return err
		}
	}
	for i := len(p.Selections) - 1; i >= 0; i-- {
		if err := p.Selections[i].Finalize(); err != nil {
			return err
		}
	}
	for i := len(p.Columns) - 1; i >= 0; i-- {
		if err := p.Columns[i].Finalize(); err != nil {
			return err
		}
	}

	p.Queries = nil
	return nil
}
