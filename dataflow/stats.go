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
	"fmt"
	"io"
)

// Stats is a point-in-time snapshot of a Dataflow's construction log size
// and run state, useful for diagnostics and tests.
type Stats struct {
	Nodes    int
	Slots    int
	Analyzed bool
}

// Stats reports the current construction-log size and whether the graph
// has been run since its last change.
func (df *Dataflow) Stats() Stats {
	df.mu.Lock()
	defer df.mu.Unlock()
	return Stats{Nodes: df.nextID, Slots: df.nslots, Analyzed: df.analyzed}
}

// Graphviz writes a minimal DOT-format dump of the construction log to w:
// one node per booked handle, in booking order. It does not attempt to
// recover edges between handles, since the construction log does not
// retain them past closure capture; it is a debugging aid, not a full
// dependency graph renderer.
func (df *Dataflow) Graphviz(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph queryosity {"); err != nil {
		return err
	}
	for i := 0; i < df.nextID; i++ {
		if _, err := fmt.Fprintf(w, "  n%d [label=\"node %d\"];\n", i, i); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
