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

// Package node defines the lifecycle contract shared by every per-slot
// DAG node (columns, selections, queries), so a Player can drive all three
// of its ordered lists uniformly.
package node

// Lifecycle is implemented by every node a Player owns. Initialize runs
// once per play before the entry loop; Execute runs once per entry in
// ascending order; Finalize runs once after the loop, in reverse creation
// order across the owning list.
type Lifecycle interface {
	Initialize(begin, end uint64) error
	Execute(entry uint64) error
	Finalize() error
}
