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

package source

import (
	"sync"

	"github.com/taehyounpark/queryosity/partition"
)

// sliceReader adapts a plain Go slice to ColumnReader[T].
type sliceReader[T any] struct {
	data []T
}

func (r *sliceReader[T]) Read(entry uint64) (T, error) {
	return r.data[entry], nil
}

// Slice is an in-memory Source backed by column slices, all sharing one
// row count. It is the reference source used by the package's own tests
// and suitable for small, fully-materialized datasets.
type Slice struct {
	mu      sync.RWMutex
	rows    uint64
	columns map[string]any
}

// NewSlice returns an empty Slice with the given row count; AddColumn then
// registers each named column against it.
func NewSlice(rows uint64) *Slice {
	return &Slice{rows: rows, columns: make(map[string]any)}
}

// AddColumn registers data as the column named name. len(data) must equal
// the source's declared row count.
func AddColumn[T any](s *Slice, name string, data []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns[name] = &sliceReader[T]{data: data}
}

func (s *Slice) Parallelize(int) {}

func (s *Slice) Partition() partition.Partition {
	if s.rows == 0 {
		return nil
	}
	return partition.Partition{{Begin: 0, End: s.rows}}
}

func (s *Slice) Initialize() error { return nil }
func (s *Slice) Finalize() error   { return nil }

func (s *Slice) InitializeSlot(slot int, begin, end uint64) error { return nil }
func (s *Slice) ExecuteSlot(slot int, entry uint64) error         { return nil }
func (s *Slice) FinalizeSlot(slot int) error                      { return nil }

func (s *Slice) OpenColumn(slot int, name string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rd, ok := s.columns[name]
	if !ok {
		return nil, nil
	}
	return rd, nil
}

// Empty is a zero-row Source used to exercise the empty-partition path of
// a Processor run: Partition returns nil and no column is ever opened.
type Empty struct{}

func (Empty) Parallelize(int)                          {}
func (Empty) Partition() partition.Partition            { return nil }
func (Empty) Initialize() error                         { return nil }
func (Empty) Finalize() error                           { return nil }
func (Empty) InitializeSlot(int, uint64, uint64) error   { return nil }
func (Empty) ExecuteSlot(int, uint64) error              { return nil }
func (Empty) FinalizeSlot(int) error                     { return nil }
func (Empty) OpenColumn(int, string) (any, error)        { return nil, nil }
