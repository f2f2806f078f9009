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

// Package source defines the abstract per-entry data provider contract
// (C2): partition reporting, dataset- and slot-scoped lifecycle, and typed
// column readers opened through a small dispatch table keyed on type,
// since Go does not support generic interface methods (see spec.md §9).
package source

import (
	"fmt"

	"github.com/taehyounpark/queryosity/partition"
	"github.com/taehyounpark/queryosity/qerr"
)

// Source is the abstract dataset a Dataflow reads columns from.
//
// Sources are shared across slots and must tolerate concurrent calls to
// ExecuteSlot for distinct slots; InitializeSlot/FinalizeSlot for a given
// slot are only ever called from the thread running that slot, and
// Initialize/Finalize/Parallelize are only ever called from the driving
// thread around the whole run.
type Source interface {
	// Parallelize is an advisory hint of intended concurrency.
	Parallelize(n int)
	// Partition reports this source's natural entry ranges, or nil/empty
	// if this source relinquishes partition control to another source.
	Partition() partition.Partition
	Initialize() error
	Finalize() error
	InitializeSlot(slot int, begin, end uint64) error
	ExecuteSlot(slot int, entry uint64) error
	FinalizeSlot(slot int) error
	// OpenColumn opens an untyped reader for name bound to slot. It
	// returns (nil, nil) if the source has no such column at all
	// (MissingColumnError is then raised by Open). An implementation that
	// recognizes the name but cannot serve the type requested by Open
	// should simply return a reader of its native type; Open performs the
	// assertion and raises TypeMismatchError on failure.
	OpenColumn(slot int, name string) (any, error)
}

// ColumnReader is a per-slot typed reader bound to a single column name by
// a prior call to Source.OpenColumn.
type ColumnReader[T any] interface {
	Read(entry uint64) (T, error)
}

// Open resolves a typed ColumnReader[T] for name in slot, translating the
// source's untyped response into MissingColumnError/TypeMismatchError as
// appropriate.
func Open[T any](src Source, slot int, name string) (ColumnReader[T], error) {
	raw, err := src.OpenColumn(slot, name)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &qerr.MissingColumnError{Source: srcName(src), Name: name}
	}
	rd, ok := raw.(ColumnReader[T])
	if !ok {
		var want T
		return nil, &qerr.TypeMismatchError{
			Source: srcName(src),
			Name:   name,
			Want:   fmt.Sprintf("%T", want),
			Got:    fmt.Sprintf("%T", raw),
		}
	}
	return rd, nil
}

func srcName(src Source) string {
	return fmt.Sprintf("%T", src)
}
