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

// Package column implements the lazy, cached per-entry values that form
// the nodes of a Player's column list (C3): reader columns backed by a
// source, fixed (constant) columns, expression columns computed from
// other columns, and type conversions between them. Every column caches
// its value for the current entry behind a single evaluation, reset on
// each Initialize and re-armed by the first Execute of the new entry.
package column

import (
	"fmt"

	"github.com/taehyounpark/queryosity/qerr"
	"github.com/taehyounpark/queryosity/source"
)

// Column is the minimal read side every node in the column list exposes
// to its dependents: the cached value as of the current entry.
type Column[T any] interface {
	Value() (T, error)
}

// cache holds the single-evaluation-per-entry bookkeeping shared by every
// column kind: updated is cleared on Initialize and on each new Execute,
// and set the first time Value() computes (not merely reads) the cell.
type cache[T any] struct {
	val     T
	err     error
	updated bool
}

func (c *cache[T]) reset() {
	c.updated = false
}

// Reader streams a column directly from a source, through a typed
// ColumnReader opened once at Initialize time.
type Reader[T any] struct {
	cache[T]
	src  source.Source
	slot int
	name string
	rd   source.ColumnReader[T]
	cur  uint64
}

// NewReader builds a Reader bound to name in slot, opened against src.
func NewReader[T any](src source.Source, slot int, name string) *Reader[T] {
	return &Reader[T]{src: src, slot: slot, name: name}
}

func (r *Reader[T]) Initialize(begin, end uint64) error {
	rd, err := source.Open[T](r.src, r.slot, r.name)
	if err != nil {
		return err
	}
	r.rd = rd
	r.reset()
	return nil
}

func (r *Reader[T]) Execute(entry uint64) error {
	r.cur = entry
	r.reset()
	return nil
}

func (r *Reader[T]) Finalize() error { return nil }

func (r *Reader[T]) Value() (T, error) {
	if !r.updated {
		r.val, r.err = r.rd.Read(r.cur)
		r.updated = true
	}
	return r.val, r.err
}

// Fixed is a column whose value never changes across entries: constructed
// once, read many times, at essentially no per-entry cost.
type Fixed[T any] struct {
	val T
}

// NewFixed wraps a constant as a Column.
func NewFixed[T any](val T) *Fixed[T] { return &Fixed[T]{val: val} }

func (f *Fixed[T]) Initialize(begin, end uint64) error { return nil }
func (f *Fixed[T]) Execute(entry uint64) error         { return nil }
func (f *Fixed[T]) Finalize() error                    { return nil }
func (f *Fixed[T]) Value() (T, error)                  { return f.val, nil }

// Expr is a column computed from the values of other columns through a
// user function, evaluated at most once per entry.
type Expr[T any] struct {
	cache[T]
	eval func() (T, error)
	name string
}

func (e *Expr[T]) Initialize(begin, end uint64) error { e.reset(); return nil }
func (e *Expr[T]) Execute(entry uint64) error         { e.reset(); return nil }
func (e *Expr[T]) Finalize() error                    { return nil }

func (e *Expr[T]) Value() (T, error) {
	if !e.updated {
		func() {
			defer func() {
				if r := recover(); r != nil {
					var zero T
					e.val, e.err = zero, fmt.Errorf("panic: %v", r)
				}
			}()
			e.val, e.err = e.eval()
		}()
		if e.err != nil {
			e.err = &qerr.ExpressionError{Node: e.name, Err: e.err}
		}
		e.updated = true
	}
	return e.val, e.err
}

// Define1 builds a column of the value f(a).
func Define1[A, R any](name string, f func(A) (R, error), a Column[A]) *Expr[R] {
	e := &Expr[R]{name: name}
	e.eval = func() (R, error) {
		av, err := a.Value()
		if err != nil {
			var zero R
			return zero, err
		}
		return f(av)
	}
	return e
}

// Define2 builds a column of the value f(a, b).
func Define2[A, B, R any](name string, f func(A, B) (R, error), a Column[A], b Column[B]) *Expr[R] {
	e := &Expr[R]{name: name}
	e.eval = func() (R, error) {
		var zero R
		av, err := a.Value()
		if err != nil {
			return zero, err
		}
		bv, err := b.Value()
		if err != nil {
			return zero, err
		}
		return f(av, bv)
	}
	return e
}

// Define3 builds a column of the value f(a, b, c).
func Define3[A, B, C, R any](name string, f func(A, B, C) (R, error), a Column[A], b Column[B], c Column[C]) *Expr[R] {
	e := &Expr[R]{name: name}
	e.eval = func() (R, error) {
		var zero R
		av, err := a.Value()
		if err != nil {
			return zero, err
		}
		bv, err := b.Value()
		if err != nil {
			return zero, err
		}
		cv, err := c.Value()
		if err != nil {
			return zero, err
		}
		return f(av, bv, cv)
	}
	return e
}

// Convert re-expresses a column of type A as one of type B through a pure
// conversion function, reusing the Expr machinery (a conversion is just a
// unary expression).
func Convert[A, B any](name string, f func(A) (B, error), a Column[A]) *Expr[B] {
	return Define1(name, f, a)
}
