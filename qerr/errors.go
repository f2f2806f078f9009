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

// Package qerr holds the fatal error kinds produced while building or
// running a dataflow. Each kind is its own type so callers can recover
// specifics with errors.As instead of parsing messages.
package qerr

import "fmt"

// ConstructionError reports a malformed graph caught at build time, e.g.
// attempting to vary a plain lazy handle or binding mismatched arities.
type ConstructionError struct {
	Op  string
	Msg string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construction error in %s: %s", e.Op, e.Msg)
}

// MissingColumnError reports that a source refused to open a column by name.
type MissingColumnError struct {
	Source string
	Name   string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("source %s has no column %q", e.Source, e.Name)
}

// TypeMismatchError reports that a source's column exists but not at the
// requested type.
type TypeMismatchError struct {
	Source, Name, Want, Got string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("source %s column %q: want %s, got %s", e.Source, e.Name, e.Want, e.Got)
}

// NoPartitionError reports that no loaded source offered a usable partition,
// or that two sources' partitions could not be aligned.
type NoPartitionError struct {
	Msg string
}

func (e *NoPartitionError) Error() string {
	return fmt.Sprintf("no partition available: %s", e.Msg)
}

// ExpressionError wraps a failure from a user function or conversion
// surfaced during a column's value(). The original error is reachable via
// errors.Unwrap/errors.As.
type ExpressionError struct {
	Node string
	Err  error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("evaluating %s: %s", e.Node, e.Err)
}

func (e *ExpressionError) Unwrap() error { return e.Err }

// UnknownVariationError reports a lookup of a variation name absent from a
// query result carrier.
type UnknownVariationError struct {
	Query string
	Name  string
}

func (e *UnknownVariationError) Error() string {
	return fmt.Sprintf("query %s has no variation %q", e.Query, e.Name)
}
