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

// Package csvsrc loads a delimited text file into an in-memory
// source.Slice, one column per field named in a Hint. Field typing
// follows the same fixed-schema-up-front shape as the teacher's own xsv
// converter: a chopper splits rows into raw string fields, and a hint
// says how to parse each one, rather than inferring types from content.
package csvsrc

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/zstd"

	"github.com/taehyounpark/queryosity/source"
)

// Kind is the set of scalar types a csvsrc field can be parsed as.
type Kind int

const (
	KindFloat64 Kind = iota
	KindString
	KindBool
)

// Hint maps each input column's position to a name and a parsed Kind.
// Columns not listed are ignored.
type Hint struct {
	Fields []HintField
}

// HintField names one column of the input by its zero-based index.
type HintField struct {
	Index int
	Name  string
	Kind  Kind
}

// Load parses a delimited file (delimiter ',' for CSV, '\t' for TSV; it
// has no default) from r, optionally zstd-compressed, into a source.Slice per
// hint. The first row is always treated as a header and skipped.
func Load(r io.Reader, delimiter rune, hint Hint, zstdCompressed bool) (*source.Slice, error) {
	if zstdCompressed {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}

	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("csvsrc: reading header: %w", err)
	}

	floats := make(map[string][]float64, len(hint.Fields))
	strs := make(map[string][]string, len(hint.Fields))
	bools := make(map[string][]bool, len(hint.Fields))
	for _, f := range hint.Fields {
		switch f.Kind {
		case KindFloat64:
			floats[f.Name] = nil
		case KindString:
			strs[f.Name] = nil
		case KindBool:
			bools[f.Name] = nil
		}
	}

	var rows uint64
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvsrc: row %d: %w", rows+1, err)
		}
		for _, f := range hint.Fields {
			if f.Index >= len(rec) {
				return nil, fmt.Errorf("csvsrc: row %d: field %q index %d out of range", rows+1, f.Name, f.Index)
			}
			raw := rec[f.Index]
			switch f.Kind {
			case KindFloat64:
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("csvsrc: row %d: field %q: %w", rows+1, f.Name, err)
				}
				floats[f.Name] = append(floats[f.Name], v)
			case KindString:
				strs[f.Name] = append(strs[f.Name], raw)
			case KindBool:
				v, err := strconv.ParseBool(raw)
				if err != nil {
					return nil, fmt.Errorf("csvsrc: row %d: field %q: %w", rows+1, f.Name, err)
				}
				bools[f.Name] = append(bools[f.Name], v)
			}
		}
		rows++
	}

	slice := source.NewSlice(rows)
	for name, col := range floats {
		source.AddColumn(slice, name, col)
	}
	for name, col := range strs {
		source.AddColumn(slice, name, col)
	}
	for name, col := range bools {
		source.AddColumn(slice, name, col)
	}
	return slice, nil
}
