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

// Package jsonsrc loads newline-delimited JSON into an in-memory
// source.Slice, one column per requested field. It is a reference
// adapter: a real deployment would stream rather than materialize, the
// way the teacher's own ndjson splitter does, but a fully materialized
// source is enough to exercise the column/selection/query machinery
// against a non-synthetic row format.
package jsonsrc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/taehyounpark/queryosity/source"
)

// Field names one JSON object key to extract, and the Go type to decode
// it as (via json.Unmarshal's usual dynamic-typing rules: float64 for
// numbers, string, bool).
type Field struct {
	Name string
	Kind Kind
}

// Kind is the set of scalar types jsonsrc can materialize a field as.
type Kind int

const (
	KindFloat64 Kind = iota
	KindString
	KindBool
)

// Load reads newline-delimited JSON objects from r (optionally zstd-
// compressed, detected via the zstdCompressed flag since NDJSON carries
// no self-describing magic of its own) and returns a source.Slice with
// one column per field in fields.
func Load(r io.Reader, fields []Field, zstdCompressed bool) (*source.Slice, error) {
	if zstdCompressed {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}

	floats := make(map[string][]float64, len(fields))
	strs := make(map[string][]string, len(fields))
	bools := make(map[string][]bool, len(fields))
	for _, f := range fields {
		switch f.Kind {
		case KindFloat64:
			floats[f.Name] = nil
		case KindString:
			strs[f.Name] = nil
		case KindBool:
			bools[f.Name] = nil
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var rows uint64
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			return nil, fmt.Errorf("jsonsrc: line %d: %w", rows+1, err)
		}
		for _, f := range fields {
			v := obj[f.Name]
			switch f.Kind {
			case KindFloat64:
				fv, _ := v.(float64)
				floats[f.Name] = append(floats[f.Name], fv)
			case KindString:
				sv, _ := v.(string)
				strs[f.Name] = append(strs[f.Name], sv)
			case KindBool:
				bv, _ := v.(bool)
				bools[f.Name] = append(bools[f.Name], bv)
			}
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, err
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
