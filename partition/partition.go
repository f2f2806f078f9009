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

// Package partition implements the entry-range algebra that addresses rows
// as (slot, entry): aligning several sources' partitions to a common
// refinement, truncating to a row budget, and merging down to a target slot
// count.
package partition

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/exp/slices"

	"github.com/taehyounpark/queryosity/qerr"
)

// Range is a half-open entry range [Begin, End).
type Range struct {
	Begin uint64
	End   uint64
}

// Width reports the number of entries in r.
func (r Range) Width() uint64 { return r.End - r.Begin }

// Partition is an ordered, contiguous, non-overlapping sequence of ranges
// starting at its first range's Begin (normally 0).
type Partition []Range

// Total returns the sum of each range's width.
func (p Partition) Total() uint64 {
	var sum uint64
	for _, r := range p {
		sum += r.Width()
	}
	return sum
}

// Fingerprint returns a short, stable identifier for a partition's boundary
// points, suitable for inclusion in log lines and error messages (not for
// persistence: the core carries no persisted state across runs).
func (p Partition) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	for _, r := range p {
		binary.BigEndian.PutUint64(buf[:], r.Begin)
		h.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], r.End)
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Align computes the common refinement of several non-empty partitions: the
// sorted union of every input's boundary points. All inputs must share the
// same total span (same begin and same total width); if they don't, this is
// a configuration error reported as a NoPartitionError rather than silently
// inferring an intersection (see the Open Question this resolves in
// SPEC_FULL.md §D).
func Align(parts ...Partition) (Partition, error) {
	nonEmpty := make([]Partition, 0, len(parts))
	for _, p := range parts {
		if len(p) > 0 {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return nil, &qerr.NoPartitionError{Msg: "no source reported a non-empty partition"}
	}
	begin := nonEmpty[0][0].Begin
	span := nonEmpty[0].Total()
	for _, p := range nonEmpty[1:] {
		if p[0].Begin != begin || p.Total() != span {
			return nil, &qerr.NoPartitionError{
				Msg: fmt.Sprintf(
					"partitions do not share a common span: [%d,%d) vs [%d,%d)",
					begin, begin+span, p[0].Begin, p[0].Begin+p.Total(),
				),
			}
		}
	}
	if len(nonEmpty) == 1 {
		out := make(Partition, len(nonEmpty[0]))
		copy(out, nonEmpty[0])
		return out, nil
	}
	points := map[uint64]struct{}{begin: {}}
	for _, p := range nonEmpty {
		for _, r := range p {
			points[r.End] = struct{}{}
		}
	}
	sorted := make([]uint64, 0, len(points))
	for pt := range points {
		sorted = append(sorted, pt)
	}
	slices.Sort(sorted)
	out := make(Partition, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		out = append(out, Range{sorted[i-1], sorted[i]})
	}
	return out, nil
}

// Truncate keeps leading ranges, shortening the last as needed, so the
// total entry count is at most maxRows. maxRows < 0 is a no-op.
func Truncate(p Partition, maxRows int64) Partition {
	if maxRows < 0 {
		return p
	}
	limit := uint64(maxRows)
	out := make(Partition, 0, len(p))
	var total uint64
	for _, r := range p {
		w := r.Width()
		if total+w <= limit {
			out = append(out, r)
			total += w
			continue
		}
		if remain := limit - total; remain > 0 {
			out = append(out, Range{r.Begin, r.Begin + remain})
		}
		break
	}
	return out
}

// Merge coalesces neighbouring ranges so the result has exactly
// min(nSlots, len(p)) ranges, each as close to Total()/nSlots as achievable
// without splitting any input range. The last range absorbs the remainder.
func Merge(p Partition, nSlots int) Partition {
	if nSlots <= 0 {
		nSlots = 1
	}
	if len(p) == 0 {
		return nil
	}
	if nSlots >= len(p) {
		out := make(Partition, len(p))
		copy(out, p)
		return out
	}
	ends := make([]uint64, len(p))
	for i, r := range p {
		ends[i] = r.End
	}
	begin := p[0].Begin
	total := p.Total()
	target := float64(total) / float64(nSlots)

	out := make(Partition, 0, nSlots)
	last := begin
	idx := 0
	for g := 1; g < nSlots; g++ {
		want := begin + uint64(float64(g)*target+0.5)
		maxIdx := len(ends) - (nSlots - g) - 1
		best := idx
		for i := idx; i <= maxIdx; i++ {
			if absDiff(ends[i], want) <= absDiff(ends[best], want) {
				best = i
			} else {
				break
			}
		}
		out = append(out, Range{last, ends[best]})
		last = ends[best]
		idx = best + 1
	}
	out = append(out, Range{last, ends[len(ends)-1]})
	return out
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
