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

// Package processor implements the partitioned, multi-threaded entry-loop
// driver (C7): it resolves a requested concurrency against the aligned
// common refinement of every source's own partition, merges that partition
// down to the resolved slot count, and runs one Player per merged range on
// its own goroutine, joining on a WaitGroup before finalizing every source.
// Grounded on the fan-out shape of a query-plan executor: one goroutine
// per child range, an error slice indexed by range, a WaitGroup join
// barrier.
package processor

import (
	"errors"
	"log"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/taehyounpark/queryosity/partition"
	"github.com/taehyounpark/queryosity/player"
	"github.com/taehyounpark/queryosity/qerr"
	"github.com/taehyounpark/queryosity/source"
)

// PlayerFactory builds the Player that will run one slot's DAG, given the
// slot index it has been assigned. An error aborts that slot before Play
// is ever called.
type PlayerFactory func(slot int) (*player.Player, error)

// Processor resolves concurrency, partitions entries across slots, and
// drives each slot's Player to completion. It owns the full set of sources
// the dataflow was opened against (spec.md §3): every source's partition is
// aligned to a common refinement before slots are carved out of it, and
// every source shares the dataset- and slot-scoped lifecycle calls.
type Processor struct {
	Sources []source.Source
	Build   PlayerFactory
	Nslots  int
	MaxRows int64
	Logger  *log.Logger
}

// New returns a Processor reading srcs, building players with build, and
// targeting nslots concurrent slots (0 = single-threaded, negative = all
// available hardware concurrency, positive = min(hardware, nslots)).
func New(srcs []source.Source, build PlayerFactory, nslots int) *Processor {
	return &Processor{Sources: srcs, Build: build, Nslots: nslots, MaxRows: -1}
}

func (p *Processor) resolveConcurrency() int {
	switch {
	case p.Nslots == 0:
		return 1
	case p.Nslots < 0:
		return runtime.NumCPU()
	default:
		if hw := runtime.NumCPU(); p.Nslots > hw {
			return hw
		}
		return p.Nslots
	}
}

func (p *Processor) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}

// Process runs one full pass over every source: Initialize, partition
// resolution and alignment across all sources, one goroutine per merged
// range, source Finalize. Every range's error is collected and joined; a
// single run ID tags the log lines of one Process call for correlation.
func (p *Processor) Process() error {
	runID := uuid.New()
	p.logf("run %s: starting", runID)

	for _, src := range p.Sources {
		if err := src.Initialize(); err != nil {
			return err
		}
	}

	nslots := p.resolveConcurrency()
	for _, src := range p.Sources {
		src.Parallelize(nslots)
	}

	parts := make([]partition.Partition, 0, len(p.Sources))
	empty := true
	for _, src := range p.Sources {
		raw := src.Partition()
		if len(raw) > 0 {
			empty = false
		}
		parts = append(parts, raw)
	}
	if empty {
		p.logf("run %s: empty partition, nothing to do", runID)
		for _, src := range p.Sources {
			if err := src.Finalize(); err != nil {
				return err
			}
		}
		return nil
	}

	aligned, err := partition.Align(parts...)
	if err != nil {
		return err
	}
	truncated := partition.Truncate(aligned, p.MaxRows)
	if p.MaxRows >= 0 && truncated.Total() != aligned.Total() {
		p.logf("run %s: truncated %d -> %d rows", runID, aligned.Total(), truncated.Total())
	}
	merged := partition.Merge(truncated, nslots)
	p.logf("run %s: %d slot(s), partition %s", runID, len(merged), merged.Fingerprint())

	errs := make([]error, len(merged))
	var wg sync.WaitGroup
	wg.Add(len(merged))
	for i, rng := range merged {
		go func(slot int, rng partition.Range) {
			defer wg.Done()
			errs[slot] = p.runSlot(slot, rng)
		}(i, rng)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return err
	}

	for _, src := range p.Sources {
		if err := src.Finalize(); err != nil {
			return err
		}
	}
	p.logf("run %s: done", runID)
	return nil
}

func (p *Processor) runSlot(slot int, rng partition.Range) error {
	for _, src := range p.Sources {
		if err := src.InitializeSlot(slot, rng.Begin, rng.End); err != nil {
			return err
		}
	}
	pl, err := p.Build(slot)
	if err != nil {
		return err
	}
	if pl == nil {
		return &qerr.ConstructionError{Op: "processor.Process", Msg: "player factory returned nil"}
	}
	pl.Sources = p.Sources
	pl.Slot = slot
	if err := pl.Play(rng.Begin, rng.End); err != nil {
		return err
	}
	for _, src := range p.Sources {
		if err := src.FinalizeSlot(slot); err != nil {
			return err
		}
	}
	return nil
}
