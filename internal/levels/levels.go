// Package levels implements the range-sum engine: given a methylome's
// dense count array and a query container, it computes one aggregate
// methylation level per range. Each range is an independent, contiguous
// scan over the array, which keeps the hot path cache-friendly and
// trivially batched.
package levels

import (
	"github.com/grailbio/transferase/internal/methylome"
	"github.com/grailbio/transferase/internal/query"
)

// Level is the basic aggregate: total methylated and unmethylated read
// counts over a range.
type Level struct {
	NMeth, NUnmeth uint32
}

// Covered is the covered-site variant: Level plus the number of CpG sites
// in the range with at least one read (NMeth+NUnmeth > 0).
type Covered struct {
	NMeth, NUnmeth, NCovered uint32
}

// Compute returns one Level per range in q, computed from data. An empty
// range (Start == Stop) yields a zero Level. q must satisfy
// 0 <= r.Start <= r.Stop <= len(data.Counts) for every range r; Compute
// does not itself validate this (validation happens at query-translation
// time) but will panic on an out-of-bounds range rather than corrupt
// memory.
func Compute(data *methylome.Data, q query.Container) []Level {
	out := make([]Level, len(q.V))
	for k, r := range q.V {
		var m, u uint32
		for _, c := range data.Counts[r.Start:r.Stop] {
			m += uint32(c.NMeth)
			u += uint32(c.NUnmeth)
		}
		out[k] = Level{NMeth: m, NUnmeth: u}
	}
	return out
}

// ComputeCovered is the covered-site variant of Compute.
func ComputeCovered(data *methylome.Data, q query.Container) []Covered {
	out := make([]Covered, len(q.V))
	for k, r := range q.V {
		var m, u, covered uint32
		for _, c := range data.Counts[r.Start:r.Stop] {
			m += uint32(c.NMeth)
			u += uint32(c.NUnmeth)
			if c.NMeth != 0 || c.NUnmeth != 0 {
				covered++
			}
		}
		out[k] = Covered{NMeth: m, NUnmeth: u, NCovered: covered}
	}
	return out
}
