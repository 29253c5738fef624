// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package cpgidx implements the CpG index: a compact, genome-wide
// enumeration of CpG sites that lets a client express a query in genomic
// coordinates and the server execute it as a contiguous range over a dense
// per-site array.
package cpgidx

import (
	"sort"

	"github.com/grailbio/base/errors"
)

// Chrom describes one chromosome in an Index's chromosome order.
type Chrom struct {
	Name   string
	Length uint32
}

// Index is an immutable, genome-wide CpG enumeration for one reference
// assembly. Once built it is never mutated; it is safe to share across
// goroutines without synchronization.
type Index struct {
	assembly string
	chroms   []Chrom
	// positions[i] holds the strictly increasing 0-based CpG start
	// positions for chroms[i].
	positions [][]uint32
	// chromOffset[i] is the number of CpGs preceding chroms[i] in linear
	// order. len(chromOffset) == len(chroms).
	chromOffset []uint32
	nCpGs       uint32
	hash        uint64
}

// New builds an Index from per-chromosome CpG positions. positions must be
// sorted in strictly increasing order within each chromosome; New does not
// re-sort them, only validates.
func New(assembly string, chroms []Chrom, positions [][]uint32) (*Index, error) {
	if len(chroms) != len(positions) {
		return nil, errors.Errorf("cpgidx: %d chromosomes but %d position lists", len(chroms), len(positions))
	}
	offsets := make([]uint32, len(chroms))
	var total uint32
	for i, pos := range positions {
		offsets[i] = total
		for j := 1; j < len(pos); j++ {
			if pos[j] <= pos[j-1] {
				return nil, errors.Errorf("cpgidx: positions for chromosome %q are not strictly increasing at index %d", chroms[i].Name, j)
			}
		}
		total += uint32(len(pos))
	}
	idx := &Index{
		assembly:    assembly,
		chroms:      append([]Chrom(nil), chroms...),
		positions:   positions,
		chromOffset: offsets,
		nCpGs:       total,
	}
	idx.hash = computeHash(idx)
	return idx, nil
}

// Assembly returns the short assembly name, e.g. "hg38".
func (idx *Index) Assembly() string { return idx.assembly }

// NCpGs returns the total number of CpG sites across all chromosomes.
func (idx *Index) NCpGs() uint32 { return idx.nCpGs }

// Hash returns the 64-bit content fingerprint used to pin methylomes to
// this exact index build.
func (idx *Index) Hash() uint64 { return idx.hash }

// Chromosomes returns the ordered chromosome list. Callers must not mutate
// the returned slice.
func (idx *Index) Chromosomes() []Chrom { return idx.chroms }

// ChromOffset returns the prefix-sum CpG offset of chromID, the number of
// CpGs that precede it in linear order.
func (idx *Index) ChromOffset(chromID int) uint32 { return idx.chromOffset[chromID] }

// Positions returns the CpG positions for chromID. Callers must not mutate
// the returned slice.
func (idx *Index) Positions(chromID int) []uint32 { return idx.positions[chromID] }

// Lookup returns the chromosome id for name, or ok=false if unknown.
func (idx *Index) Lookup(name string) (chromID int, ok bool) {
	for i, c := range idx.chroms {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// NCpGsPerChrom returns the number of CpGs in each chromosome, computed as
// adjacent differences of chromOffset extended by nCpGs.
func (idx *Index) NCpGsPerChrom() []uint32 {
	n := len(idx.chromOffset)
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		var next uint32
		if i+1 < n {
			next = idx.chromOffset[i+1]
		} else {
			next = idx.nCpGs
		}
		out[i] = next - idx.chromOffset[i]
	}
	return out
}

// ChromAt maps a linear CpG offset back to its chromosome name and 0-based
// base-pair position, the inverse of TranslateInterval's forward mapping.
// It returns ok=false if offset is not less than NCpGs().
func (idx *Index) ChromAt(offset uint32) (chrom string, pos uint32, ok bool) {
	if offset >= idx.nCpGs {
		return "", 0, false
	}
	chromID := sort.Search(len(idx.chromOffset), func(i int) bool { return idx.chromOffset[i] > offset }) - 1
	if chromID < 0 {
		return "", 0, false
	}
	local := offset - idx.chromOffset[chromID]
	return idx.chroms[chromID].Name, idx.positions[chromID][local], true
}

// Range is a half-open pair of CpG offsets, [Start, Stop).
type Range struct {
	Start, Stop uint32
}

// TranslateInterval converts a 0-based, half-open base-pair interval on
// chromID into a half-open CpG-offset range in this index's linear space.
// A CpG exactly at stopBP is excluded.
func (idx *Index) TranslateInterval(chromID int, startBP, stopBP uint32) (Range, error) {
	if chromID < 0 || chromID >= len(idx.chroms) {
		return Range{}, errors.Errorf("cpgidx: invalid chromosome id %d", chromID)
	}
	if startBP > stopBP {
		return Range{}, errors.Errorf("cpgidx: invalid interval [%d, %d)", startBP, stopBP)
	}
	pos := idx.positions[chromID]
	base := idx.chromOffset[chromID]
	a := sort.Search(len(pos), func(i int) bool { return pos[i] >= startBP })
	b := sort.Search(len(pos), func(i int) bool { return pos[i] >= stopBP })
	return Range{Start: base + uint32(a), Stop: base + uint32(b)}, nil
}

// TranslateBins tiles every chromosome into bins of binSize base pairs and
// returns the CpG-offset range for each bin, in genome order. A bin that
// would cross a chromosome boundary is truncated at the boundary instead
// (bins never span chromosomes).
func (idx *Index) TranslateBins(binSize uint32) ([]Range, error) {
	if binSize == 0 {
		return nil, errors.Errorf("cpgidx: bin size must be positive")
	}
	var out []Range
	for i, c := range idx.chroms {
		for start := uint32(0); start < c.Length; start += binSize {
			stop := start + binSize
			if stop > c.Length {
				stop = c.Length
			}
			r, err := idx.TranslateInterval(i, start, stop)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
	}
	return out, nil
}
