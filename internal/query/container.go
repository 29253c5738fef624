// Package query implements the query container: a packed sequence of
// (start, stop) CpG-offset pairs describing one batch of range-sum
// requests against a methylome.
package query

import (
	"encoding/binary"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/transferase/internal/cpgidx"
)

// Range is a half-open CpG-offset range, [Start, Stop).
type Range = cpgidx.Range

// Container holds a batch of CpG-offset ranges built against a particular
// CpG index. It is constructed per request and discarded after the
// response is sent.
type Container struct {
	V []Range
}

// Size returns the number of ranges in the container.
func (c Container) Size() int { return len(c.V) }

// GenomicInterval is a 0-based, half-open interval on a named chromosome.
type GenomicInterval struct {
	Chrom      string
	Start, Stop uint32
}

// NewFromIntervals translates a list of genomic intervals into a Container
// of CpG-offset ranges against idx.
func NewFromIntervals(idx *cpgidx.Index, intervals []GenomicInterval) (Container, error) {
	var c Container
	for _, iv := range intervals {
		chromID, ok := idx.Lookup(iv.Chrom)
		if !ok {
			return Container{}, errors.Errorf("query: unknown chromosome %q", iv.Chrom)
		}
		r, err := idx.TranslateInterval(chromID, iv.Start, iv.Stop)
		if err != nil {
			return Container{}, err
		}
		c.V = append(c.V, r)
	}
	return c, nil
}

// NewFromBins builds a Container tiling idx's genome into bins of binSize
// base pairs.
func NewFromBins(idx *cpgidx.Index, binSize uint32) (Container, error) {
	ranges, err := idx.TranslateBins(binSize)
	if err != nil {
		return Container{}, err
	}
	return Container{V: ranges}, nil
}

// Encode serializes the container as 8*Size() little-endian bytes: for
// each range, a u32 start followed by a u32 stop.
func (c Container) Encode() []byte {
	buf := make([]byte, 8*len(c.V))
	for i, r := range c.V {
		binary.LittleEndian.PutUint32(buf[i*8:i*8+4], r.Start)
		binary.LittleEndian.PutUint32(buf[i*8+4:i*8+8], r.Stop)
	}
	return buf
}

// Decode parses a byte slice produced by Encode. It returns an error if
// len(buf) is not a multiple of 8, or if any range has Start > Stop.
func Decode(buf []byte) (Container, error) {
	if len(buf)%8 != 0 {
		return Container{}, errors.Errorf("query: malformed container payload: %d bytes is not a multiple of 8", len(buf))
	}
	n := len(buf) / 8
	c := Container{V: make([]Range, n)}
	for i := 0; i < n; i++ {
		start := binary.LittleEndian.Uint32(buf[i*8 : i*8+4])
		stop := binary.LittleEndian.Uint32(buf[i*8+4 : i*8+8])
		if start > stop {
			return Container{}, errors.Errorf("query: range %d has start %d > stop %d", i, start, stop)
		}
		c.V[i] = Range{Start: start, Stop: stop}
	}
	return c, nil
}
