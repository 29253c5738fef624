package cpgidx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNCpGsPerChrom(t *testing.T) {
	idx := &Index{
		chromOffset: []uint32{0, 1000, 10000},
		nCpGs:       11000,
	}
	assert.Equal(t, []uint32{1000, 9000, 1000}, idx.NCpGsPerChrom())

	idx2 := &Index{chromOffset: []uint32{0}, nCpGs: 0}
	assert.Equal(t, []uint32{0}, idx2.NCpGsPerChrom())
}

func TestNewRejectsUnsortedPositions(t *testing.T) {
	_, err := New("hg38", []Chrom{{"chr1", 1000}}, [][]uint32{{10, 10, 20}})
	require.Error(t, err)
}

func TestLookup(t *testing.T) {
	idx, err := New("hg38", []Chrom{{"chr1", 1000}, {"chr2", 2000}}, [][]uint32{{10, 20}, {5}})
	require.NoError(t, err)

	id, ok := idx.Lookup("chr2")
	require.True(t, ok)
	assert.Equal(t, 1, id)

	_, ok = idx.Lookup("chr3")
	assert.False(t, ok)
}

func TestTranslateIntervalHalfOpen(t *testing.T) {
	idx, err := New("hg38", []Chrom{{"chr1", 1000}}, [][]uint32{{10, 20, 30, 40}})
	require.NoError(t, err)

	r, err := idx.TranslateInterval(0, 20, 40)
	require.NoError(t, err)
	// 20 is included (>= start), 40 is excluded (exactly at stop).
	assert.Equal(t, Range{Start: 1, Stop: 3}, r)

	r, err = idx.TranslateInterval(0, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, Range{Start: 0, Stop: 0}, r, "interval entirely outside any CpGs yields a zero-width range")
}

func TestTranslateIntervalInvalid(t *testing.T) {
	idx, err := New("hg38", []Chrom{{"chr1", 1000}}, [][]uint32{{10}})
	require.NoError(t, err)
	_, err = idx.TranslateInterval(0, 100, 50)
	assert.Error(t, err)
	_, err = idx.TranslateInterval(5, 0, 10)
	assert.Error(t, err)
}

func TestTranslateBinsSplitsAtChromosomeBoundary(t *testing.T) {
	idx, err := New("hg38",
		[]Chrom{{"chr1", 25}, {"chr2", 10}},
		[][]uint32{{1, 12, 24}, {2, 8}})
	require.NoError(t, err)

	ranges, err := idx.TranslateBins(20)
	require.NoError(t, err)
	// chr1: bins [0,20) [20,25); chr2: bin [0,10)
	require.Len(t, ranges, 3)
	assert.Equal(t, Range{Start: 0, Stop: 2}, ranges[0])
	assert.Equal(t, Range{Start: 2, Stop: 3}, ranges[1])
	assert.Equal(t, Range{Start: 3, Stop: 5}, ranges[2])
}

func TestChromAt(t *testing.T) {
	idx, err := New("hg38",
		[]Chrom{{"chr1", 25}, {"chr2", 10}},
		[][]uint32{{1, 12, 24}, {2, 8}})
	require.NoError(t, err)

	chrom, pos, ok := idx.ChromAt(0)
	require.True(t, ok)
	assert.Equal(t, "chr1", chrom)
	assert.Equal(t, uint32(1), pos)

	chrom, pos, ok = idx.ChromAt(3)
	require.True(t, ok)
	assert.Equal(t, "chr2", chrom)
	assert.Equal(t, uint32(2), pos)

	_, _, ok = idx.ChromAt(5)
	assert.False(t, ok)
}

func TestHashStableAcrossRebuild(t *testing.T) {
	mk := func() *Index {
		idx, err := New("hg38", []Chrom{{"chr1", 1000}}, [][]uint32{{10, 20, 30}})
		require.NoError(t, err)
		return idx
	}
	a, b := mk(), mk()
	assert.Equal(t, a.Hash(), b.Hash())

	c, err := New("hg38", []Chrom{{"chr1", 1000}}, [][]uint32{{10, 20, 31}})
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash(), c.Hash())
}
