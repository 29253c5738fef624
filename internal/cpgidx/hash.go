package cpgidx

import (
	"encoding/binary"

	"github.com/blainsmith/seahash"
)

// computeHash derives the 64-bit content fingerprint for idx from its
// assembly name, chromosome order/lengths, and CpG positions. Two indexes
// built from identical inputs always hash identically; any change to the
// chromosome order, lengths, or a single CpG position changes the hash.
func computeHash(idx *Index) uint64 {
	buf := make([]byte, 0, 4096)
	buf = append(buf, idx.assembly...)
	buf = append(buf, 0)
	var tmp [4]byte
	for _, c := range idx.chroms {
		buf = append(buf, c.Name...)
		buf = append(buf, 0)
		binary.LittleEndian.PutUint32(tmp[:], c.Length)
		buf = append(buf, tmp[:]...)
	}
	for _, pos := range idx.positions {
		for _, p := range pos {
			binary.LittleEndian.PutUint32(tmp[:], p)
			buf = append(buf, tmp[:]...)
		}
	}
	return seahash.Sum64(buf)
}
