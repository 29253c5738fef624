package wire

import (
	"encoding/binary"

	"github.com/golang/snappy"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/transferase/internal/query"
)

// EncodeIntervalsBodyCompressed is an alternate, snappy-compressed framing
// of an intervals body, used outside the live wire protocol for saving a
// large query container to disk (e.g. a saved genome-wide bins query a CLI
// invocation reuses across runs) without the offsets array dominating file
// size. It is the same block codec the teacher uses for its on-disk
// mate-pair shards.
func EncodeIntervalsBodyCompressed(q query.Container) []byte {
	raw := q.Encode()
	compressed := snappy.Encode(nil, raw)
	buf := make([]byte, 8+len(compressed))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(q.Size()))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(raw)))
	copy(buf[8:], compressed)
	return buf
}

// DecodeIntervalsBodyCompressed is the inverse of
// EncodeIntervalsBodyCompressed: n_intervals (u32), the uncompressed byte
// length (u32), then the snappy-compressed offsets.
func DecodeIntervalsBodyCompressed(buf []byte) (query.Container, error) {
	if len(buf) < 8 {
		return query.Container{}, errors.Errorf("wire: compressed intervals body too short: %d bytes", len(buf))
	}
	rawLen := binary.LittleEndian.Uint32(buf[4:8])
	raw, err := snappy.Decode(make([]byte, 0, rawLen), buf[8:])
	if err != nil {
		return query.Container{}, errors.E(err, "wire: decompressing intervals body")
	}
	if uint32(len(raw)) != rawLen {
		return query.Container{}, errors.Errorf("wire: decompressed intervals body is %d bytes, expected %d", len(raw), rawLen)
	}
	return query.Decode(raw)
}
