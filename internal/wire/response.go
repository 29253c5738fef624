package wire

import (
	"encoding/binary"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/transferase/internal/levels"
	"github.com/grailbio/transferase/internal/xfrerr"
)

// responseElemSize is the wire width of a single levels.Level element:
// n_meth and n_unmeth, each u32.
const responseElemSize = 8

// responseElemSizeCov is the wire width of a single levels.Covered
// element: n_meth, n_unmeth, n_covered, each u32.
const responseElemSizeCov = 12

// EncodeResponse renders a successful response: a zero error code followed
// by one responseElemSize-byte element per level, in range order.
func EncodeResponse(rows []levels.Level) []byte {
	buf := make([]byte, 4+responseElemSize*len(rows))
	binary.LittleEndian.PutUint32(buf[:4], uint32(xfrerr.OK))
	off := 4
	for _, l := range rows {
		binary.LittleEndian.PutUint32(buf[off:off+4], l.NMeth)
		binary.LittleEndian.PutUint32(buf[off+4:off+8], l.NUnmeth)
		off += responseElemSize
	}
	return buf
}

// EncodeResponseCovered renders a successful covered-site response.
func EncodeResponseCovered(rows []levels.Covered) []byte {
	buf := make([]byte, 4+responseElemSizeCov*len(rows))
	binary.LittleEndian.PutUint32(buf[:4], uint32(xfrerr.OK))
	off := 4
	for _, c := range rows {
		binary.LittleEndian.PutUint32(buf[off:off+4], c.NMeth)
		binary.LittleEndian.PutUint32(buf[off+4:off+8], c.NUnmeth)
		binary.LittleEndian.PutUint32(buf[off+8:off+12], c.NCovered)
		off += responseElemSizeCov
	}
	return buf
}

// EncodeErrorResponse renders a failure response: just the non-zero error
// code, with no element payload.
func EncodeErrorResponse(kind xfrerr.Kind) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(kind))
	return buf
}

// DecodeResponse parses a non-covered response body, returning the error
// kind and, if it is xfrerr.OK, the decoded levels.
func DecodeResponse(buf []byte) (xfrerr.Kind, []levels.Level, error) {
	if len(buf) < 4 {
		return 0, nil, errors.Errorf("wire: response too short: %d bytes", len(buf))
	}
	kind := xfrerr.Kind(binary.LittleEndian.Uint32(buf[:4]))
	if kind != xfrerr.OK {
		return kind, nil, nil
	}
	rest := buf[4:]
	if len(rest)%responseElemSize != 0 {
		return 0, nil, errors.Errorf("wire: response body length %d not a multiple of %d", len(rest), responseElemSize)
	}
	n := len(rest) / responseElemSize
	rows := make([]levels.Level, n)
	for i := 0; i < n; i++ {
		off := i * responseElemSize
		rows[i] = levels.Level{
			NMeth:   binary.LittleEndian.Uint32(rest[off : off+4]),
			NUnmeth: binary.LittleEndian.Uint32(rest[off+4 : off+8]),
		}
	}
	return kind, rows, nil
}

// DecodeResponseCovered parses a covered-site response body.
func DecodeResponseCovered(buf []byte) (xfrerr.Kind, []levels.Covered, error) {
	if len(buf) < 4 {
		return 0, nil, errors.Errorf("wire: response too short: %d bytes", len(buf))
	}
	kind := xfrerr.Kind(binary.LittleEndian.Uint32(buf[:4]))
	if kind != xfrerr.OK {
		return kind, nil, nil
	}
	rest := buf[4:]
	if len(rest)%responseElemSizeCov != 0 {
		return 0, nil, errors.Errorf("wire: covered response body length %d not a multiple of %d", len(rest), responseElemSizeCov)
	}
	n := len(rest) / responseElemSizeCov
	rows := make([]levels.Covered, n)
	for i := 0; i < n; i++ {
		off := i * responseElemSizeCov
		rows[i] = levels.Covered{
			NMeth:    binary.LittleEndian.Uint32(rest[off : off+4]),
			NUnmeth:  binary.LittleEndian.Uint32(rest[off+4 : off+8]),
			NCovered: binary.LittleEndian.Uint32(rest[off+8 : off+12]),
		}
	}
	return kind, rows, nil
}
