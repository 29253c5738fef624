package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/transferase/internal/query"
)

// EncodeIntervalsBody renders the intervals-form request body:
// n_intervals (u32) followed by n_intervals*8 bytes of (u32 start, u32
// stop) CpG offsets, little-endian.
func EncodeIntervalsBody(q query.Container) []byte {
	buf := make([]byte, 4+8*q.Size())
	binary.LittleEndian.PutUint32(buf[:4], uint32(q.Size()))
	copy(buf[4:], q.Encode())
	return buf
}

// DecodeIntervalsBody parses an intervals-form request body produced by
// EncodeIntervalsBody.
func DecodeIntervalsBody(buf []byte) (query.Container, error) {
	if len(buf) < 4 {
		return query.Container{}, errors.Errorf("wire: intervals body too short: %d bytes", len(buf))
	}
	n := binary.LittleEndian.Uint32(buf[:4])
	want := 4 + 8*int(n)
	if len(buf) != want {
		return query.Container{}, errors.Errorf("wire: intervals body declares %d intervals (%d bytes) but got %d bytes", n, want, len(buf))
	}
	return query.Decode(buf[4:])
}

// EncodeBinsBody renders the bins-form request body: bin_size (u32).
func EncodeBinsBody(binSize uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, binSize)
	return buf
}

// DecodeBinsBody parses a bins-form request body.
func DecodeBinsBody(buf []byte) (uint32, error) {
	if len(buf) != 4 {
		return 0, errors.Errorf("wire: bins body must be 4 bytes, got %d", len(buf))
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// WriteTextFramedIntervals writes the textual smoke-test framing used by
// the codec's reference test channel: the decimal interval count followed
// by "\n", then the raw offset bytes from EncodeIntervalsBody's tail.
func WriteTextFramedIntervals(w *bufio.Writer, q query.Container) error {
	if _, err := fmt.Fprintf(w, "%d\n", q.Size()); err != nil {
		return err
	}
	if _, err := w.Write(q.Encode()); err != nil {
		return err
	}
	return w.Flush()
}

// ReadTextFramedIntervals reads the textual preamble "{n}\n" followed by
// n*8 bytes of offsets, the inverse of WriteTextFramedIntervals.
func ReadTextFramedIntervals(r *bufio.Reader) (query.Container, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return query.Container{}, errors.E(err, "wire: reading interval count preamble")
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return query.Container{}, errors.Errorf("wire: malformed interval count %q", line)
	}
	buf := make([]byte, 8*n)
	if _, err := readFull(r, buf); err != nil {
		return query.Container{}, errors.E(err, "wire: reading interval offsets")
	}
	return query.Decode(buf)
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
