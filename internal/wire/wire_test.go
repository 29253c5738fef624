package wire

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/transferase/internal/levels"
	"github.com/grailbio/transferase/internal/query"
	"github.com/grailbio/transferase/internal/xfrerr"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Accession: "SRX012345", MethylomeSize: 12345, RequestType: IntervalsCountsCov}
	buf := h.Encode()
	require.Len(t, buf, HeaderSize)

	got, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHeaderTruncatesLongAccession(t *testing.T) {
	h := Header{Accession: "this accession is far longer than thirty two bytes wide", MethylomeSize: 1, RequestType: BinsCounts}
	buf := h.Encode()
	got, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Len(t, got.Accession, accessionWidth)
}

func TestDecodeHeaderRejectsBadLength(t *testing.T) {
	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	assert.Error(t, err)
}

func TestDecodeHeaderRejectsUnknownRequestType(t *testing.T) {
	buf := Header{Accession: "x", MethylomeSize: 1, RequestType: BinsCountsCov}.Encode()
	buf[accessionWidth+4] = 0xFF
	_, err := DecodeHeader(buf)
	assert.Error(t, err)
}

func TestIntervalsBodyRoundTrip(t *testing.T) {
	q := query.Container{V: []query.Range{{Start: 1000, Stop: 9000}, {Start: 9000, Stop: 9000}}}
	buf := EncodeIntervalsBody(q)
	got, err := DecodeIntervalsBody(buf)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestDecodeIntervalsBodyRejectsLengthMismatch(t *testing.T) {
	q := query.Container{V: []query.Range{{Start: 0, Stop: 1}}}
	buf := EncodeIntervalsBody(q)
	_, err := DecodeIntervalsBody(buf[:len(buf)-1])
	assert.Error(t, err)
}

func TestBinsBodyRoundTrip(t *testing.T) {
	buf := EncodeBinsBody(5000)
	got, err := DecodeBinsBody(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(5000), got)
}

func TestTextFramedIntervalsRoundTrip(t *testing.T) {
	q := query.Container{V: []query.Range{{Start: 1000, Stop: 9000}, {Start: 9000, Stop: 9000}, {Start: 0, Stop: 1000}}}

	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	require.NoError(t, WriteTextFramedIntervals(w, q))
	assert.Equal(t, "3\n", out.String()[:2])

	r := bufio.NewReader(&out)
	got, err := ReadTextFramedIntervals(r)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestIntervalsBodyCompressedRoundTrip(t *testing.T) {
	var ranges []query.Range
	for i := uint32(0); i < 2000; i++ {
		ranges = append(ranges, query.Range{Start: i, Stop: i + 1})
	}
	q := query.Container{V: ranges}

	buf := EncodeIntervalsBodyCompressed(q)
	got, err := DecodeIntervalsBodyCompressed(buf)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestResponseRoundTrip(t *testing.T) {
	rows := []levels.Level{{NMeth: 10, NUnmeth: 5}, {NMeth: 0, NUnmeth: 0}}
	buf := EncodeResponse(rows)
	kind, got, err := DecodeResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, xfrerr.OK, kind)
	assert.Equal(t, rows, got)
}

func TestResponseCoveredRoundTrip(t *testing.T) {
	rows := []levels.Covered{{NMeth: 10, NUnmeth: 5, NCovered: 3}}
	buf := EncodeResponseCovered(rows)
	kind, got, err := DecodeResponseCovered(buf)
	require.NoError(t, err)
	assert.Equal(t, xfrerr.OK, kind)
	assert.Equal(t, rows, got)
}

func TestErrorResponseDecodesWithNoElements(t *testing.T) {
	buf := EncodeErrorResponse(xfrerr.InvalidMethylomeName)
	kind, rows, err := DecodeResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, xfrerr.InvalidMethylomeName, kind)
	assert.Nil(t, rows)
}
