package server

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/transferase/internal/catalog"
	"github.com/grailbio/transferase/internal/cpgidx"
	"github.com/grailbio/transferase/internal/methylome"
	"github.com/grailbio/transferase/internal/methylomeset"
	"github.com/grailbio/transferase/internal/query"
	"github.com/grailbio/transferase/internal/wire"
	"github.com/grailbio/transferase/internal/xfrerr"
)

// newTestServer builds a Server backed by real methylome files in a
// temporary directory, so the test exercises the same disk-loading path
// production traffic does.
func newTestServer(t *testing.T, counts []methylome.Count) *Server {
	ctx := context.Background()
	idx, err := cpgidx.New("hg38", []cpgidx.Chrom{{Name: "chr1", Length: 1000}}, [][]uint32{{10, 20, 30, 40}})
	require.NoError(t, err)
	registry := cpgidx.NewRegistry()
	registry.Add(idx)

	cat, err := catalog.FromGenomeMap(map[string][]string{"hg38": {"SRX1"}})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, methylome.SaveData(ctx, filepath.Join(dir, "SRX1.mcount"), &methylome.Data{Counts: counts}))
	require.NoError(t, methylome.SaveMetadata(ctx, filepath.Join(dir, "SRX1.json"), methylome.Metadata{
		IndexHash: idx.Hash(),
		Assembly:  "hg38",
		NCpGs:     uint32(len(counts)),
	}))

	set := methylomeset.New(dir, 4, registry, cat)
	return New(set)
}

func dialedServer(t *testing.T, srv *Server) (client net.Conn, shutdown func()) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Serve(ctx, ln)
	client, err = net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	return client, func() {
		cancel()
		client.Close()
	}
}

func TestServeIntervalsRequestRoundTrip(t *testing.T) {
	srv := newTestServer(t, []methylome.Count{
		{NMeth: 1, NUnmeth: 1}, {NMeth: 2, NUnmeth: 0}, {NMeth: 0, NUnmeth: 3}, {NMeth: 5, NUnmeth: 5},
	})
	client, shutdown := dialedServer(t, srv)
	defer shutdown()

	hdr := wire.Header{Accession: "SRX1", MethylomeSize: 4, RequestType: wire.IntervalsCounts}
	require.NoError(t, writeAll(client, hdr.Encode()))

	q := query.Container{V: []query.Range{{Start: 0, Stop: 2}, {Start: 2, Stop: 4}}}
	require.NoError(t, writeAll(client, wire.EncodeIntervalsBody(q)))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp := make([]byte, 4+8*2)
	_, err := io.ReadFull(client, resp)
	require.NoError(t, err)

	kind, rows, err := wire.DecodeResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, xfrerr.OK, kind)
	require.Len(t, rows, 2)
	assert.Equal(t, uint32(3), rows[0].NMeth)
	assert.Equal(t, uint32(1), rows[0].NUnmeth)
	assert.Equal(t, uint32(5), rows[1].NMeth)
	assert.Equal(t, uint32(8), rows[1].NUnmeth)
}

func TestServeCoveredRequestRoundTrip(t *testing.T) {
	srv := newTestServer(t, []methylome.Count{
		{NMeth: 1, NUnmeth: 0}, {NMeth: 0, NUnmeth: 0}, {NMeth: 0, NUnmeth: 2}, {NMeth: 0, NUnmeth: 0},
	})
	client, shutdown := dialedServer(t, srv)
	defer shutdown()

	hdr := wire.Header{Accession: "SRX1", MethylomeSize: 4, RequestType: wire.IntervalsCountsCov}
	require.NoError(t, writeAll(client, hdr.Encode()))
	q := query.Container{V: []query.Range{{Start: 0, Stop: 4}}}
	require.NoError(t, writeAll(client, wire.EncodeIntervalsBody(q)))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp := make([]byte, 4+12)
	_, err := io.ReadFull(client, resp)
	require.NoError(t, err)

	kind, rows, err := wire.DecodeResponseCovered(resp)
	require.NoError(t, err)
	assert.Equal(t, xfrerr.OK, kind)
	require.Len(t, rows, 1)
	assert.Equal(t, uint32(2), rows[0].NCovered)
}

func TestServeRejectsRangeBeyondDeclaredSize(t *testing.T) {
	srv := newTestServer(t, []methylome.Count{{NMeth: 1, NUnmeth: 1}})
	client, shutdown := dialedServer(t, srv)
	defer shutdown()

	hdr := wire.Header{Accession: "SRX1", MethylomeSize: 1, RequestType: wire.IntervalsCounts}
	require.NoError(t, writeAll(client, hdr.Encode()))
	q := query.Container{V: []query.Range{{Start: 0, Stop: 5}}}
	require.NoError(t, writeAll(client, wire.EncodeIntervalsBody(q)))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp := make([]byte, 4)
	_, err := io.ReadFull(client, resp)
	require.NoError(t, err)
	assert.Equal(t, xfrerr.InvalidInterval, xfrerr.Kind(binary.LittleEndian.Uint32(resp)))
}

func TestServeRejectsDeclaredSizeLargerThanActual(t *testing.T) {
	// The client declares a methylome_size of 5, but the methylome on disk
	// only has 1 CpG site. A range within the declared size but beyond the
	// real data (here, [0, 5)) must be rejected before it ever reaches
	// levels.Compute, rather than slicing out of bounds.
	srv := newTestServer(t, []methylome.Count{{NMeth: 1, NUnmeth: 1}})
	client, shutdown := dialedServer(t, srv)
	defer shutdown()

	hdr := wire.Header{Accession: "SRX1", MethylomeSize: 5, RequestType: wire.IntervalsCounts}
	require.NoError(t, writeAll(client, hdr.Encode()))
	q := query.Container{V: []query.Range{{Start: 0, Stop: 5}}}
	require.NoError(t, writeAll(client, wire.EncodeIntervalsBody(q)))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp := make([]byte, 4)
	_, err := io.ReadFull(client, resp)
	require.NoError(t, err)
	assert.Equal(t, xfrerr.InvalidInterval, xfrerr.Kind(binary.LittleEndian.Uint32(resp)))
}

func TestServeRejectsUnknownMethylomeName(t *testing.T) {
	srv := newTestServer(t, []methylome.Count{{NMeth: 1, NUnmeth: 1}})
	client, shutdown := dialedServer(t, srv)
	defer shutdown()

	hdr := wire.Header{Accession: "unknown-name", MethylomeSize: 1, RequestType: wire.IntervalsCounts}
	require.NoError(t, writeAll(client, hdr.Encode()))
	q := query.Container{V: []query.Range{{Start: 0, Stop: 1}}}
	require.NoError(t, writeAll(client, wire.EncodeIntervalsBody(q)))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp := make([]byte, 4)
	_, err := io.ReadFull(client, resp)
	require.NoError(t, err)
	assert.Equal(t, xfrerr.InvalidMethylomeName, xfrerr.Kind(binary.LittleEndian.Uint32(resp)))
}

func writeAll(conn net.Conn, buf []byte) error {
	_, err := conn.Write(buf)
	return err
}
