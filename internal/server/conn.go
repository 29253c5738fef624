package server

import (
	"context"
	"io"
	"net"

	"github.com/grailbio/base/log"
	"github.com/grailbio/transferase/internal/query"
	"github.com/grailbio/transferase/internal/wire"
	"github.com/grailbio/transferase/internal/xfrerr"
)

// handleConn services one client connection: it reads requests until the
// client closes the connection or an unrecoverable framing error occurs,
// dispatching each to the methylome set and writing back a response.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	s.logEvent("connection opened: " + remote)
	defer s.logEvent("connection closed: " + remote)

	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.serveOneRequest(ctx, conn); err != nil {
			if err != io.EOF {
				log.Printf("server: connection %s: %v", remote, err)
				s.logEvent("error on " + remote + ": " + err.Error())
			}
			return
		}
	}
}

func (s *Server) serveOneRequest(ctx context.Context, conn net.Conn) error {
	headerBuf := make([]byte, wire.HeaderSize)
	if _, err := io.ReadFull(conn, headerBuf); err != nil {
		return err
	}
	hdr, err := wire.DecodeHeader(headerBuf)
	if err != nil {
		return writeErrorResponse(conn, xfrerr.InvalidRequest)
	}

	q, qerr := s.readBody(conn, hdr)
	if qerr != nil {
		if _, ok := qerr.(*xfrerr.Error); ok {
			return writeErrorResponse(conn, xfrerr.KindOf(qerr))
		}
		return qerr // short read or similar connection-level failure
	}

	if err := validateRanges(q, hdr.MethylomeSize); err != nil {
		return writeErrorResponse(conn, xfrerr.InvalidInterval)
	}

	if hdr.RequestType.Covered() {
		row := s.set.GetLevelsCovered(ctx, []string{hdr.Accession}, q, hdr.MethylomeSize)[0]
		if row.Err != nil {
			return writeErrorResponse(conn, xfrerr.KindOf(row.Err))
		}
		_, err = conn.Write(wire.EncodeResponseCovered(row.Covered))
		return err
	}
	row := s.set.GetLevels(ctx, []string{hdr.Accession}, q, hdr.MethylomeSize)[0]
	if row.Err != nil {
		return writeErrorResponse(conn, xfrerr.KindOf(row.Err))
	}
	_, err = conn.Write(wire.EncodeResponse(row.Levels))
	return err
}

// readBody parses the request body that follows the fixed header,
// resolving a bins-form request into CpG-offset ranges against the
// accession's genome index.
func (s *Server) readBody(conn net.Conn, hdr wire.Header) (query.Container, error) {
	if hdr.RequestType.IsBins() {
		body := make([]byte, 4)
		if _, err := io.ReadFull(conn, body); err != nil {
			return query.Container{}, err
		}
		binSize, err := wire.DecodeBinsBody(body)
		if err != nil {
			return query.Container{}, xfrerr.New(xfrerr.InvalidRequest, "malformed bin size")
		}
		idx, ok := s.set.IndexFor(hdr.Accession)
		if !ok {
			return query.Container{}, xfrerr.New(xfrerr.InvalidMethylomeName, "unknown methylome "+hdr.Accession)
		}
		q, err := query.NewFromBins(idx, binSize)
		if err != nil {
			return query.Container{}, xfrerr.Wrap(xfrerr.InvalidInterval, err, "invalid bin size")
		}
		return q, nil
	}

	nBuf := make([]byte, 4)
	if _, err := io.ReadFull(conn, nBuf); err != nil {
		return query.Container{}, err
	}
	n := le32(nBuf)
	rest := make([]byte, 8*n)
	if _, err := io.ReadFull(conn, rest); err != nil {
		return query.Container{}, err
	}
	q, err := query.Decode(rest)
	if err != nil {
		return query.Container{}, xfrerr.Wrap(xfrerr.InvalidInterval, err, "malformed intervals body")
	}
	return q, nil
}

// validateRanges rejects any range reaching past methylomeSize, the value
// the client declared in the header for the methylome it expects to
// query; this catches a stale or wrong methylome_size before it ever
// reaches levels.Compute's slicing.
func validateRanges(q query.Container, methylomeSize uint32) error {
	for _, r := range q.V {
		if r.Stop > methylomeSize {
			return xfrerr.New(xfrerr.InvalidInterval, "range exceeds declared methylome size")
		}
	}
	return nil
}

func writeErrorResponse(w io.Writer, kind xfrerr.Kind) error {
	_, err := w.Write(wire.EncodeErrorResponse(kind))
	return err
}

func le32(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16 | int(b[3])<<24
}
