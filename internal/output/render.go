// Package output renders a batch of methylation levels against a set of
// genomic ranges into the query server's response formats: raw counts,
// bedgraph, and wide-table dataframes. Rendering is a pure function of the
// query ranges (resolved to chromosome coordinates via the CpG index), the
// methylome names, and their computed levels.
package output

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/grailbio/transferase/internal/cpgidx"
	"github.com/grailbio/transferase/internal/levels"
	"github.com/grailbio/transferase/internal/query"
)

// naSentinel is the implementation-chosen value written in place of a
// methylation ratio when a range has no covered reads (n_meth+n_unmeth=0).
// "NA" round-trips unambiguously: it can never be confused with a valid
// floating-point ratio when reparsed.
const naSentinel = "NA"

// Format selects a rendering for a batch of levels.
type Format uint8

const (
	FormatCounts Format = iota
	FormatBedgraph
	FormatDataframe
	FormatDataframeScores
)

// ParseFormat maps a config/CLI string to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "counts":
		return FormatCounts, nil
	case "bedgraph":
		return FormatBedgraph, nil
	case "dataframe":
		return FormatDataframe, nil
	case "dataframe_scores":
		return FormatDataframeScores, nil
	default:
		return 0, errors.Errorf("output: unknown format %q", s)
	}
}

// resolveCoords maps every query range back to its genomic (chrom, start,
// stop) by looking up its first and last CpG offsets with idx.ChromAt.
// Ranges must originate from idx.
func resolveCoords(idx *cpgidx.Index, q query.Container) ([]string, []uint32, []uint32, error) {
	chroms := make([]string, len(q.V))
	starts := make([]uint32, len(q.V))
	stops := make([]uint32, len(q.V))
	for i, r := range q.V {
		chrom, pos, ok := idx.ChromAt(r.Start)
		if !ok {
			return nil, nil, nil, errors.Errorf("output: range %d offset %d outside index", i, r.Start)
		}
		chroms[i] = chrom
		starts[i] = pos
		var stopPos uint32
		if r.Stop == r.Start {
			stopPos = pos
		} else {
			_, stopPos, ok = idx.ChromAt(r.Stop - 1)
			if !ok {
				return nil, nil, nil, errors.Errorf("output: range %d offset %d outside index", i, r.Stop-1)
			}
			stopPos++
		}
		stops[i] = stopPos
	}
	return chroms, starts, stops, nil
}

// WriteCounts renders raw (n_meth, n_unmeth) pairs, one per line, tab
// separated.
func WriteCounts(w io.Writer, rows []levels.Level) error {
	for _, l := range rows {
		if _, err := fmt.Fprintf(w, "%d\t%d\n", l.NMeth, l.NUnmeth); err != nil {
			return errors.Wrap(err, "output: writing counts")
		}
	}
	return nil
}

// WriteBedgraph renders rows in UCSC bedgraph form: chrom, start, stop,
// and the methylation ratio m/(m+u), or naSentinel when m+u=0.
func WriteBedgraph(w io.Writer, idx *cpgidx.Index, q query.Container, rows []levels.Level) error {
	if len(rows) != q.Size() {
		return errors.Errorf("output: %d levels for %d ranges", len(rows), q.Size())
	}
	chroms, starts, stops, err := resolveCoords(idx, q)
	if err != nil {
		return err
	}
	for i, l := range rows {
		ratio := ratioString(l.NMeth, l.NUnmeth)
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", chroms[i], starts[i], stops[i], ratio); err != nil {
			return errors.Wrap(err, "output: writing bedgraph")
		}
	}
	return nil
}

// WriteDataframe renders a wide table: one row per range (chrom, start,
// stop), one column per methylome, holding raw (n_meth, n_unmeth) pairs
// packed as "m/u".
func WriteDataframe(w io.Writer, idx *cpgidx.Index, q query.Container, names []string, table [][]levels.Level) error {
	if err := writeHeader(w, names); err != nil {
		return err
	}
	chroms, starts, stops, err := resolveCoords(idx, q)
	if err != nil {
		return err
	}
	for i := range q.V {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d", chroms[i], starts[i], stops[i]); err != nil {
			return errors.Wrap(err, "output: writing dataframe row")
		}
		for _, col := range table {
			if _, err := fmt.Fprintf(w, "\t%d/%d", col[i].NMeth, col[i].NUnmeth); err != nil {
				return errors.Wrap(err, "output: writing dataframe cell")
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return errors.Wrap(err, "output: writing dataframe row terminator")
		}
	}
	return nil
}

// WriteDataframeScores renders the same layout as WriteDataframe but with
// each cell replaced by its methylation ratio (or naSentinel), omitting
// raw counts.
func WriteDataframeScores(w io.Writer, idx *cpgidx.Index, q query.Container, names []string, table [][]levels.Level) error {
	if err := writeHeader(w, names); err != nil {
		return err
	}
	chroms, starts, stops, err := resolveCoords(idx, q)
	if err != nil {
		return err
	}
	for i := range q.V {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d", chroms[i], starts[i], stops[i]); err != nil {
			return errors.Wrap(err, "output: writing dataframe_scores row")
		}
		for _, col := range table {
			if _, err := fmt.Fprintf(w, "\t%s", ratioString(col[i].NMeth, col[i].NUnmeth)); err != nil {
				return errors.Wrap(err, "output: writing dataframe_scores cell")
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return errors.Wrap(err, "output: writing dataframe_scores row terminator")
		}
	}
	return nil
}

func writeHeader(w io.Writer, names []string) error {
	if _, err := io.WriteString(w, "chrom\tstart\tstop"); err != nil {
		return errors.Wrap(err, "output: writing header")
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "\t%s", name); err != nil {
			return errors.Wrap(err, "output: writing header column")
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func ratioString(nMeth, nUnmeth uint32) string {
	total := nMeth + nUnmeth
	if total == 0 {
		return naSentinel
	}
	return fmt.Sprintf("%.6f", float64(nMeth)/float64(total))
}
