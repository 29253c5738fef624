package methylomeset

import (
	"context"
	"fmt"

	"github.com/grailbio/base/log"
	"github.com/grailbio/transferase/internal/levels"
	"github.com/grailbio/transferase/internal/query"
	"github.com/grailbio/transferase/internal/xfrerr"
)

// Row is one methylome's result in a batched levels query: either Levels or
// Covered is populated, depending on which variant was requested, and Err
// is set if this methylome failed to resolve or load. A failure on one
// name does not prevent the others in the same batch from being computed.
type Row struct {
	Name    string
	Levels  []levels.Level
	Covered []levels.Covered
	Err     error
}

// GetLevels resolves each of names in turn and computes Level sums over q.
// One Row is returned per name, in the same order; a failed lookup or load
// is reported in that row's Err without aborting the rest of the batch. If
// expectedSize is nonzero, it is checked against each resolved entry's
// actual CpG count (methylome.Data.Size()) before computing levels, and a
// mismatch is reported as xfrerr.InvalidInterval rather than risking an
// out-of-bounds slice in levels.Compute; pass 0 to skip the check (e.g. a
// batch spanning methylomes of differing, and therefore uncheckable, size).
func (s *Set) GetLevels(ctx context.Context, names []string, q query.Container, expectedSize uint32) []Row {
	rows := make([]Row, len(names))
	for i, name := range names {
		entry, release, err := s.Get(ctx, name)
		if err != nil {
			log.Error.Printf("methylomeset: get_levels: %s: %v", name, err)
			rows[i] = Row{Name: name, Err: err}
			continue
		}
		if err := checkSize(entry, expectedSize); err != nil {
			rows[i] = Row{Name: name, Err: err}
			release()
			continue
		}
		rows[i] = Row{Name: name, Levels: levels.Compute(entry.Data, q)}
		release()
	}
	return rows
}

// GetLevelsCovered is the covered-site variant of GetLevels.
func (s *Set) GetLevelsCovered(ctx context.Context, names []string, q query.Container, expectedSize uint32) []Row {
	rows := make([]Row, len(names))
	for i, name := range names {
		entry, release, err := s.Get(ctx, name)
		if err != nil {
			log.Error.Printf("methylomeset: get_levels: %s: %v", name, err)
			rows[i] = Row{Name: name, Err: err}
			continue
		}
		if err := checkSize(entry, expectedSize); err != nil {
			rows[i] = Row{Name: name, Err: err}
			release()
			continue
		}
		rows[i] = Row{Name: name, Covered: levels.ComputeCovered(entry.Data, q)}
		release()
	}
	return rows
}

// checkSize reports an error if expectedSize is nonzero and does not match
// entry's actual CpG count.
func checkSize(entry *Entry, expectedSize uint32) error {
	if expectedSize == 0 {
		return nil
	}
	if actual := uint32(entry.Data.Size()); actual != expectedSize {
		return xfrerr.New(xfrerr.InvalidInterval,
			fmt.Sprintf("declared methylome_size %d does not match actual size %d", expectedSize, actual))
	}
	return nil
}
