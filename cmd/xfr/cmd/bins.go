package cmd

import (
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"

	"github.com/grailbio/base/cmdutil"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/transferase/internal/cpgidx"
	"github.com/grailbio/transferase/internal/query"
	"github.com/grailbio/transferase/internal/wire"
)

func newCmdBins() *cmdline.Command {
	parent := &cmdline.Command{
		Name:  "bins",
		Short: "Save and inspect a genome-wide bins query container",
		Long: `A bins query tiles an entire genome into fixed-size windows, which can
produce a large offsets array. The save subcommand builds that array once
against a CpG index and writes it to a snappy-compressed cache file, so
repeated queries against the same genome and bin size can replay it instead
of rebuilding it.`,
	}
	parent.Children = []*cmdline.Command{newCmdBinsSave(), newCmdBinsShow()}
	return parent
}

func newCmdBinsSave() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "save",
		Short: "Build a bins query container and save it to a cache file",
	}
	indexDir := cmd.Flags.String("x", "", "Directory containing .cpg_idx index files")
	genome := cmd.Flags.String("g", "", "Genome assembly name (must have an index in -x)")
	binSize := cmd.Flags.Uint("size", 0, "Bin size in base pairs")
	out := cmd.Flags.String("o", "", "Path to write the compressed query cache file")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return runBinsSave(env, *indexDir, *genome, uint32(*binSize), *out)
	})
	return cmd
}

func runBinsSave(env *cmdline.Env, indexDir, genome string, binSize uint32, out string) error {
	ctx := context.Background()
	if indexDir == "" || genome == "" || binSize == 0 || out == "" {
		return fmt.Errorf("bins save: -x, -g, -size, and -o are all required")
	}
	idx, err := loadIndex(ctx, indexDir, genome)
	if err != nil {
		return fmt.Errorf("bins save: %w", err)
	}
	ranges, err := idx.TranslateBins(binSize)
	if err != nil {
		return fmt.Errorf("bins save: tiling %s into %d-bp bins: %w", genome, binSize, err)
	}
	q := query.Container{V: ranges}
	if err := ioutil.WriteFile(out, wire.EncodeIntervalsBodyCompressed(q), 0o644); err != nil {
		return fmt.Errorf("bins save: writing %s: %w", out, err)
	}
	fmt.Fprintf(env.Stdout, "bins save: wrote %d ranges for %s at %d bp to %s\n", q.Size(), genome, binSize, out)
	return nil
}

func newCmdBinsShow() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "show",
		Short:    "Print the range count and first/last ranges in a saved bins cache file",
		ArgsName: "path",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("bins show takes one cache file path argument, but got %v", argv)
		}
		return runBinsShow(env, argv[0])
	})
	return cmd
}

func runBinsShow(env *cmdline.Env, path string) error {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return fmt.Errorf("bins show: reading %s: %w", path, err)
	}
	q, err := wire.DecodeIntervalsBodyCompressed(buf)
	if err != nil {
		return fmt.Errorf("bins show: decoding %s: %w", path, err)
	}
	fmt.Fprintf(env.Stdout, "bins show: %d ranges\n", q.Size())
	if q.Size() > 0 {
		fmt.Fprintf(env.Stdout, "first: [%d, %d)\n", q.V[0].Start, q.V[0].Stop)
		fmt.Fprintf(env.Stdout, "last: [%d, %d)\n", q.V[q.Size()-1].Start, q.V[q.Size()-1].Stop)
	}
	return nil
}

func loadIndex(ctx context.Context, indexDir, genome string) (*cpgidx.Index, error) {
	metaPath := filepath.Join(indexDir, genome+".json")
	idxPath := filepath.Join(indexDir, genome+".cpg_idx")
	meta, err := cpgidx.LoadMetadata(ctx, metaPath)
	if err != nil {
		return nil, fmt.Errorf("loading index metadata for %s: %w", genome, err)
	}
	return cpgidx.LoadIndex(ctx, idxPath, meta)
}
