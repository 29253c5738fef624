package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/grailbio/base/cmdutil"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/transferase/internal/methylome"
)

func newCmdCheck() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "check",
		Short: "Verify a CpG index and a set of methylome files load cleanly",
	}
	indexDir := cmd.Flags.String("x", "", "Directory containing .cpg_idx index files")
	genome := cmd.Flags.String("g", "", "Genome assembly name to check (must have an index in -x)")
	methDir := cmd.Flags.String("d", "", "Directory containing methylome data/metadata files")
	names := cmd.Flags.String("m", "", "Comma-separated methylome names to check against -d")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return runCheck(env, *indexDir, *genome, *methDir, splitNonEmpty(*names))
	})
	return cmd
}

func runCheck(env *cmdline.Env, indexDir, genome, methDir string, names []string) error {
	ctx := context.Background()
	if indexDir == "" || genome == "" {
		return fmt.Errorf("check: -x and -g are required")
	}
	idx, err := loadIndex(ctx, indexDir, genome)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}
	fmt.Fprintf(env.Stdout, "index %s: %d CpGs across %d chromosomes\n", genome, idx.NCpGs(), len(idx.Chromosomes()))

	for _, name := range names {
		dataPath := filepath.Join(methDir, name+".mcount")
		methMetaPath := filepath.Join(methDir, name+".json")
		data, _, err := methylome.Load(ctx, dataPath, methMetaPath, idx.Hash(), idx.NCpGs())
		if err != nil {
			return fmt.Errorf("check: loading methylome %s: %w", name, err)
		}
		fmt.Fprintf(env.Stdout, "methylome %s: %d CpGs ok\n", name, data.Size())
	}
	return nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
