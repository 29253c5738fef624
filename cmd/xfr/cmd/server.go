package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/grailbio/base/cmdutil"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/transferase/internal/catalog"
	"github.com/grailbio/transferase/internal/cpgidx"
	"github.com/grailbio/transferase/internal/methylomeset"
	"github.com/grailbio/transferase/internal/server"
)

func newCmdServer() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "server",
		Short: "Serve methylome range-sum queries over the wire protocol",
	}
	addr := cmd.Flags.String("addr", ":5000", "Address to listen on")
	indexDir := cmd.Flags.String("x", "", "Directory of .cpg_idx index files, one per genome")
	methDir := cmd.Flags.String("d", "", "Directory of methylome data/metadata files")
	catalogPath := cmd.Flags.String("c", "", "Path to the methylome catalog JSON document")
	capacity := cmd.Flags.Int("capacity", 32, "Maximum number of methylomes held resident at once")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return runServer(env, *addr, *indexDir, *methDir, *catalogPath, *capacity)
	})
	return cmd
}

func runServer(env *cmdline.Env, addr, indexDir, methDir, catalogPath string, capacity int) error {
	ctx := context.Background()
	if indexDir == "" || methDir == "" || catalogPath == "" {
		return fmt.Errorf("server: -x, -d, and -c are all required")
	}

	registry := cpgidx.NewRegistry()
	if err := registry.LoadDir(ctx, indexDir, filepath.Glob); err != nil {
		return fmt.Errorf("server: loading index directory %s: %w", indexDir, err)
	}

	cat, err := catalog.Load(ctx, catalogPath)
	if err != nil {
		return fmt.Errorf("server: loading catalog %s: %w", catalogPath, err)
	}

	set := methylomeset.New(methDir, capacity, registry, cat)
	fmt.Fprintf(env.Stdout, "server: %d genomes, %d methylomes in catalog, cache capacity %d\n",
		cat.NGenomes(), cat.NMethylomes(), capacity)

	return server.ListenAndServe(ctx, addr, set)
}
