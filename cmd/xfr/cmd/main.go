// Package cmd implements the xfr command-line tree: config, check, server,
// and bins subcommands over a v.io/x/lib/cmdline command tree, matching the
// teacher's cmd/bio-pamtool/cmd layout.
package cmd

import (
	"log"

	"v.io/x/lib/cmdline"
)

// Run parses argv and dispatches to the matched subcommand. It is the sole
// entry point called from cmd/xfr/main.go.
func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(&cmdline.Command{
		Name:  "xfr",
		Short: "Query server and client for indexed methylome range sums",
		Long: `Command xfr serves and queries per-CpG-site methylation count data
over a small binary protocol: a CpG index maps genomic coordinates to
linear offsets, and a bounded in-memory cache of methylomes answers
range-sum requests against those offsets.`,
		Children: []*cmdline.Command{
			newCmdConfig(),
			newCmdCheck(),
			newCmdServer(),
			newCmdBins(),
		},
	})
}
