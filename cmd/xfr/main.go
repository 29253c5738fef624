// Command xfr is the methylome query client/server CLI: it loads a CpG
// index registry and methylome catalog, serves the wire protocol, and
// offers client-side config and local index/methylome check subcommands.
package main

import (
	"github.com/grailbio/base/grail"
	"github.com/grailbio/transferase/cmd/xfr/cmd"
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	cmd.Run()
}
