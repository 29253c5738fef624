package cmd

import (
	"fmt"
	"os"

	"github.com/grailbio/base/cmdutil"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/transferase/internal/config"
)

func newCmdConfig() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "config",
		Short:    "Print or initialize the client configuration file",
		ArgsName: "path",
		Long: `Without -init, prints the configuration that would be loaded from path
(or the default configuration if path does not exist). With -init, writes
the default configuration to path, failing if it already exists unless
-force is given.`,
	}
	initFlag := cmd.Flags.Bool("init", false, "Write a default configuration file instead of printing one")
	forceFlag := cmd.Flags.Bool("force", false, "With -init, overwrite an existing file")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("config takes one path argument, but got %v", argv)
		}
		path := argv[0]
		if *initFlag {
			return initConfig(path, *forceFlag)
		}
		return printConfig(env, path)
	})
	return cmd
}

func initConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists; use -force to overwrite", path)
		}
	}
	return config.Save(config.Default(), path)
}

func printConfig(env *cmdline.Env, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		cfg = config.Default()
		fmt.Fprintf(env.Stderr, "warning: %v; showing default configuration\n", err)
	}
	fmt.Fprintf(env.Stdout, "hostname = %q\n", cfg.Hostname)
	fmt.Fprintf(env.Stdout, "port = %d\n", cfg.Port)
	fmt.Fprintf(env.Stdout, "index_dir = %q\n", cfg.IndexDir)
	fmt.Fprintf(env.Stdout, "log_level = %q\n", cfg.LogLevel)
	fmt.Fprintf(env.Stdout, "output_format = %q\n", cfg.OutputFormat)
	fmt.Fprintf(env.Stdout, "methylomes_metadata = %q\n", cfg.MethylomesMeta)
	return nil
}
