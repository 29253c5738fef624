// Package config loads and saves the client's TOML configuration file:
// the server to connect to, where CpG indexes live, and how to render
// results. See spec.md §6.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/grailbio/base/errors"
)

// Config is the on-disk client configuration.
type Config struct {
	Hostname       string `toml:"hostname"`
	Port           int    `toml:"port"`
	IndexDir       string `toml:"index_dir"`
	LogLevel       string `toml:"log_level"`
	OutputFormat   string `toml:"output_format"`
	MethylomesMeta string `toml:"methylomes_metadata"`
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		Hostname:     "localhost",
		Port:         5000,
		LogLevel:     "info",
		OutputFormat: "counts",
	}
}

// Load reads and parses the TOML config file at path.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.E(err, "config: reading", path)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating path's parent directory and
// the file itself (or truncating it if it already exists).
func Save(cfg Config, path string) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.E(err, "config: creating parent directory", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.E(err, "config: creating", path)
	}
	defer func() {
		if err2 := f.Close(); err == nil && err2 != nil {
			err = err2
		}
	}()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return errors.E(err, "config: encoding", path)
	}
	return nil
}

// SelfPath returns the absolute path to the currently running binary, used
// to locate bundled resources (e.g. a default index directory) relative to
// the installed executable rather than the working directory.
func SelfPath() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", errors.E(err, "config: locating running executable")
	}
	return path, nil
}
