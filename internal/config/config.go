// Package config loads interpreter settings from blueprint.toml, with
// environment variable overrides for the install root and log level.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

const FileName = "blueprint.toml"

type Config struct {
	// Workers is the scheduler's fixed worker pool size. Zero means one
	// slot per logical CPU.
	Workers int `toml:"workers"`

	// Home points at the interpreter install root; std modules resolve
	// under <home>/std. Overridden by BLUEPRINT_HOME.
	Home string `toml:"home"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// Limits for natives that can run away.
	HTTPTimeoutSecs    int `toml:"http_timeout_secs"`
	ProcessTimeoutSecs int `toml:"process_timeout_secs"`

	// Root is the directory of the entry script; relative load() paths
	// resolve against it. Set by the runtime, not the file.
	Root string `toml:"-"`

	// Args are the script arguments exposed through the process native.
	Args []string `toml:"-"`
}

func Default() Config {
	return Config{
		Workers:            runtime.GOMAXPROCS(0),
		Home:               os.Getenv("BLUEPRINT_HOME"),
		LogLevel:           "info",
		HTTPTimeoutSecs:    30,
		ProcessTimeoutSecs: 60,
	}
}

// Load reads blueprint.toml from dir if present, walking up to the
// filesystem root. Missing files are not an error; the defaults apply.
func Load(dir string) (Config, error) {
	cfg := Default()

	path, ok := discover(dir)
	if !ok {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if home := os.Getenv("BLUEPRINT_HOME"); home != "" {
		cfg.Home = home
	}
	if cfg.Workers < 0 {
		return cfg, fmt.Errorf("%s: workers must not be negative", path)
	}
	return cfg, nil
}

func discover(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
