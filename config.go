package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// hostConfig is the optional -config file; flags given on the command line
// take precedence over it.
//
//	timeout = "2s"
//	trace = false
//
//	[limits]
//	heap = 1048576  # words
//	stack = 4096    # values
//	frames = 256    # calls
type hostConfig struct {
	Timeout string      `toml:"timeout"`
	Trace   bool        `toml:"trace"`
	Limits  limitConfig `toml:"limits"`
}

type limitConfig struct {
	Heap   *uint `toml:"heap"`
	Stack  *uint `toml:"stack"`
	Frames *uint `toml:"frames"`
}

func loadConfig(path string) (cfg hostConfig, timeout time.Duration, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, 0, fmt.Errorf("cannot read %s: %w", path, err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, 0, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, 0, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}
	if cfg.Timeout != "" {
		timeout, err = time.ParseDuration(cfg.Timeout)
		if err != nil {
			return cfg, 0, fmt.Errorf("invalid timeout in %s: %w", path, err)
		}
	}
	return cfg, timeout, nil
}
