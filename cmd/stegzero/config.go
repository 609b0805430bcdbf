package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/pflag"
	steg "github.com/yyyoichi/steg_zero"
	"gopkg.in/yaml.v3"
)

const defaultConfigName = ".stegzero.yaml"

// Config holds the settings shared by every command. Values come from the
// config file first and command-line flags override them.
type Config struct {
	BitsPerChannel int    `yaml:"bits_per_channel"`
	Alpha          bool   `yaml:"alpha"`
	Checksum       bool   `yaml:"checksum"`
	Compress       bool   `yaml:"compress"`
	Golay          bool   `yaml:"golay"`
	GolaySeed      int64  `yaml:"golay_seed"`
	Workers        int    `yaml:"workers"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
}

func defaultConfig() Config {
	return Config{
		BitsPerChannel: 1,
		GolaySeed:      steg.DefaultShuffleSeed,
		Workers:        runtime.NumCPU(),
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// loadConfig reads the YAML file at path over the defaults. An empty path
// means $HOME/.stegzero.yaml, which may be absent.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	optional := path == ""
	if optional {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, defaultConfigName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyFlags overrides cfg with every flag set on the command line.
func (c *Config) applyFlags(flags *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err == nil && flags.Changed(name) {
			err = apply()
		}
	}
	set("bits", func() (e error) { c.BitsPerChannel, e = flags.GetInt("bits"); return })
	set("alpha", func() (e error) { c.Alpha, e = flags.GetBool("alpha"); return })
	set("checksum", func() (e error) { c.Checksum, e = flags.GetBool("checksum"); return })
	set("compress", func() (e error) { c.Compress, e = flags.GetBool("compress"); return })
	set("golay", func() (e error) { c.Golay, e = flags.GetBool("golay"); return })
	set("golay-seed", func() (e error) {
		c.Golay = true
		c.GolaySeed, e = flags.GetInt64("golay-seed")
		return
	})
	set("workers", func() (e error) { c.Workers, e = flags.GetInt("workers"); return })
	set("log-level", func() (e error) { c.LogLevel, e = flags.GetString("log-level"); return })
	set("log-format", func() (e error) { c.LogFormat, e = flags.GetString("log-format"); return })
	return err
}

func (c Config) validate() error {
	if c.BitsPerChannel < 1 || c.BitsPerChannel > 8 {
		return fmt.Errorf("%w: %d", steg.ErrBitsPerChannel, c.BitsPerChannel)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

func (c Config) options() []steg.Option {
	opts := []steg.Option{steg.WithBitsPerChannel(c.BitsPerChannel)}
	if c.Alpha {
		opts = append(opts, steg.WithAlpha())
	}
	if c.Checksum {
		opts = append(opts, steg.WithChecksum())
	}
	if c.Compress {
		opts = append(opts, steg.WithCompression())
	}
	if c.Golay {
		opts = append(opts, steg.WithGolay(c.GolaySeed))
	}
	return opts
}
