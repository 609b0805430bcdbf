package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	steg "github.com/yyyoichi/steg_zero"
	"github.com/yyyoichi/steg_zero/imgio"
)

type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	configPath string
	cfg        Config
	log        zerolog.Logger
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		log:    zerolog.New(stderr),
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stegzero",
		Short: "Hide messages in the low-order bits of lossless images",
		Long: `stegzero hides a message in the least significant bits of PNG, BMP,
TIFF or lossless WebP images, and reads it back.

Exit codes:
  0  success
  1  usage, I/O or image decoding error
  2  no message found
  3  message too large or image too small
  4  message corrupt or truncated
When several images are processed the highest code wins.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "config file (default $HOME/"+defaultConfigName+")")
	f.Int("bits", 1, "low-order bits used in every channel byte (1-8)")
	f.Bool("alpha", false, "use the alpha channel as a carrier too")
	f.Bool("checksum", false, "append a CRC-32 of the message")
	f.Bool("compress", false, "store the message zstd-compressed")
	f.Bool("golay", false, "protect the message with a Golay code")
	f.Int64("golay-seed", steg.DefaultShuffleSeed, "shuffle seed of the Golay code (implies --golay)")
	f.Int("workers", runtime.NumCPU(), "images processed in parallel")
	f.String("log-level", "info", "log level (debug, info, warn, error)")
	f.String("log-format", "console", "log format (console, json)")

	cmd.AddCommand(
		newWriteCmd(a),
		newReadCmd(a),
		newCapacityCmd(a),
		newInspectCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.applyFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	// batch workers log concurrently
	logger, err := newLogger(zerolog.SyncWriter(a.stderr), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, logger
	return nil
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("log level: %w", err)
	}
	var out io.Writer
	switch format {
	case "json":
		out = w
	case "console":
		out = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.TimeOnly}
	default:
		return zerolog.Logger{}, fmt.Errorf("unknown log format %q", format)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func (a *app) codec() (*steg.Steg, error) {
	return steg.New(a.cfg.options()...)
}

// readMessage reads the message file, or stdin for "-".
func (a *app) readMessage(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(a.stdin)
	}
	return os.ReadFile(path)
}

// siblingPath returns dir/base+suffix for the image at path.
func siblingPath(path, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(filepath.Dir(path), base+suffix)
}

func stegPath(path string, format imgio.Format) string {
	return siblingPath(path, ".steg"+imgio.Writable(format).Ext())
}
