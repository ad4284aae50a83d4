package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/filevault/internal/flagx"
)

// GlobalFlags are owned by this package; command parsers should drop them
// with flagx.StripArgs.
var GlobalFlags = []string{"-s", "-t", "-c", "-config"}

// parseFlags populates selected Config fields from command-line flags.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("filevault", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "s", cfg.ServerURL, "base URL of the FileVault API")
	fs.DurationVar(&cfg.Timeout, "t", cfg.Timeout, "request timeout")

	return fs.Parse(flagx.FilterArgs(args, []string{"-s", "-t"}))
}
