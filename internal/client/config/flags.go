package config

import (
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/colsync/internal/flagx"
)

var (
	valueFlags = []string{"-s", "-u", "-t", "-d", "-l", "-r", "-snapshot"}
	boolFlags  = []string{"-cached"}
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-s string    annotation service URL
//	-u string    user name
//	-t string    transcription source URN
//	-d string    local database path
//	-l string    log level
//	-r float     requests per second, 0 for unlimited
//	-snapshot    transcription file for cached representations
//	-cached      upload cached representations
//
// Arguments it does not know, such as -c, are filtered out first with
// flagx.FilterArgs.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, valueFlags, boolFlags)

	fs := flag.NewFlagSet("colsync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServiceURL, "s", cfg.ServiceURL, "annotation service url")
	fs.StringVar(&cfg.User, "u", cfg.User, "user name")
	fs.StringVar(&cfg.Source, "t", cfg.Source, "transcription source urn")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "local database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.Float64Var(&cfg.RequestRate, "r", cfg.RequestRate, "requests per second, 0 for unlimited")
	fs.StringVar(&cfg.SnapshotFile, "snapshot", cfg.SnapshotFile, "transcription file for cached representations")
	fs.BoolVar(&cfg.CachedRepresentation, "cached", cfg.CachedRepresentation, "upload cached representations")

	return fs.Parse(args)
}

func osArgs() []string {
	if len(os.Args) < 2 {
		return nil
	}
	return os.Args[1:]
}
