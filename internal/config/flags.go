package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/patientkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   data directory for per-identity stores
//	-b string   store backend: file | sqlite
//	-o string   export directory
//	-l string   log level: debug | info | warn | error
//
// Only these flags are read from os.Args (see flagx.FilterArgs), so -c/-config
// and anything else on the command line are left to other loaders.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-b", "-o", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "store backend (file|sqlite)")
	fs.StringVar(&cfg.ExportDir, "o", cfg.ExportDir, "export directory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if cfg.Backend != BackendFile && cfg.Backend != BackendSQLite {
		panic("unknown backend: " + cfg.Backend)
	}
}
