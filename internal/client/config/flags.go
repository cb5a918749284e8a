package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/vinocave/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Only the flags defined here are parsed; the rest of os.Args is left to
// other consumers (see flagx.ParseKnown). Invalid values panic.
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "local database file")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.OwnerName, "n", cfg.OwnerName, "name of a newly created cellar")

	if err := flagx.ParseKnown(fs, os.Args[1:]); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
