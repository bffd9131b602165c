package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/daybook/internal/flagx"
)

// parseFlags populates Config fields from command-line flags (see the
// package doc for the list). Unknown flags are filtered out with
// flagx.FilterArgs so other loaders can share os.Args. Parse errors panic.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-i", "-s", "-b", "-r", "-db", "-l", "-d", "-o", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "access token")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	syncInterval := fs.Int("s", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")
	debounce := fs.Int("b", int(cfg.SyncDebounce.Milliseconds()), "sync debounce window (in milliseconds)")
	rpcTimeout := fs.Int("r", int(cfg.RPCTimeout.Seconds()), "remote call timeout (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file path")
	fs.StringVar(&cfg.DebugAddr, "d", cfg.DebugAddr, "debug HTTP address")
	fs.BoolVar(&cfg.ForceOffline, "o", cfg.ForceOffline, "forced offline mode")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
	cfg.SyncDebounce = time.Duration(*debounce) * time.Millisecond
	cfg.RPCTimeout = time.Duration(*rpcTimeout) * time.Second
}
