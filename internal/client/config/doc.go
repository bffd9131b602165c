// Package config loads runtime configuration for the daybook client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c / -config or the
//     DAYBOOK_CONFIG environment variable.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-t string   access token sent with every remote call
//	-i int      online status check interval (seconds)
//	-s int      periodic sync interval (seconds)
//	-b int      sync debounce window after local edits (milliseconds)
//	-r int      timeout of a single remote call (seconds)
//	-db string  path of the local SQLite database
//	-l string   path of the log file
//	-d string   address of the debug HTTP server (off when empty)
//	-o          start in forced offline mode
//	-v          verbose (debug) logging
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "3s" or integer
// nanoseconds. Keys that are absent keep their previous value:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "access_token": "eyJhbGciOi...",
//	  "online_check_interval": "3s",
//	  "sync_interval": "1m",
//	  "sync_debounce": "1s",
//	  "rpc_timeout": "15s",
//	  "database_path": "daybook.db",
//	  "log_file": "daybook.log",
//	  "debug_addr": "127.0.0.1:8081"
//	}
package config
