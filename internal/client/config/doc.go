// Package config loads runtime configuration for the vinocave client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the document store gRPC endpoint
//	-i int      online status check interval (seconds)
//	-f string   path of the local sqlite database
//	-t int      remote request timeout (seconds)
//	-l string   log level (debug, info, warn, error)
//	-n string   name given to a newly created cellar
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds. Missing keys keep their earlier value:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_path": "vinocave.db",
//	  "request_timeout": "12s",
//	  "log_level": "info",
//	  "owner_name": "Ma cave"
//	}
package config
