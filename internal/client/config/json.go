package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vinocave/internal/flagx"
	"github.com/dmitrijs2005/vinocave/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Pointer fields tell an absent key from a zero value.
type JsonConfig struct {
	ServerEndpointAddr  *string         `json:"server_endpoint_addr"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	DatabasePath        *string         `json:"database_path"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	LogLevel            *string         `json:"log_level"`
	OwnerName           *string         `json:"owner_name"`
}

// parseJson overlays Config with the keys present in the JSON file named by
// -c or -config. Without such a flag it does nothing. Read or decode errors
// panic.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setIf(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setIf(&cfg.DatabasePath, jc.DatabasePath)
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.OwnerName, jc.OwnerName)
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
