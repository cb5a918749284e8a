package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vinocave/internal/flagx"
	"github.com/dmitrijs2005/vinocave/internal/timex"
)

// JsonConfig is a DTO used only for reading JSON configuration files.
// Durations use timex.Duration, so both "15m" and integer nanoseconds parse.
// Pointer fields tell an absent key from a zero value.
type JsonConfig struct {
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	MetricsAddr                 *string         `json:"metrics_addr"`
	LogLevel                    *string         `json:"log_level"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
}

// parseJson overlays config with the keys present in the JSON file named by
// -c or -config. Without such a flag nothing is loaded. Read or decode
// errors panic.
func parseJson(config *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var c JsonConfig
	if err := json.Unmarshal(file, &c); err != nil {
		panic(err)
	}

	setIf(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setIf(&config.MetricsAddr, c.MetricsAddr)
	setIf(&config.LogLevel, c.LogLevel)
	setIf(&config.S3RootUser, c.S3RootUser)
	setIf(&config.S3RootPassword, c.S3RootPassword)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
