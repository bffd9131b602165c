package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvGRPCAddr    = "DAYBOOK_GRPC_ADDR"
	EnvDatabaseDSN = "DAYBOOK_DATABASE_DSN"
	EnvSecretKey   = "DAYBOOK_SECRET_KEY"
	EnvTokenTTL    = "DAYBOOK_TOKEN_TTL"
)

// envFile is the dotenv file loaded before reading the environment. Variables
// already set in the process environment win over the file.
var envFile = ".env"

// parseEnv overlays Config with DAYBOOK_* environment variables. A missing
// .env file is not an error; a malformed one or a bad TTL panics.
func parseEnv(config *Config) {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	}

	if v, ok := os.LookupEnv(EnvGRPCAddr); ok && v != "" {
		config.EndpointAddrGRPC = v
	}
	if v, ok := os.LookupEnv(EnvDatabaseDSN); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv(EnvSecretKey); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv(EnvTokenTTL); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.AccessTokenValidityDuration = d
	}
}
