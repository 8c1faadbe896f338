package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/joho/godotenv"
)

const (
	EnvChunkSize = "FENCRYPT_CHUNK_SIZE"
	EnvTempDir   = "FENCRYPT_TMP_DIR"
	EnvLogLevel  = "FENCRYPT_LOG_LEVEL"
	EnvDebug     = "FENCRYPT_DEBUG"
)

// envFile is the dotenv file loaded into the environment when present.
var envFile = ".env"

// parseEnv overlays Config with FENCRYPT_* variables. Values from envFile
// never override variables already set in the process environment.
func parseEnv(cfg *Config) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return common.WrapError(common.ErrInvalidInput, "failed to load "+envFile, err)
	}

	if v, ok := os.LookupEnv(EnvChunkSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return common.WrapError(common.ErrInvalidInput, fmt.Sprintf("invalid %s value %q", EnvChunkSize, v), err)
		}
		cfg.ChunkSize = n
	}
	if v, ok := os.LookupEnv(EnvTempDir); ok && v != "" {
		cfg.TempDir = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvDebug); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return common.WrapError(common.ErrInvalidInput, fmt.Sprintf("invalid %s value %q", EnvDebug, v), err)
		}
		cfg.Debug = b
	}
	return nil
}
