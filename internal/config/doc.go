// Package config loads runtime configuration for the fencrypt CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. An optional .env file in the working directory, then the process
//     environment (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or --config.
//  4. Command-line flags set explicitly on the command line (see parseFlags),
//     which override earlier values.
//
// # Environment
//
//	FENCRYPT_CHUNK_SIZE   plaintext bytes per stream chunk
//	FENCRYPT_TMP_DIR      parent directory of temp workspaces
//	FENCRYPT_LOG_LEVEL    debug, info, warn or error
//	FENCRYPT_DEBUG        true/false, show error details and debug logs
//
// # JSON schema
//
// Every key is optional; absent keys keep the value of earlier sources:
//
//	{
//	  "chunk_size": 65536,
//	  "tmp_dir": "/var/tmp",
//	  "log_level": "warn",
//	  "debug": false
//	}
//
// Primary API
//
//   - type Config                          - holds ChunkSize, TempDir, LogLevel and Debug
//   - func BindFlags(*pflag.FlagSet)       - registers the configuration flags
//   - func LoadConfig(args, flags)         - builds Config from all sources and validates it
//   - func (*Config) LoadDefaults()        - sets sensible defaults
package config
