package config

import (
	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/spf13/pflag"
)

const (
	FlagConfig    = "config"
	FlagChunkSize = "chunk-size"
	FlagTempDir   = "tmp-dir"
	FlagLogLevel  = "log-level"
	FlagDebug     = "debug"
)

// BindFlags registers the configuration flags on fs. Their defaults are
// informational only: parseFlags applies a flag only when it was set.
func BindFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagConfig, "c", "", "path to a JSON config file")
	fs.Int(FlagChunkSize, 0, "plaintext bytes per encrypted chunk (default 65536)")
	fs.String(FlagTempDir, "", "parent directory for temporary files (default system temp dir)")
	fs.String(FlagLogLevel, "", "log level: debug, info, warn or error (default info)")
	fs.Bool(FlagDebug, false, "show error details and debug logs")
}

// parseFlags populates Config fields from flags explicitly set on the
// command line. A nil fs leaves cfg unchanged.
func parseFlags(cfg *Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagChunkSize:
			cfg.ChunkSize, err = fs.GetInt(FlagChunkSize)
		case FlagTempDir:
			cfg.TempDir, err = fs.GetString(FlagTempDir)
		case FlagLogLevel:
			cfg.LogLevel, err = fs.GetString(FlagLogLevel)
		case FlagDebug:
			cfg.Debug, err = fs.GetBool(FlagDebug)
		}
	})
	if err != nil {
		return common.WrapError(common.ErrInvalidInput, "invalid flag value", err)
	}
	return nil
}
