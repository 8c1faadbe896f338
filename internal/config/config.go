package config

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/cryptox"
	"github.com/spf13/pflag"
)

// Config holds runtime settings for the fencrypt CLI.
//
// Fields:
//   - ChunkSize: plaintext bytes per encrypted stream chunk.
//   - TempDir: parent directory of per-operation temp workspaces.
//   - LogLevel: minimum level of diagnostic logs written to stderr.
//   - Debug: print error details and force debug logging.
type Config struct {
	ChunkSize int
	TempDir   string
	LogLevel  string
	Debug     bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ChunkSize = cryptox.DefaultChunkSize
	c.TempDir = os.TempDir()
	c.LogLevel = "info"
	c.Debug = false
}

// Validate reports settings no operation can run with.
func (c *Config) Validate() error {
	if c.ChunkSize < cryptox.MinChunkSize || c.ChunkSize > cryptox.MaxChunkSize {
		return common.NewError(common.ErrInvalidInput,
			fmt.Sprintf("chunk size %d is out of range [%d, %d]", c.ChunkSize, cryptox.MinChunkSize, cryptox.MaxChunkSize))
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags (if present).
// Later sources take precedence over earlier ones. args are the raw
// command-line arguments used to locate the JSON file; flags may be nil.
func LoadConfig(args []string, flags *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, flags); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
