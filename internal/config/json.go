package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell absent keys apart from zero values.
type JsonConfig struct {
	ChunkSize *int    `json:"chunk_size"`
	TempDir   *string `json:"tmp_dir"`
	LogLevel  *string `json:"log_level"`
	Debug     *bool   `json:"debug"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or --config flag in args, located with
// flagx.JsonConfigFlags. Without the flag no JSON is loaded.
func parseJson(cfg *Config, args []string) error {
	jsonConfigFile := flagx.JsonConfigFlags(args)
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return common.IOError("failed to read config file "+jsonConfigFile, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return common.WrapError(common.ErrInvalidInput, "failed to parse config file "+jsonConfigFile, err)
	}

	if jc.ChunkSize != nil {
		cfg.ChunkSize = *jc.ChunkSize
	}
	if jc.TempDir != nil {
		cfg.TempDir = *jc.TempDir
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	if jc.Debug != nil {
		cfg.Debug = *jc.Debug
	}
	return nil
}
