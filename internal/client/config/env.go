package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const envPrefix = "COLSYNC_"

// envFile is loaded when present. Variables already set win over it.
var envFile = ".env"

// parseEnv overlays cfg with COLSYNC_* variables.
func parseEnv(cfg *Config) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	strVars := map[string]*string{
		"SERVICE_URL":   &cfg.ServiceURL,
		"USER":          &cfg.User,
		"SOURCE":        &cfg.Source,
		"DB":            &cfg.DBPath,
		"LOG_LEVEL":     &cfg.LogLevel,
		"SNAPSHOT_FILE": &cfg.SnapshotFile,
	}
	for name, dst := range strVars {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "REQUEST_RATE"); ok {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sREQUEST_RATE: %w", envPrefix, err)
		}
		cfg.RequestRate = r
	}
	if v, ok := os.LookupEnv(envPrefix + "CACHED_REPRESENTATION"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sCACHED_REPRESENTATION: %w", envPrefix, err)
		}
		cfg.CachedRepresentation = b
	}
	return nil
}
