package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Config holds runtime settings for the colsync CLI.
//
// Fields:
//   - ServiceURL: root of the annotation service, e.g. https://host/ds/webannotator-basic/.
//   - User: login name on the service.
//   - Source: URN of the transcription whose comments are synchronized.
//   - DBPath: local SQLite store.
//   - LogLevel: debug, info, warn or error.
//   - RequestRate: maximum requests per second, 0 for unlimited.
//   - SnapshotFile: local copy of the transcription, uploaded when the
//     server asks for a cached representation.
//   - CachedRepresentation: enables those uploads.
type Config struct {
	ServiceURL           string  `json:"service_url" toml:"service_url" yaml:"service_url"`
	User                 string  `json:"user" toml:"user" yaml:"user"`
	Source               string  `json:"source" toml:"source" yaml:"source"`
	DBPath               string  `json:"db_path" toml:"db_path" yaml:"db_path"`
	LogLevel             string  `json:"log_level" toml:"log_level" yaml:"log_level"`
	RequestRate          float64 `json:"request_rate" toml:"request_rate" yaml:"request_rate"`
	SnapshotFile         string  `json:"snapshot_file" toml:"snapshot_file" yaml:"snapshot_file"`
	CachedRepresentation bool    `json:"cached_representation" toml:"cached_representation" yaml:"cached_representation"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServiceURL = "https://corpus1.mpi.nl/ds/webannotator-basic/"
	c.Source = "urn:unknown"
	c.DBPath = "colsync.db"
	c.LogLevel = "info"
	c.RequestRate = 0
	c.CachedRepresentation = false
}

// Validate reports settings the client cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.ServiceURL); err != nil || !u.IsAbs() {
		errs = append(errs, fmt.Errorf("service url %q is not absolute", c.ServiceURL))
	}
	if c.Source == "" {
		errs = append(errs, errors.New("source urn is empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path is empty"))
	}
	if c.RequestRate < 0 {
		errs = append(errs, fmt.Errorf("request rate %v is negative", c.RequestRate))
	}
	if c.CachedRepresentation && c.SnapshotFile == "" {
		errs = append(errs, errors.New("cached representations need a snapshot file"))
	}
	return errors.Join(errs...)
}

// LoadConfig constructs a Config from os.Args and the environment: defaults,
// then the environment (after an optional .env file), then a config file
// selected with -c or -config, then flags. Later sources take precedence.
func LoadConfig() (*Config, error) {
	return Load(osArgs())
}

// Load is LoadConfig with explicit arguments, without the program name.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
