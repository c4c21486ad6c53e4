// Package config loads runtime configuration for the colsync CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables prefixed COLSYNC_, after loading an optional
//     .env file in the working directory.
//  3. Optional config file selected via -c or -config. JSON, TOML and YAML
//     are recognized by extension.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-s string    annotation service URL
//	-u string    user name
//	-t string    transcription source URN
//	-d string    local database path
//	-l string    log level (debug, info, warn, error)
//	-r float     requests per second, 0 for unlimited
//	-snapshot    transcription file uploaded as cached representation
//	-cached      enable cached representation uploads
//
// # File schema
//
// All three formats share the keys below:
//
//	service_url = "https://corpus1.mpi.nl/ds/webannotator-basic/"
//	user = "alice"
//	source = "urn:nl-mpi-tla:1839_00-0000-0000-000D-1A2B-3"
//	db_path = "colsync.db"
//	log_level = "info"
//	request_rate = 5.0
//	snapshot_file = "session.eaf"
//	cached_representation = true
//
// Unknown keys are an error.
package config
