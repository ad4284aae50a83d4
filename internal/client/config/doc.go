// Package config loads runtime configuration for the FileVault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config (JSON, YAML or TOML).
//  3. FILEVAULT_CLI_* environment variables.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-s string     base URL of the FileVault API
//	-t duration   timeout of a single API or transfer request
//
// # File schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "timeout": "30s"
//	}
package config
