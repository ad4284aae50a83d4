package config

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/flagx"
	"github.com/spf13/viper"
)

const envPrefix = "FILEVAULT"

var keys = []string{
	"http_addr", "grpc_addr", "database_dsn", "run_migrations", "health_interval",
	"s3_region", "s3_endpoint", "s3_bucket", "s3_access_key", "s3_secret_key",
	"s3_use_path_style", "s3_presign_expiry", "s3_max_attempts",
	"redis_addr", "cache_ttl",
	"download_policy", "page_default", "page_max",
	"otlp_endpoint", "otlp_insecure", "log_level",
}

// parseFile overlays values from the file named by -c/-config (any format
// viper reads, picked by extension) and then from FILEVAULT_* environment
// variables. Keys absent from both keep their current value.
func parseFile(config *Config, args []string) error {
	v := viper.New()

	for _, k := range keys {
		if err := v.BindEnv(k, envPrefix+"_"+strings.ToUpper(k)); err != nil {
			return fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	if path := flagx.ConfigFile(args); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}
