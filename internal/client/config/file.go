package config

import (
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/flagx"
	"github.com/spf13/viper"
)

func parseFile(cfg *Config, args []string) error {
	v := viper.New()
	v.SetEnvPrefix("FILEVAULT_CLI")
	for _, k := range []string{"server_url", "timeout"} {
		if err := v.BindEnv(k); err != nil {
			return err
		}
	}

	if path := flagx.ConfigFile(args); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return v.Unmarshal(cfg)
}
