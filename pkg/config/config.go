package config

// Package config provides a reusable Viper-backed loader for ledgernode
// configuration files and environment variables, covering network/storage/
// logging settings plus the snapshot service's thresholds.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/spf13/viper"

	"ledgernode/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for a ledgernode instance. It
// mirrors the structure of the YAML files under config/.
type Config struct {
	Network struct {
		ID             string   `mapstructure:"id" json:"id"`
		MaxPeers       int      `mapstructure:"max_peers" json:"max_peers"`
		ListenAddr     string   `mapstructure:"listen_addr" json:"listen_addr"`
		BootstrapPeers []string `mapstructure:"bootstrap_peers" json:"bootstrap_peers"`
	} `mapstructure:"network" json:"network"`

	Storage struct {
		DBPath string `mapstructure:"db_path" json:"db_path"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`

	// Snapshot carries the thresholds AttemptSnapshot reads on every run and
	// the disk-capacity limit its disk-write path enforces.
	Snapshot struct {
		SnapshotHeightInterval      int64  `mapstructure:"snapshot_height_interval" json:"snapshot_height_interval"`
		SnapshotHeightDelayInterval int64  `mapstructure:"snapshot_height_delay_interval" json:"snapshot_height_delay_interval"`
		DistanceFromMajority        int64  `mapstructure:"distance_from_majority" json:"distance_from_majority"`
		SnapshotSizeDiskLimit       uint64 `mapstructure:"snapshot_size_disk_limit" json:"snapshot_size_disk_limit"`
	} `mapstructure:"snapshot" json:"snapshot"`

	// Processing carries the accepted-checkpoint backpressure threshold.
	Processing struct {
		MaxAcceptedCBHashesInMemory int  `mapstructure:"max_accepted_cb_hashes_in_memory" json:"max_accepted_cb_hashes_in_memory"`
		ValidateMaxCBHashesInMemory bool `mapstructure:"validate_max_cb_hashes_in_memory" json:"validate_max_cb_hashes_in_memory"`
	} `mapstructure:"processing" json:"processing"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // environment variables override file values

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the LEDGER_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("LEDGER_ENV", ""))
}
