// Package config loads cluster connection settings from config files
// and the environment.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gocql/gocql"
	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem seam used for .env probing; tests may swap
// in an in-memory fs.
var AppFs = afero.NewOsFs()

// Config holds the cluster connection settings.
type Config struct {
	ContactPoints  []string
	Port           int
	Keyspace       string
	Consistency    string
	ConnectTimeout time.Duration
	Debug          bool
}

// Load reads configuration from .casmap.yaml (working directory, home
// directory, ~/.config/casmap), the CASMAP_* environment, and .env /
// .env.local files, in increasing priority.
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName(".casmap")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(home)
	v.AddConfigPath(filepath.Join(home, ".config", "casmap"))

	v.SetEnvPrefix("CASMAP")
	v.AutomaticEnv()

	v.SetDefault("contact_points", []string{"127.0.0.1"})
	v.SetDefault("port", 9042)
	v.SetDefault("consistency", "quorum")
	v.SetDefault("connect_timeout", "5s")
	v.SetDefault("debug", false)

	// Config file is optional.
	_ = v.ReadInConfig()

	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	cfg := &Config{
		ContactPoints:  v.GetStringSlice("contact_points"),
		Port:           v.GetInt("port"),
		Keyspace:       v.GetString("keyspace"),
		Consistency:    v.GetString("consistency"),
		ConnectTimeout: v.GetDuration("connect_timeout"),
		Debug:          v.GetBool("debug"),
	}
	if cfg.Keyspace == "" {
		return nil, fmt.Errorf("keyspace is required (set keyspace in .casmap.yaml or CASMAP_KEYSPACE)")
	}
	return cfg, nil
}

// Cluster maps the settings onto a gocql cluster configuration.
func (c *Config) Cluster() (*gocql.ClusterConfig, error) {
	cluster := gocql.NewCluster(c.ContactPoints...)
	cluster.Port = c.Port
	cluster.Keyspace = c.Keyspace
	cluster.ConnectTimeout = c.ConnectTimeout

	consistency, err := gocql.ParseConsistencyWrapper(c.Consistency)
	if err != nil {
		return nil, fmt.Errorf("consistency %q: %w", c.Consistency, err)
	}
	cluster.Consistency = consistency
	return cluster, nil
}
