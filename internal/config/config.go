// Package config holds the runtime settings of the authbox server.
//
// Values start from Defaults, are overlaid by an optional YAML file and then
// by command line flags. The application key is deliberately absent: it is
// only ever read from the environment.
package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v2"
)

type (
	Config struct {
		Bind          string        `yaml:"bind"`
		Database      string        `yaml:"database"`
		RootKeyEnvVar string        `yaml:"root_key_envvar"`
		CookieDomain  string        `yaml:"cookie_domain"`
		SessionCache  time.Duration `yaml:"session_cache_ttl"`
		LogLevel      string        `yaml:"log_level"`
		Server        Server        `yaml:"server"`
	}

	Server struct {
		ReadTimeout       time.Duration `yaml:"read_timeout"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
		WriteTimeout      time.Duration `yaml:"write_timeout"`
		IdleTimeout       time.Duration `yaml:"idle_timeout"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	}
)

func Defaults() Config {
	return Config{
		Bind:          "localhost:8080",
		Database:      "authbox.db",
		RootKeyEnvVar: "AUTHBOX_ROOTKEY",
		SessionCache:  10 * time.Minute,
		LogLevel:      "info",
		Server: Server{
			ReadTimeout:       time.Minute,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      time.Minute,
			IdleTimeout:       5 * time.Minute,
			ShutdownTimeout:   30 * time.Second,
		},
	}
}

// Load overlays the YAML file at path on top of Defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("unable to read config %v, cause %w", path, err)
	}
	if err = yaml.UnmarshalStrict(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse config %v, cause %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Bind == "":
		return fmt.Errorf("config: bind address cannot be empty")
	case c.Database == "":
		return fmt.Errorf("config: database path cannot be empty")
	case c.RootKeyEnvVar == "":
		return fmt.Errorf("config: root key env var name cannot be empty")
	case c.SessionCache < 0:
		return fmt.Errorf("config: session cache ttl cannot be negative")
	}
	return nil
}
