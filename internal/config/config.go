package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Bind string `yaml:"bind"`
		Port int    `yaml:"port"`
		TLS  struct {
			Enabled bool   `yaml:"enabled"`
			Cert    string `yaml:"cert"`
			Key     string `yaml:"key"`
		} `yaml:"tls"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"http"`
	Logging struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"logging"`
	Stream struct {
		Buffer int `yaml:"buffer"` // updates queued per websocket client
	} `yaml:"stream"`
	Simulator struct {
		Enabled  bool          `yaml:"enabled"`
		Script   bool          `yaml:"script"` // replay the demo script once at start
		Interval time.Duration `yaml:"interval"`
		Users    []string      `yaml:"users"`
		Items    []string      `yaml:"items"`
		Fields   []string      `yaml:"fields"`
	} `yaml:"simulator"`
}

// Default returns a config with every default applied, used when no file
// is present.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return nil, fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.HTTP.TLS.Enabled && (c.HTTP.TLS.Cert == "" || c.HTTP.TLS.Key == "") {
		return nil, fmt.Errorf("http.tls enabled without cert and key")
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Bind == "" {
		c.HTTP.Bind = "0.0.0.0"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Stream.Buffer <= 0 {
		c.Stream.Buffer = 64
	}
	if c.Simulator.Interval <= 0 {
		c.Simulator.Interval = 2 * time.Second
	}
	if len(c.Simulator.Users) == 0 {
		c.Simulator.Users = []string{"Vrund", "patel"}
	}
	if len(c.Simulator.Items) == 0 {
		c.Simulator.Items = []string{"Laptop", "Headphones"}
	}
	if len(c.Simulator.Fields) == 0 {
		c.Simulator.Fields = []string{"Email", "Password"}
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Bind, c.HTTP.Port)
}
