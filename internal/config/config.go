package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the client configuration
type Config struct {
	Server      string `yaml:"server"`
	Port        int    `yaml:"port"`
	TLS         bool   `yaml:"tls"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	ServerPass  string `yaml:"server_pass"`
	Proxy       string `yaml:"proxy"`

	Nick      string `yaml:"nick"`
	Alternate string `yaml:"alternate"`
	NickPass  string `yaml:"nick_pass"`
	Username  string `yaml:"username"`
	IRCName   string `yaml:"irc_name"`
	Mode      string `yaml:"mode"`

	Channels []string `yaml:"channels"`

	DataDir          string  `yaml:"data_dir"`
	LogLevel         string  `yaml:"log_level"`
	SendRate         float64 `yaml:"send_rate"`
	SendBurst        int     `yaml:"send_burst"`
	Encoding         string  `yaml:"encoding"`
	FilterFormatting bool    `yaml:"filter_formatting"`
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Server == "" {
		return nil, fmt.Errorf("invalid config file: server is required")
	}
	if cfg.Nick == "" {
		return nil, fmt.Errorf("invalid config file: nick is required")
	}

	// Set defaults
	if cfg.Port == 0 {
		cfg.Port = 6667
		if cfg.TLS {
			cfg.Port = 6697
		}
	}
	if cfg.Username == "" {
		cfg.Username = cfg.Nick
	}
	if cfg.IRCName == "" {
		cfg.IRCName = cfg.Nick
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.SendRate == 0 {
		cfg.SendRate = 2
	}
	if cfg.SendBurst == 0 {
		cfg.SendBurst = 5
	}

	return &cfg, nil
}

// Addr returns the server address as host:port
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server, c.Port)
}
