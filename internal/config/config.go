package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Broker   BrokerConfig   `yaml:"broker"`
	Database DatabaseConfig `yaml:"database"`
	Printer  PrinterConfig  `yaml:"printer"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port         int      `yaml:"port"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

type BrokerConfig struct {
	Addr     string `yaml:"addr"`
	Stream   string `yaml:"stream"`
	Group    string `yaml:"group"`
	Consumer string `yaml:"consumer"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type PrinterConfig struct {
	Host              string   `yaml:"host"`
	Port              int      `yaml:"port"`
	ConnectionTimeout Duration `yaml:"connection_timeout"`
}

type WorkerConfig struct {
	Dry bool `yaml:"dry"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  Duration(30 * time.Second),
			WriteTimeout: Duration(30 * time.Second),
		},
		Broker: BrokerConfig{
			Addr:     "127.0.0.1:6379",
			Stream:   "printer",
			Group:    "printer-worker",
			Consumer: "worker-1",
		},
		Database: DatabaseConfig{
			Path: "./data/messages.db",
		},
		Printer: PrinterConfig{
			Host:              "127.0.0.1",
			Port:              9100,
			ConnectionTimeout: Duration(10 * time.Second),
		},
		Worker: WorkerConfig{
			Dry: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given YAML file, starting from defaults.
// A missing file is not an error; environment overrides apply last.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PRINTREL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}

	if v := os.Getenv("PRINTREL_BROKER_ADDR"); v != "" {
		c.Broker.Addr = v
	}

	if v := os.Getenv("PRINTREL_DB_PATH"); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv("PRINTREL_PRINTER_HOST"); v != "" {
		c.Printer.Host = v
	}

	if v := os.Getenv("PRINTREL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Broker.Addr == "" {
		return fmt.Errorf("broker address is required")
	}

	if c.Broker.Stream == "" {
		return fmt.Errorf("broker stream name is required")
	}

	if c.Broker.Group == "" {
		return fmt.Errorf("broker consumer group is required")
	}

	if c.Broker.Consumer == "" {
		return fmt.Errorf("broker consumer name is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Printer.Host == "" {
		return fmt.Errorf("printer host is required")
	}

	if c.Printer.Port < 1 || c.Printer.Port > 65535 {
		return fmt.Errorf("printer port must be between 1 and 65535, got %d", c.Printer.Port)
	}

	if c.Printer.ConnectionTimeout < 0 {
		return fmt.Errorf("printer connection timeout must be non-negative")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	return nil
}

// PrinterAddr returns the host:port the renderer dials.
func (c *Config) PrinterAddr() string {
	return fmt.Sprintf("%s:%d", c.Printer.Host, c.Printer.Port)
}
