package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	SourceLocal = "local"
	SourceAzure = "azure"
)

type Config struct {
	InputDir     string       `mapstructure:"input_dir"`
	OutputFile   string       `mapstructure:"output_file"`
	RedThreshold int          `mapstructure:"red_threshold"`
	Tolerance    int          `mapstructure:"tolerance"`
	Seed         int64        `mapstructure:"seed"`
	Workers      int          `mapstructure:"workers"`
	Source       string       `mapstructure:"source"`
	Azure        AzureConfig  `mapstructure:"azure"`
	Log          LogConfig    `mapstructure:"log"`
	Server       ServerConfig `mapstructure:"server"`
}

type AzureConfig struct {
	AccountName string `mapstructure:"account_name"`
	AccountKey  string `mapstructure:"account_key"`
	Container   string `mapstructure:"container"`
	// Endpoint overrides https://<account>.blob.core.windows.net, e.g. for Azurite
	Endpoint string `mapstructure:"endpoint"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Host               string        `mapstructure:"host"`
	Port               string        `mapstructure:"port"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	MaxRequestBodySize int64         `mapstructure:"max_request_body_size"`
	// AllowedHosts limits POST /analyze downloads; empty allows any host
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Server.Host)
	port := strings.TrimSpace(c.Server.Port)
	return net.JoinHostPort(host, port)
}

// New returns a viper instance carrying every default and bound to
// REDINSPECT_* environment variables.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("input_dir", "EQ_Plots")
	v.SetDefault("output_file", "red_analysis3.csv")
	v.SetDefault("red_threshold", 200)
	v.SetDefault("tolerance", 50)
	v.SetDefault("seed", 0)
	v.SetDefault("workers", 1)
	v.SetDefault("source", SourceLocal)
	v.SetDefault("azure.account_name", "")
	v.SetDefault("azure.account_key", "")
	v.SetDefault("azure.container", "")
	v.SetDefault("azure.endpoint", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.max_request_body_size", 10*1024*1024) // 10MB
	v.SetDefault("server.allowed_hosts", []string{})

	v.SetEnvPrefix("REDINSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// ReadFile merges a YAML config file into v. An explicit path must exist;
// without one, ./config/config.yaml is read when present.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		return nil
	}

	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputDir) == "" && c.Source == SourceLocal {
		return fmt.Errorf("input_dir must not be empty")
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		return fmt.Errorf("output_file must not be empty")
	}
	if c.RedThreshold < 0 || c.RedThreshold > 255 {
		return fmt.Errorf("red_threshold must be within 0..255 (got %d)", c.RedThreshold)
	}
	if c.Tolerance < 0 || c.Tolerance > 255 {
		return fmt.Errorf("tolerance must be within 0..255 (got %d)", c.Tolerance)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1 (got %d)", c.Workers)
	}

	switch c.Source {
	case SourceLocal:
	case SourceAzure:
		if c.Azure.AccountName == "" || c.Azure.AccountKey == "" || c.Azure.Container == "" {
			return fmt.Errorf("azure source requires azure.account_name, azure.account_key and azure.container")
		}
	default:
		return fmt.Errorf("unknown source %q (want %q or %q)", c.Source, SourceLocal, SourceAzure)
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Server.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid server.port: %q", c.Server.Port)
	}
	if c.Server.MaxRequestBodySize <= 0 {
		return fmt.Errorf("server.max_request_body_size must be > 0 (got %d)", c.Server.MaxRequestBodySize)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be > 0 (got %s)", c.Server.RequestTimeout)
	}
	return nil
}
