package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/common/model"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server Server `yaml:"server"`
}

type Server struct {
	Store     Store     `yaml:"store"`
	Ingest    Ingest    `yaml:"ingest"`
	LogSchema LogSchema `yaml:"log_schema"`
}

// Store configures the accounting database. Driver selects between a shared
// MySQL instance and a single-node SQLite file.
type Store struct {
	Driver          string `yaml:"driver" validate:"required,oneof=mysql sqlite"`
	Path            string `yaml:"path" validate:"required_if=Driver sqlite"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	Charset         string `yaml:"charset"`
	ParseTime       bool   `yaml:"parseTime"`
	Loc             string `yaml:"loc"`
	TLS             string `yaml:"tls"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime string `yaml:"connMaxLifetime"`
}

// Ingest configures the ingestion pipeline and the attribution resolver.
type Ingest struct {
	LogDirectory    string         `yaml:"logDirectory" validate:"required"`
	FilePattern     string         `yaml:"filePattern"`
	Workers         int            `yaml:"workers" validate:"omitempty,gte=1,lte=64"`
	ScanInterval    model.Duration `yaml:"scanInterval"`
	FallbackWallet  string         `yaml:"fallbackWallet"`
	MaxMappingDepth int            `yaml:"maxMappingDepth" validate:"omitempty,gte=1,lte=256"`
}

// LogSchema is the external description of the accounting log format: an
// ordered list of whitespace-separated column names, one job record per line.
type LogSchema struct {
	Columns []string `yaml:"columns" validate:"required,min=1,unique"`
}

// Load reads a YAML config file from the given path, unmarshals into Config,
// applies defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	in := &c.Server.Ingest
	if in.FilePattern == "" {
		in.FilePattern = "*.out"
	}
	if in.Workers <= 0 {
		in.Workers = 4
	}
	if in.ScanInterval <= 0 {
		in.ScanInterval = model.Duration(5 * time.Minute)
	}
	if in.FallbackWallet == "" {
		in.FallbackWallet = "unassigned"
	}
	if in.MaxMappingDepth <= 0 {
		in.MaxMappingDepth = 16
	}
}

// Validate checks the config using go-playground/validator tags.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	return v.Struct(c)
}
