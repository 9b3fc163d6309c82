package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the aersim configuration file
// (~/.config/aersim/config.yaml). All numeric fields are pointers so
// "not set" is distinguishable from zero values.
type Config struct {
	ChunkBits     *int64 `yaml:"chunk_bits"`
	NumChunks     *int64 `yaml:"chunks"`
	NumBuffers    *int64 `yaml:"buffers"`
	NumCheckpoint *int64 `yaml:"checkpoint"`
	Workers       *int64 `yaml:"workers"`
	Precision     string `yaml:"precision"`
	Backend       string `yaml:"backend"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "aersim", "config.yaml")
}

// applyPoolConfig applies config file defaults to the pool flags when
// the corresponding CLI flag was not explicitly set.
func applyPoolConfig(c *cli.Command, cfg Config) {
	if cfg.ChunkBits != nil && !c.IsSet("chunk-bits") {
		chunkBits = *cfg.ChunkBits
	}
	if cfg.NumChunks != nil && !c.IsSet("chunks") {
		numChunks = *cfg.NumChunks
	}
	if cfg.NumBuffers != nil && !c.IsSet("buffers") {
		numBuffers = *cfg.NumBuffers
	}
	if cfg.NumCheckpoint != nil && !c.IsSet("checkpoint") {
		numCheckpoint = *cfg.NumCheckpoint
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
	if cfg.Precision != "" && !c.IsSet("precision") {
		precision = cfg.Precision
	}
	if cfg.Backend != "" && !c.IsSet("backend") {
		backend = cfg.Backend
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyServeConfig applies config file defaults to serve command
// variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	applyPoolConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist.
func LoadConfig() (Config, error) {
	return loadConfigFrom(configPath())
}

func loadConfigFrom(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
