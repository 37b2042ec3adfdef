package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"timerdeck/internal/record"
)

const configFileName = "config.yaml"

// Config holds user settings.
type Config struct {
	Categories   record.Categories
	DatabasePath string
	LogFile      string
	LogLevel     string
	HistoryQueue int
	SoundEnabled bool
	SoundVolume  float64
}

type yamlConfig struct {
	Categories   []string `yaml:"categories"`
	DatabasePath string   `yaml:"database_path"`
	LogFile      string   `yaml:"log_file"`
	LogLevel     string   `yaml:"log_level"`
	HistoryQueue int      `yaml:"history_queue"`
	SoundEnabled bool     `yaml:"sound_enabled"`
	SoundVolume  float64  `yaml:"sound_volume"`
}

// Default returns the settings used when no file exists. dataDir holds the
// database and log file.
func Default(dataDir string) Config {
	return Config{
		Categories:   record.Categories{"Workout", "Study", "Break"},
		DatabasePath: filepath.Join(dataDir, "timerdeck.db"),
		LogFile:      filepath.Join(dataDir, "timerdeck.log"),
		LogLevel:     "info",
		HistoryQueue: 32,
	}
}

// Load reads the config for appName from the user config directory.
// If the config file does not exist, defaults are returned.
func Load(appName string) (Config, error) {
	dir, err := resolveConfigDir(appName)
	if err != nil {
		return Config{}, err
	}
	return LoadFile(filepath.Join(dir, configFileName))
}

// Save writes cfg to the user config directory.
func Save(appName string, cfg Config) error {
	dir, err := resolveConfigDir(appName)
	if err != nil {
		return err
	}
	return SaveFile(filepath.Join(dir, configFileName), cfg)
}

// LoadFile reads config from path. Defaults place data next to the file.
func LoadFile(path string) (Config, error) {
	cfg := Default(filepath.Dir(path))

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var fileData yamlConfig
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}

	applyYamlConfig(&cfg, fileData)
	return cfg, nil
}

func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := yamlConfig{
		DatabasePath: cfg.DatabasePath,
		LogFile:      cfg.LogFile,
		LogLevel:     cfg.LogLevel,
		HistoryQueue: cfg.HistoryQueue,
		SoundEnabled: cfg.SoundEnabled,
		SoundVolume:  cfg.SoundVolume,
	}
	for _, c := range cfg.Categories {
		fileData.Categories = append(fileData.Categories, string(c))
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func resolveConfigDir(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}

func applyYamlConfig(cfg *Config, fileData yamlConfig) {
	var categories record.Categories
	for _, raw := range fileData.Categories {
		c := record.Category(strings.TrimSpace(raw))
		if c == "" || categories.Contains(c) {
			continue
		}
		categories = append(categories, c)
	}
	if len(categories) > 0 {
		cfg.Categories = categories
	}

	if fileData.DatabasePath != "" {
		cfg.DatabasePath = fileData.DatabasePath
	}
	if fileData.LogFile != "" {
		cfg.LogFile = fileData.LogFile
	}
	if fileData.LogLevel != "" {
		cfg.LogLevel = fileData.LogLevel
	}
	if fileData.HistoryQueue > 0 {
		cfg.HistoryQueue = fileData.HistoryQueue
	}
	if fileData.SoundVolume >= -5 && fileData.SoundVolume <= 2 {
		cfg.SoundVolume = fileData.SoundVolume
	}

	cfg.SoundEnabled = fileData.SoundEnabled
}
