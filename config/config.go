package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Hotkeys     HotkeysConfig     `toml:"hotkeys"`
	Detection   DetectionConfig   `toml:"detection"`
	Languages   LanguagesConfig   `toml:"languages"`
	Translation TranslationConfig `toml:"translation"`
	Web         WebConfig         `toml:"web"`
	History     HistoryConfig     `toml:"history"`
}

type HotkeysConfig struct {
	Copy      string `toml:"copy"`
	StateDump string `toml:"state_dump"`
}

type DetectionConfig struct {
	// CopyCount presses of the copy hotkey within WindowMs trigger a
	// translation. MinRetriggerMs suppresses immediate re-fires.
	CopyCount      int `toml:"copy_count"`
	WindowMs       int `toml:"window_ms"`
	MinRetriggerMs int `toml:"min_retrigger_ms"`
}

type LanguagesConfig struct {
	Source   string   `toml:"source"`
	Dest     string   `toml:"dest"`
	Rotation []string `toml:"rotation"`
}

type TranslationConfig struct {
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type WebConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
	Limit   int  `toml:"limit"`
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		Hotkeys: HotkeysConfig{
			Copy:      "ctrl+c",
			StateDump: "f8",
		},
		Detection: DetectionConfig{
			CopyCount:      2,
			WindowMs:       250,
			MinRetriggerMs: 150,
		},
		Languages: LanguagesConfig{
			Source:   "",
			Dest:     "ja",
			Rotation: []string{"ja", "en"},
		},
		Translation: TranslationConfig{
			Endpoint:       "https://translate.googleapis.com/translate_a/single",
			TimeoutSeconds: 10,
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8321,
		},
		History: HistoryConfig{
			Enabled: true,
			Limit:   200,
		},
	}
}

// ConfigDir returns the application data directory, creating it if needed
func ConfigDir() (string, error) {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve config directory: %w", err)
		}
		appData = base
	}

	configDir := filepath.Join(appData, "copytrans")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// ConfigPath returns the path to the configuration file
func ConfigPath() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from the TOML file
// If the file doesn't exist, it creates it with default values
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from an explicit path, creating the file
// with defaults when it does not exist
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := defaultConfig()
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	// Missing keys keep their defaults.
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the TOML file
func Save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

func (c *Config) validate() error {
	if c.Detection.CopyCount < 1 {
		return fmt.Errorf("detection.copy_count must be at least 1")
	}
	if c.Detection.WindowMs <= 0 {
		return fmt.Errorf("detection.window_ms must be positive")
	}
	if c.Detection.MinRetriggerMs < 0 {
		return fmt.Errorf("detection.min_retrigger_ms must not be negative")
	}
	if c.Languages.Dest == "" {
		return fmt.Errorf("languages.dest must be set")
	}
	if c.Translation.TimeoutSeconds <= 0 {
		return fmt.Errorf("translation.timeout_seconds must be positive")
	}
	if c.Web.Enabled && (c.Web.Port < 1 || c.Web.Port > 65535) {
		return fmt.Errorf("web.port must be a valid TCP port")
	}
	return nil
}
