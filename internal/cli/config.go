package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the optional on-disk CLI configuration.
type Config struct {
	// StateFile is the transaction state file, overriding the default
	// location. The --state-file flag wins over both.
	StateFile string `yaml:"state_file"`

	// DefaultTimeout is the timeout in seconds applied to new transactions
	// when --timeout is not given. Zero means the library default.
	DefaultTimeout int `yaml:"default_timeout"`
}

// defaultConfigPath returns ~/.transact/config.yaml.
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".transact", "config.yaml"), nil
}

// defaultStateFilePath returns ~/.transact/transactions.json.
func defaultStateFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".transact", "transactions.json"), nil
}

// LoadConfig reads the YAML config at path. An empty path means the default
// location, where a missing file is not an error; an explicitly named file
// must exist.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// resolveStateFile picks the state file path: the --state-file flag, then the
// config file, then the default location.
func resolveStateFile(flagValue string, cfg Config) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cfg.StateFile != "" {
		return cfg.StateFile, nil
	}
	return defaultStateFilePath()
}
