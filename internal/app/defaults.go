package app

import (
	"fmt"
	"os"
	"path/filepath"

	"smbak/internal/config"
)

// GetDefaults returns application default paths, checking environment
// variables first.
// Environment variables:
//   - SMBAK_CONFIG_PATH: config file location (default: <user config dir>/smbak/smbak.toml)
//   - SMBAK_HOME: base directory for staging and logs (default: ~/.local/share/smbak)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"staging_dir": filepath.Join(baseDir, "staging"),
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("SMBAK_CONFIG_PATH"); path != "" {
		return path, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(dir, "smbak", config.FileName), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("SMBAK_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "smbak"), nil
}
