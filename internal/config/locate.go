package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// A resolver yields one candidate config path. An empty path means the
// resolver does not apply on this system.
type resolver func() (string, error)

func executableDirResolver() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", nil
	}
	return filepath.Join(filepath.Dir(exe), FileName), nil
}

func userConfigResolver() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", nil
	}
	return filepath.Join(dir, "smbak", FileName), nil
}

func systemConfigResolver() (string, error) {
	return filepath.Join("/etc", "smbak", FileName), nil
}

var defaultResolvers = []resolver{
	executableDirResolver,
	userConfigResolver,
	systemConfigResolver,
}

// Locate finds the config file. An explicit path wins outright and must
// exist. Otherwise the default locations are probed in order: next to the
// executable, the user config directory, then the system directory.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	return locate(defaultResolvers)
}

func locate(resolvers []resolver) (string, error) {
	var probed []string
	for _, r := range resolvers {
		path, err := r()
		if err != nil || path == "" {
			continue
		}
		probed = append(probed, path)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no config file found, probed: %v", probed)
}
