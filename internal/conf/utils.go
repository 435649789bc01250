// utils.go: helpers for locating and moving configuration files.
package conf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// GetDefaultConfigPaths returns the list of directories searched for a
// config file, in priority order. The first entry is also where a
// default config is created when none exists.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		exePath, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("error fetching executable path: %w", err)
		}
		configPaths = []string{
			filepath.Dir(exePath),
			filepath.Join(homeDir, "AppData", "Roaming", "aurascan"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "aurascan"),
			"/etc/aurascan",
		}
	}

	return configPaths, nil
}

// FindConfigFile returns the path of the first config.yaml found in
// the default config paths.
func FindConfigFile() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		configPath := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", fmt.Errorf("config file not found in: %v", configPaths)
}

// moveFile moves a file by copy and delete, for when os.Rename fails
// across filesystem boundaries.
func moveFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("error opening source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating destination file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("error copying file contents: %w", err)
	}
	if err := dstFile.Sync(); err != nil {
		return fmt.Errorf("error syncing destination file: %w", err)
	}

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("error removing source file: %w", err)
	}

	return nil
}
