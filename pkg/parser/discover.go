package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultPatterns are the Teams log file names, oldest rotation first.
var DefaultPatterns = []string{"old_logs_*.txt", "logs.txt"}

// DiscoverLogFiles expands each pattern inside dir and returns the matching
// files. Patterns are applied in order and each pattern's matches are sorted,
// so rotated logs come before the live logs.txt. Duplicates are dropped and
// patterns that match nothing are skipped.
func DiscoverLogFiles(dir string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid log pattern %q: %w", pattern, err)
		}

		// filepath.Glob already returns matches in lexical order
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				result = append(result, match)
			}
		}
	}

	return result, nil
}

// DefaultLogDir returns the directory the Teams desktop client writes its
// diagnostic logs to on this platform.
func DefaultLogDir() string {
	return defaultLogDir(runtime.GOOS, os.UserConfigDir, fileExists)
}

func defaultLogDir(goos string, configDir func() (string, error), exists func(string) bool) string {
	base, err := configDir()
	if err != nil {
		return ""
	}

	if goos == "windows" {
		return filepath.Join(base, "Microsoft", "Teams")
	}

	// macOS keeps logs.txt directly under Microsoft/Teams
	mac := filepath.Join(base, "Microsoft", "Teams")
	if exists(filepath.Join(mac, "logs.txt")) {
		return mac
	}
	return filepath.Join(base, "Microsoft", "Microsoft Teams")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
