package gamescanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GameEntry represents a rules catalog found in the data directory
type GameEntry struct {
	Name       string   // Display name (directory name)
	Dir        string   // Directory path relative to data/
	RulesFiles []string // Rules catalogs in the directory, sorted
}

// RulesPath returns the path of the entry's first rules file.
func (g GameEntry) RulesPath(dataPath string) string {
	if len(g.RulesFiles) == 0 {
		return ""
	}
	return filepath.Join(dataPath, g.Dir, g.RulesFiles[0])
}

// ScanDataDirectory scans the data directory for available rule sets.
// Returns a list of GameEntry objects, one for each directory holding at
// least one rules catalog, sorted by name.
func ScanDataDirectory(dataPath string) ([]GameEntry, error) {
	entries, err := os.ReadDir(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var games []GameEntry

	for _, entry := range entries {
		// Skip non-directories
		if !entry.IsDir() {
			continue
		}

		// Skip special directories
		dirName := entry.Name()
		if dirName == "atlases" || dirName == "assets" || strings.HasPrefix(dirName, ".") {
			continue
		}

		gamePath := filepath.Join(dataPath, dirName)
		rulesFiles, err := scanRulesFiles(gamePath)
		if err != nil {
			// Skip directories that can't be read
			continue
		}

		if len(rulesFiles) > 0 {
			games = append(games, GameEntry{
				Name:       dirName,
				Dir:        dirName,
				RulesFiles: rulesFiles,
			})
		}
	}

	sort.Slice(games, func(i, j int) bool { return games[i].Name < games[j].Name })
	return games, nil
}

// IsRulesFile reports whether a file name looks like a rules catalog:
// a YAML file named rules.yaml or *_rules.yaml (or .yml).
func IsRulesFile(name string) bool {
	lower := strings.ToLower(name)
	ext := filepath.Ext(lower)
	if ext != ".yaml" && ext != ".yml" {
		return false
	}
	base := strings.TrimSuffix(lower, ext)
	return base == "rules" || strings.HasSuffix(base, "_rules")
}

// scanRulesFiles finds all rules catalogs in a game directory
func scanRulesFiles(gamePath string) ([]string, error) {
	entries, err := os.ReadDir(gamePath)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsRulesFile(entry.Name()) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
