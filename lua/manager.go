package lua

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samaelod/usmu/config"
	"github.com/samaelod/usmu/types"
)

// SaveToRecent writes a script into the configured recent directory as
// a Lua file, so an imported capture or an exported session can be
// edited and replayed later. The original filename is used as a base
// with an incrementing suffix. Returns the path of the new file.
func SaveToRecent(script types.ReplayScript, originalPath string) (string, error) {
	appConfig, err := config.LoadDefault()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	recentDir := appConfig.RecentDir
	if recentDir == "" {
		recentDir = "recent"
	}
	if err := os.MkdirAll(recentDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create recent directory: %w", err)
	}

	baseName := filepath.Base(originalPath)
	name := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	if name == "" || name == "." {
		name = "script"
	}

	// pattern: name_1.lua, name_2.lua, ...
	counter := 1
	var newPath string
	for {
		newPath = filepath.Join(recentDir, fmt.Sprintf("%s_%d.lua", name, counter))
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			break
		}
		counter++
	}

	f, err := os.Create(newPath)
	if err != nil {
		return "", fmt.Errorf("failed to create script file: %w", err)
	}
	defer f.Close()

	if err := WriteScript(f, script); err != nil {
		return "", fmt.Errorf("failed to write script: %w", err)
	}
	return newPath, nil
}
