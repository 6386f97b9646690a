package playa

import (
	"os"
	"path/filepath"
)

// PathConfig resolves where playa reads and writes its config and data
// files. Grounded directly on original_source/src/paths.rs, translating
// dirs_next's platform directories onto os.UserConfigDir.
type PathConfig struct {
	// ConfigDir overrides both the config and data directory when set
	// (from a CLI flag or the PLAYA_CONFIG_DIR environment variable).
	ConfigDir string
}

// NewPathConfigFromEnv builds a PathConfig following the priority chain:
// explicit cliDir argument, then the PLAYA_CONFIG_DIR environment
// variable, then empty (defer to platform defaults at lookup time).
func NewPathConfigFromEnv(cliDir string) PathConfig {
	if cliDir != "" {
		return PathConfig{ConfigDir: cliDir}
	}
	if env := os.Getenv("PLAYA_CONFIG_DIR"); env != "" {
		return PathConfig{ConfigDir: env}
	}
	return PathConfig{}
}

// localConfigFiles are the marker files whose presence in the current
// working directory promotes it to the effective config/data directory,
// letting a portable install keep its state next to the binary.
var localConfigFiles = []string{"playa.json", "playa_cache.json", "playa.log"}

func hasLocalConfigFiles(dir string) bool {
	for _, name := range localConfigFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// ConfigFile resolves the path for a config file named name.
//
// Priority: explicit ConfigDir, then a current directory containing any
// of localConfigFiles, then the platform config directory, then ".".
func (c PathConfig) ConfigFile(name string) string {
	return filepath.Join(c.configDir(), name)
}

// DataFile resolves the path for a data file (cache index, logs) named
// name, using the same priority chain as ConfigFile.
func (c PathConfig) DataFile(name string) string {
	return filepath.Join(c.dataDir(), name)
}

// EnsureDirs creates the config and data directories if they don't
// already exist.
func (c PathConfig) EnsureDirs() error {
	cfg := c.configDir()
	if err := os.MkdirAll(cfg, 0o755); err != nil {
		return newErr(KindNoInput, "PathConfig.EnsureDirs", err)
	}
	if data := c.dataDir(); data != cfg {
		if err := os.MkdirAll(data, 0o755); err != nil {
			return newErr(KindNoInput, "PathConfig.EnsureDirs", err)
		}
	}
	return nil
}

func (c PathConfig) configDir() string {
	if c.ConfigDir != "" {
		return c.ConfigDir
	}
	if cwd, err := os.Getwd(); err == nil && hasLocalConfigFiles(cwd) {
		return cwd
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "playa")
	}
	return "."
}

func (c PathConfig) dataDir() string {
	// Go has no separate UserDataDir the way dirs_next does; UserConfigDir
	// is the closest stable cross-platform equivalent, so config and data
	// share a root here unless ConfigDir/local-files override applies.
	return c.configDir()
}
