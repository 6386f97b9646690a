package playa

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewPathConfigFromEnvPriority(t *testing.T) {
	t.Setenv("PLAYA_CONFIG_DIR", "/env/dir")

	c := NewPathConfigFromEnv("/cli/dir")
	if c.ConfigDir != "/cli/dir" {
		t.Errorf("explicit cliDir should win over the env var, got %q", c.ConfigDir)
	}

	c = NewPathConfigFromEnv("")
	if c.ConfigDir != "/env/dir" {
		t.Errorf("PLAYA_CONFIG_DIR should be used when cliDir is empty, got %q", c.ConfigDir)
	}
}

func TestNewPathConfigFromEnvEmptyFallsThrough(t *testing.T) {
	t.Setenv("PLAYA_CONFIG_DIR", "")
	c := NewPathConfigFromEnv("")
	if c.ConfigDir != "" {
		t.Errorf("with no override or env var, ConfigDir should be empty (deferred to lookup time), got %q", c.ConfigDir)
	}
}

func TestPathConfigExplicitOverrideWins(t *testing.T) {
	c := PathConfig{ConfigDir: "/explicit/dir"}
	if got := c.ConfigFile("settings.toml"); got != filepath.Join("/explicit/dir", "settings.toml") {
		t.Errorf("ConfigFile = %q", got)
	}
	if got := c.DataFile("cache.json"); got != filepath.Join("/explicit/dir", "cache.json") {
		t.Errorf("DataFile = %q", got)
	}
}

func TestPathConfigLocalMarkerFilesPromoteCwd(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "playa.json"))
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	origWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(origWD)

	c := PathConfig{}
	want := filepath.Join(dir, "settings.toml")
	if got := c.ConfigFile("settings.toml"); got != want {
		t.Errorf("ConfigFile = %q, want %q (cwd has a local marker file)", got, want)
	}
}

func TestPathConfigEnsureDirsCreatesDirectory(t *testing.T) {
	base := t.TempDir()
	nested := filepath.Join(base, "nested", "playa")
	c := PathConfig{ConfigDir: nested}

	if err := c.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(nested)
	if err != nil || !info.IsDir() {
		t.Fatalf("EnsureDirs should create %q", nested)
	}
}

func TestHasLocalConfigFilesDetectsAnyMarker(t *testing.T) {
	dir := t.TempDir()
	if hasLocalConfigFiles(dir) {
		t.Fatal("an empty directory should not report local config files")
	}
	f, _ := os.Create(filepath.Join(dir, "playa.log"))
	f.Close()
	if !hasLocalConfigFiles(dir) {
		t.Error("a directory containing playa.log should report local config files")
	}
}
