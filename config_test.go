package playa

import (
	"path/filepath"
	"testing"
)

func TestLoadSettingsMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.toml")
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if s != DefaultSettings() {
		t.Errorf("LoadSettings(missing) = %+v, want defaults %+v", s, DefaultSettings())
	}
}

func TestSettingsSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playa.toml")
	s := DefaultSettings()
	s.WorkersOverride = 4
	s.MemPercent = 60
	s.CacheStrategy = "playback_window"
	s.PlaybackWindow = 12

	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != s {
		t.Errorf("loaded = %+v, want %+v", loaded, s)
	}
}

func TestSettingsStrategyParsing(t *testing.T) {
	tests := []struct {
		name string
		want CacheStrategy
	}{
		{"all", StrategyAll},
		{"playback_window", StrategyPlaybackWindow},
		{"only_current", StrategyOnlyCurrent},
		{"garbage", StrategyAll},
	}
	for _, tt := range tests {
		s := Settings{CacheStrategy: tt.name}
		if got := s.Strategy(); got != tt.want {
			t.Errorf("Strategy(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
