package playa

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Settings is the persisted runtime configuration: worker pool sizing,
// cache memory budget, and default cache strategy (original_source's
// runner.rs reads the CLI/settings equivalents of these three knobs when
// recreating the worker pool and cache manager on startup).
type Settings struct {
	// WorkersOverride pins the worker pool size; 0 means auto-detect from
	// runtime.NumCPU (see NewWorkerPool).
	WorkersOverride int `toml:"workers_override"`

	// MemPercent is the fraction of available RAM (after Reserve) the
	// frame cache may use, as a percentage in (0, 100]. Matches runner.rs's
	// mem_percent clamp range of 5-95.
	MemPercent float64 `toml:"mem_percent"`

	// ReserveBytes is subtracted from the detected RAM total before
	// applying MemPercent, so the host OS always keeps headroom.
	ReserveBytes int64 `toml:"reserve_bytes"`

	// CacheStrategy names the default FrameCache eviction strategy for
	// newly created comps: "all", "playback_window", or "only_current".
	CacheStrategy string `toml:"cache_strategy"`

	// PlaybackWindow is the frame radius used when CacheStrategy is
	// "playback_window".
	PlaybackWindow int `toml:"playback_window"`
}

// DefaultSettings mirrors the defaults runner.rs falls back to when no
// CLI override or persisted value exists.
func DefaultSettings() Settings {
	return Settings{
		WorkersOverride: 0,
		MemPercent:      75,
		ReserveBytes:    512 << 20,
		CacheStrategy:   "all",
		PlaybackWindow:  48,
	}
}

// Strategy parses CacheStrategy into the typed CacheStrategy enum,
// defaulting to StrategyAll on an unrecognized value.
func (s Settings) Strategy() CacheStrategy {
	switch s.CacheStrategy {
	case "playback_window":
		return StrategyPlaybackWindow
	case "only_current":
		return StrategyOnlyCurrent
	default:
		return StrategyAll
	}
}

// LoadSettings reads TOML settings from path, falling back to
// DefaultSettings if the file does not exist.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, newErr(KindDecodeError, "LoadSettings", err)
	}
	return s, nil
}

// Save writes s as TOML to path, creating or truncating it.
func (s Settings) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return newErr(KindNoInput, "Settings.Save", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return newErr(KindDecodeError, "Settings.Save", err)
	}
	return nil
}
