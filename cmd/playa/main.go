// Command playa is a headless driver for the compositing engine: it loads
// a saved project, renders frames 0..240 of its active comp with
// Project.RenderRange, and reports cache statistics. It exercises the same load/rebuild/compute
// path the interactive player uses, without an attached display.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/vionix/playa"
)

func main() {
	configDir := flag.String("config-dir", "", "override the config/data directory")
	memPercent := flag.Float64("mem", 75, "fraction of detected RAM the frame cache may use, 5-95")
	workers := flag.Int("workers", 0, "worker pool size override (0 = auto)")
	verbose := flag.Bool("verbose", false, "enable verbose compute/cache logging")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: playa [flags] <project.json>")
		os.Exit(2)
	}
	projectPath := flag.Arg(0)

	playa.SetVerboseLogging(*verbose)

	paths := playa.NewPathConfigFromEnv(*configDir)
	if err := paths.EnsureDirs(); err != nil {
		log.Printf("warning: %v", err)
	}

	settings, err := playa.LoadSettings(paths.ConfigFile("playa.toml"))
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}
	if *memPercent > 0 {
		settings.MemPercent = *memPercent
	}
	if *workers > 0 {
		settings.WorkersOverride = *workers
	}

	project, err := playa.LoadProjectJSON(projectPath)
	if err != nil {
		log.Fatalf("load project: %v", err)
	}
	project.AttachSchemas()

	fraction := settings.MemPercent / 100
	if fraction < 0.05 {
		fraction = 0.05
	} else if fraction > 0.95 {
		fraction = 0.95
	}

	cache := playa.NewFrameCache()
	manager := playa.NewCacheManager(cache, fraction, settings.ReserveBytes)

	var pool *playa.WorkerPool
	if settings.WorkersOverride > 0 {
		pool = playa.NewWorkerPoolSize(settings.WorkersOverride)
	} else {
		pool = playa.NewWorkerPool()
	}
	defer pool.Shutdown()

	bus := playa.NewEventBus()
	project.RebuildWithManager(manager, pool, settings.Strategy(), bus)

	active, ok := project.Active()
	if !ok {
		active = project.EnsureDefaultComp()
	}
	project.SetLastSavePath(projectPath)

	player := playa.NewPlayer(24)
	player.SetRange(0, 240)

	frames, err := project.RenderRange(active, player.CurrentFrame(), 240)
	if err != nil {
		log.Printf("render range stopped early: %v", err)
	}
	log.Printf("rendered %d frames for comp %s", len(frames), active)

	manager.EnforceLimit()
	stats := cache.Stats()
	fmt.Printf("cache: hits=%d misses=%d inserts=%d evictions=%d entries=%d bytes=%d\n",
		stats.Hits, stats.Misses, stats.Inserts, stats.Evictions, stats.Entries, stats.Bytes)
}
