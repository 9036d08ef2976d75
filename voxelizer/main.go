package main

import (
	"flag"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/voxelizer"
	"github.com/gekko3d/voxelizer/voxelizer/rt/app"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "TOML config file, watched for changes")
	debug := flag.Bool("debug", false, "Enable debug logging")
	gridSize := flag.Int("grid", 0, "Grid edge length, overrides the config; voxel size scales to keep the grid's extent")
	fill := flag.String("fill", "", "Fill: random, solid, empty, checker, sphere, gradient")
	policy := flag.String("policy", "", "Inactive cells: degenerate or compact")
	seed := flag.Uint64("seed", 0, "Random fill seed")
	validate := flag.Bool("validate", false, "Read the generated mesh back and check it")
	flag.Parse()

	log := voxelizer.NewDefaultLogger("voxelizer", *debug)

	cfg := voxelizer.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = voxelizer.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("%v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			cfg.Debug = *debug
		case "grid":
			cfg.Grid.Resize(*gridSize)
		case "fill":
			cfg.Grid.Fill = *fill
		case "policy":
			cfg.Grid.Policy = *policy
		case "seed":
			cfg.Grid.Seed = *seed
		case "validate":
			cfg.Renderer.Validate = *validate
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}
	log.SetDebug(cfg.Debug)

	if err := glfw.Init(); err != nil {
		log.Fatalf("glfw init: %v", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		log.Fatalf("create window: %v", err)
	}
	defer window.Destroy()

	application := app.NewApp(window, cfg, log)
	if err := application.Init(); err != nil {
		log.Fatalf("init: %v", err)
	}
	defer application.Close()

	var updates <-chan voxelizer.Config
	if *configPath != "" {
		watcher, err := voxelizer.WatchConfig(*configPath, log)
		if err != nil {
			log.Warnf("config reload disabled: %v", err)
		} else {
			defer watcher.Close()
			updates = watcher.Updates()
		}
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyR:
			if err := application.Reseed(); err != nil {
				log.Errorf("reseed: %v", err)
			}
		}
	})

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Window.TargetFPS))
	defer ticker.Stop()

	for !window.ShouldClose() {
		glfw.PollEvents()
		select {
		case next := <-updates:
			if err := application.ApplyConfig(next); err != nil {
				log.Errorf("apply config: %v", err)
			}
		default:
		}
		application.Render()
		<-ticker.C
	}
}
