package voxelizer

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/colornames"
)

var ErrInvalidConfig = errors.New("invalid config")

// Fill policy names accepted in grid.fill.
const (
	FillRandom   = "random"
	FillSolid    = "solid"
	FillEmpty    = "empty"
	FillChecker  = "checker"
	FillSphere   = "sphere"
	FillGradient = "gradient"
)

// Inactive cell policy names accepted in grid.policy.
const (
	PolicyDegenerate = "degenerate"
	PolicyCompact    = "compact"
)

type Config struct {
	Grid     GridConfig     `toml:"grid"`
	Camera   CameraConfig   `toml:"camera"`
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Debug    bool           `toml:"debug"`
}

type GridConfig struct {
	Size        int     `toml:"size"`
	VoxelSize   float32 `toml:"voxel_size"`
	Fill        string  `toml:"fill"`
	Probability float64 `toml:"probability"`
	Seed        uint64  `toml:"seed"`
	Policy      string  `toml:"policy"`
	// Color and AltColor are colornames (e.g. "steelblue") used by the
	// deterministic fills.
	Color    string `toml:"color"`
	AltColor string `toml:"alt_color"`
}

type CameraConfig struct {
	FovDegrees   float32    `toml:"fov_degrees"`
	Near         float32    `toml:"near"`
	Far          float32    `toml:"far"`
	Eye          [3]float32 `toml:"eye"`
	Center       [3]float32 `toml:"center"`
	Up           [3]float32 `toml:"up"`
	AngularSpeed float32    `toml:"angular_speed"`
}

type WindowConfig struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Title      string `toml:"title"`
	TargetFPS  int    `toml:"target_fps"`
	ClearColor string `toml:"clear_color"`
}

type RendererConfig struct {
	MaxFramesInFlight int  `toml:"max_frames_in_flight"`
	Validate          bool `toml:"validate"`
}

func DefaultConfig() Config {
	return Config{
		Grid: GridConfig{
			Size:        32,
			VoxelSize:   1.0 / 32.0,
			Fill:        FillRandom,
			Probability: 0.3,
			Seed:        1,
			Policy:      PolicyDegenerate,
			Color:       "steelblue",
			AltColor:    "orange",
		},
		Camera: CameraConfig{
			FovDegrees:   45,
			Near:         0.1,
			Far:          100,
			Eye:          [3]float32{0, 0, 3.5},
			Center:       [3]float32{0, 0, 0},
			Up:           [3]float32{0, 1, 0},
			AngularSpeed: 0.5,
		},
		Window: WindowConfig{
			Width:      1280,
			Height:     720,
			Title:      "Voxelizer",
			TargetFPS:  60,
			ClearColor: "darkgray",
		},
		Renderer: RendererConfig{
			MaxFramesInFlight: 2,
		},
	}
}

// LoadConfig overlays the TOML file at path on top of DefaultConfig and
// validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("%w: %s", ErrInvalidConfig, strict.String())
		}
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every problem found, each wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	g := c.Grid
	if g.Size <= 0 {
		bad("grid.size must be positive, got %d", g.Size)
	}
	if !(g.VoxelSize > 0) {
		bad("grid.voxel_size must be positive, got %g", g.VoxelSize)
	}
	if !(g.Probability >= 0 && g.Probability <= 1) {
		bad("grid.probability must be in [0,1], got %g", g.Probability)
	}
	switch g.Fill {
	case FillRandom, FillSolid, FillEmpty, FillChecker, FillSphere, FillGradient:
	default:
		bad("grid.fill %q is not one of random, solid, empty, checker, sphere, gradient", g.Fill)
	}
	switch g.Policy {
	case PolicyDegenerate, PolicyCompact:
	default:
		bad("grid.policy %q is not one of degenerate, compact", g.Policy)
	}
	for _, name := range []string{g.Color, g.AltColor, c.Window.ClearColor} {
		if _, err := ParseColor(name); err != nil {
			errs = append(errs, err)
		}
	}

	cam := c.Camera
	if !(cam.FovDegrees > 0 && cam.FovDegrees < 180) {
		bad("camera.fov_degrees must be in (0,180), got %g", cam.FovDegrees)
	}
	if !(cam.Near > 0) || !(cam.Far > cam.Near) {
		bad("camera planes need 0 < near < far, got near=%g far=%g", cam.Near, cam.Far)
	}
	if cam.Eye == cam.Center {
		bad("camera.eye and camera.center must differ")
	}
	if cam.Up == [3]float32{} {
		bad("camera.up must be non-zero")
	}

	w := c.Window
	if w.Width <= 0 || w.Height <= 0 {
		bad("window size must be positive, got %dx%d", w.Width, w.Height)
	}
	if w.TargetFPS <= 0 {
		bad("window.target_fps must be positive, got %d", w.TargetFPS)
	}
	if c.Renderer.MaxFramesInFlight < 1 {
		bad("renderer.max_frames_in_flight must be at least 1, got %d", c.Renderer.MaxFramesInFlight)
	}
	return errors.Join(errs...)
}

// GridChanged reports whether switching from c to next requires the mesh to
// be regenerated.
func (c Config) GridChanged(next Config) bool {
	return c.Grid != next.Grid
}

// Resize sets the edge length to n cells and scales the voxel size so the
// grid keeps its world extent. n <= 0 is left for Validate to reject.
func (g *GridConfig) Resize(n int) {
	if n > 0 && g.Size > 0 {
		g.VoxelSize = g.VoxelSize * float32(g.Size) / float32(n)
	}
	g.Size = n
}

// ParseColor resolves a colornames name (case-insensitive) to linear RGBA in
// [0,1].
func ParseColor(name string) ([4]float32, error) {
	rgba, ok := colornames.Map[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return [4]float32{}, fmt.Errorf("%w: unknown color %q", ErrInvalidConfig, name)
	}
	return ColorToFloat(rgba), nil
}

func ColorToFloat(c color.RGBA) [4]float32 {
	return [4]float32{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}
