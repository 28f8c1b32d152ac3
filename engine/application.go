package engine

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/vista/engine/core"
	"github.com/spaghettifunk/vista/engine/math"
	"github.com/spaghettifunk/vista/engine/platform"
)

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// One of window, fullscreen or borderless.
	WindowType string `toml:"window_type"`
	// Zero means the native size of the display.
	FullscreenSize []int `toml:"fullscreen_size,omitempty"`
	WindowedSize   []int `toml:"windowed_size"`
	// Zero means the window size, so nothing is letterboxed.
	VirtualSize []float32 `toml:"virtual_size,omitempty"`
	// Display the window is centered on. Falls back to the primary display.
	Screen   int    `toml:"screen"`
	LogLevel string `toml:"log_level"`
	// Asset ids are relative to this directory.
	AssetDir string `toml:"asset_dir"`
	VSync    bool   `toml:"vsync"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:         "Vista",
		WindowType:   platform.WindowTypeWindow.String(),
		WindowedSize: []int{1280, 720},
		VirtualSize:  []float32{1280, 720},
		LogLevel:     "info",
		AssetDir:     "assets",
		VSync:        true,
	}
}

// LoadApplicationConfig reads a TOML file on top of the defaults.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseApplicationConfig(data)
}

func ParseApplicationConfig(data []byte) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *ApplicationConfig) Validate() error {
	windowType, err := platform.WindowTypeFromString(c.WindowType)
	if err != nil {
		return err
	}
	if windowType == platform.WindowTypeNone {
		return fmt.Errorf("window_type none cannot be displayed")
	}
	if _, ok := core.ParseLogLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	for name, v := range map[string]int{
		"fullscreen_size": len(c.FullscreenSize),
		"windowed_size":   len(c.WindowedSize),
		"virtual_size":    len(c.VirtualSize),
	} {
		if v != 0 && v != 2 {
			return fmt.Errorf("%s needs two components, got %d", name, v)
		}
	}
	if size := c.Windowed(); size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("windowed_size must be positive")
	}
	if c.Screen < 0 {
		return fmt.Errorf("screen must not be negative")
	}
	return nil
}

func (c *ApplicationConfig) Type() platform.WindowType {
	t, err := platform.WindowTypeFromString(c.WindowType)
	if err != nil {
		return platform.WindowTypeWindow
	}
	return t
}

func (c *ApplicationConfig) Level() core.LogLevel {
	level, _ := core.ParseLogLevel(c.LogLevel)
	return level
}

func (c *ApplicationConfig) Fullscreen() math.Vector2i {
	return vector2i(c.FullscreenSize)
}

func (c *ApplicationConfig) Windowed() math.Vector2i {
	return vector2i(c.WindowedSize)
}

func (c *ApplicationConfig) Virtual() math.Vector2f {
	if len(c.VirtualSize) != 2 {
		return math.Vector2f{}
	}
	return math.NewVector2f(c.VirtualSize[0], c.VirtualSize[1])
}

func vector2i(v []int) math.Vector2i {
	if len(v) != 2 {
		return math.Vector2i{}
	}
	return math.NewVector2i(v[0], v[1])
}
