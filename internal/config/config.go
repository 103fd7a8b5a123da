package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/fenshot/internal/pieces"
	"github.com/park285/fenshot/internal/render"
	yaml "gopkg.in/yaml.v3"
)

type AppConfig struct {
	BoardSize       float64 `yaml:"board_size"`
	LightColor      string  `yaml:"light_color"`
	DarkColor       string  `yaml:"dark_color"`
	BorderColor     string  `yaml:"border_color"`
	ShowCoordinates bool    `yaml:"show_coordinates"`
	Flipped         bool    `yaml:"flipped"`
	Target          string  `yaml:"target"`

	Quality       int `yaml:"quality"`
	MaxSurfaceDim int `yaml:"max_surface_dim"`
	MinQuality    int `yaml:"min_quality"`
	JPEGQuality   int `yaml:"jpeg_quality"`

	PiecesDir   string `yaml:"pieces_dir"`
	OutputDir   string `yaml:"output_dir"`
	MessagesDir string `yaml:"messages_dir"`

	RedisURL string `yaml:"redis_url"`
	HTTPAddr string `yaml:"http_addr"`

	PausePollMS int `yaml:"pause_poll_ms"`
}

func Default() *AppConfig {
	return &AppConfig{
		BoardSize:       render.DefaultBoardSize,
		LightColor:      render.DefaultLightColor,
		DarkColor:       render.DefaultDarkColor,
		ShowCoordinates: true,
		Target:          "export",
		Quality:         render.DefaultQuality,
		MaxSurfaceDim:   render.DefaultMaxDimension,
		MinQuality:      render.DefaultMinMultiplier,
		JPEGQuality:     95,
		OutputDir:       ".",
		HTTPAddr:        ":8080",
		PausePollMS:     100,
	}
}

// Load applies defaults, then the YAML file named by FENSHOT_CONFIG, then env overrides.
func Load() (*AppConfig, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("FENSHOT_CONFIG")); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays keys present in a YAML file; absent keys keep their values.
func (c *AppConfig) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("BOARD_SIZE")); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BOARD_SIZE: %w", err)
		}
		c.BoardSize = n
	}
	setString(&c.LightColor, "LIGHT_COLOR")
	setString(&c.DarkColor, "DARK_COLOR")
	setString(&c.BorderColor, "BORDER_COLOR")
	setString(&c.Target, "RENDER_TARGET")
	if v := strings.TrimSpace(os.Getenv("SHOW_COORDINATES")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SHOW_COORDINATES: %w", err)
		}
		c.ShowCoordinates = b
	}
	if v := strings.TrimSpace(os.Getenv("FLIPPED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Flipped = b
		}
	}
	for _, e := range []struct {
		key string
		dst *int
	}{
		{"QUALITY", &c.Quality},
		{"MAX_SURFACE_DIM", &c.MaxSurfaceDim},
		{"MIN_QUALITY", &c.MinQuality},
		{"JPEG_QUALITY", &c.JPEGQuality},
		{"PAUSE_POLL_MS", &c.PausePollMS},
	} {
		if v := strings.TrimSpace(os.Getenv(e.key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = n
		}
	}
	setString(&c.PiecesDir, "PIECES_DIR")
	setString(&c.OutputDir, "OUTPUT_DIR")
	setString(&c.MessagesDir, "MESSAGES_DIR")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.HTTPAddr, "HTTP_ADDR")
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func (c *AppConfig) Validate() error {
	if c.BoardSize <= 0 {
		return fmt.Errorf("board size must be positive, got %v", c.BoardSize)
	}
	for name, v := range map[string]string{"light color": c.LightColor, "dark color": c.DarkColor} {
		if _, err := render.ParseHexColor(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if strings.TrimSpace(c.BorderColor) != "" {
		if _, err := render.ParseHexColor(c.BorderColor); err != nil {
			return fmt.Errorf("border color: %w", err)
		}
	}
	if _, err := render.ParseTarget(c.Target); err != nil {
		return err
	}
	if c.Quality <= 0 {
		return errors.New("quality must be positive")
	}
	if c.MaxSurfaceDim <= 0 {
		return errors.New("max surface dimension must be positive")
	}
	if c.MinQuality <= 0 {
		return errors.New("minimum quality must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be within 1..100, got %d", c.JPEGQuality)
	}
	return nil
}

func (c *AppConfig) QualityPolicy() render.QualityPolicy {
	return render.QualityPolicy{MaxDimension: c.MaxSurfaceDim, MinMultiplier: c.MinQuality}
}

func (c *AppConfig) PollInterval() time.Duration {
	if c.PausePollMS <= 0 {
		return 0
	}
	return time.Duration(c.PausePollMS) * time.Millisecond
}

// RenderConfig is the base render configuration; callers fill in FEN per board.
func (c *AppConfig) RenderConfig(set pieces.Set) render.Config {
	target, _ := render.ParseTarget(c.Target)
	return render.Config{
		BoardSize:       c.BoardSize,
		ShowCoordinates: c.ShowCoordinates,
		LightColor:      c.LightColor,
		DarkColor:       c.DarkColor,
		BorderColor:     c.BorderColor,
		Flipped:         c.Flipped,
		Pieces:          set,
		Quality:         c.Quality,
		Target:          target,
	}
}
