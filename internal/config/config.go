package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/JMS2088/gablok/pkg/perimeter"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "gablok.yaml"

// Config holds engine and server settings.
type Config struct {
	Perimeter    perimeter.Config `yaml:"perimeter"`
	Port         string           `yaml:"port"`
	DBPath       string           `yaml:"db_path"`
	ProjectDir   string           `yaml:"project_dir"`
	ReadTimeout  int              `yaml:"read_timeout"`
	WriteTimeout int              `yaml:"write_timeout"`
	SnapshotKeep int              `yaml:"snapshot_keep"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Perimeter:    perimeter.DefaultConfig(),
		Port:         "8080",
		DBPath:       "gablok.db",
		ProjectDir:   ".",
		ReadTimeout:  10,
		WriteTimeout: 10,
		SnapshotKeep: 20,
	}
}

// Load layers defaults, the YAML file at path and GABLOK_* environment
// variables, in that order. An empty path reads DefaultFile if it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("GABLOK_PORT", c.Port)
	c.DBPath = getEnv("GABLOK_DB", c.DBPath)
	c.ProjectDir = getEnv("GABLOK_PROJECT_DIR", c.ProjectDir)
	c.ReadTimeout = getEnvAsInt("GABLOK_READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getEnvAsInt("GABLOK_WRITE_TIMEOUT", c.WriteTimeout)
	c.SnapshotKeep = getEnvAsInt("GABLOK_SNAPSHOT_KEEP", c.SnapshotKeep)

	p := &c.Perimeter
	p.DefaultThickness = getEnvAsFloat("GABLOK_THICKNESS", p.DefaultThickness)
	p.StoreyHeight = getEnvAsFloat("GABLOK_STOREY_HEIGHT", p.StoreyHeight)
	p.DragPadding = getEnvAsFloat("GABLOK_DRAG_PADDING", p.DragPadding)
	p.WeldTolerance = getEnvAsFloat("GABLOK_WELD_TOLERANCE", p.WeldTolerance)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	p := c.Perimeter
	switch {
	case p.MinThickness <= 0:
		return fmt.Errorf("perimeter.min_thickness must be positive, got %v", p.MinThickness)
	case p.DefaultThickness < p.MinThickness:
		return fmt.Errorf("perimeter.default_thickness %v is below min_thickness %v", p.DefaultThickness, p.MinThickness)
	case p.StoreyHeight <= 0:
		return fmt.Errorf("perimeter.storey_height must be positive, got %v", p.StoreyHeight)
	case p.DragPadding < 0:
		return fmt.Errorf("perimeter.drag_padding must not be negative, got %v", p.DragPadding)
	case p.WeldTolerance < 0:
		return fmt.Errorf("perimeter.weld_tolerance must not be negative, got %v", p.WeldTolerance)
	case c.SnapshotKeep < 1:
		return fmt.Errorf("snapshot_keep must be at least 1, got %d", c.SnapshotKeep)
	case c.Port == "":
		return errors.New("port must be set")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
