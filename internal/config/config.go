package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"geostaff-client/internal/model"
)

type Config struct {
	APIURL         string        `yaml:"api_url"`
	Env            string        `yaml:"env"`
	StateDir       string        `yaml:"state_dir"`
	Locale         string        `yaml:"locale"`
	Timezone       string        `yaml:"timezone"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LocateTimeout  time.Duration `yaml:"locate_timeout"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	RefetchDelay   time.Duration `yaml:"refetch_delay"`
	PhotoPath      string        `yaml:"photo"`
	ExportDir      string        `yaml:"export_dir"`
	PhotoMaxWidth  int           `yaml:"photo_max_width"`
	PhotoQuality   int           `yaml:"photo_quality"`
	Latitude       *float64      `yaml:"latitude"`
	Longitude      *float64      `yaml:"longitude"`
	Accuracy       *float64      `yaml:"accuracy"`
	Debug          bool          `yaml:"debug"`
}

func defaults() *Config {
	stateDir := ".geostaff"
	if dir, err := os.UserConfigDir(); err == nil {
		stateDir = filepath.Join(dir, "geostaff")
	}
	return &Config{
		APIURL:         "http://localhost:8000/api/v1",
		Env:            "development",
		StateDir:       stateDir,
		Locale:         "en",
		Timezone:       "Asia/Kolkata",
		RequestTimeout: 30 * time.Second,
		LocateTimeout:  10 * time.Second,
		RetryDelay:     2 * time.Second,
		RefetchDelay:   500 * time.Millisecond,
		PhotoMaxWidth:  640,
		PhotoQuality:   80,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// GEOSTAFF_CONFIG, then the environment. A .env file in the working
// directory is loaded into the environment first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("ERROR load .env: %v", err)
	}

	cfg := defaults()
	if path := os.Getenv("GEOSTAFF_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	var errs []error
	cfg.APIURL = strings.TrimRight(getEnv("GEOSTAFF_API_URL", cfg.APIURL), "/")
	cfg.Env = getEnv("GEOSTAFF_ENV", cfg.Env)
	cfg.StateDir = getEnv("GEOSTAFF_STATE_DIR", cfg.StateDir)
	cfg.Locale = getEnv("GEOSTAFF_LOCALE", cfg.Locale)
	cfg.Timezone = getEnv("GEOSTAFF_TIMEZONE", cfg.Timezone)
	cfg.PhotoPath = getEnv("GEOSTAFF_PHOTO", cfg.PhotoPath)
	cfg.ExportDir = getEnv("GEOSTAFF_EXPORT_DIR", cfg.ExportDir)
	cfg.RequestTimeout = getDuration("GEOSTAFF_REQUEST_TIMEOUT", cfg.RequestTimeout, &errs)
	cfg.LocateTimeout = getDuration("GEOSTAFF_LOCATE_TIMEOUT", cfg.LocateTimeout, &errs)
	cfg.RetryDelay = getDuration("GEOSTAFF_RETRY_DELAY", cfg.RetryDelay, &errs)
	cfg.RefetchDelay = getDuration("GEOSTAFF_REFETCH_DELAY", cfg.RefetchDelay, &errs)
	cfg.PhotoMaxWidth = getInt("GEOSTAFF_PHOTO_MAX_WIDTH", cfg.PhotoMaxWidth, &errs)
	cfg.PhotoQuality = getInt("GEOSTAFF_PHOTO_QUALITY", cfg.PhotoQuality, &errs)
	cfg.Latitude = getFloat("GEOSTAFF_LAT", cfg.Latitude, &errs)
	cfg.Longitude = getFloat("GEOSTAFF_LNG", cfg.Longitude, &errs)
	cfg.Accuracy = getFloat("GEOSTAFF_ACCURACY", cfg.Accuracy, &errs)
	cfg.Debug = getBool("GEOSTAFF_DEBUG", cfg.Debug, &errs)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Location is the zone attendance days are grouped in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Fix returns the configured coordinates, or nil when either is unset.
func (c *Config) Fix() *model.Location {
	if c.Latitude == nil || c.Longitude == nil {
		return nil
	}
	return &model.Location{
		Latitude:  *c.Latitude,
		Longitude: *c.Longitude,
		Accuracy:  c.Accuracy,
	}
}

// IsDevelopment reports whether the backend is a development deployment,
// which echoes one-time passwords back to the client.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func getInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getFloat(key string, fallback *float64, errs *[]error) *float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return &f
}

func getBool(key string, fallback bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}
