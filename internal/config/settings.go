package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Settings holds the runtime configuration read from ASTRO_* environment variables.
// Unset or empty values take the Default* constants. A field with an
// envconfig tag also falls back to the unprefixed name, so Language has no
// tag and reads ASTRO_LANGUAGE only, never the system LANG.
type Settings struct {
	DBPath        string        `envconfig:"DB_PATH"`
	JournalPath   string        `envconfig:"JOURNAL_PATH"`
	Language      string
	WrapWidth     int           `envconfig:"WRAP_WIDTH"`
	HTTPTimeout   time.Duration `envconfig:"HTTP_TIMEOUT"`
	EndpointsFile string        `envconfig:"ENDPOINTS_FILE"`
	ServePort     string        `envconfig:"SERVE_PORT"`

	// Endpoints is not read from the environment; it starts from the
	// defaults and is overridden by EndpointsFile when set.
	Endpoints Endpoints `ignored:"true"`
}

// Endpoints holds the URL templates of the horoscope site.
// Daily, Weekly and Monthly take {ordinal}; Yearly takes {sign} and {year};
// Compatibility takes {signs}.
type Endpoints struct {
	Daily         string `yaml:"daily"`
	Weekly        string `yaml:"weekly"`
	Monthly       string `yaml:"monthly"`
	Yearly        string `yaml:"yearly"`
	Compatibility string `yaml:"compatibility"`
}

// DefaultEndpoints returns the built-in templates.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Daily:         EndpointDaily,
		Weekly:        EndpointWeekly,
		Monthly:       EndpointMonthly,
		Yearly:        EndpointYearly,
		Compatibility: EndpointCompatibility,
	}
}

// LoadSettings reads the environment, fills path defaults under the user cache
// directory and merges the optional endpoints file.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := envconfig.Process(EnvPrefix, &s); err != nil {
		return s, fmt.Errorf("%s: %w", ErrSettingsLoad, err)
	}

	if s.WrapWidth <= 0 {
		s.WrapWidth = DefaultWrapWidth
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.HTTPTimeout <= 0 {
		s.HTTPTimeout = HTTPTimeout
	}
	if s.ServePort == "" {
		s.ServePort = DefaultPort
	}

	if s.DBPath == "" {
		dir, err := AppCacheDir()
		if err != nil {
			return s, err
		}
		s.DBPath = filepath.Join(dir, DBFileName)
	}

	s.Endpoints = DefaultEndpoints()
	if s.EndpointsFile != "" {
		ep, err := LoadEndpoints(s.EndpointsFile, s.Endpoints)
		if err != nil {
			return s, err
		}
		s.Endpoints = ep
	}

	slog.Debug(MsgSettingsLoaded,
		LogKeyComponent, CompMain,
		LogKeyPath, s.DBPath,
		LogKeyLang, s.Language,
	)
	return s, nil
}

// LoadEndpoints overlays the templates found in a YAML file on base.
// Keys missing from the file keep the base value.
func LoadEndpoints(path string, base Endpoints) (Endpoints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("%s: %w", ErrEndpointsLoad, err)
	}

	var file Endpoints
	if err := yaml.Unmarshal(data, &file); err != nil {
		return base, fmt.Errorf("%s: %w", ErrEndpointsLoad, err)
	}

	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&base.Daily, file.Daily)
	overlay(&base.Weekly, file.Weekly)
	overlay(&base.Monthly, file.Monthly)
	overlay(&base.Yearly, file.Yearly)
	overlay(&base.Compatibility, file.Compatibility)
	return base, nil
}

// AppCacheDir returns (and creates with 0700) the per-user application directory.
func AppCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, AppID)
	if err := os.MkdirAll(appDir, DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", ErrCreateDir, err)
	}
	return appDir, nil
}
