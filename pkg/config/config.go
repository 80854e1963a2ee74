package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
)

// FileName is the project configuration file searched for from the working
// directory upwards.
const FileName = "gobeta.toml"

// EnvPrefix prefixes environment overrides, e.g. GOBETA_MAX_STEPS.
const EnvPrefix = "GOBETA_"

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Duration is a time.Duration read from a Go duration string such as "2s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds evaluation and shell settings.
type Config struct {
	// MaxSteps bounds the number of contractions per evaluation; 0 is unbounded.
	MaxSteps int `toml:"max_steps"`

	// Timeout bounds the wall time of a single evaluation; 0 is unbounded.
	Timeout Duration `toml:"timeout"`

	// ShowSteps prints every intermediate term.
	ShowSteps bool `toml:"show_steps"`

	// Stats prints step counts and timing to stderr.
	Stats bool `toml:"stats"`

	// Color is one of "auto", "always" or "never".
	Color string `toml:"color"`

	// TraceSize is the number of contractions kept for inspection after a
	// run; 0 keeps none.
	TraceSize int `toml:"trace_size"`

	// Workers bounds the number of files evaluated at once in batch mode.
	Workers int `toml:"workers"`

	// HistoryFile is where the REPL keeps its history.
	HistoryFile string `toml:"history_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxSteps:    10000,
		Color:       ColorAuto,
		TraceSize:   64,
		Workers:     4,
		HistoryFile: filepath.Join(xdg.DataHome, "gobeta", "history"),
	}
}

// UserPath is the per-user configuration file.
func UserPath() string {
	return filepath.Join(xdg.ConfigHome, "gobeta", "config.toml")
}

// LoadFile decodes path over cfg. Keys absent from the file keep their
// current values.
func LoadFile(path string, cfg *Config) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}
	return cfg.Validate()
}

// Find searches for gobeta.toml starting from dir and walking up to parent
// directories. It returns "" when there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load builds the configuration from defaults, the user file, the nearest
// project file above dir (or explicit, when non-empty) and the environment.
func Load(dir, explicit string) (Config, error) {
	cfg := Default()

	if user := UserPath(); fileExists(user) {
		if err := LoadFile(user, &cfg); err != nil {
			return cfg, err
		}
	}

	path := explicit
	if path == "" {
		found, err := Find(dir)
		if err != nil {
			return cfg, errors.Wrap(err, "finding "+FileName)
		}
		path = found
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// EnvName returns the environment variable overriding the named Config field.
func EnvName(field string) string {
	return EnvPrefix + strcase.ToScreamingSnake(field)
}

// ApplyEnv overrides fields of cfg from GOBETA_* variables.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	rv := reflect.ValueOf(cfg).Elem()
	rt := rv.Type()
	for i := range rt.NumField() {
		field := rt.Field(i)
		name := EnvName(field.Name)
		raw, ok := lookup(name)
		if !ok {
			continue
		}
		if err := setField(rv.Field(i), raw); err != nil {
			return errors.Wrapf(err, "invalid %s=%q", name, raw)
		}
	}
	return cfg.Validate()
}

func setField(fv reflect.Value, raw string) error {
	if u, ok := fv.Addr().Interface().(interface{ UnmarshalText([]byte) error }); ok {
		return u.UnmarshalText([]byte(raw))
	}
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	default:
		return errors.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}

// Validate rejects out-of-range settings.
func (c Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return errors.Errorf("color must be %q, %q or %q, got %q", ColorAuto, ColorAlways, ColorNever, c.Color)
	}
	if c.MaxSteps < 0 {
		return errors.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	}
	if c.Timeout.Duration < 0 {
		return errors.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.TraceSize < 0 {
		return errors.Errorf("trace_size must not be negative, got %d", c.TraceSize)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
