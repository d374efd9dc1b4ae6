// Package config loads settings from defaults, a YAML file, VOCABDECK_
// environment variables and command-line flags, later sources winning.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // Zone names resolve without system tzdata

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	appName   = "vocabdeck"
	envPrefix = "VOCABDECK_"
)

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Study    StudyConfig    `koanf:"study"`
	Sources  SourcesConfig  `koanf:"sources"`
	Log      LogConfig      `koanf:"log"`
	User     string         `koanf:"user" validate:"required"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"` // ":memory:" for a throwaway database
}

// StudyConfig holds the scheduler and queue settings.
type StudyConfig struct {
	MaxNew         int             `koanf:"max_new" validate:"min=0,max=1000"`
	MaxReview      int             `koanf:"max_review" validate:"min=0,max=10000"`
	LearningSteps  []time.Duration `koanf:"learning_steps" validate:"min=1,max=10,dive,gt=0"`
	Timezone       string          `koanf:"timezone" validate:"omitempty,timezone"` // empty means the system zone
	SelfHealWindow time.Duration   `koanf:"self_heal_window" validate:"gte=0"`
}

// SourcesConfig holds sync settings.
type SourcesConfig struct {
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Location returns the zone calendar days are computed in.
func (c *Config) Location() (*time.Location, error) {
	if c.Study.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Study.Timezone)
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"db":         "database.path",
	"user":       "user",
	"max-new":    "study.max_new",
	"max-review": "study.max_review",
	"timezone":   "study.timezone",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to the YAML config file (default $XDG_CONFIG_HOME/vocabdeck/config.yaml)")
	fs.String("db", "", "path to the SQLite database")
	fs.StringP("user", "u", "", "learner id")
	fs.Int("max-new", 0, "new cards per day")
	fs.Int("max-review", 0, "review cards per day")
	fs.String("timezone", "", "IANA zone used for the study day")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-format", "", "text or json")
}

// DefaultPath is the config file read when --config is not given.
func DefaultPath() string {
	xdg.Reload()
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

func defaults() map[string]interface{} {
	xdg.Reload()
	dataDir := filepath.Join(xdg.DataHome, appName)
	return map[string]interface{}{
		"database.path":          filepath.Join(dataDir, appName+".db"),
		"study.max_new":          20,
		"study.max_review":       100,
		"study.learning_steps":   []string{"1m", "10m"},
		"study.timezone":         "",
		"study.self_heal_window": "60s",
		"sources.repos_dir":      filepath.Join(dataDir, "repos"),
		"log.level":              "info",
		"log.format":             "text",
		"user":                   "default",
	}
}

// Load builds the configuration. fs may be nil; when it is set, only flags
// the user changed override the other sources.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path, explicit := DefaultPath(), false
	if fs != nil {
		if p, _ := fs.GetString("config"); p != "" {
			path, explicit = p, true
		}
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns VOCABDECK_STUDY__MAX_NEW into study.max_new. Learning steps
// are given as a comma-separated list.
func envKey(name, value string) (string, interface{}) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, envPrefix)), "__", ".")
	if key == "study.learning_steps" {
		steps := strings.Split(value, ",")
		for i := range steps {
			steps[i] = strings.TrimSpace(steps[i])
		}
		return key, steps
	}
	return key, value
}

// Validate checks cfg against its field constraints.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
