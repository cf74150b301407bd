package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	defaultQuality       = 95
	defaultPlayerCommand = "playerctl"
	defaultPlayerTimeout = 5 * time.Second
	defaultCoverName     = "album_cover.jpg"
)

// Config holds all application configuration
type Config struct {
	Output struct {
		Path      string `mapstructure:"path"`
		Quality   int    `mapstructure:"quality"`
		ColorFile string `mapstructure:"color_file"`
	} `mapstructure:"output"`
	Player struct {
		Command string        `mapstructure:"command"`
		Name    string        `mapstructure:"name"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"player"`
	Artwork struct {
		MaxSize int `mapstructure:"max_size"`
	} `mapstructure:"artwork"`
}

// configError describes a single invalid configuration field
type configError struct {
	field   string
	message string
}

func (e configError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.message)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output.path", "")
	v.SetDefault("output.quality", defaultQuality)
	v.SetDefault("output.color_file", "")
	v.SetDefault("player.command", defaultPlayerCommand)
	v.SetDefault("player.name", "")
	v.SetDefault("player.timeout", defaultPlayerTimeout)
	v.SetDefault("artwork.max_size", 0)
}

// loadConfig reads defaults, the config file, GETCOVER_* environment variables
// and any flags already bound to v, in increasing order of precedence.
func loadConfig(v *viper.Viper, configFile string, rep *reporter) Config {
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		// Set config file location following XDG standard
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check XDG_CONFIG_HOME first, fallback to ~/.config
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			homeDir, err := os.UserHomeDir()
			if err == nil {
				configHome = filepath.Join(homeDir, ".config")
			}
		}

		if configHome != "" {
			v.AddConfigPath(filepath.Join(configHome, "getcover"))
		}
	}

	v.SetEnvPrefix("GETCOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore error if not found)
	if err := v.ReadInConfig(); err != nil {
		// An explicitly requested file must exist, the XDG one is optional
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			rep.Warn("Error reading config file: %v", err)
		}
	} else {
		rep.Debug("Using config file %s", v.ConfigFileUsed())
	}

	cfg, errs := decodeConfig(v)
	errs = append(errs, validateConfig(&cfg)...)
	if len(errs) > 0 {
		printConfigWarnings(rep, errs)
		applyDefaultsForInvalidFields(&cfg, errs)
	}

	return cfg
}

// decodeConfig reads every key on its own so one malformed value only
// resets that field; the rest of the flags, env and file settings survive
func decodeConfig(v *viper.Viper) (Config, []error) {
	var cfg Config
	var errs []error

	cfg.Output.Path = v.GetString("output.path")
	cfg.Output.ColorFile = v.GetString("output.color_file")
	cfg.Player.Command = v.GetString("player.command")
	cfg.Player.Name = v.GetString("player.name")

	var err error
	if cfg.Output.Quality, err = cast.ToIntE(v.Get("output.quality")); err != nil {
		errs = append(errs, badValue("output.quality", v))
		cfg.Output.Quality = defaultQuality
	}
	if cfg.Player.Timeout, err = cast.ToDurationE(v.Get("player.timeout")); err != nil {
		errs = append(errs, badValue("player.timeout", v))
		cfg.Player.Timeout = defaultPlayerTimeout
	}
	if cfg.Artwork.MaxSize, err = cast.ToIntE(v.Get("artwork.max_size")); err != nil {
		errs = append(errs, badValue("artwork.max_size", v))
		cfg.Artwork.MaxSize = 0
	}

	return cfg, errs
}

func badValue(key string, v *viper.Viper) configError {
	return configError{field: key, message: fmt.Sprintf("cannot parse %q", fmt.Sprint(v.Get(key)))}
}

// validateConfig returns one configError per invalid field
func validateConfig(cfg *Config) []error {
	var errs []error

	if cfg.Output.Quality < 1 || cfg.Output.Quality > 100 {
		errs = append(errs, configError{
			field:   "output.quality",
			message: fmt.Sprintf("must be between 1 and 100 (got %d)", cfg.Output.Quality),
		})
	}

	if strings.TrimSpace(cfg.Player.Command) == "" {
		errs = append(errs, configError{field: "player.command", message: "must not be empty"})
	}

	if cfg.Player.Timeout <= 0 {
		errs = append(errs, configError{
			field:   "player.timeout",
			message: fmt.Sprintf("must be positive (got %s)", cfg.Player.Timeout),
		})
	}

	if cfg.Artwork.MaxSize < 0 {
		errs = append(errs, configError{
			field:   "artwork.max_size",
			message: fmt.Sprintf("must be 0 or greater (got %d)", cfg.Artwork.MaxSize),
		})
	}

	return errs
}

// applyDefaultsForInvalidFields resets every field named in errs to its default
func applyDefaultsForInvalidFields(cfg *Config, errs []error) {
	for _, err := range errs {
		var ce configError
		if !errors.As(err, &ce) {
			continue
		}
		switch ce.field {
		case "output.quality":
			cfg.Output.Quality = defaultQuality
		case "player.command":
			cfg.Player.Command = defaultPlayerCommand
		case "player.timeout":
			cfg.Player.Timeout = defaultPlayerTimeout
		case "artwork.max_size":
			cfg.Artwork.MaxSize = 0
		}
	}
}

func printConfigWarnings(rep *reporter, errs []error) {
	for _, err := range errs {
		rep.Warn("Invalid config %v, using default", err)
	}
}

// defaultOutputPath places the cover next to the running executable
func defaultOutputPath() string {
	exe, err := os.Executable()
	if err != nil {
		return defaultCoverName
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), defaultCoverName)
}
