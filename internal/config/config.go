// Package config loads nbmetaclean settings from the [tool.nbmetaclean]
// table of pyproject.toml and feeds them to viper.
//
// Settings from pyproject.toml are installed as viper defaults, so a config
// file, NBMETACLEAN_* environment variables and flags all override them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/ayasyrev/nbmetaclean/internal/logger"
)

// FileName is the project file searched for settings.
const FileName = "pyproject.toml"

// EnvPrefix prefixes environment variables read by the commands.
const EnvPrefix = "NBMETACLEAN"

// Setting keys shared by pyproject.toml, the yaml config file, the
// environment and flags (with "_" written as "-").
const (
	KeySilent                   = "silent"
	KeyVerbose                  = "verbose"
	KeyDryRun                   = "dry_run"
	KeyNotPT                    = "not_pt"
	KeyDontClearNBMetadata      = "dont_clear_nb_metadata"
	KeyDontClearCellMetadata    = "dont_clear_cell_metadata"
	KeyDontClearExecutionCount  = "dont_clear_execution_count"
	KeyClearOutputs             = "clear_outputs"
	KeyNBMetadataPreserveMask   = "nb_metadata_preserve_mask"
	KeyCellMetadataPreserveMask = "cell_metadata_preserve_mask"
	KeyDontMergeMasks           = "dont_merge_masks"
	KeyCleanHiddenNbs           = "clean_hidden_nbs"
	KeyConcurrency              = "concurrency"
	KeyFormat                   = "format"
	KeyWatch                    = "watch"

	KeyEC        = "ec"
	KeyErr       = "err"
	KeyWarn      = "warn"
	KeyNotStrict = "not_strict"
	KeyNoExec    = "no_exec"
	KeyHidden    = "hidden"
)

// Keys lists every known setting.
func Keys() []string {
	return []string{
		KeySilent, KeyVerbose, KeyDryRun, KeyNotPT,
		KeyDontClearNBMetadata, KeyDontClearCellMetadata, KeyDontClearExecutionCount,
		KeyClearOutputs, KeyNBMetadataPreserveMask, KeyCellMetadataPreserveMask,
		KeyDontMergeMasks, KeyCleanHiddenNbs, KeyConcurrency, KeyFormat, KeyWatch,
		KeyEC, KeyErr, KeyWarn, KeyNotStrict, KeyNoExec, KeyHidden,
	}
}

// FlagName returns the command line flag for a setting key.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Settings holds the [tool.nbmetaclean] table with normalized keys.
type Settings map[string]any

type pyproject struct {
	Tool struct {
		NBMetaclean map[string]any `toml:"nbmetaclean"`
	} `toml:"tool"`
}

// Find returns the nearest pyproject.toml at or above dir, or "" when
// there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, FileName)
		info, err := os.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			return candidate, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads the [tool.nbmetaclean] table of the pyproject.toml at path.
// Keys written with dashes are normalized to underscores. A file without
// the table yields empty settings.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	settings := make(Settings, len(doc.Tool.NBMetaclean))
	known := Keys()
	for k, v := range doc.Tool.NBMetaclean {
		key := strings.ReplaceAll(strings.ToLower(k), "-", "_")
		if !slices.Contains(known, key) {
			logger.Warn("unknown setting in pyproject.toml", "path", path, "key", k)
			continue
		}
		settings[key] = v
	}
	return settings, nil
}

// Apply installs settings as viper defaults.
func (s Settings) Apply(v *viper.Viper) {
	for k, val := range s {
		v.SetDefault(k, val)
	}
}

// LoadInto finds the pyproject.toml for dir and applies its settings to v.
// It returns the file used, or "" when none was found.
func LoadInto(v *viper.Viper, dir string) (string, error) {
	path, err := Find(dir)
	if err != nil || path == "" {
		return "", err
	}
	settings, err := Load(path)
	if err != nil {
		return "", err
	}
	settings.Apply(v)
	logger.Debug("loaded pyproject settings", "path", path, "keys", len(settings))
	return path, nil
}

// NewViper returns a viper instance with defaults from the pyproject.toml
// found from dir, the .nbmetaclean.yaml config file (or cfgFile when set)
// and environment variables. Flags are bound by the caller.
func NewViper(dir, cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	if _, err := LoadInto(v, dir); err != nil {
		return nil, err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".nbmetaclean")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		logger.Debug("using config file", "path", v.ConfigFileUsed())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v, nil
}
