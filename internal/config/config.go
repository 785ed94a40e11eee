// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config resolves gencommit settings from flags, GENCOMMIT_*
// environment variables, .gencommit.yaml and built-in defaults, in that order
// of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/bartekus/gencommit/internal/diff"
	"github.com/bartekus/gencommit/internal/prompt"
	"github.com/bartekus/gencommit/internal/tree"
	"github.com/bartekus/gencommit/internal/validate"
)

// EnvPrefix prefixes every environment override, e.g. GENCOMMIT_MAX_DIFF_SIZE.
const EnvPrefix = "GENCOMMIT"

// FileName is the config file looked up in the repository root and $HOME.
const FileName = ".gencommit.yaml"

// ErrInvalidConfig marks configuration that failed validation or parsing.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the effective configuration of one run.
type Config struct {
	MaxInputSize         int           `mapstructure:"max_input_size" yaml:"max_input_size" validate:"gt=0"`
	MaxDiffSize          int           `mapstructure:"max_diff_size" yaml:"max_diff_size" validate:"gt=0,ltefield=MaxInputSize"`
	TreeDepth            int           `mapstructure:"tree_depth" yaml:"tree_depth" validate:"gte=1"`
	CompressionThreshold int           `mapstructure:"compression_threshold" yaml:"compression_threshold" validate:"gte=1"`
	MaxTitleLength       int           `mapstructure:"max_title_length" yaml:"max_title_length" validate:"gte=10"`
	Timeout              time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	MaxRetries           int           `mapstructure:"max_retries" yaml:"max_retries" validate:"gte=0,lte=5"`
	TitleLang            string        `mapstructure:"title_lang" yaml:"title_lang" validate:"oneof=en ko"`
	MessageLang          string        `mapstructure:"message_lang" yaml:"message_lang" validate:"oneof=en ko"`
	Model                string        `mapstructure:"model" yaml:"model"`
	ExcludeDirs          []string      `mapstructure:"exclude_dirs" yaml:"exclude_dirs"`

	// Source is the config file that was read, if any.
	Source string `mapstructure:"-" yaml:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		MaxInputSize:         30000,
		MaxDiffSize:          15000,
		TreeDepth:            tree.DefaultTreeDepth,
		CompressionThreshold: tree.DefaultCompressionThreshold,
		MaxTitleLength:       validate.DefaultMaxTitleLength,
		Timeout:              120 * time.Second,
		MaxRetries:           2,
		TitleLang:            "en",
		MessageLang:          "ko",
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"max-input-size":        "max_input_size",
	"max-diff-size":         "max_diff_size",
	"tree-depth":            "tree_depth",
	"compression-threshold": "compression_threshold",
	"max-title-length":      "max_title_length",
	"timeout":               "timeout",
	"max-retries":           "max_retries",
	"title-lang":            "title_lang",
	"message-lang":          "message_lang",
	"model":                 "model",
	"exclude-dir":           "exclude_dirs",
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// File is an explicit config file; when set the search is skipped and
	// the file must exist.
	File string
	// SearchDirs are tried in order for FileName. Defaults to $HOME.
	SearchDirs []string
	// Flags are bound on top of every other source. Only flags that were set
	// override lower layers.
	Flags *pflag.FlagSet
}

// Load resolves, decodes and validates the configuration.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	source, err := readFile(v, opts)
	if err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		if err := BindFlags(opts.Flags, v); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "binding flags"), ErrInvalidConfig)
		}
		// --lang sets both languages unless a narrower flag was given.
		if f := opts.Flags.Lookup("lang"); f != nil && f.Changed {
			for _, key := range []string{"title_lang", "message_lang"} {
				if nf := opts.Flags.Lookup(strings.ReplaceAll(key, "_", "-")); nf == nil || !nf.Changed {
					v.Set(key, f.Value.String())
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decoding configuration"), ErrInvalidConfig)
	}
	cfg.Source = source

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("max_input_size", d.MaxInputSize)
	v.SetDefault("max_diff_size", d.MaxDiffSize)
	v.SetDefault("tree_depth", d.TreeDepth)
	v.SetDefault("compression_threshold", d.CompressionThreshold)
	v.SetDefault("max_title_length", d.MaxTitleLength)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("title_lang", d.TitleLang)
	v.SetDefault("message_lang", d.MessageLang)
	v.SetDefault("model", d.Model)
	v.SetDefault("exclude_dirs", []string{})
}

func readFile(v *viper.Viper, opts LoadOptions) (string, error) {
	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return "", errors.Mark(errors.Wrapf(err, "reading %s", opts.File), ErrInvalidConfig)
		}
		return v.ConfigFileUsed(), nil
	}

	dirs := opts.SearchDirs
	if len(dirs) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			dirs = []string{home}
		}
	}
	for _, dir := range dirs {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return "", errors.Mark(errors.Wrapf(err, "reading %s", path), ErrInvalidConfig)
		}
		return path, nil
	}
	return "", nil
}

// BindFlags binds every known flag in fs to its config key, collecting all
// binding errors.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	var result error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			result = multierror.Append(result, err)
		}
	})
	return result
}

var validate10 = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every rule and reports all violations at once.
func (c *Config) Validate() error {
	err := validate10.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Mark(err, ErrInvalidConfig)
	}

	var result *multierror.Error
	for _, fe := range verrs {
		result = multierror.Append(result, errors.Newf("%s: %s", keyOf(fe.StructField()), describe(fe)))
	}
	return errors.WithHint(
		errors.Mark(errors.Wrap(result.ErrorOrNil(), "configuration"), ErrInvalidConfig),
		"run `gencommit config show` to see the effective values")
}

func keyOf(field string) string {
	for _, k := range []struct{ field, key string }{
		{"MaxInputSize", "max_input_size"},
		{"MaxDiffSize", "max_diff_size"},
		{"TreeDepth", "tree_depth"},
		{"CompressionThreshold", "compression_threshold"},
		{"MaxTitleLength", "max_title_length"},
		{"Timeout", "timeout"},
		{"MaxRetries", "max_retries"},
		{"TitleLang", "title_lang"},
		{"MessageLang", "message_lang"},
	} {
		if k.field == field {
			return k.key
		}
	}
	return field
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("must be greater than %s, got %v", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("must be at most %s, got %v", fe.Param(), fe.Value())
	case "ltefield":
		return fmt.Sprintf("must not exceed %s, got %v", keyOf(fe.Param()), fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// Budget is the diff budget for this configuration.
func (c *Config) Budget() diff.Budget {
	return diff.Budget{MaxInputSize: c.MaxInputSize, MaxDiffSize: c.MaxDiffSize}
}

// TreeOptions are the summarizer settings for this configuration.
func (c *Config) TreeOptions() tree.Options {
	return tree.Options{CompressionThreshold: c.CompressionThreshold, TreeDepth: c.TreeDepth}
}

// Languages are the requested title and message languages.
func (c *Config) Languages() prompt.Languages {
	return prompt.Languages{Title: c.TitleLang, Message: c.MessageLang}
}

// YAML renders the configuration as it would appear in FileName.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
