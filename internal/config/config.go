// Package config loads runtime configuration from a YAML file, a .env file and
// OVERLAP_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/benedoc-inc/overlap/core/annotate"
	"github.com/benedoc-inc/overlap/core/extract"
	"github.com/benedoc-inc/overlap/core/match"
	"github.com/benedoc-inc/overlap/types"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "OVERLAP_"

// Storage modes
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	MinLength     int    `yaml:"min_length"`
	Workers       int    `yaml:"workers"`
	Exhaustive    bool   `yaml:"exhaustive"`
	Normalizer    string `yaml:"normalizer"`
	PDFNormalizer string `yaml:"pdf_normalizer"`
	FoldWidth     bool   `yaml:"fold_width"`
	LabelFormat   string `yaml:"label_format"`
	OutputDir     string `yaml:"output_dir"`

	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

type StorageConfig struct {
	Mode   string `yaml:"mode"` // local or s3
	Dir    string `yaml:"dir"`  // local root; defaults to OutputDir
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix"`
}

type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"` // empty uses an in-process cache
	TTL       time.Duration `yaml:"ttl"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	BodyLimit int    `yaml:"body_limit"` // bytes
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() Config {
	return Config{
		MinLength:     match.DefaultMinLength,
		Workers:       runtime.GOMAXPROCS(0),
		Normalizer:    string(extract.NormalizeWhitespace),
		PDFNormalizer: string(extract.NormalizeHanOnly),
		LabelFormat:   annotate.DefaultLabelFormat,
		OutputDir:     "output",
		Storage:       StorageConfig{Mode: StorageLocal},
		Cache:         CacheConfig{TTL: 24 * time.Hour},
		Server:        ServerConfig{Addr: ":8080", BodyLimit: 64 << 20},
		Log:           LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads path (optional; empty or missing uses Defaults), then .env, then
// the environment, and validates the result.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, types.WrapError(types.ErrCodeIOError, "failed to read config file", err).WithContext("path", path)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, types.WrapError(types.ErrCodeInvalidConfiguration, "failed to parse config file", err).WithContext("path", path)
			}
		}
	}

	// A missing .env is not an error
	_ = godotenv.Load()

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from OVERLAP_* variables found by lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var err error
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok && err == nil {
			n, perr := strconv.Atoi(strings.TrimSpace(v))
			if perr != nil {
				err = envError(key, v, perr)
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok && err == nil {
			b, perr := strconv.ParseBool(strings.TrimSpace(v))
			if perr != nil {
				err = envError(key, v, perr)
				return
			}
			*dst = b
		}
	}

	num("MIN_LENGTH", &c.MinLength)
	num("WORKERS", &c.Workers)
	flag("EXHAUSTIVE", &c.Exhaustive)
	str("NORMALIZER", &c.Normalizer)
	str("PDF_NORMALIZER", &c.PDFNormalizer)
	flag("FOLD_WIDTH", &c.FoldWidth)
	str("LABEL_FORMAT", &c.LabelFormat)
	str("OUTPUT_DIR", &c.OutputDir)
	str("STORAGE_MODE", &c.Storage.Mode)
	str("STORAGE_DIR", &c.Storage.Dir)
	str("S3_BUCKET", &c.Storage.Bucket)
	str("S3_REGION", &c.Storage.Region)
	str("S3_PREFIX", &c.Storage.Prefix)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	if v, ok := lookup(EnvPrefix + "CACHE_TTL"); ok && err == nil {
		d, perr := time.ParseDuration(strings.TrimSpace(v))
		if perr != nil {
			err = envError("CACHE_TTL", v, perr)
		} else {
			c.Cache.TTL = d
		}
	}
	str("SERVER_ADDR", &c.Server.Addr)
	num("BODY_LIMIT", &c.Server.BodyLimit)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	return err
}

func envError(key, value string, cause error) error {
	return types.WrapError(types.ErrCodeInvalidConfiguration, "invalid environment value", cause).
		WithContext("variable", EnvPrefix+key).
		WithContext("value", value)
}

// Validate checks the configuration for values no component can work with
func (c Config) Validate() error {
	if c.MinLength < 1 {
		return invalid("min_length must be at least 1", "min_length", c.MinLength)
	}
	if !extract.ValidNormalizer(extract.Normalizer(c.Normalizer)) {
		return invalid("unknown normalizer", "normalizer", c.Normalizer)
	}
	if !extract.ValidNormalizer(extract.Normalizer(c.PDFNormalizer)) {
		return invalid("unknown normalizer", "pdf_normalizer", c.PDFNormalizer)
	}
	if strings.Count(c.LabelFormat, "%d") != 2 {
		return invalid("label_format needs exactly two %d verbs (page, line)", "label_format", c.LabelFormat)
	}
	switch c.Storage.Mode {
	case StorageLocal:
		if c.StorageDir() == "" {
			return invalid("local storage needs a directory", "storage.dir", c.Storage.Dir)
		}
	case StorageS3:
		if c.Storage.Bucket == "" {
			return invalid("s3 storage needs a bucket", "storage.bucket", c.Storage.Bucket)
		}
	default:
		return invalid("unknown storage mode", "storage.mode", c.Storage.Mode)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("unknown log format", "log.format", c.Log.Format)
	}
	return nil
}

// StorageDir returns the local storage root
func (c Config) StorageDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	return c.OutputDir
}

// ExtractOptions returns unit extraction options for the given document format
func (c Config) ExtractOptions(format types.DocumentFormat) extract.Options {
	opts := extract.DefaultOptions()
	opts.Normalizer = extract.Normalizer(c.Normalizer)
	if format == types.FormatPDF {
		opts.Normalizer = extract.Normalizer(c.PDFNormalizer)
	}
	opts.FoldWidth = c.FoldWidth
	return opts
}

func invalid(msg, key string, value interface{}) error {
	return types.NewError(types.ErrCodeInvalidConfiguration, msg).
		WithContext("key", key).
		WithContext("value", value)
}
