// Package config loads gds settings.
//
// Settings are layered: the embedded defaults, then a user file (YAML or
// TOML, chosen by extension), then GDS_* environment variables. The
// default user file is $XDG_CONFIG_HOME/gds/config.yaml.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaults []byte

// ErrUnsupportedFormat is returned for config files that are neither YAML
// nor TOML.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Cache backends.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config is the complete gds configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" toml:"log"`
	Neo4j    Neo4jConfig    `yaml:"neo4j" toml:"neo4j"`
	Cache    CacheConfig    `yaml:"cache" toml:"cache"`
	Analysis AnalysisConfig `yaml:"analysis" toml:"analysis"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// Neo4jConfig holds graph database connection settings.
type Neo4jConfig struct {
	URI      string `yaml:"uri" toml:"uri"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
	Database string `yaml:"database" toml:"database"`
}

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	Backend string        `yaml:"backend" toml:"backend"`
	Dir     string        `yaml:"dir" toml:"dir"`
	TTL     time.Duration `yaml:"ttl" toml:"ttl"`
	Redis   RedisConfig   `yaml:"redis" toml:"redis"`
	Mongo   MongoConfig   `yaml:"mongo" toml:"mongo"`
}

// RedisConfig is used when Cache.Backend is "redis".
type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
}

// MongoConfig is used when Cache.Backend is "mongo".
type MongoConfig struct {
	URI        string `yaml:"uri" toml:"uri"`
	Database   string `yaml:"database" toml:"database"`
	Collection string `yaml:"collection" toml:"collection"`
}

// AnalysisConfig holds defaults for trace and radiate runs.
type AnalysisConfig struct {
	DisplayProperty string  `yaml:"display_property" toml:"display_property"`
	Weight          string  `yaml:"weight" toml:"weight"`
	Alpha           float64 `yaml:"alpha" toml:"alpha"`
	MaxIter         int     `yaml:"max_iter" toml:"max_iter"`
	Tol             float64 `yaml:"tol" toml:"tol"`
	MaxPaths        int     `yaml:"max_paths" toml:"max_paths"`
}

// ServerConfig configures `gds serve`.
type ServerConfig struct {
	Addr         string        `yaml:"addr" toml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout"`
}

// Default returns the embedded defaults.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaults, &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return &cfg
}

// DefaultPath returns $XDG_CONFIG_HOME/gds/config.yaml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "gds", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gds", "config.yaml"), nil
}

// Load builds the configuration. An empty path reads the default file if
// it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if _, err := os.Stat(path); err == nil {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("config: %s: %w", path, err)
		}
	case ".toml":
		meta, err := toml.Decode(string(data), c)
		if err != nil {
			return fmt.Errorf("config: %s: %w", path, err)
		}
		if undec := meta.Undecoded(); len(undec) > 0 {
			return fmt.Errorf("config: %s: unknown key %s", path, undec[0])
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// applyEnv overrides settings from GDS_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"GDS_LOG_LEVEL":        &c.Log.Level,
		"GDS_NEO4J_URI":        &c.Neo4j.URI,
		"GDS_NEO4J_USERNAME":   &c.Neo4j.Username,
		"GDS_NEO4J_PASSWORD":   &c.Neo4j.Password,
		"GDS_NEO4J_DATABASE":   &c.Neo4j.Database,
		"GDS_CACHE_BACKEND":    &c.Cache.Backend,
		"GDS_CACHE_DIR":        &c.Cache.Dir,
		"GDS_REDIS_ADDR":       &c.Cache.Redis.Addr,
		"GDS_REDIS_PASSWORD":   &c.Cache.Redis.Password,
		"GDS_MONGO_URI":        &c.Cache.Mongo.URI,
		"GDS_SERVER_ADDR":      &c.Server.Addr,
		"GDS_DISPLAY_PROPERTY": &c.Analysis.DisplayProperty,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	if v, ok := lookup("GDS_CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: GDS_CACHE_TTL: %w", err)
		}
		c.Cache.TTL = d
	}
	if v, ok := lookup("GDS_REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: GDS_REDIS_DB: %w", err)
		}
		c.Cache.Redis.DB = n
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	if !slices.Contains([]string{BackendNone, BackendFile, BackendRedis, BackendMongo}, c.Cache.Backend) {
		errs = append(errs, fmt.Errorf("cache.backend %q must be one of none, file, redis, mongo", c.Cache.Backend))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative"))
	}
	if c.Analysis.Alpha <= 0 || c.Analysis.Alpha > 1 {
		errs = append(errs, fmt.Errorf("analysis.alpha %v must be in (0, 1]", c.Analysis.Alpha))
	}
	if c.Analysis.MaxIter <= 0 {
		errs = append(errs, fmt.Errorf("analysis.max_iter must be positive"))
	}
	if c.Analysis.Tol <= 0 {
		errs = append(errs, fmt.Errorf("analysis.tol must be positive"))
	}
	if c.Analysis.MaxPaths < 0 {
		errs = append(errs, fmt.Errorf("analysis.max_paths must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// WriteYAML writes c as YAML with secrets masked.
func (c *Config) WriteYAML(w io.Writer) error {
	out := *c
	if out.Neo4j.Password != "" {
		out.Neo4j.Password = "********"
	}
	if out.Cache.Redis.Password != "" {
		out.Cache.Redis.Password = "********"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
