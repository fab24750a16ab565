package configuration

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	flag "github.com/spf13/pflag"
)

var (
	// ErrUnknownConfigFormat is returned if the format of the config file is unknown.
	ErrUnknownConfigFormat = errors.New("unknown config file format")
)

// Configuration holds config parameters from several sources (file, env vars, flags).
type Configuration struct {
	config *koanf.Koanf
}

// New returns a new configuration.
func New() *Configuration {
	return &Configuration{
		config: koanf.New("."),
	}
}

// LoadFile loads parameters from a JSON or YAML file and merges them into the
// loaded config. Existing keys will be overwritten.
func (c *Configuration) LoadFile(filePath string) error {
	if _, err := os.Stat(filePath); err != nil {
		return err
	}

	var parser koanf.Parser
	switch filepath.Ext(filePath) {
	case ".json":
		parser = &jsonLowerParser{}
	case ".yaml", ".yml":
		parser = &yamlLowerParser{}
	default:
		return ErrUnknownConfigFormat
	}

	return c.config.Load(file.Provider(filePath), parser)
}

// LoadFlagSet loads parameters from a FlagSet (spf13/pflag lib) including
// default values and merges them into the loaded config.
// Existing keys will only be overwritten if they were set via command line.
func (c *Configuration) LoadFlagSet(flagSet *flag.FlagSet) error {
	return c.config.Load(lowerPosflagProvider(flagSet, ".", c.config), nil)
}

// LoadEnvironmentVars loads parameters from env vars and merges them into the
// loaded config. The prefix is used to filter the env vars.
// Only existing keys will be overwritten, all other keys are ignored.
func (c *Configuration) LoadEnvironmentVars(prefix string) error {
	if prefix != "" {
		prefix += "_"
	}

	return c.config.Load(env.Provider(prefix, ".", func(s string) string {
		mapKey := envKeyToConfigKey(s, prefix)
		if !c.config.Exists(mapKey) {
			// only accept values from env vars that already exist in the config
			return ""
		}

		return mapKey
	}), nil)
}

// Set sets the value of the given key.
func (c *Configuration) Set(key string, value interface{}) error {
	return c.config.Load(confmap.Provider(map[string]interface{}{key: value}, "."), nil)
}

// SetDefault sets the value of the given key if it does not exist yet.
func (c *Configuration) SetDefault(key string, value interface{}) error {
	if c.config.Exists(key) {
		return nil
	}

	return c.Set(key, value)
}

// Koanf returns the underlying Koanf instance.
func (c *Configuration) Koanf() *koanf.Koanf {
	return c.config
}

// Exists checks if the given key exists in the config.
func (c *Configuration) Exists(key string) bool {
	return c.config.Exists(key)
}

// Get returns the raw value of the given key.
func (c *Configuration) Get(key string) interface{} {
	return c.config.Get(key)
}

// String returns the string value of the given key.
func (c *Configuration) String(key string) string {
	return c.config.String(key)
}

// Int returns the int value of the given key.
func (c *Configuration) Int(key string) int {
	return c.config.Int(key)
}

// Int64 returns the int64 value of the given key.
func (c *Configuration) Int64(key string) int64 {
	return c.config.Int64(key)
}

// Float64 returns the float64 value of the given key.
func (c *Configuration) Float64(key string) float64 {
	return c.config.Float64(key)
}

// Bool returns the bool value of the given key.
func (c *Configuration) Bool(key string) bool {
	return c.config.Bool(key)
}

// Duration returns the duration value of the given key.
func (c *Configuration) Duration(key string) time.Duration {
	return c.config.Duration(key)
}

// Strings returns the string slice value of the given key.
func (c *Configuration) Strings(key string) []string {
	return c.config.Strings(key)
}
