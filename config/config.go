// Package config resolves the settings of a generator run from flags,
// environment variables, a .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sarchlab/middlesquare/generator"
	"github.com/sarchlab/middlesquare/logging"
)

// EnvPrefix prefixes every environment variable read, e.g. MSQ_SEED.
const EnvPrefix = "MSQ"

// ErrInvalidSetting reports a setting whose value has the wrong type.
var ErrInvalidSetting = errors.New("invalid setting")

// Config holds the settings of one generator run.
type Config struct {
	Seed       string
	Iterations int
	Strict     bool
	Newline    bool
	Trace      TraceConfig
	Monitor    MonitorConfig
	Log        logging.Config
}

// TraceConfig selects the trace writers. Empty paths disable a writer; the
// special path "auto" lets the writer pick a unique name.
type TraceConfig struct {
	CSV    string
	SQLite string
}

// MonitorConfig controls the HTTP monitor.
type MonitorConfig struct {
	Enabled     bool
	Port        int
	OpenBrowser bool
}

// Sources lists where Load looks for settings.
type Sources struct {
	// Flags are bound by name; a flag set on the command line wins over
	// every other source.
	Flags *pflag.FlagSet

	// ConfigFile is an optional yaml, toml or json file.
	ConfigFile string

	// EnvFile defaults to ".env". A missing file is not an error.
	EnvFile string
}

// Load resolves the configuration. Precedence is flag, environment, config
// file, default.
func Load(src Sources) (*Config, error) {
	envFile := src.EnvFile
	if envFile == "" {
		envFile = ".env"
	}

	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	if src.ConfigFile != "" {
		v.SetConfigFile(src.ConfigFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if src.Flags != nil {
		if err := v.BindPFlags(src.Flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	r := reader{v: v}

	cfg := &Config{
		Seed:       r.seed(),
		Iterations: r.integer("iterations", generator.ErrInvalidIterationCount),
		Strict:     r.boolean("strict"),
		Newline:    r.boolean("newline"),
		Trace: TraceConfig{
			CSV:    v.GetString("trace-csv"),
			SQLite: v.GetString("trace-sqlite"),
		},
		Monitor: MonitorConfig{
			Enabled:     r.boolean("monitor"),
			Port:        r.integer("monitor-port", ErrInvalidSetting),
			OpenBrowser: r.boolean("open-browser"),
		},
		Log: logging.Config{
			Level:  v.GetString("log-level"),
			Format: v.GetString("log-format"),
			Output: v.GetString("log-output"),
		},
	}

	if r.err != nil {
		return nil, r.err
	}

	return cfg, nil
}

// reader converts viper values and keeps the first conversion error.
type reader struct {
	v   *viper.Viper
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// seed only accepts text. Config file decoders turn unquoted digits into
// int or float64, which loses digits past 64 bits and reads 0121 as octal.
func (r *reader) seed() string {
	raw := r.v.Get("seed")

	s, ok := raw.(string)
	if !ok {
		r.fail(fmt.Errorf("%w: %v was decoded as %T, quote the seed",
			generator.ErrInvalidSeed, raw, raw))
	}

	return s
}

func (r *reader) integer(key string, sentinel error) int {
	n, err := cast.ToIntE(r.v.Get(key))
	if err != nil {
		r.fail(fmt.Errorf("%w: %s: %v", sentinel, key, err))
	}

	return n
}

func (r *reader) boolean(key string) bool {
	b, err := cast.ToBoolE(r.v.Get(key))
	if err != nil {
		r.fail(fmt.Errorf("%w: %s: %v", ErrInvalidSetting, key, err))
	}

	return b
}

func setDefaults(v *viper.Viper) {
	logDefaults := logging.DefaultConfig()

	v.SetDefault("seed", "121")
	v.SetDefault("iterations", 200)
	v.SetDefault("strict", false)
	v.SetDefault("newline", false)
	v.SetDefault("trace-csv", "")
	v.SetDefault("trace-sqlite", "")
	v.SetDefault("monitor", false)
	v.SetDefault("monitor-port", 0)
	v.SetDefault("open-browser", false)
	v.SetDefault("log-level", logDefaults.Level)
	v.SetDefault("log-format", logDefaults.Format)
	v.SetDefault("log-output", logDefaults.Output)
}

// SeedValue parses the configured seed.
func (c *Config) SeedValue() (*big.Int, error) {
	return generator.ParseSeed(c.Seed)
}

// Validate checks the settings that would make a run fail.
func (c *Config) Validate() error {
	if _, err := c.SeedValue(); err != nil {
		return err
	}

	if c.Iterations < 0 {
		return fmt.Errorf("%w: %d is negative",
			generator.ErrInvalidIterationCount, c.Iterations)
	}

	if c.Monitor.Port < 0 || c.Monitor.Port > 65535 {
		return fmt.Errorf("%w: monitor port %d out of range",
			ErrInvalidSetting, c.Monitor.Port)
	}

	return nil
}
