package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Alp4ka/livepager"
	"github.com/Alp4ka/livepager/internal/postdb"
)

// EnvPrefix prefixes environment overrides, e.g. LIVEFEED_DB_DSN.
const EnvPrefix = "LIVEFEED"

// DB database config struct
type DB struct {
	Driver postdb.Driver
	DSN    string
}

// Stream stream config struct
type Stream struct {
	Interval time.Duration
}

// Page page config struct
type Page struct {
	Limit int
}

// Logger logger config struct
type Logger struct {
	Level  string
	Format string
}

// Config is the livefeed configuration.
type Config struct {
	DB     *DB
	Stream *Stream
	Page   *Page
	Logger *Logger
}

// flag name -> config key
var _flagKeys = map[string]string{
	"driver":     "db.driver",
	"dsn":        "db.dsn",
	"interval":   "stream.interval",
	"limit":      "page.limit",
	"log-level":  "logger.level",
	"log-format": "logger.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.driver", string(postdb.DriverSQLite))
	v.SetDefault("db.dsn", "livefeed.db")
	v.SetDefault("stream.interval", 500*time.Millisecond)
	v.SetDefault("page.limit", livepager.DefaultLimit)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
}

// Load builds the configuration from, in increasing priority, defaults, the
// optional config file, LIVEFEED_* environment variables and the flags of
// flags that were set explicitly.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range _flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag '%s': %w", name, err)
			}
		}
	}

	cfg := &Config{
		DB: &DB{
			Driver: postdb.Driver(strings.ToLower(v.GetString("db.driver"))),
			DSN:    v.GetString("db.dsn"),
		},
		Stream: &Stream{
			Interval: v.GetDuration("stream.interval"),
		},
		Page: &Page{
			Limit: v.GetInt("page.limit"),
		},
		Logger: &Logger{
			Level:  v.GetString("logger.level"),
			Format: v.GetString("logger.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every value that cannot be used as is.
func (c *Config) Validate() error {
	if _, err := postdb.Dialector(c.DB.Driver, c.DB.DSN); err != nil {
		return fmt.Errorf("invalid db.driver: %w", err)
	}

	if c.DB.DSN == "" {
		return fmt.Errorf("%w: db.dsn cannot be empty", livepager.ErrInvalidArgument)
	}

	if c.Stream.Interval < livepager.MinInterval {
		return fmt.Errorf("%w: stream.interval %s is below %s",
			livepager.ErrInvalidArgument, c.Stream.Interval, livepager.MinInterval)
	}

	if _, err := livepager.ValidateLimit(&c.Page.Limit); err != nil {
		return fmt.Errorf("invalid page.limit: %w", err)
	}

	if _, err := NewLogger(c.Logger, nil); err != nil {
		return err
	}

	return nil
}
