package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "THREADBOARD"

type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Storage  StorageConfig `mapstructure:"storage"`
	Upload   UploadConfig  `mapstructure:"upload"`
	Feed     FeedConfig    `mapstructure:"feed"`
	Auth     AuthConfig    `mapstructure:"auth"`
	Log      LogConfig     `mapstructure:"log"`
	SeedFile string        `mapstructure:"seed_file"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	// Driver is one of file, sqlite or redis.
	Driver string      `mapstructure:"driver"`
	Path   string      `mapstructure:"path"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type UploadConfig struct {
	Dir          string `mapstructure:"dir"`
	PublicPrefix string `mapstructure:"public_prefix"`
	MaxBytes     int64  `mapstructure:"max_bytes"`
}

type FeedConfig struct {
	// MarkWatched records threads returned by random selection as watched.
	MarkWatched bool `mapstructure:"mark_watched"`
}

type AuthConfig struct {
	PasswordScheme string `mapstructure:"password_scheme"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "db.json")
	v.SetDefault("storage.redis.addr", "127.0.0.1:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.key", "threadboard:document")

	v.SetDefault("upload.dir", defaultUploadDir())
	v.SetDefault("upload.public_prefix", "public/images")
	v.SetDefault("upload.max_bytes", 100<<20)

	v.SetDefault("feed.mark_watched", false)
	v.SetDefault("auth.password_scheme", "plaintext")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("seed_file", "")
}

// Load reads defaults, then the config file, then THREADBOARD_* environment
// variables. An empty path looks for threadboard.{yaml,json,toml} in the
// working directory and carries on without one.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	} else {
		v.SetConfigName("threadboard")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "file", "sqlite":
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.Errorf("storage.path is required for the %s driver", c.Storage.Driver)
		}
	case "redis":
		if strings.TrimSpace(c.Storage.Redis.Addr) == "" {
			return errors.New("storage.redis.addr is required for the redis driver")
		}
	default:
		return errors.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.max_bytes must be positive")
	}
	c.Upload.Dir = filepath.Clean(c.Upload.Dir)
	return nil
}

func defaultUploadDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "storage"
	}
	candidate := filepath.Join(cwd, "server", "storage")
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return candidate
	}
	return filepath.Join(cwd, "storage")
}
