package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix scopes environment overrides, e.g. SUP_SERVER_PORT=4000.
const envPrefix = "SUP"

// Config is the full runtime configuration of both binaries.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
	Admin  AdminConfig  `mapstructure:"admin"`
	DB     DBConfig     `mapstructure:"db"`
	Plant  PlantConfig  `mapstructure:"plant"`
	Client ClientConfig `mapstructure:"client"`
	Users  []UserSeed   `mapstructure:"users"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ServerConfig drives the supervisory TCP session loop.
type ServerConfig struct {
	Port    string        `mapstructure:"port"`
	Timeout time.Duration `mapstructure:"timeout"` // readiness wait and per-field read timeout
	Backlog int           `mapstructure:"backlog"`
}

// AdminConfig drives the HTTP admin API.
type AdminConfig struct {
	Port       string        `mapstructure:"port"`
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type PlantConfig struct {
	Tick time.Duration `mapstructure:"tick"`
}

// ClientConfig drives the operator client.
type ClientConfig struct {
	Address     string        `mapstructure:"address"`
	Login       string        `mapstructure:"login"`
	Password    string        `mapstructure:"password"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Refresh     time.Duration `mapstructure:"refresh"`
	LogoutGrace time.Duration `mapstructure:"logout_grace"`
}

// UserSeed is a user created in the registry at server start.
type UserSeed struct {
	Login    string `mapstructure:"login"`
	Password string `mapstructure:"password"`
	Admin    bool   `mapstructure:"admin"`
}

// Default values for every key, so a missing config file still yields a
// runnable setup.
const (
	DefaultServerPort  = "23456"
	DefaultTimeout     = 5 * time.Second
	DefaultBacklog     = 8
	DefaultAdminPort   = "8080"
	DefaultTokenTTL    = time.Hour
	DefaultDBPath      = "supervisor.db"
	DefaultPlantTick   = 200 * time.Millisecond
	DefaultRefresh     = 20 * time.Second
	DefaultLogoutGrace = time.Second
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.timeout", DefaultTimeout)
	v.SetDefault("server.backlog", DefaultBacklog)

	v.SetDefault("admin.port", DefaultAdminPort)
	v.SetDefault("admin.signing_key", "")
	v.SetDefault("admin.token_ttl", DefaultTokenTTL)

	v.SetDefault("db.path", DefaultDBPath)
	v.SetDefault("plant.tick", DefaultPlantTick)

	v.SetDefault("client.address", "127.0.0.1:"+DefaultServerPort)
	v.SetDefault("client.login", "")
	v.SetDefault("client.password", "")
	v.SetDefault("client.timeout", DefaultTimeout)
	v.SetDefault("client.refresh", DefaultRefresh)
	v.SetDefault("client.logout_grace", DefaultLogoutGrace)
}

// Load reads config.yml from the given directories (default "configs"),
// applies SUP_* environment overrides and returns the decoded Config.
// A missing config file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p) // <path>/config.yml
	}
	v.SetConfigName("config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Client.Refresh <= 0 {
		return fmt.Errorf("client.refresh must be positive, got %s", c.Client.Refresh)
	}
	if c.Server.Backlog <= 0 {
		c.Server.Backlog = DefaultBacklog
	}
	return nil
}
