package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/bassista/go_sam/internal/logger"
)

const (
	ClientTypeFile   = "file"
	ClientTypeWebAPI = "webapi"
)

// Config is the whole process configuration, loaded once at startup.
type Config struct {
	Server  ServerConfig
	Catalog CatalogConfig
	Icons   IconsConfig
	Client  ClientConfig
	Misc    MiscConfig
}

type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins string
}

// CatalogConfig drives the remote app-name catalog and its on-disk copy.
type CatalogConfig struct {
	URL          string
	CacheFile    string
	Staleness    time.Duration
	Poll         time.Duration
	FetchTimeout time.Duration
}

type IconsConfig struct {
	AppDir         string
	AchievementDir string
	MaxOutstanding int
	FetchTimeout   time.Duration
	MaxBytes       int64
}

type ClientConfig struct {
	Type            string
	LibraryFile     string
	PersistInterval time.Duration
	APIKey          string
	SteamID         string
	BaseURL         string
}

type MiscConfig struct {
	LogLevel string
	GinMode  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8085)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.request_timeout", "2s")
	v.SetDefault("server.cors_allowed_origins", "*")

	v.SetDefault("catalog.url", "https://api.steampowered.com/ISteamApps/GetAppList/v2/")
	v.SetDefault("catalog.cache_file", "~/.cache/go_sam/app_names.json")
	v.SetDefault("catalog.staleness", "72h")
	v.SetDefault("catalog.poll", "1h")
	v.SetDefault("catalog.fetch_timeout", "30s")

	v.SetDefault("icons.app_dir", "~/.cache/go_sam/app_icons")
	v.SetDefault("icons.achievement_dir", "~/.cache/go_sam/achievement_icons")
	v.SetDefault("icons.max_outstanding", 10)
	v.SetDefault("icons.fetch_timeout", "15s")
	v.SetDefault("icons.max_bytes", 2<<20)

	v.SetDefault("client.type", ClientTypeFile)
	v.SetDefault("client.library_file", "./config/data/library.json")
	v.SetDefault("client.persist_interval", "5s")
	v.SetDefault("client.base_url", "https://api.steampowered.com")

	v.SetDefault("misc.log_level", "info")
	v.SetDefault("misc.gin_mode", "release")
}

// LoadConfig reads config.yaml (if any), .env and SAM_* environment variables.
// SAM_CATALOG_STALENESS overrides catalog.staleness and so on.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithComponent("config").Warnf("cannot read .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if override := os.Getenv("SAM_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./config")
	setDefaults(v)

	v.SetEnvPrefix("SAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
		logger.WithComponent("config").Debug("no config file found, using defaults and env vars")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               v.GetInt("server.port"),
			ReadTimeout:        v.GetDuration("server.read_timeout"),
			WriteTimeout:       v.GetDuration("server.write_timeout"),
			IdleTimeout:        v.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    v.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     v.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: v.GetString("server.cors_allowed_origins"),
		},
		Catalog: CatalogConfig{
			URL:          v.GetString("catalog.url"),
			CacheFile:    v.GetString("catalog.cache_file"),
			Staleness:    v.GetDuration("catalog.staleness"),
			Poll:         v.GetDuration("catalog.poll"),
			FetchTimeout: v.GetDuration("catalog.fetch_timeout"),
		},
		Icons: IconsConfig{
			AppDir:         v.GetString("icons.app_dir"),
			AchievementDir: v.GetString("icons.achievement_dir"),
			MaxOutstanding: v.GetInt("icons.max_outstanding"),
			FetchTimeout:   v.GetDuration("icons.fetch_timeout"),
			MaxBytes:       v.GetInt64("icons.max_bytes"),
		},
		Client: ClientConfig{
			Type:            strings.ToLower(v.GetString("client.type")),
			LibraryFile:     v.GetString("client.library_file"),
			PersistInterval: v.GetDuration("client.persist_interval"),
			APIKey:          v.GetString("client.api_key"),
			SteamID:         v.GetString("client.steam_id"),
			BaseURL:         v.GetString("client.base_url"),
		},
		Misc: MiscConfig{
			LogLevel: v.GetString("misc.log_level"),
			GinMode:  v.GetString("misc.gin_mode"),
		},
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Catalog.CacheFile, &c.Icons.AppDir, &c.Icons.AchievementDir, &c.Client.LibraryFile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 || c.Server.ShutDownTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server request timeout must be positive")
	}

	if c.Catalog.URL == "" {
		return errors.New("catalog url is required")
	}
	if c.Catalog.CacheFile == "" {
		return errors.New("catalog cache file is required")
	}
	if c.Catalog.Staleness <= 0 {
		return fmt.Errorf("catalog staleness must be positive, got %v", c.Catalog.Staleness)
	}
	if c.Catalog.Poll <= 0 {
		return fmt.Errorf("catalog poll interval must be positive, got %v", c.Catalog.Poll)
	}
	if c.Catalog.FetchTimeout <= 0 {
		return errors.New("catalog fetch timeout must be positive")
	}

	if c.Icons.AppDir == "" || c.Icons.AchievementDir == "" {
		return errors.New("icon cache directories are required")
	}
	if c.Icons.AppDir == c.Icons.AchievementDir {
		return errors.New("app and achievement icon directories must differ")
	}
	if c.Icons.MaxOutstanding < 1 {
		return fmt.Errorf("icons max outstanding must be at least 1, got %d", c.Icons.MaxOutstanding)
	}
	if c.Icons.FetchTimeout <= 0 {
		return errors.New("icon fetch timeout must be positive")
	}
	if c.Icons.MaxBytes <= 0 {
		return errors.New("icon max bytes must be positive")
	}

	switch c.Client.Type {
	case ClientTypeFile, "":
		if c.Client.LibraryFile == "" {
			return errors.New("client library file is required for the file client")
		}
		if c.Client.PersistInterval <= 0 {
			return errors.New("client persist interval must be positive")
		}
	case ClientTypeWebAPI:
		if c.Client.APIKey == "" || c.Client.SteamID == "" {
			return errors.New("webapi client needs api_key and steam_id")
		}
	default:
		return fmt.Errorf("unknown client type: %s", c.Client.Type)
	}
	return nil
}
