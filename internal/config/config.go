package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// DefaultBaseURL is used when no api.baseurl is configured.
const DefaultBaseURL = "http://46.202.164.133:8090/api"

type LogConfig struct {
	Level string
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	Backend    string
	Path       string
	Passphrase string
	KeyPrefix  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type UploadConfig struct {
	CaptureDir string
}

type ReportConfig struct {
	Dir         string
	MaxWidth    uint
	Concurrency int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	URLExpiry time.Duration
}

type ShareConfig struct {
	Mode      string
	Dir       string
	BaseURL   string
	Secret    string
	LinkTTL   time.Duration
	Retention time.Duration
}

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type AppConfig struct {
	Environment string
	Log         LogConfig
	API         APIConfig
	Session     SessionConfig
	Redis       RedisConfig
	Postgres    PostgresConfig
	Upload      UploadConfig
	Report      ReportConfig
	Storage     StorageConfig
	Share       ShareConfig
	HTTP        HTTPConfig
}

// Load reads digicon.yaml (if any) and DIGICON_* environment overrides.
// An explicit file path takes precedence over the search paths.
func Load(file string) (*AppConfig, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("digicon")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "digicon"))
		}
	}

	v.SetEnvPrefix("DIGICON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees env values for keys viper already knows, so every
	// field needs a default, even an empty one.

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".digicon")

	v.SetDefault("environment", "production")
	v.SetDefault("log.level", "")

	v.SetDefault("api.baseurl", DefaultBaseURL)
	v.SetDefault("api.timeout", "0s")

	v.SetDefault("session.backend", "file")
	v.SetDefault("session.path", filepath.Join(dataDir, "session.json"))
	v.SetDefault("session.keyprefix", "digicon")
	v.SetDefault("session.passphrase", "")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 4)
	v.SetDefault("postgres.maxidle", 1)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("upload.capturedir", "")

	v.SetDefault("report.dir", filepath.Join(dataDir, "reports"))
	v.SetDefault("report.maxwidth", 1200)
	v.SetDefault("report.concurrency", 4)

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucket", "digicon-reports")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.urlexpiry", "24h")

	v.SetDefault("share.mode", "file")
	v.SetDefault("share.dir", filepath.Join(dataDir, "shared"))
	v.SetDefault("share.baseurl", "http://127.0.0.1:8091")
	v.SetDefault("share.secret", "")
	v.SetDefault("share.linkttl", "72h")
	v.SetDefault("share.retention", "168h") // 7 days

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8091)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")
}
