package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultFeedFile is the literal name of the feed dropped next to the binary by the gauge exporter.
const DefaultFeedFile = "GAUGE API PULL 1045AM_05.15.2025.json"

// EnvPrefix is prepended to every environment override, e.g. DASHBOARD_RELAY_URL.
const EnvPrefix = "DASHBOARD"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Feed        FeedConfig        `mapstructure:"feed"`
	Relay       RelayConfig       `mapstructure:"relay"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Store       StoreConfig       `mapstructure:"store"`
	DB          DBConfig          `mapstructure:"db"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	Token             string        `mapstructure:"token"` // shared token for forward/journal routes
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	TLS               TLSConfig     `mapstructure:"tls"`
}

type TLSConfig struct {
	Cert     string `mapstructure:"cert"`
	Key      string `mapstructure:"key"`
	ClientCA string `mapstructure:"client_ca"`
}

type FeedConfig struct {
	Path string `mapstructure:"path"`
}

type RelayConfig struct {
	URL            string        `mapstructure:"url"`
	Token          string        `mapstructure:"token"`
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
	ForwardTimeout time.Duration `mapstructure:"forward_timeout"`
	ForwardPath    string        `mapstructure:"forward_path"`
}

// CredentialsConfig names the credentials whose presence is reported.
// Values are never read into the snapshot, only presence.
type CredentialsConfig struct {
	AI       string   `mapstructure:"ai"`
	Optional []string `mapstructure:"optional"`
}

type StoreConfig struct {
	Backend    string `mapstructure:"backend"` // memory|sqlite|consul
	SQLitePath string `mapstructure:"sqlite_path"`
	ConsulAddr string `mapstructure:"consul_addr"`
}

// DBConfig enables operator accounts. Empty DSN and host disable the auth routes.
type DBConfig struct {
	DSN  string `mapstructure:"dsn"`
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
	Name string `mapstructure:"name"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Enabled reports whether a MySQL target was configured.
func (d DBConfig) Enabled() bool {
	return d.DSN != "" || d.Host != ""
}

// MySQLDSN returns DSN verbatim, or builds one from the discrete fields.
func (d DBConfig) MySQLDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":5000",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Feed: FeedConfig{Path: DefaultFeedFile},
		Relay: RelayConfig{
			ProbeTimeout:   3 * time.Second,
			ForwardTimeout: 10 * time.Second,
			ForwardPath:    "/api/actions",
		},
		Credentials: CredentialsConfig{
			AI:       "OPENAI_API_KEY",
			Optional: []string{"PERPLEXITY_API_KEY", "ANTHROPIC_API_KEY", "SUPABASE_KEY"},
		},
		Store: StoreConfig{
			Backend:    "memory",
			SQLitePath: "watson-dash.db",
			ConsulAddr: "127.0.0.1:8500",
		},
		DB: DBConfig{
			Port: "3306",
			User: "root",
			Name: "watson_dash",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Log: LogConfig{Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.token", d.Server.Token)
	v.SetDefault("server.read_header_timeout", d.Server.ReadHeaderTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.tls.cert", "")
	v.SetDefault("server.tls.key", "")
	v.SetDefault("server.tls.client_ca", "")
	v.SetDefault("feed.path", d.Feed.Path)
	v.SetDefault("relay.url", "")
	v.SetDefault("relay.token", "")
	v.SetDefault("relay.probe_timeout", d.Relay.ProbeTimeout)
	v.SetDefault("relay.forward_timeout", d.Relay.ForwardTimeout)
	v.SetDefault("relay.forward_path", d.Relay.ForwardPath)
	v.SetDefault("credentials.ai", d.Credentials.AI)
	v.SetDefault("credentials.optional", d.Credentials.Optional)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)
	v.SetDefault("store.consul_addr", d.Store.ConsulAddr)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", d.DB.Port)
	v.SetDefault("db.user", d.DB.User)
	v.SetDefault("db.pass", "")
	v.SetDefault("db.name", d.DB.Name)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
}

// Load reads .env (when present), then the optional YAML file at path, then
// DASHBOARD_* environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// entries from the env arrive untrimmed
	if raw := os.Getenv(EnvPrefix + "_CREDENTIALS_OPTIONAL"); raw != "" {
		cfg.Credentials.Optional = splitAndTrim(raw)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
