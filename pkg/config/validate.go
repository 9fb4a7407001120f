package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks configuration correctness. It does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if (cfg.Server.TLS.Cert == "") != (cfg.Server.TLS.Key == "") {
		return fmt.Errorf("server.tls.cert and server.tls.key must be set together")
	}
	if cfg.Server.TLS.ClientCA != "" && cfg.Server.TLS.Cert == "" {
		return fmt.Errorf("server.tls.client_ca requires server.tls.cert and server.tls.key")
	}

	if cfg.Feed.Path == "" {
		return fmt.Errorf("feed.path is required")
	}

	if cfg.Relay.URL != "" {
		u, err := url.Parse(cfg.Relay.URL)
		if err != nil {
			return fmt.Errorf("relay.url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("relay.url %q: scheme must be http or https", cfg.Relay.URL)
		}
		if u.Host == "" {
			return fmt.Errorf("relay.url %q: host is required", cfg.Relay.URL)
		}
	}
	if cfg.Relay.ProbeTimeout <= 0 {
		return fmt.Errorf("relay.probe_timeout must be positive")
	}
	if cfg.Relay.ForwardTimeout <= 0 {
		return fmt.Errorf("relay.forward_timeout must be positive")
	}
	if !strings.HasPrefix(cfg.Relay.ForwardPath, "/") {
		return fmt.Errorf("relay.forward_path %q must start with /", cfg.Relay.ForwardPath)
	}

	if cfg.Credentials.AI == "" {
		return fmt.Errorf("credentials.ai is required")
	}
	seen := make(map[string]struct{}, len(cfg.Credentials.Optional))
	for _, name := range cfg.Credentials.Optional {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("credentials.optional: duplicate %q", name)
		}
		seen[name] = struct{}{}
	}

	switch cfg.Store.Backend {
	case "memory":
	case "sqlite":
		if cfg.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite backend")
		}
	case "consul":
		if cfg.Store.ConsulAddr == "" {
			return fmt.Errorf("store.consul_addr is required for the consul backend")
		}
	default:
		return fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}

	if cfg.DB.Enabled() && cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when db is configured")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", cfg.Log.Level)
	}
	return nil
}
