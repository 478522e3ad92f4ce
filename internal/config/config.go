// Package config loads the gateway configuration from the environment,
// with a .env fallback for development.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kc1awv/m17-core/internal/cors"
	log "github.com/kc1awv/m17-core/internal/logger"
	"github.com/kc1awv/m17-core/internal/m17"
)

type Config struct {
	Callsign      string
	ReflectorAddr string
	Module        byte

	ListenAddr string
	ListenPort int

	AllowedOrigins cors.Rules
	AllowedHeaders []string
	AllowedMethods []string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	WSPingInterval time.Duration
	WSPongWait     time.Duration

	MaxClients int
}

func (c Config) Address() string {
	addr := ":8017"
	switch {
	case c.ListenAddr != "" && c.ListenPort != 0:
		addr = net.JoinHostPort(c.ListenAddr, strconv.Itoa(c.ListenPort))
	case c.ListenAddr != "":
		addr = c.ListenAddr
	case c.ListenPort != 0:
		addr = ":" + strconv.Itoa(c.ListenPort)
	}
	return addr
}

var loadEnvOnce sync.Once

func loadEnv() {
	if os.Getenv("CALLSIGN") == "" {
		if err := godotenv.Load(); err != nil {
			log.Info("No .env file found", "err", err)
		}
	}
}

func Load() (Config, error) {
	loadEnvOnce.Do(loadEnv)

	cfg := Config{}
	var errs []error

	cfg.Callsign = strings.ToUpper(strings.TrimSpace(os.Getenv("CALLSIGN")))
	if cfg.Callsign != "" {
		if _, err := m17.NewAddressFromCallsign(cfg.Callsign); err != nil {
			errs = append(errs, fmt.Errorf("invalid CALLSIGN %q: %w", cfg.Callsign, err))
		}
	}

	cfg.ReflectorAddr = os.Getenv("REFLECTOR_ADDR")

	cfg.Module = 'A'
	if v := os.Getenv("REFLECTOR_MODULE"); v != "" {
		if len(v) != 1 || v[0] < 'A' || v[0] > 'Z' {
			errs = append(errs, fmt.Errorf("invalid REFLECTOR_MODULE %q: must be a single letter A-Z", v))
		} else {
			cfg.Module = v[0]
		}
	}

	cfg.AllowedOrigins = cors.ParseOriginRules(os.Getenv("ALLOWED_ORIGINS"))
	cfg.AllowedHeaders = append([]string{"Content-Type"}, splitAndTrim(os.Getenv("ALLOWED_HEADERS"))...)
	cfg.AllowedMethods = append([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, splitAndTrim(os.Getenv("ALLOWED_METHODS"))...)

	cfg.ListenAddr = os.Getenv("LISTEN_ADDR")
	if v := os.Getenv("LISTEN_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			errs = append(errs, fmt.Errorf("invalid LISTEN_PORT %q: %w", v, err))
		} else {
			cfg.ListenPort = p
		}
	}

	if v := os.Getenv("MAX_CLIENTS"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m <= 0 {
			errs = append(errs, fmt.Errorf("invalid MAX_CLIENTS %q: %w", v, err))
		} else {
			cfg.MaxClients = m
		}
	}

	var err error
	cfg.ReadTimeout, err = parseDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.WriteTimeout, err = parseDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.IdleTimeout, err = parseDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		errs = append(errs, err)
	}

	cfg.WSPingInterval, err = parseDurationEnv("WS_PING_INTERVAL", 30*time.Second)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.WSPongWait, err = parseDurationEnv("WS_PONG_WAIT", 60*time.Second)
	if err != nil {
		errs = append(errs, err)
	}

	return cfg, errors.Join(errs...)
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return def, fmt.Errorf("invalid duration format for %s: %w", key, err)
		}
		if d <= 0 {
			return def, fmt.Errorf("non-positive duration for %s: %s", key, v)
		}
		return d, nil
	}
	return def, nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}
