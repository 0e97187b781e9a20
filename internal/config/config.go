package config

import (
	"os"
	"strconv"
	"strings"

	"stock-intel/internal/domain"

	"github.com/rs/zerolog/log"
)

const defaultAPIBaseURL = "http://127.0.0.1:8000"

type Config struct {
	APIBaseURL     string
	APITimeoutSecs int
	DefaultTicker  string

	WebBind          string
	WebPort          int
	CORSOrigins      []string
	SessionIdleMins  int
	SessionSweepSecs int
	HealthPollSecs   int

	SSHEnabled     bool
	SSHBind        string
	SSHPort        int
	SSHHostKeyPath string

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	OTelEndpoint string
	OTelInsecure bool

	LogLevel  string
	LogPretty bool
	LogFile   string
}

func Load() *Config {
	cfg := &Config{
		MCPAuthToken: os.Getenv("MCP_AUTH_TOKEN"),
		OTelEndpoint: strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		LogFile:      strings.TrimSpace(os.Getenv("LOG_FILE")),
	}

	cfg.APIBaseURL = strings.TrimSpace(os.Getenv("API_BASE_URL"))
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = strings.TrimSpace(os.Getenv("VITE_API_URL"))
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	cfg.APITimeoutSecs = positiveInt("API_TIMEOUT_SECS", 30)

	cfg.DefaultTicker = domain.NormalizeTicker(os.Getenv("DEFAULT_TICKER"))
	if cfg.DefaultTicker == "" {
		cfg.DefaultTicker = domain.DefaultTicker
	}

	cfg.WebBind = strings.TrimSpace(os.Getenv("WEB_BIND"))
	cfg.WebPort = positiveInt("WEB_PORT", 8080)
	cfg.CORSOrigins = parseList(os.Getenv("CORS_ORIGINS"))
	cfg.SessionIdleMins = positiveInt("SESSION_IDLE_MINS", 30)
	cfg.SessionSweepSecs = positiveInt("SESSION_SWEEP_SECS", 60)
	cfg.HealthPollSecs = positiveInt("HEALTH_POLL_SECS", 30)

	cfg.SSHEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("SSH_ENABLED")), "true")
	cfg.SSHBind = strings.TrimSpace(os.Getenv("SSH_BIND"))
	if cfg.SSHBind == "" {
		cfg.SSHBind = "0.0.0.0"
	}
	cfg.SSHPort = positiveInt("SSH_PORT", 2222)
	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/stock_intel_ed25519"
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Warn().Str("value", cfg.MCPTransport).Msg("unsupported MCP_TRANSPORT, defaulting to stdio")
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 30)
	cfg.MCPRateLimitPerMin = positiveInt("MCP_RATE_LIMIT_PER_MIN", 60)

	cfg.OTelInsecure = true
	if v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); strings.EqualFold(v, "false") {
		cfg.OTelInsecure = false
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogPretty = strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_PRETTY")), "true")

	return cfg
}

func positiveInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", v).Int("default", fallback).Msg("invalid positive integer, using default")
		return fallback
	}
	return n
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
