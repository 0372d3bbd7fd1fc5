// Package config loads server configuration from the environment. A .env
// file in the working directory is honored when present; explicit
// environment variables win over it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/buildmind/jenkins-mcp/jenkins"
)

// Config is the full server configuration.
type Config struct {
	Jenkins jenkins.Config
	// LogDir is where the server writes its log file. Stdout carries the
	// MCP protocol, so diagnostics must go elsewhere.
	LogDir string
}

// Load reads configuration from .env (if present) and the environment.
// JENKINS_URL is required; credentials are optional for anonymous-read
// Jenkins instances.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	baseURL := strings.TrimSpace(os.Getenv("JENKINS_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("JENKINS_URL is required (e.g. https://jenkins.example.com)")
	}

	timeout, err := envDurationMs("JENKINS_TIMEOUT_MS", jenkins.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	retryDelay, err := envDurationMs("JENKINS_RETRY_DELAY_MS", jenkins.DefaultBaseRetryDelay)
	if err != nil {
		return nil, err
	}
	maxRetries, err := envMaxRetries("JENKINS_MAX_RETRIES")
	if err != nil {
		return nil, err
	}

	logDir := os.Getenv("JENKINS_MCP_DIR")
	if logDir == "" {
		if home, herr := os.UserHomeDir(); herr == nil {
			logDir = filepath.Join(home, ".jenkins-mcp")
		}
	}

	return &Config{
		Jenkins: jenkins.Config{
			BaseURL:        strings.TrimRight(baseURL, "/"),
			Username:       os.Getenv("JENKINS_USERNAME"),
			APIToken:       os.Getenv("JENKINS_API_TOKEN"),
			Timeout:        timeout,
			MaxRetries:     maxRetries,
			BaseRetryDelay: retryDelay,
		},
		LogDir: logDir,
	}, nil
}

func envDurationMs(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer of milliseconds", key, raw)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// envMaxRetries parses the retry budget. The client treats zero as "use the
// default", so an explicit 0 in the environment maps to -1.
func envMaxRetries(key string) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, raw)
	}
	if n == 0 {
		return -1, nil
	}
	return n, nil
}
