package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sergw-project/sergw/internal/serialio"
)

type listenConfig struct {
	serial      string
	baud        int
	host        string
	dataBits    int
	parity      string
	stopBits    int
	buffer      int
	logFormat   string
	logLevel    string
	metricsAddr string
	mdnsEnable  bool
}

func defaultListenConfig() *listenConfig {
	return &listenConfig{
		baud:      115200,
		host:      "127.0.0.1:5656",
		dataBits:  8,
		parity:    "none",
		stopBits:  1,
		buffer:    4096,
		logFormat: "text",
		logLevel:  "info",
	}
}

// applyEnvOverrides maps SERGW_* environment variables onto cfg, but only
// for flags the caller did not explicitly set, mirroring the teacher's
// flag-wins-over-env precedence.
func applyEnvOverrides(cfg *listenConfig, explicit map[string]bool) error {
	get := func(k string) (string, bool) {
		v, ok := os.LookupEnv(k)
		return strings.TrimSpace(v), ok
	}

	if !explicit["log-level"] {
		if v, ok := get("SERGW_LOG_LEVEL"); ok && v != "" {
			cfg.logLevel = v
		}
	}
	if !explicit["log-format"] {
		if v, ok := get("SERGW_LOG_FORMAT"); ok && v != "" {
			cfg.logFormat = v
		}
	}
	if !explicit["baud"] {
		if v, ok := get("SERGW_BAUD"); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid SERGW_BAUD: %w", err)
			}
			cfg.baud = n
		}
	}
	if !explicit["host"] {
		if v, ok := get("SERGW_HOST"); ok && v != "" {
			cfg.host = v
		}
	}
	return nil
}

func (c *listenConfig) validate() error {
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.baud <= 0 {
		return fmt.Errorf("baud must be > 0 (got %d)", c.baud)
	}
	if c.buffer <= 0 {
		return fmt.Errorf("buffer must be > 0 (got %d)", c.buffer)
	}
	return nil
}

func (c *listenConfig) serialConfig() serialio.Config {
	cfg := serialio.Config{Baud: uint32(c.baud)}
	switch c.dataBits {
	case 5:
		cfg.DataBits = serialio.DataBits5
	case 6:
		cfg.DataBits = serialio.DataBits6
	case 7:
		cfg.DataBits = serialio.DataBits7
	default:
		cfg.DataBits = serialio.DataBits8
	}
	switch strings.ToLower(c.parity) {
	case "odd":
		cfg.Parity = serialio.ParityOdd
	case "even":
		cfg.Parity = serialio.ParityEven
	default:
		cfg.Parity = serialio.ParityNone
	}
	if c.stopBits == 2 {
		cfg.StopBits = serialio.StopBits2
	} else {
		cfg.StopBits = serialio.StopBits1
	}
	return cfg
}
