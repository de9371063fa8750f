package config

import (
	"path/filepath"
	"time"

	"github.com/paularlott/cli"
)

type Config struct {
	DataDir       string
	ListenAddr    string
	MCPAuthToken  string
	APIAuthToken  string
	Bus           string
	CallTimeout   time.Duration
	LogLevel      string
	LogFormat     string
	LegacyCompare bool
}

var (
	dataDir       string
	listenAddr    string
	mcpAuthToken  string
	apiAuthToken  string
	bus           string
	callTimeout   string
	logLevel      string
	logFormat     string
	legacyCompare string
)

const defaultCallTimeout = 25 * time.Second

func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:         "data-dir",
			Usage:        "Data directory for the commit history database",
			EnvVars:      []string{"CONNPROPS_DATA_DIR"},
			DefaultValue: filepath.Join(".", "data"),
			AssignTo:     &dataDir,
		},
		&cli.StringFlag{
			Name:         "addr",
			Usage:        "Server listen address",
			EnvVars:      []string{"CONNPROPS_LISTEN_ADDR"},
			DefaultValue: ":8080",
			AssignTo:     &listenAddr,
		},
		&cli.StringFlag{
			Name:     "mcp-token",
			Usage:    "MCP bearer token",
			EnvVars:  []string{"CONNPROPS_BEARER_TOKEN"},
			AssignTo: &mcpAuthToken,
		},
		&cli.StringFlag{
			Name:     "api-token",
			Usage:    "API bearer token",
			EnvVars:  []string{"CONNPROPS_API_TOKEN"},
			AssignTo: &apiAuthToken,
		},
		&cli.StringFlag{
			Name:         "bus",
			Usage:        "D-Bus to talk to connman on (system or session)",
			EnvVars:      []string{"CONNPROPS_BUS"},
			DefaultValue: "system",
			AssignTo:     &bus,
		},
		&cli.StringFlag{
			Name:         "call-timeout",
			Usage:        "Timeout for a single connman call",
			EnvVars:      []string{"CONNPROPS_CALL_TIMEOUT"},
			DefaultValue: defaultCallTimeout.String(),
			AssignTo:     &callTimeout,
		},
		&cli.StringFlag{
			Name:         "log-level",
			Usage:        "Log level (debug, info, warn, error)",
			EnvVars:      []string{"CONNPROPS_LOG_LEVEL"},
			DefaultValue: "info",
			AssignTo:     &logLevel,
		},
		&cli.StringFlag{
			Name:         "log-format",
			Usage:        "Log format (console or json)",
			EnvVars:      []string{"CONNPROPS_LOG_FORMAT"},
			DefaultValue: "console",
			AssignTo:     &logFormat,
		},
		&cli.StringFlag{
			Name:         "legacy-compare",
			Usage:        "Detect address changes with case-insensitive substring matching (true/false)",
			EnvVars:      []string{"CONNPROPS_LEGACY_COMPARE"},
			DefaultValue: "false",
			AssignTo:     &legacyCompare,
		},
	}
}

func Load() *Config {
	return &Config{
		DataDir:       dataDir,
		ListenAddr:    listenAddr,
		MCPAuthToken:  mcpAuthToken,
		APIAuthToken:  apiAuthToken,
		Bus:           bus,
		CallTimeout:   parseTimeout(callTimeout),
		LogLevel:      logLevel,
		LogFormat:     logFormat,
		LegacyCompare: parseBool(legacyCompare),
	}
}

func parseTimeout(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultCallTimeout
	}
	return d
}

func parseBool(s string) bool {
	switch s {
	case "1", "t", "true", "TRUE", "True", "yes", "on":
		return true
	}
	return false
}

// IsMCPEnabled checks if MCP authentication is configured
func (c *Config) IsMCPEnabled() bool {
	return c.MCPAuthToken != ""
}

// IsAPIAuthEnabled checks if API authentication is configured
func (c *Config) IsAPIAuthEnabled() bool {
	return c.APIAuthToken != ""
}
