// Package config loads server settings from defaults, an optional config
// file, a .env file, STOCKMGTR_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. STOCKMGTR_UPSTREAM_URL.
const EnvPrefix = "STOCKMGTR"

// Config holds the server settings.
type Config struct {
	Addr            string
	DBPath          string
	UpstreamURL     string
	UpstreamTimeout time.Duration
	LogPath         string
	SessionLifetime time.Duration
	SecureCookies   bool
	ListTTL         time.Duration
	DirectoryTTL    time.Duration
	// LoginRate is the number of login attempts per minute allowed from
	// one client address, with bursts of LoginBurst.
	LoginRate     float64
	LoginBurst    int
	PurgeInterval time.Duration
}

var defaults = map[string]any{
	"addr":             ":8080",
	"db":               "stockmgtr.sqlite3",
	"upstream_url":     "http://localhost:8000/api/v1",
	"upstream_timeout": 10 * time.Second,
	"log":              "",
	"session_lifetime": 7 * 24 * time.Hour,
	"secure_cookies":   false,
	"list_ttl":         30 * time.Second,
	"directory_ttl":    5 * time.Minute,
	"login_rate":       10.0,
	"login_burst":      5,
	"purge_interval":   10 * time.Minute,
}

const usage = `Usage: stockmgtr [flags]

Flags:
  -a, -addr <host:port>      listen address (default: :8080)
  -d, -db <path>             SQLite session database path (default: stockmgtr.sqlite3)
  -u, -upstream <url>        stock API base URL (default: http://localhost:8000/api/v1)
  -l, -log <path>            log file path (default: no file, stdout/stderr only)
  -c, -config <path>         config file (yaml, toml or json)
  -e, -env <path>            .env file to load if present (default: .env)
      -secure-cookies        mark cookies Secure (serve behind HTTPS)
  -h, -help                  show this help and exit

Every setting can also be given as an environment variable, e.g.
STOCKMGTR_UPSTREAM_URL, STOCKMGTR_LIST_TTL=30s, STOCKMGTR_LOGIN_RATE=10.
`

// Load parses args (without the program name). It returns flag.ErrHelp
// after printing usage to out when -h is given.
func Load(args []string, out io.Writer) (*Config, error) {
	flags := flag.NewFlagSet("stockmgtr", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() { fmt.Fprint(out, usage) }

	var addr, dbPath, upstream, logPath, configPath, envPath string
	var secure bool
	flags.StringVar(&addr, "addr", "", "")
	flags.StringVar(&addr, "a", "", "")
	flags.StringVar(&dbPath, "db", "", "")
	flags.StringVar(&dbPath, "d", "", "")
	flags.StringVar(&upstream, "upstream", "", "")
	flags.StringVar(&upstream, "u", "", "")
	flags.StringVar(&logPath, "log", "", "")
	flags.StringVar(&logPath, "l", "", "")
	flags.StringVar(&configPath, "config", "", "")
	flags.StringVar(&configPath, "c", "", "")
	flags.StringVar(&envPath, "env", ".env", "")
	flags.StringVar(&envPath, "e", ".env", "")
	flags.BoolVar(&secure, "secure-cookies", false, "")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		flags.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envPath, err)
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configPath == "" {
		configPath = v.GetString("config")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Flags given explicitly win over everything else.
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr", "a":
			v.Set("addr", addr)
		case "db", "d":
			v.Set("db", dbPath)
		case "upstream", "u":
			v.Set("upstream_url", upstream)
		case "log", "l":
			v.Set("log", logPath)
		case "secure-cookies":
			v.Set("secure_cookies", secure)
		}
	})

	cfg := &Config{
		Addr:            v.GetString("addr"),
		DBPath:          v.GetString("db"),
		UpstreamURL:     v.GetString("upstream_url"),
		UpstreamTimeout: v.GetDuration("upstream_timeout"),
		LogPath:         v.GetString("log"),
		SessionLifetime: v.GetDuration("session_lifetime"),
		SecureCookies:   v.GetBool("secure_cookies"),
		ListTTL:         v.GetDuration("list_ttl"),
		DirectoryTTL:    v.GetDuration("directory_ttl"),
		LoginRate:       v.GetFloat64("login_rate"),
		LoginBurst:      v.GetInt("login_burst"),
		PurgeInterval:   v.GetDuration("purge_interval"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.UpstreamURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream url %q must be an absolute http(s) URL", c.UpstreamURL)
	}
	if c.UpstreamTimeout <= 0 {
		return errors.New("upstream timeout must be positive")
	}
	if c.SessionLifetime <= 0 {
		return errors.New("session lifetime must be positive")
	}
	if c.ListTTL < 0 || c.DirectoryTTL < 0 {
		return errors.New("cache TTLs cannot be negative")
	}
	if c.LoginRate <= 0 || c.LoginBurst <= 0 {
		return errors.New("login rate and burst must be positive")
	}
	if c.PurgeInterval <= 0 {
		return errors.New("purge interval must be positive")
	}
	return nil
}
