// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/wardenhq/warden/internal/logger"
	"github.com/wardenhq/warden/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Monitor Monitor       `group:"Monitor Options" namespace:"monitor" env-namespace:"WARDEN_MONITOR"`
	Console Console       `group:"Console Options" namespace:"console" env-namespace:"WARDEN_CONSOLE"`
	Chat    Chat          `group:"Chat Options" namespace:"chat" env-namespace:"WARDEN_CHAT"`
	Feed    Feed          `group:"Ban Feed Options" namespace:"feed" env-namespace:"WARDEN_FEED"`
	Storage Storage       `group:"Storage Options" namespace:"db" env-namespace:"WARDEN_DB"`
	GeoIP   GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"WARDEN_GEOIP"`
	Game    Game          `group:"Game Query Options" namespace:"a2s" env-namespace:"WARDEN_A2S"`
	Bus     Bus           `group:"Event Bus Options" namespace:"nats" env-namespace:"WARDEN_NATS"`
	Server  Server        `group:"Ops Server Options" env-namespace:"WARDEN"`
	Control Control       `group:"Service Control Options" namespace:"service" env-namespace:"WARDEN_SERVICE"`
	Logger  logger.Config `group:"Logger Options" namespace:"log" env-namespace:"WARDEN_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Monitor holds the polling loop configuration.
type Monitor struct {
	// betteralign:ignore

	Interval time.Duration `short:"i" long:"interval" env:"INTERVAL" description:"Tick interval between console captures" default:"60s"`
}

// Console holds the tmux capture configuration for the monitored server.
type Console struct {
	// betteralign:ignore

	Session string `short:"s" long:"session" env:"SESSION" description:"tmux session name of the game server" default:"arma_reforger"`
	Lines   int    `long:"lines" env:"LINES" description:"Number of scrollback lines to capture" default:"1000"`
}

// Chat holds the chat platform configuration (bot token and target channels).
type Chat struct {
	// betteralign:ignore

	Token         string        `short:"t" long:"token" env:"TOKEN" description:"Chat bot token"`
	APIBase       string        `long:"api-base" env:"API_BASE" description:"Chat REST API base URL" default:"https://discord.com/api/v10"`
	StatusChannel string        `long:"status-channel" env:"STATUS_CHANNEL" description:"Channel ID for the live status message"`
	BansChannel   string        `long:"bans-channel" env:"BANS_CHANNEL" description:"Channel ID for ban notifications"`
	Timeout       time.Duration `long:"timeout" env:"TIMEOUT" description:"HTTP timeout for chat API calls" default:"10s"`
}

// Feed holds the BattleMetrics ban feed configuration.
type Feed struct {
	// betteralign:ignore

	Token    string        `long:"token" env:"TOKEN" description:"BattleMetrics API token"`
	ServerID string        `long:"server-id" env:"SERVER_ID" description:"BattleMetrics server ID"`
	APIBase  string        `long:"api-base" env:"API_BASE" description:"BattleMetrics API base URL" default:"https://api.battlemetrics.com"`
	Timeout  time.Duration `long:"timeout" env:"TIMEOUT" description:"HTTP timeout for feed API calls" default:"15s"`
}

// Enabled reports whether the ban feed portion of the tick should run.
func (f Feed) Enabled() bool {
	return f.Token != "" && f.ServerID != ""
}

// Storage holds database configuration.
type Storage struct {
	// betteralign:ignore

	Path string `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"warden.db"`
}

// GeoIP holds MaxMind GeoIP configuration for ban notice enrichment.
type GeoIP struct {
	// betteralign:ignore

	Enabled  bool          `long:"enabled" env:"ENABLED" description:"Enable GeoIP enrichment of ban notices"`
	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file" default:"warden.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// Game holds Source Query protocol configuration for the optional live probe.
type Game struct {
	// betteralign:ignore

	Address    string        `long:"address" env:"ADDRESS" description:"Game server IP for the A2S probe (empty disables the probe)"`
	Port       int           `long:"port" env:"PORT" description:"Game server query port" default:"17777"`
	Timeout    time.Duration `long:"timeout" env:"TIMEOUT" description:"Query timeout" default:"3s"`
	BufferSize uint16        `long:"buffer-size" env:"BUFFER_SIZE" description:"Response body buffer size" default:"1400"`
}

// Enabled reports whether the A2S probe is configured.
func (g Game) Enabled() bool {
	return g.Address != ""
}

// Bus holds NATS event bus configuration for the optional telemetry mirror.
type Bus struct {
	// betteralign:ignore

	URL     string `long:"url" env:"URL" description:"NATS server URL (empty disables the event bus)"`
	Subject string `long:"subject" env:"SUBJECT" description:"Subject prefix for published events" default:"warden"`
}

// Server holds the ops HTTP API configuration.
type Server struct {
	// betteralign:ignore

	Address        string        `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Ops server listen address (empty disables the ops API)" default:":8080"`
	AuthToken      string        `long:"auth-token" env:"AUTH_TOKEN" description:"Ops API authentication token"`
	TrustProxy     bool          `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
	HardLimitCount int           `long:"rate-count" env:"RATE_COUNT" description:"Per-IP rate limit: requests count" default:"8"`
	HardLimitWin   time.Duration `long:"rate-window" env:"RATE_WINDOW" description:"Per-IP rate limit: window duration" default:"1m"`
}

// Control holds the systemd unit used by the restart operation.
type Control struct {
	// betteralign:ignore

	Unit string `long:"unit" env:"UNIT" description:"systemd unit of the monitored game server" default:"arma3server"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if cfg.Chat.Token == "" {
		fmt.Fprintln(os.Stderr,
			"Required flag `-t, --chat-token' or environment variable `WARDEN_CHAT_TOKEN` was not specified!")
		os.Exit(1)
	}

	if cfg.Chat.StatusChannel == "" {
		fmt.Fprintln(os.Stderr,
			"Required flag `--chat-status-channel' or environment variable `WARDEN_CHAT_STATUS_CHANNEL` was not specified!")
		os.Exit(1)
	}

	if cfg.Feed.Enabled() && cfg.Chat.BansChannel == "" {
		fmt.Fprintln(os.Stderr,
			"Ban feed is configured but `--chat-bans-channel` (WARDEN_CHAT_BANS_CHANNEL) is not set!")
		os.Exit(1)
	}

	if cfg.Server.Address != "" && cfg.Server.AuthToken == "" {
		fmt.Fprintln(os.Stderr,
			"Ops server is enabled but `--auth-token` (WARDEN_AUTH_TOKEN) is not set!")
		os.Exit(1)
	}

	return &cfg
}
