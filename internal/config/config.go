// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/playerhub/internal/logger"
	"github.com/woozymasta/playerhub/internal/region"
	"github.com/woozymasta/playerhub/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Region      Region        `group:"Region Options" namespace:"region" env-namespace:"PLAYERHUB_REGION"`
	Server      Server        `group:"Server Options" env-namespace:"PLAYERHUB"`
	Status      Status        `group:"Status Options" namespace:"status" env-namespace:"PLAYERHUB_STATUS"`
	Audit       Audit         `group:"Audit Options" namespace:"audit" env-namespace:"PLAYERHUB_AUDIT"`
	GeoIP       GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"PLAYERHUB_GEOIP"`
	RateLimit   RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"PLAYERHUB_RATE_LIMIT"`
	Maintenance Maintenance   `group:"Maintenance Options"`
	Logger      logger.Config `group:"Logger Options" namespace:"log" env-namespace:"PLAYERHUB_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Region selects the local region and describes the region table.
type Region struct {
	// betteralign:ignore

	Code     string   `short:"r" long:"code" env:"CODE" description:"Local region code"`
	Defs     []string `long:"def" env:"DEFS" env-delim:"," description:"Region definition CODE:PORT:IP[:LABEL], repeat for each region" default:"NA:6789:132.168.2.22" default:"EU:6790:93.168.2.22" default:"AS:6791:182.168.2.22"`
	PeerHost string   `long:"peer-host" env:"PEER_HOST" description:"Host the peer status responders listen on" default:"127.0.0.1"`
	Bind     string   `long:"bind" env:"BIND" description:"Interface the local status responder binds to" default:""`
}

// Server holds control-surface HTTP configuration.
type Server struct {
	// betteralign:ignore

	Address     string `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Control surface listen address" default:":8080"`
	MaxBodySize int64  `long:"max-body-size" env:"MAX_BODY_SIZE" description:"Max body size for incoming requests" default:"4096"`
	TrustProxy  bool   `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// Status holds inter-region status protocol configuration.
type Status struct {
	// betteralign:ignore

	Timeout    time.Duration `long:"timeout" env:"TIMEOUT" description:"Peer status query timeout" default:"5s"`
	BufferSize uint16        `long:"buffer-size" env:"BUFFER_SIZE" description:"Status datagram buffer size" default:"1000"`
}

// Audit holds audit trail configuration.
type Audit struct {
	// betteralign:ignore

	Dir       string `long:"dir" env:"DIR" description:"Directory for per-region audit log files, empty disables" default:"server_logs"`
	DBPath    string `short:"d" long:"db" env:"DB" description:"Path to SQLite audit database, empty disables" default:"playerhub.db"`
	QueueSize int    `long:"queue-size" env:"QUEUE_SIZE" description:"Async audit queue capacity" default:"1000"`
	Workers   int    `long:"workers" env:"WORKERS" description:"Async audit writers" default:"2"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file, empty disables country enrichment" default:""`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// RateLimit holds control-surface rate limiting configuration.
type RateLimit struct {
	// betteralign:ignore

	Count  int           `long:"count" env:"COUNT" description:"Per-IP requests allowed per window" default:"60"`
	Window time.Duration `long:"window" env:"WINDOW" description:"Per-IP rate limit window" default:"1m"`
}

// Maintenance holds one-shot task flags. When any is set the process runs it and exits.
type Maintenance struct {
	// betteralign:ignore

	AuditPrune    time.Duration `long:"audit-prune" description:"Delete audit records older than the given duration and exit"`
	Probe         bool          `long:"probe" description:"Run one status aggregation round, print the report and exit"`
	GenerateCount int           `long:"gen-fake-accounts" hidden:"true"`
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

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	return &cfg
}

// Validate checks flag combinations that go-flags cannot express.
func (c *Config) Validate() error {
	if c.Region.Code == "" {
		return fmt.Errorf("required flag `-r, --region-code' or environment variable `PLAYERHUB_REGION_CODE` was not specified")
	}
	if c.Status.Timeout <= 0 {
		return fmt.Errorf("status timeout must be positive, got %s", c.Status.Timeout)
	}
	if c.RateLimit.Count <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit count and window must be positive")
	}

	return nil
}

// Regions builds the validated region table and the local region identity.
// Any error here is a fatal configuration error.
func (c *Config) Regions() (*region.Table, region.Identity, error) {
	table, err := region.ParseTable(c.Region.Defs)
	if err != nil {
		return nil, region.Identity{}, err
	}

	local, err := table.Lookup(c.Region.Code)
	if err != nil {
		return nil, region.Identity{}, err
	}

	return table, local, nil
}
