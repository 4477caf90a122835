package daemon

import (
	"time"

	"github.com/spf13/pflag"
)

// Config configures the stitchd daemon.
type Config struct {
	Address              string
	Database             string
	SiteToken            string
	SSL                  bool
	CertFile, KeyFile    string
	EnableRequestLogging bool
	DisableSweeper       bool
	SweepInterval        time.Duration
}

// LoadConfigFromFlags adds flags to the given flagset, and, after the flagset
// is parsed by the caller, the flags populate the returned config.
func LoadConfigFromFlags(flags *pflag.FlagSet) *Config {
	cfg := Config{}
	flags.StringVar(&cfg.Address, "address", ":8080", "Listening address")
	flags.StringVar(&cfg.Database, "database", "", "Postgres connection string")
	flags.StringVar(&cfg.SiteToken, "site-token", "", "API token with site-wide unlimited permissions. Use with care.")
	flags.BoolVar(&cfg.SSL, "ssl", false, "Toggle SSL")
	flags.StringVar(&cfg.CertFile, "cert-file", "", "Path to SSL certificate (required if enabling SSL)")
	flags.StringVar(&cfg.KeyFile, "key-file", "", "Path to SSL key (required if enabling SSL)")
	flags.BoolVar(&cfg.EnableRequestLogging, "log-http-requests", false, "Log HTTP requests")
	flags.BoolVar(&cfg.DisableSweeper, "disable-sweeper", false, "Disable the background sweep of expired identity mappings")
	flags.DurationVar(&cfg.SweepInterval, "sweep-interval", 0, "Interval between sweeps of expired identity mappings")
	return &cfg
}
