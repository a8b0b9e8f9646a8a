package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmdmdm-nz/netifmon/pkg/version"
)

type Mode string

const (
	ModeServe   Mode = "serve"
	ModeList    Mode = "list"
	ModeMonitor Mode = "monitor"
)

// Config holds the application configuration from CLI flags
type Config struct {
	Mode         Mode
	Port         int
	Host         string
	LogLevel     string
	PollInterval time.Duration
	Advertise    bool
	Format       string
	ShowVersion  bool
}

// Parse parses args (without the program name) into a Config.
func Parse(args []string, output io.Writer) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("ifmond", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: ifmond [flags] [serve|list|monitor]\n\n")
		fs.PrintDefaults()
	}
	fs.IntVar(&cfg.Port, "port", 60106, "Port to listen on")
	fs.StringVar(&cfg.Host, "host", "127.0.0.1", "Host to bind to")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", time.Second, "Interval between interface re-enumerations")
	fs.BoolVar(&cfg.Advertise, "advertise", false, "Advertise the API over mDNS")
	fs.StringVar(&cfg.Format, "format", "text", "Output format for list and monitor (text, json, plist)")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch fs.NArg() {
	case 0:
		cfg.Mode = ModeServe
	case 1:
		cfg.Mode = Mode(fs.Arg(0))
	default:
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}

	switch cfg.Mode {
	case ModeServe, ModeList, ModeMonitor:
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("poll-interval must be positive")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}

// ParseFlags parses command line arguments and returns a Config
func ParseFlags() *Config {
	cfg, err := Parse(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cfg.ShowVersion {
		fmt.Println(VersionString())
		os.Exit(0)
	}

	return cfg
}

func VersionString() string {
	return fmt.Sprintf("%s version %s (commit: %s, built at: %s)\n%s",
		version.LibraryName(),
		version.Version,
		version.CommitHash,
		version.BuildTime,
		version.LibraryCopyright())
}

// String returns a string representation of the Config
func (c *Config) String() string {
	return fmt.Sprintf("Mode: %s, Host: %s, Port: %d, LogLevel: %s, PollInterval: %s, Advertise: %t, Format: %s",
		c.Mode, c.Host, c.Port, c.LogLevel, c.PollInterval, c.Advertise, c.Format)
}
