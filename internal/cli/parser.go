package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/famomatic/ytresolve/client"
	"github.com/famomatic/ytresolve/internal/config"
)

// ErrNoInput is returned when neither a player response, a video for
// -playerjs, nor -serve was given.
var ErrNoInput = errors.New("no input: pass -player-response FILE, -playerjs with -v, or -serve")

// Options holds all command-line options.
type Options struct {
	// Input
	PlayerResponseFile string // -player-response ("-" reads stdin)
	PlayerURL          string // -player-url
	VideoID            string // -v (id or watch URL)

	// General
	Help bool

	// Stream Selection
	FormatSelector string // -f, --format
	Sizes          bool   // -sizes

	// Network
	ProxyURL       string // -proxy
	ProbeRetries   int    // -retries
	ProbeRPS       float64
	RequestTimeout time.Duration

	// Server
	Serve bool   // -serve
	Port  string // -port

	// Verbosity / Debug
	Verbose         bool
	LogLevel        string
	LogFormat       string
	PrintJSON       bool // -json
	PlayerJSURLOnly bool // -playerjs
}

// ParseFlags parses command-line arguments into Options. Defaults come from
// env so that flags override environment settings.
func ParseFlags(args []string, env config.Config, stderr io.Writer) (Options, error) {
	opts := Options{}
	fs := flag.NewFlagSet("ytresolve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Helper to bind multiple flags to one variable
	var formatShort, formatLong string

	fs.StringVar(&opts.PlayerResponseFile, "player-response", "", "Player response JSON file (- for stdin)")
	fs.StringVar(&opts.PlayerURL, "player-url", "", "Player asset URL (base.js)")
	fs.StringVar(&opts.VideoID, "v", "", "Video ID or URL, used to find the player asset")

	fs.StringVar(&formatShort, "f", "", "Format selector")
	fs.StringVar(&formatLong, "format", "", "Format selector")
	fs.BoolVar(&opts.Sizes, "sizes", false, "Probe the byte size of every printed stream")

	fs.StringVar(&opts.ProxyURL, "proxy", env.ProxyURL, "Use the specified HTTP/HTTPS/SOCKS proxy")
	fs.IntVar(&opts.ProbeRetries, "retries", env.ProbeRetries, "Retry count for size probes")
	fs.Float64Var(&opts.ProbeRPS, "probe-rps", env.ProbeRPS, "Size probe requests per second (0 is unlimited)")
	fs.DurationVar(&opts.RequestTimeout, "timeout", env.RequestTimeout, "Resolution timeout")

	fs.BoolVar(&opts.Serve, "serve", false, "Run the HTTP API")
	fs.StringVar(&opts.Port, "port", env.Port, "HTTP API port")

	fs.BoolVar(&opts.PrintJSON, "json", false, "Print the resolution as JSON")
	fs.BoolVar(&opts.PlayerJSURLOnly, "playerjs", false, "Print player base.js URL only (needs -v)")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Print extraction events and debug logs")
	fs.StringVar(&opts.LogLevel, "log-level", env.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.LogFormat, "log-format", env.LogFormat, "Log format (json, text)")

	// Custom usage
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ytresolve -player-response FILE [-player-url URL | -v ID] [OPTIONS]\n")
		fmt.Fprintf(stderr, "       ytresolve -playerjs -v ID\n")
		fmt.Fprintf(stderr, "       ytresolve -serve [-port PORT]\n\n")
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			opts.Help = true
			return opts, nil
		}
		return opts, err
	}

	// Consolidate aliases
	opts.FormatSelector = pickValue(formatShort, formatLong, "")
	if opts.Verbose {
		opts.LogLevel = "debug"
	}
	if !opts.Serve && opts.PlayerResponseFile == "" && !(opts.PlayerJSURLOnly && opts.VideoID != "") {
		return opts, ErrNoInput
	}
	return opts, nil
}

func pickValue(v1, v2, def string) string {
	if v1 != def {
		return v1
	}
	if v2 != def {
		return v2
	}
	return def
}

// ToClientConfig converts Options to client.Config.
func ToClientConfig(opts Options, env config.Config) client.Config {
	cfg := client.Config{
		ProxyURL:           strings.TrimSpace(opts.ProxyURL),
		PlayerJSBaseURL:    env.PlayerJSBaseURL,
		RequestTimeout:     opts.RequestTimeout,
		ProgramCacheTTL:    env.ProgramCacheTTL,
		MaxParallelReplays: env.MaxParallelReplays,
		ProbeRetries:       opts.ProbeRetries,
		ProbeRatePerSecond: opts.ProbeRPS,
	}
	// Zero would select the library default; an explicit 0 means none.
	if opts.ProbeRetries == 0 {
		cfg.ProbeRetries = -1
	}
	return cfg
}
