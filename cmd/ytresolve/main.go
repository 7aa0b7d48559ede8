package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/famomatic/ytresolve/client"
	"github.com/famomatic/ytresolve/internal/cli"
	"github.com/famomatic/ytresolve/internal/config"
	"github.com/famomatic/ytresolve/internal/logging"
	"github.com/famomatic/ytresolve/internal/metrics"
	"github.com/famomatic/ytresolve/internal/selector"
	"github.com/famomatic/ytresolve/internal/server"
	"github.com/famomatic/ytresolve/internal/stream"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()
	env := config.FromEnv()

	opts, err := cli.ParseFlags(os.Args[1:], env, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.Help {
		return
	}

	log := logging.New(opts.LogLevel, opts.LogFormat)
	cfg := cli.ToClientConfig(opts, env)
	cfg.Logger = client.NewSlogLogger(log)

	if opts.Serve {
		if err := serve(log, cfg, opts.Port); err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	if opts.Verbose {
		cfg.OnExtractionEvent = func(evt client.ExtractionEvent) {
			fmt.Fprintln(os.Stderr, formatExtractionEvent(evt))
		}
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, client.New(cfg), opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", client.ClassifyError(err), err)
		os.Exit(1)
	}
}

func serve(log *slog.Logger, cfg client.Config, port string) error {
	met := metrics.New()
	cfg.Metrics = met
	h := server.NewHandler(client.New(cfg), log)
	r := server.NewRouter(h, log, met)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	log.Info("server starting",
		"port", port,
		"request_timeout", cfg.RequestTimeout,
		"program_cache_ttl", cfg.ProgramCacheTTL,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func run(ctx context.Context, c *client.Client, opts cli.Options, stdin io.Reader, stdout io.Writer) error {
	if opts.PlayerJSURLOnly {
		playerPath, err := c.PlayerURL(ctx, opts.VideoID)
		if err != nil {
			return err
		}
		if strings.HasPrefix(playerPath, "http://") || strings.HasPrefix(playerPath, "https://") {
			fmt.Fprintln(stdout, playerPath)
			return nil
		}
		fmt.Fprintln(stdout, "https://www.youtube.com"+playerPath)
		return nil
	}

	body, err := readPlayerResponse(opts.PlayerResponseFile, stdin)
	if err != nil {
		return err
	}
	res, err := c.Resolve(ctx, client.ResolveRequest{
		PlayerResponse: body,
		PlayerURL:      opts.PlayerURL,
		VideoID:        opts.VideoID,
	})
	if err != nil {
		return err
	}

	streams := res.Streams.All()
	if opts.FormatSelector != "" {
		sel, err := selector.Parse(opts.FormatSelector)
		if err != nil {
			return err
		}
		if streams, err = selector.Select(res.Streams, sel); err != nil {
			return err
		}
	}
	var sizes []client.SizeResult
	if opts.Sizes {
		sizes = c.ProbeSizes(ctx, stream.NewQuery(streams))
	}

	if opts.PrintJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(server.NewResolveView(res, streams, sizes))
	}

	fmt.Fprintf(stdout, "Resolved %d streams (session %s):\n", len(streams), res.SessionID)
	for i, s := range streams {
		line := formatStreamLine(s)
		if i < len(sizes) {
			line += " " + formatSize(sizes[i])
		}
		fmt.Fprintln(stdout, line)
	}
	for i := range res.Failures {
		f := &res.Failures[i]
		fmt.Fprintf(stdout, "omitted itag %d [%s]: %v\n", f.Itag, client.ClassifyError(f), f.Err)
	}
	return nil
}

func readPlayerResponse(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read player response: %w", err)
	}
	return body, nil
}

func formatStreamLine(s *client.Stream) string {
	label := s.QualityLabel()
	if label == "" {
		label = s.Resolution()
	}
	if label == "" {
		label = s.ABR()
	}
	return fmt.Sprintf("[%d] %s (%dx%d) %d kbps - %s", s.Itag(), label, s.Width(), s.Height(), s.Bitrate()/1000, s.MimeType())
}

func formatSize(r client.SizeResult) string {
	if r.Err != nil {
		if errors.Is(r.Err, client.ErrDownloadingLiveNotSupported) {
			return "size=live"
		}
		return "size=error"
	}
	return fmt.Sprintf("size=%d", r.Size)
}

func formatExtractionEvent(evt client.ExtractionEvent) string {
	return fmt.Sprintf("[extract] %s:%s source=%s detail=%s", evt.Stage, evt.Phase, evt.Source, evt.Detail)
}
