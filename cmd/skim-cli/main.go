// Command skim-cli runs article discovery for one page and prints the JSON
// response.
//
//	skim-cli --url https://example.com/news --keywords sport,finance --logic or
//	skim-cli --url https://example.com/news --file saved.html --keywords sport --logic and --strategy links
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"github.com/use-agent/skim/config"
	"github.com/use-agent/skim/discover"
	"github.com/use-agent/skim/engine"
	"github.com/use-agent/skim/models"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "skim-cli: %v\n", err)
		return 2
	}

	fs := pflag.NewFlagSet("skim-cli", pflag.ContinueOnError)
	var (
		req      models.DiscoverRequest
		file     string
		pretty   bool
		logLevel string
	)
	fs.StringVarP(&req.URL, "url", "u", "", "listing page address (required)")
	fs.StringVarP(&req.Keywords, "keywords", "k", "", "comma-separated keywords (required)")
	fs.StringVarP(&req.Logic, "logic", "l", "or", "keyword logic: and | or")
	fs.StringVarP(&req.Strategy, "strategy", "s", cfg.Discover.DefaultStrategy, "extraction strategy: structure | links")
	fs.StringVarP(&req.Format, "format", "f", "json", "response format: json | markdown")
	fs.StringVar(&file, "file", "", "read the page from this file instead of fetching it; --url is still the base address")
	fs.DurationVar(&cfg.Fetch.Timeout, "timeout", cfg.Fetch.Timeout, "fetch timeout")
	fs.BoolVar(&pretty, "pretty", true, "indent the JSON output")
	fs.StringVar(&logLevel, "log-level", "warn", "log level written to stderr: debug | info | warn | error")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	d := discover.New(engine.NewHTTPEngine(cfg.Fetch), cfg)

	var resp *models.DiscoverResponse
	if file != "" {
		raw, readErr := os.ReadFile(file)
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "skim-cli: %v\n", readErr)
			return 2
		}
		resp, err = d.DiscoverHTML(&req, string(raw))
	} else {
		resp, err = d.Discover(context.Background(), &req)
	}

	code := 0
	if err != nil {
		var de *models.DiscoverError
		if !errors.As(err, &de) {
			de = models.NewDiscoverError(models.ErrCodeInternal, err.Error(), err)
		}
		resp.Success = false
		resp.Error = de.ToDetail()
		code = 1
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "skim-cli: %v\n", err)
		return 2
	}
	return code
}
