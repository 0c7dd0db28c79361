package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/akarpovich/newsbrief/pkg/briefing"
	"github.com/akarpovich/newsbrief/pkg/cache"
	"github.com/akarpovich/newsbrief/pkg/config"
	"github.com/akarpovich/newsbrief/pkg/content"
	"github.com/akarpovich/newsbrief/pkg/feed"
	"github.com/akarpovich/newsbrief/pkg/llm"
	"github.com/akarpovich/newsbrief/pkg/news"
	"github.com/akarpovich/newsbrief/pkg/store"
	"github.com/akarpovich/newsbrief/pkg/warmer"
	"github.com/akarpovich/newsbrief/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"f" long:"config" env:"CONFIG" default:"newsbrief.yml" description:"config file"`
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	// configuration problems abort before any retrieval is attempted
	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}

	setupLog(opts.Debug, cfg.LLM.APIKey)

	log.Printf("[INFO] starting newsbrief version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, cfg, opts.Debug); err != nil {
		log.Printf("[ERROR] server failed: %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] shutdown complete")
}

// run wires the pipeline and serves until ctx is canceled
func run(ctx context.Context, cfg *config.Config, debug bool) error {
	fetcher := feed.NewHTTPFetcher(cfg.Feeds.Timeout, cfg.Feeds.UserAgent, cfg.Feeds.SearchTemplate)
	freshCache := cache.NewFresh(cfg.Cache.TTL)

	var archive *store.Archive
	var archiver news.Archiver
	var historian server.Historian
	if cfg.Archive.Enabled {
		var err error
		archive, err = store.NewArchive(cfg.Archive.DSN)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer archive.Close()
		archiver, historian = archive, archive
	}

	aggregator := news.NewAggregator(fetcher, freshCache, archiver, cfg.Sources())

	var extractor briefing.Extractor
	if cfg.Extraction.Enabled {
		extractor = content.NewHTTPExtractor(cfg.Extraction.Timeout, cfg.Feeds.UserAgent, cfg.Extraction.MinTextLength)
	}

	orchestrator := briefing.NewOrchestrator(aggregator, llm.NewGenerator(cfg.GetLLMConfig()), extractor)

	warm := warmer.New(aggregator, cfg.Warm.Topics, cfg.Warm.Interval, cfg.Warm.MaxConcurrent)
	warm.Start(ctx)
	defer warm.Stop()

	srv := server.New(cfg, orchestrator, aggregator, freshCache, historian, revision, debug)
	return srv.Run(ctx)
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
