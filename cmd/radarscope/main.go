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
	"golang.org/x/sync/errgroup"

	"github.com/umputun/radarscope/pkg/bundle"
	"github.com/umputun/radarscope/pkg/config"
	"github.com/umputun/radarscope/pkg/converter"
	"github.com/umputun/radarscope/pkg/fetcher"
	"github.com/umputun/radarscope/pkg/scheduler"
	"github.com/umputun/radarscope/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"f" long:"config" env:"CONFIG" default:"config.yml" description:"config file path"`
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

	setupLog(opts.Debug, opts.NoColor)

	log.Printf("[INFO] starting radarscope version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] shutdown complete")
}

// run loads config, wires the components and blocks until ctx is canceled
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	catalog := fetcher.New(fetcher.Config{
		Timeout:    cfg.Sources.Timeout,
		UserAgent:  cfg.Sources.UserAgent,
		Retries:    cfg.Sources.Retries,
		RetryDelay: cfg.Sources.RetryDelay,
	})

	extractor := &bundle.Extractor{Suffix: ".hdf"}

	convCfg := cfg.GetConvertConfig()
	conv := converter.New(converter.Config{
		Command:     convCfg.Command,
		Args:        convCfg.Args,
		Timeout:     convCfg.Timeout,
		RadarOut:    cfg.Storage.RadarOutputDir,
		ForecastOut: cfg.Storage.ForecastOutDir,
		ExtendedOut: cfg.Storage.ExtendedOutDir,
	})

	sched := scheduler.New(scheduler.Params{
		Catalog:   catalog,
		Extractor: extractor,
		Converter: conv,

		RadarURL:    cfg.Sources.RadarURL,
		ForecastURL: cfg.Sources.ForecastURL,

		RadarDataDir:    cfg.Storage.RadarDataDir,
		RadarOutDir:     cfg.Storage.RadarOutputDir,
		ForecastDataDir: cfg.Storage.ForecastDataDir,
		ForecastOutDir:  cfg.Storage.ForecastOutDir,
		ExtendedOutDir:  cfg.Storage.ExtendedOutDir,

		MinTrackedFiles:  cfg.Storage.MinTrackedFiles,
		MaxTrackedFiles:  cfg.Storage.MaxTrackedFiles,
		MaxForecastFiles: cfg.Storage.MaxForecastFiles,

		PublishInterval:    cfg.Timing.PublishInterval,
		TickInterval:       cfg.Timing.TickInterval,
		QuickCheckInterval: cfg.Timing.QuickCheckInterval,
		QuickCheckLimit:    cfg.Timing.QuickCheckLimit,
		MaxWorkers:         convCfg.MaxWorkers,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Run(gctx)
	})

	if cfg.Server.Enabled {
		srv := server.New(cfg, sched, server.Dirs{
			RadarOut:    cfg.Storage.RadarOutputDir,
			ForecastOut: cfg.Storage.ForecastOutDir,
			ExtendedOut: cfg.Storage.ExtendedOutDir,
		}, revision, opts.Debug)

		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	return g.Wait()
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}

	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
