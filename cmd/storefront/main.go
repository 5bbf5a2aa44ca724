package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bookbuddy/storefront/internal/app"
	"github.com/bookbuddy/storefront/internal/navigation"
	"github.com/bookbuddy/storefront/pkg/config"
	"github.com/bookbuddy/storefront/pkg/logger"
	"github.com/bookbuddy/storefront/pkg/storage"
)

const serviceName = "storefront"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logg := logger.New(logger.Options{ServiceName: serviceName})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		logg.Debug(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		return 1
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(fs)
		return 2
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", fs.Arg(0))
		usage(fs)
		return 2
	}

	store, err := storage.Open(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to open storage", err)
		return 1
	}

	nav := navigation.NewRecorder(logg)
	a, err := app.New(app.Params{
		Config:     cfg,
		Logger:     logg,
		Storage:    store,
		Registerer: prometheus.NewRegistry(),
		Navigator:  nav,
	})
	if err != nil {
		logg.Error(ctx, "failed to build storefront", err)
		_ = store.Close()
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			logg.Error(ctx, "error closing storage", err)
		}
	}()

	if err := a.Start(ctx); err != nil {
		logg.Error(ctx, "failed to restore local state", err)
		return 1
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "command": fs.Arg(0)})
	if err := cmd.run(ctx, a, os.Stdout, fs.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if route := nav.Current(); route != navigation.RouteHome {
		logg.Debug(logg.WithField(ctx, "route", route), "final route")
	}
	return 0
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintf(out, "usage: %s <command> [flags] [args]\n\ncommands:\n", serviceName)
	for _, name := range commandNames() {
		fmt.Fprintf(out, "  %-11s %s\n", name, commands[name].summary)
	}
}
