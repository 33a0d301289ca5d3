package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	config "github.com/exterafans/efans-avatars/configs"
	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
	"github.com/exterafans/efans-avatars/internal/infrastructure/httpserver"
	"github.com/sirupsen/logrus"
)

const usage = `usage: avatars <command> [flags]

commands:
  resolve [-size N] handle...      resolve handles to image URLs
  placeholder [-size N] handle     print the generated placeholder URL
  credits                          print the developer cards
  warm [-sizes 48,160] [-interval d] [-listen host:port]
                                   pre-resolve developer avatars, optionally on a loop
  cache list|clear|prune           inspect or maintain the avatar cache
`

var errUsage = errors.New("invalid usage")

// run dispatches one CLI invocation and writes results as JSON lines to out.
func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	// placeholder is pure and needs no storage or network.
	if cmd == "placeholder" {
		return runPlaceholder(cfg, rest, out)
	}
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Fprint(out, usage)
		return nil
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "resolve":
		return a.runResolve(ctx, rest, out)
	case "credits":
		return a.runCredits(ctx, out)
	case "warm":
		return a.runWarm(ctx, rest, out)
	case "cache":
		return a.runCache(ctx, rest, out)
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func runPlaceholder(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("placeholder", flag.ContinueOnError)
	fs.SetOutput(out)
	size := fs.Int("size", cfg.Avatar.DefaultSize, "avatar size in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: placeholder takes exactly one handle", errUsage)
	}
	if *size <= 0 {
		*size = cfg.Avatar.DefaultSize
	}
	_, err := fmt.Fprintln(out, avatar.Placeholder(fs.Arg(0), *size))
	return err
}

func (a *app) runResolve(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.SetOutput(out)
	size := fs.Int("size", a.cfg.Avatar.DefaultSize, "avatar size in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: resolve needs at least one handle", errUsage)
	}
	enc := json.NewEncoder(out)
	for _, handle := range fs.Args() {
		if err := enc.Encode(a.avatars.Resolve(ctx, handle, *size)); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) runCredits(ctx context.Context, out io.Writer) error {
	cards, err := a.credits.Cards(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	for _, card := range cards {
		if err := enc.Encode(card); err != nil {
			return err
		}
	}
	return nil
}

func parseSizes(v string) ([]int, error) {
	var sizes []int
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: bad size %q", errUsage, part)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

func (a *app) runWarm(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("warm", flag.ContinueOnError)
	fs.SetOutput(out)
	sizesFlag := fs.String("sizes", "48", "comma separated sizes to warm")
	interval := fs.Duration("interval", 0, "repeat warm-up on this interval until interrupted")
	listen := fs.String("listen", a.cfg.Ops.Addr(), "ops listener for /health and /metrics while looping")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sizes, err := parseSizes(*sizesFlag)
	if err != nil {
		return err
	}

	warmOnce := func() error {
		n, err := a.credits.Warm(ctx, sizes...)
		if err != nil {
			return err
		}
		return json.NewEncoder(out).Encode(map[string]any{"warmed": n, "sizes": sizes})
	}
	if err := warmOnce(); err != nil {
		return err
	}
	if *interval <= 0 {
		return nil
	}

	var server *httpserver.Server
	if *listen != "" {
		if server, err = a.startOps(*listen); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if server != nil {
				a.logger.Info("Shutting down ops server...")
				sctx, cancel := context.WithTimeout(context.Background(), a.cfg.Ops.ShutdownTimeout)
				defer cancel()
				if err := server.Shutdown(sctx); err != nil {
					a.logger.WithError(err).Error("ops server forced to shutdown")
				}
			}
			return nil
		case <-ticker.C:
			if pruned := a.cache.Prune(ctx); pruned > 0 {
				a.logger.WithField("pruned", pruned).Info("expired avatars pruned")
			}
			if err := warmOnce(); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.WithError(err).Warn("warm-up failed")
			}
		}
	}
}

func (a *app) startOps(listen string) (*httpserver.Server, error) {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return nil, fmt.Errorf("%w: bad listen address %q: %v", errUsage, listen, err)
	}
	server := httpserver.NewServer(&httpserver.ServerConfig{
		Host:         host,
		Port:         port,
		ReadTimeout:  a.cfg.Ops.ReadTimeout,
		WriteTimeout: a.cfg.Ops.WriteTimeout,
		IdleTimeout:  a.cfg.Ops.IdleTimeout,
		Version:      version,
	}, a.logger, httpserver.ServerDeps{
		HealthCheckers: a.checkers,
		Gatherer:       a.registry,
		HTTPMetrics:    a.http,
	})
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("ops server stopped")
		}
	}()
	return server, nil
}

type cacheRow struct {
	Key string `json:"key"`
	avatar.Entry
	Valid bool `json:"valid"`
}

func (a *app) runCache(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: cache takes one of list, clear, prune", errUsage)
	}
	enc := json.NewEncoder(out)
	switch args[0] {
	case "list":
		entries := a.cache.Entries()
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		now := time.Now()
		for _, k := range keys {
			e := entries[k]
			if err := enc.Encode(cacheRow{Key: k, Entry: e, Valid: e.Valid(now)}); err != nil {
				return err
			}
		}
		return nil
	case "clear":
		if err := a.cache.Clear(ctx); err != nil {
			return err
		}
		return enc.Encode(map[string]any{"cleared": a.cfg.Storage.Slot})
	case "prune":
		return enc.Encode(map[string]any{"pruned": a.cache.Prune(ctx)})
	default:
		return fmt.Errorf("%w: unknown cache action %q", errUsage, args[0])
	}
}
