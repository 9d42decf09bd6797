package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketscreener/internal/config"
	"marketscreener/internal/descriptor"
	"marketscreener/internal/fetch"
	"marketscreener/internal/ratelimit"
	"marketscreener/internal/screen"
	"marketscreener/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	registry, err := descriptor.NewRegistry(cfg.ConfigRoot, cfg.Markets)
	if err != nil {
		log.Fatalf("Failed to load market descriptors: %v", err)
	}

	if cfg.WatchConfig {
		if err := registry.Watch(ctx); err != nil {
			log.Fatalf("Failed to watch market configs: %v", err)
		}
	}

	limiter := ratelimit.New()
	for _, code := range registry.List() {
		d, err := registry.Get(code)
		if err != nil {
			log.Fatalf("Failed to resolve market %q: %v", code, err)
		}
		limiter.Set(d.Code, d.RatePerSec)
	}

	transport := fetch.NewRestyTransport(cfg.RequestTimeout)
	defer transport.Close()

	opts := fetch.Options{
		Concurrency: cfg.Concurrency,
		MaxRetries:  cfg.MaxRetries,
		Limiter:     limiter,
	}

	fmt.Println("Screening configured markets...")
	fmt.Println("================================================")
	for _, code := range registry.List() {
		if err := screenMarket(ctx, registry, transport, cfg, code, opts); err != nil {
			slog.Error("market pass failed", "market", code, "error", err)
		}
	}
	fmt.Println("================================================")
	fmt.Println("All markets screened!")
}

// screenMarket runs one snapshot pass for a market: fetch, filter, sort,
// print and persist.
func screenMarket(ctx context.Context, registry *descriptor.Registry, transport fetch.Transport, cfg *config.Config, code string, opts fetch.Options) error {
	d, err := registry.Get(code)
	if err != nil {
		return err
	}

	captured := time.Now()
	outcome, err := fetch.FetchAll(ctx, transport, d, d.Symbols, fetch.Snapshot, opts)
	if err != nil {
		return err
	}

	slog.Info("fetch pass complete",
		"market", d.Code,
		"requested", outcome.Requested,
		"succeeded", outcome.Succeeded(),
		"failed", len(outcome.Failures))
	for _, failure := range outcome.Failures {
		slog.Warn("symbol failed", "market", d.Code, "symbol", failure.Symbol, "kind", failure.Kind)
	}
	if outcome.AllFailed() {
		return fmt.Errorf("market %q: every symbol failed; provider may be unavailable", d.Code)
	}

	rows := screen.Filter(outcome.Rows, d.Defaults)
	if cfg.SortMetric != "" {
		rows = screen.Sort(rows, cfg.SortMetric, cfg.SortAscending)
	}

	fmt.Printf("%s (%s): %d fetched, %d pass the thresholds\n", d.Name, d.Code, len(outcome.Rows), len(rows))
	for _, row := range rows {
		fmt.Printf("  %s  %s\n", row.Symbol, row.Name)
	}

	if len(outcome.Rows) > 0 {
		path, err := store.WriteSnapshot(cfg.SnapshotDir, d.Code, outcome.Rows, captured)
		if err != nil {
			return fmt.Errorf("persisting snapshot: %w", err)
		}
		slog.Info("snapshot persisted", "market", d.Code, "path", path)
	}

	return nil
}
