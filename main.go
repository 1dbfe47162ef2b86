// Package main provides the entry point for mullvad-rotate.
// mullvad-rotate switches the Mullvad VPN client to the next relay within
// a set of location and attribute constraints.
//
// Features:
//   - Sequential or random rotation over countries, cities or servers
//   - Provider, tunnel protocol, ownership, stboot and bandwidth filters
//   - Cached relay list with offline fallback
//   - Optional reconnect with connection verification
//   - Desktop notifications
//
// Usage:
//
//	mullvad-rotate [options]
//
// Environment:
//
//	The Mullvad command line client must be installed and its daemon running.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/yllada/mullvad-rotate/catalog"
	"github.com/yllada/mullvad-rotate/cli"
	"github.com/yllada/mullvad-rotate/common"
	"github.com/yllada/mullvad-rotate/config"
	"github.com/yllada/mullvad-rotate/notify"
	"github.com/yllada/mullvad-rotate/relay"
	"github.com/yllada/mullvad-rotate/rotator"
	"github.com/yllada/mullvad-rotate/vpn"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
// Default values are used for local development builds
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	inv, err := cli.Parse(args)
	if err != nil {
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			fmt.Fprint(stderr, usageErr.Usage)
			return 1
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// Handle version flag
	if inv.Version {
		fmt.Fprintf(stdout, "%s %s\n", common.AppName, appVersion)
		if buildTime != "unknown" {
			fmt.Fprintf(stdout, "  Build:  %s\n", buildTime)
			fmt.Fprintf(stdout, "  Commit: %s\n", commitSHA)
		}
		return 0
	}

	cfg, err := loadConfig(inv.ConfigPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// Initialize logger with structured logging and optional file output
	logLevel := common.LevelWarn
	if inv.Verbose() {
		logLevel = common.LevelDebug
	}
	if err := common.InitLogger(common.LogConfig{
		Level:       logLevel,
		EnableFile:  cfg.LogToFile,
		MaxFileSize: 5 * 1024 * 1024, // 5MB
		MaxBackups:  5,
		RunID:       common.GenerateID(),
	}); err != nil {
		fmt.Fprintf(stderr, "Warning: Could not initialize file logging: %v\n", err)
	}
	defer common.CloseLogger()

	common.LogInfo("Starting %s %s", common.AppName, appVersion)

	// Setup graceful shutdown context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals (SIGINT, SIGTERM)
	stop := setupSignalHandler(ctx, cancel)
	defer stop()

	if err := execute(ctx, inv, cfg, stdout); err != nil {
		common.LogError("%v", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// execute wires the collaborators and runs the requested command.
func execute(ctx context.Context, inv *cli.Invocation, cfg *config.Config, out io.Writer) error {
	cache := openCache()
	if cache != nil {
		defer cache.Close()
	}

	provider := catalog.NewProvider(catalog.ProviderConfig{
		URL:     cfg.CatalogURL,
		TTL:     cfg.CatalogTTL,
		Timeout: cfg.CommandTimeout,
		Refresh: inv.Refresh,
		Cache:   cache,
	})

	client := vpn.NewClient(vpn.ClientConfig{
		Binary:         cfg.MullvadBinary,
		Timeout:        cfg.CommandTimeout,
		LegacyHostname: cfg.LegacyHostnameCommand,
	})

	r := rotator.New(provider, client, client, relay.NewRandomSelector())

	app := cli.Config{Rotator: r, Out: out}
	if cfg.ShowNotifications {
		app.Notifier = notify.New()
	}
	if cfg.VerifyConnection {
		app.Verifier = vpn.NewHealthChecker(client, vpn.DefaultHealthConfig())
	}
	command := cli.New(app)

	if inv.Print != "" {
		return command.Print(ctx, inv.Print)
	}

	constraints, err := inv.Constraints(cfg.Defaults)
	if err != nil {
		return err
	}
	if err := vpn.CheckAvailable(cfg.MullvadBinary); err != nil {
		return err
	}
	return command.Rotate(ctx, constraints)
}

// openCache opens the relay cache. The tool still works without one.
func openCache() *catalog.Cache {
	dir, err := common.GetCacheDir()
	if err != nil {
		common.LogWarn("Relay cache disabled: %v", err)
		return nil
	}
	cache, err := catalog.OpenCache(filepath.Join(dir, common.CatalogCacheFileName))
	if err != nil {
		common.LogWarn("Relay cache disabled: %v", err)
		return nil
	}
	return cache
}

// setupSignalHandler configures graceful shutdown on SIGINT/SIGTERM.
// When a signal is received, it cancels the context so pending client
// calls and downloads return. The returned stop function cancels ctx and
// waits until the handler has unregistered.
func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			common.LogInfo("Received signal %v, initiating graceful shutdown...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
