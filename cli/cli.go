// Package cli provides the command-line interface of mullvad-rotate:
// argument parsing, the print and rotate commands, and terminal output.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/yllada/mullvad-rotate/common"
	"github.com/yllada/mullvad-rotate/relay"
	"github.com/yllada/mullvad-rotate/rotator"
	"github.com/yllada/mullvad-rotate/vpn"
)

// Verifier checks the tunnel after a reconnect.
type Verifier interface {
	Verify(ctx context.Context) (vpn.HealthReport, error)
}

// Config wires the CLI to its collaborators. Notifier and Verifier are
// optional.
type Config struct {
	Rotator  *rotator.Rotator
	Out      io.Writer
	Notifier common.Notifier
	Verifier Verifier
}

// CLI represents the command-line interface.
type CLI struct {
	rotator  *rotator.Rotator
	printer  *Printer
	notifier common.Notifier
	verifier Verifier
}

// New creates a new CLI instance.
func New(cfg Config) *CLI {
	return &CLI{
		rotator:  cfg.Rotator,
		printer:  NewPrinter(cfg.Out),
		notifier: cfg.Notifier,
		verifier: cfg.Verifier,
	}
}

// Print lists the available countries, cities or servers of the catalog.
func (c *CLI) Print(ctx context.Context, target string) error {
	cat, err := c.rotator.LoadCatalog(ctx)
	if err != nil {
		return err
	}

	switch target {
	case PrintCountries:
		c.printer.List("countries", cat.DistinctCountries())
	case PrintCities:
		c.printer.List("cities", locationStrings(cat.DistinctCityPairs()))
	case PrintServers:
		c.printer.List("servers", cat.DistinctHostnames())
	default:
		return fmt.Errorf("%w: unknown print target %q", common.ErrInvalidOption, target)
	}
	return nil
}

// Rotate switches to the next relay within the constraints.
func (c *CLI) Rotate(ctx context.Context, constraints *relay.ConstraintSet) error {
	result, err := c.rotator.Run(ctx, constraints)
	if err != nil {
		if c.notifier != nil {
			c.notify(c.notifier.NotifyError, "Mullvad relay change failed", err.Error())
		}
		return err
	}

	message := result.Action.Message()
	c.printer.Action(message)
	common.LogInfo("%s (previous %s)", message, result.Current)

	if result.Action.Reconnected && c.verifier != nil {
		if _, err := c.verifier.Verify(ctx); err != nil {
			common.LogWarn("Connection check after switching failed: %v", err)
			if c.notifier != nil {
				c.notify(c.notifier.NotifyWarning, "Mullvad connection check failed", err.Error())
			}
		}
	}

	if c.notifier != nil {
		c.notify(c.notifier.Notify, "Mullvad relay changed", message)
	}

	if constraints.Flags().Verbose {
		c.printer.Candidates(result.Candidates)
		fmt.Fprintln(c.printer.out)
		c.printer.Summary([][2]string{
			{"Granularity:", result.Candidates.Granularity.String()},
			{"Candidates:", strconv.Itoa(len(result.Candidates.Items))},
			{"Previous:", result.Current.String()},
			{"Selected:", result.Action.Target.String()},
		})
	}
	return nil
}

// notify sends through send and only logs a failure.
func (c *CLI) notify(send func(title, message string) error, title, message string) {
	if err := send(title, message); err != nil {
		common.LogWarn("Could not show notification: %v", err)
	}
}
