// File: cmd/browse.go
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joffreu243-png/humanize/internal/humanize"
	"github.com/joffreu243-png/humanize/internal/observability"
)

// newBrowseCmd builds the browse subcommand, which navigates to a URL in a
// real browser and behaves like a person reading the page.
func newBrowseCmd(state *appState) *cobra.Command {
	var (
		targetURL string
		duration  time.Duration
		level     string
		seed      uint64
		headful   bool
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Open a URL and browse it with human-like behavior.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			// CLI flags win over the config file.
			if level != "" {
				state.cfg.Humanize.Level = level
			}
			if seed != 0 {
				state.cfg.Humanize.Seed = seed
			}
			if headful {
				state.cfg.Browser.Headless = false
			}

			profile, err := state.cfg.Humanize.Build()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			browserCtx, cancel := newBrowserContext(ctx, state, logger)
			defer cancel()

			// Launch the browser before driving it.
			if err := chromedp.Run(browserCtx); err != nil {
				return fmt.Errorf("failed to start browser: %w", err)
			}

			behavior := newBehavior(&profile, state.cfg.Humanize.Seed, logger)
			logger.Info("Browsing session starting",
				zap.String("url", targetURL),
				zap.String("session_id", behavior.SessionID()),
				zap.Duration("duration", duration))

			if err := behavior.GotoWithExploration(browserCtx, targetURL); err != nil {
				return fmt.Errorf("navigation failed: %w", err)
			}
			if err := behavior.BrowseNaturally(browserCtx, duration); err != nil {
				return fmt.Errorf("browsing interrupted: %w", err)
			}

			logger.Info("Browsing session finished", zap.String("session_id", behavior.SessionID()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetURL, "url", "u", "", "URL to browse (required)")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 30*time.Second, "how long to browse after the initial exploration")
	cmd.Flags().StringVarP(&level, "level", "l", "", "behavior level override (off, light, moderate, aggressive)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "RNG seed for a reproducible session (0 means random)")
	cmd.Flags().BoolVar(&headful, "headful", false, "run the browser with a visible window")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

// newBehavior wires the engine to a live CDP executor, seeding the RNG when a
// seed was requested.
func newBehavior(profile *humanize.Config, seed uint64, logger *zap.Logger) *humanize.Behavior {
	exec := humanize.NewCDPExecutor()
	if seed != 0 {
		return humanize.NewBehaviorSeeded(profile, exec, logger, seed, seed+1)
	}
	return humanize.NewBehavior(profile, exec, logger)
}

// newBrowserContext builds the chromedp allocator and browser contexts from
// the browser section of the config.
func newBrowserContext(ctx context.Context, state *appState, logger *zap.Logger) (context.Context, context.CancelFunc) {
	bc := state.cfg.Browser
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", bc.Headless),
		chromedp.Flag("disable-gpu", bc.Headless),
		chromedp.WindowSize(bc.WindowWidth, bc.WindowHeight),
	)
	if bc.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range bc.Args {
		name, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...any) {
		logger.Sugar().Debugf(format, v...)
	}))

	cancel := func() {
		browserCancel()
		allocCancel()
	}
	return browserCtx, cancel
}
