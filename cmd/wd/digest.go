package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/wheelsdeals/tireshop/internal/config"
	"github.com/wheelsdeals/tireshop/internal/telegraph"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newDigestCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Post the daily lead digest now",
		Long: `Builds the report of quotes and appointments from the last 24 hours and
posts it to the staff chat channel. Nothing is posted when there was no activity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(cmd, configPath)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runDigest(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if cfg.Telegraph.Platform == "" {
		return fmt.Errorf("digest: telegraph.platform is not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	alerter, err := connectAlerter(ctx, cfg)
	if err != nil {
		return err
	}
	posted, err := alerter.PostDigest(ctx, gormDB, time.Now(), cfg.Shop.Location())
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	if posted {
		fmt.Fprintf(out, "Digest posted to %s channel %s\n", cfg.Telegraph.Platform, cfg.Telegraph.Channel)
	} else {
		fmt.Fprintln(out, "No activity in the last 24 hours; nothing posted.")
	}
	return nil
}

// startDigest schedules the daily digest and runs it in the background until
// ctx is cancelled.
func startDigest(ctx context.Context, cfg *config.Config, gormDB *gorm.DB, alerter *telegraph.Alerter) error {
	loc := cfg.Shop.Location()
	sched, err := telegraph.NewScheduler(cfg.Telegraph.DigestCron, loc, func() {
		if _, err := alerter.PostDigest(ctx, gormDB, time.Now(), loc); err != nil {
			zap.L().Warn("daily digest failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	zap.L().Info("daily digest scheduled",
		zap.String("cron", cfg.Telegraph.DigestCron),
		zap.Duration("next_in", sched.Until()),
	)
	go sched.Run(ctx)
	return nil
}
