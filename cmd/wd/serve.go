package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wheelsdeals/tireshop/internal/appointment"
	"github.com/wheelsdeals/tireshop/internal/auth"
	"github.com/wheelsdeals/tireshop/internal/config"
	"github.com/wheelsdeals/tireshop/internal/db"
	"github.com/wheelsdeals/tireshop/internal/mail"
	"github.com/wheelsdeals/tireshop/internal/notify"
	"github.com/wheelsdeals/tireshop/internal/quote"
	"github.com/wheelsdeals/tireshop/internal/telegraph"
	discordadapter "github.com/wheelsdeals/tireshop/internal/telegraph/discord"
	slackadapter "github.com/wheelsdeals/tireshop/internal/telegraph/slack"
	"github.com/wheelsdeals/tireshop/internal/tiresize"
	"github.com/wheelsdeals/tireshop/internal/vehicle"
	"github.com/wheelsdeals/tireshop/internal/web"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the shop API",
		Long: `Starts the HTTP API for the vehicle finder, quote requests, appointment
bookings, notification functions and the staff admin. When a chat platform is
configured, new leads are posted to the staff channel and the daily digest
runs on its schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer zap.L().Sync()

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	sender, err := mail.New(cfg.Mail)
	if err != nil {
		return err
	}
	functions, err := notify.NewService(sender, cfg.Shop)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	alerter, err := connectAlerter(ctx, cfg)
	if err != nil {
		return err
	}
	if alerter != nil {
		fmt.Fprintf(out, "Staff alerts posting to %s channel %s\n", cfg.Telegraph.Platform, cfg.Telegraph.Channel)
		if err := startDigest(ctx, cfg, gormDB, alerter); err != nil {
			return err
		}
	}

	loc := cfg.Shop.Location()
	vehicles := vehicle.NewClient(vehicle.ClientOpts{
		BaseURL: cfg.VehicleAPI.BaseURL,
		Timeout: cfg.VehicleAPI.Timeout,
	})

	deps := web.Deps{
		DB:       gormDB,
		Vehicles: vehicles,
		Resolver: tiresize.NewResolver(vehicles),
		Quotes: quote.NewService(quote.Options{
			DB:           gormDB,
			Notifier:     functions,
			Alerter:      alerter,
			Prefix:       cfg.Shop.ReferencePrefix,
			DashboardURL: cfg.Shop.DashboardURL,
		}),
		Appointments: appointment.NewService(appointment.Options{
			DB:       gormDB,
			Notifier: functions,
			Alerter:  alerter,
			Location: loc,
		}),
		Functions:   functions,
		Auth:        auth.NewManager(auth.NewCookieStore(cfg.Server.SessionSecret, cfg.Server.CookieSecure), gormDB),
		Client:      web.NewClientStore(cfg.Server.SessionSecret, cfg.Server.CookieSecure),
		CORSOrigins: cfg.Server.CORSOrigins,
	}

	if port == 0 {
		port = cfg.Server.Port
	}
	err = web.Start(ctx, web.StartOpts{
		Deps:         deps,
		Port:         port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Out:          out,
	})
	alerter.Wait()
	return err
}

// createAdapter builds the chat adapter for the configured platform. It
// returns nil when no platform is configured.
func createAdapter(cfg *config.Config) (telegraph.Adapter, error) {
	switch cfg.Telegraph.Platform {
	case "":
		return nil, nil
	case "slack":
		return slackadapter.New(slackadapter.AdapterOpts{
			BotToken:  cfg.Telegraph.Slack.BotToken,
			ChannelID: cfg.Telegraph.Channel,
		})
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Telegraph.Discord.BotToken,
			ChannelID: cfg.Telegraph.Channel,
		})
	default:
		return nil, fmt.Errorf("unsupported platform: %q", cfg.Telegraph.Platform)
	}
}

// connectAlerter connects the configured chat adapter and wraps it in an
// Alerter. A nil Alerter means staff chat is disabled.
func connectAlerter(ctx context.Context, cfg *config.Config) (*telegraph.Alerter, error) {
	adapter, err := createAdapter(cfg)
	if err != nil {
		return nil, fmt.Errorf("create adapter: %w", err)
	}
	if adapter == nil {
		return nil, nil
	}
	if err := adapter.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Telegraph.Platform, err)
	}
	go func() {
		<-ctx.Done()
		adapter.Close()
	}()
	return telegraph.NewAlerter(adapter, cfg.Telegraph.Channel), nil
}
