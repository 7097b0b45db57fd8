package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wheelsdeals/tireshop/internal/config"
	"github.com/wheelsdeals/tireshop/internal/db"
	"github.com/wheelsdeals/tireshop/internal/logging"
	"gorm.io/gorm"

	// Shop time zones must resolve on hosts without a zoneinfo database.
	_ "time/tzdata"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const defaultConfigPath = "wd.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wd",
		Short: "Wheels & Deals: tire quotes and service appointments",
		Long:  "Wheels & Deals runs the shop's vehicle finder, quote requests, appointment bookings and staff tools.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newStaffCmd())
	cmd.AddCommand(newDigestCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wd %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// connectFromConfig loads the config, installs the logger and opens the
// database. Log output goes to logOut.
func connectFromConfig(configPath string, logOut io.Writer) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if _, err := logging.Setup(cfg.Logger, logOut); err != nil {
		return nil, nil, err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s database: %w", cfg.Database.Driver, err)
	}
	return cfg, gormDB, nil
}

func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", defaultConfigPath, "path to Wheels & Deals config file")
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
