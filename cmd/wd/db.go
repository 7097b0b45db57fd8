package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/wheelsdeals/tireshop/internal/auth"
	"github.com/wheelsdeals/tireshop/internal/db"
	"github.com/wheelsdeals/tireshop/internal/models"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBStatusCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var (
		configPath    string
		adminEmail    string
		adminName     string
		adminPassword string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the shop database",
		Long: `Migrates all tables and, when --admin-email is given, creates the first
admin account. The password comes from --admin-password or WD_ADMIN_PASSWORD.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if adminPassword == "" {
				adminPassword = os.Getenv("WD_ADMIN_PASSWORD")
			}
			return runDBInit(cmd, configPath, adminEmail, adminName, adminPassword)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "email of the first admin account")
	cmd.Flags().StringVar(&adminName, "admin-name", "", "display name of the first admin account")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "password of the first admin account")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath, adminEmail, adminName, adminPassword string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s database\n", cfg.Database.Driver)

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if adminEmail != "" {
		if adminPassword == "" {
			return fmt.Errorf("db init: --admin-password or WD_ADMIN_PASSWORD is required with --admin-email")
		}
		staff, err := auth.SaveStaff(cmd.Context(), gormDB, auth.StaffOpts{
			Email:    adminEmail,
			Name:     adminName,
			Password: adminPassword,
			Role:     models.RoleAdmin,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Admin account ready: %s\n", staff.Email)
	}

	fmt.Fprintln(out, "\nShop database initialized successfully.")
	return nil
}

func newDBMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema changes to the shop database",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := db.AutoMigrate(gormDB); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables\n", len(db.AllModels()))
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newDBStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show row counts for every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBStatus(cmd, configPath)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runDBStatus(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	counts, err := db.TableCounts(gormDB)
	if err != nil {
		return err
	}

	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-16s %s\n", "TABLE", "ROWS")
	for _, t := range tables {
		fmt.Fprintf(out, "%-16s %d\n", t, counts[t])
	}
	return nil
}
