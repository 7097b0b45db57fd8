package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wheelsdeals/tireshop/internal/auth"
	"golang.org/x/term"
)

func newStaffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff sign-in accounts",
	}

	cmd.AddCommand(newStaffAddCmd())
	cmd.AddCommand(newStaffListCmd())
	return cmd
}

func newStaffAddCmd() *cobra.Command {
	var (
		configPath string
		opts       auth.StaffOpts
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a staff account or reset an existing one",
		Long: `Creates a staff account, or updates the name, role and password of the
account with the same email. Without --password the password is read from the
terminal, or from the first line of stdin when it is not a terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Password == "" {
				pw, err := readPassword(cmd)
				if err != nil {
					return err
				}
				opts.Password = pw
			}
			return runStaffAdd(cmd, configPath, opts)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.Email, "email", "", "staff email (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Role, "role", "staff", "role: admin or staff")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (prompted when omitted)")
	cmd.MarkFlagRequired("email")
	return cmd
}

// readPassword prompts without echo on a terminal and otherwise reads one
// line from the command's input.
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runStaffAdd(cmd *cobra.Command, configPath string, opts auth.StaffOpts) error {
	_, gormDB, err := connectFromConfig(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	staff, err := auth.SaveStaff(cmd.Context(), gormDB, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s account for %s\n", staff.Role, staff.Email)
	return nil
}

func newStaffListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List staff accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStaffList(cmd, configPath)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runStaffList(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	staff, err := auth.ListStaff(cmd.Context(), gormDB)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(staff) == 0 {
		fmt.Fprintln(out, "No staff accounts found.")
		return nil
	}
	fmt.Fprintf(out, "%-32s %-20s %-6s %-8s %s\n", "EMAIL", "NAME", "ROLE", "ACTIVE", "LAST LOGIN")
	for _, s := range staff {
		lastLogin := "never"
		if s.LastLoginAt != nil {
			lastLogin = s.LastLoginAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "%-32s %-20s %-6s %-8t %s\n", s.Email, s.Name, s.Role, s.Active, lastLogin)
	}
	return nil
}
