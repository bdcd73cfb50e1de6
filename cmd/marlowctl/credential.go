package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marlowai/marlow/internal/service"
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage the stored completion credential",
}

var credentialSetCmd = &cobra.Command{
	Use:   "set [secret]",
	Short: "Store the completion credential (reads stdin when no argument is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := ""
		if len(args) == 1 {
			secret = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no credential on stdin")
			}
			secret = strings.TrimSpace(line)
		}

		return withService(func(settings *service.SettingsService) error {
			status, err := settings.SetCredential(context.Background(), secret)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credential stored: %s\n", status.Masked)
			return nil
		})
	},
}

var credentialStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a credential is stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(settings *service.SettingsService) error {
			status, err := settings.CredentialStatus(context.Background())
			if err != nil {
				return err
			}
			if !status.Configured {
				fmt.Fprintln(cmd.OutOrStdout(), "no credential stored")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credential: %s\n", status.Masked)
			if status.UpdatedAt != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "updated:    %s\n", status.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		})
	},
}

var credentialClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(settings *service.SettingsService) error {
			if err := settings.DeleteCredential(context.Background()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "credential removed")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(credentialCmd)
	credentialCmd.AddCommand(credentialSetCmd)
	credentialCmd.AddCommand(credentialStatusCmd)
	credentialCmd.AddCommand(credentialClearCmd)
}
