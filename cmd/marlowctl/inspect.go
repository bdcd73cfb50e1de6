package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marlowai/marlow/internal/di/providers"
	"github.com/marlowai/marlow/internal/domain"
)

var inspectCmd = &cobra.Command{
	Use:     "inspect",
	Aliases: []string{"keys"},
	Short:   "List the keys in the store with their sizes",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		return withService(func(h *providers.StoreHandle) error {
			keys, err := h.Keys(ctx)
			if err != nil {
				return err
			}
			for _, key := range keys {
				value, err := h.Get(ctx, key)
				if err != nil {
					return err
				}
				size := fmt.Sprintf("%d bytes", len(value))
				if key == domain.KeyCredential {
					size += " (sealed)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", key, size)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
