package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marlowai/marlow/internal/di/providers"
	"github.com/marlowai/marlow/internal/service"
)

var (
	generateCount  int
	generateTitles []string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Request new recommendations and add them to the proposals",
	Long: `generate sends the rated read list to the completion endpoint and
appends the reply to the proposals awaiting review. Ctrl-C cancels the
request without touching the proposals.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withService(func(h *providers.RecommendationServiceHandle) error {
			gen, err := h.Generate(ctx, service.GenerateOptions{
				Titles: generateTitles,
				Count:  generateCount,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "generation %s: %s (%d books)\n", gen.ID, gen.Status, gen.Books)
			if gen.Reason != "" {
				fmt.Fprintf(out, "reason: %s\n", gen.Reason)
			}
			for _, p := range gen.Proposals {
				fmt.Fprintf(out, "  + %s by %s\n", p.Title, p.Author)
			}
			for _, title := range gen.Dropped {
				fmt.Fprintf(out, "  - %s (already seen)\n", title)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 0, "Number of recommendations (default: configured count)")
	generateCmd.Flags().StringSliceVarP(&generateTitles, "title", "t", nil, "Base the request on these read titles only (repeatable)")
}
