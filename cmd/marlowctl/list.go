package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/marlowai/marlow/internal/domain"
	"github.com/marlowai/marlow/internal/service"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:       "list [read|recommendations|proposed|rejected]",
	Short:     "Print one of the stored lists",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"read", "recommendations", "proposed", "rejected"},
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "read"
		if len(args) == 1 {
			name = args[0]
		}

		injector, err := openContainer()
		if err != nil {
			return err
		}
		defer injector.Shutdown()

		lists, err := do.Invoke[*service.Lists](injector)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch name {
		case "read":
			return printBooks(out, lists.Read.List())
		case "recommendations":
			return printRecommendations(out, lists.Recommendations.List())
		case "proposed":
			return printRecommendations(out, lists.Proposed.List())
		default:
			return printRecommendations(out, lists.Removed.List())
		}
	},
}

func printBooks(w io.Writer, books []domain.ReadBook) error {
	if listJSON {
		return printJSON(w, books)
	}
	for _, b := range books {
		date := b.DateCompleted
		if date == "" {
			date = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\n", b.Title, b.Author, b.Rating, domain.MaxRating, date)
	}
	return nil
}

func printRecommendations(w io.Writer, recs []domain.Recommendation) error {
	if listJSON {
		return printJSON(w, recs)
	}
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Title, r.Author, r.Explanation)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
