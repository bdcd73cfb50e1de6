package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marlowai/marlow/internal/service"
)

var exportOut string

var importCmd = &cobra.Command{
	Use:   "import <goodreads_library_export.csv>",
	Short: "Import the read shelf of a Goodreads export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(library *service.LibraryService) error {
			res, err := library.ImportFile(context.Background(), args[0], service.ImportSourceCLI)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d books (%d rows, %d skipped)\n", res.Imported, res.Rows, res.Skipped)
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the read list as Goodreads-style CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(library *service.LibraryService) error {
			return writeTo(cmd.OutOrStdout(), exportOut, library.Export)
		})
	},
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print an example import file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(library *service.LibraryService) error {
			return writeTo(cmd.OutOrStdout(), exportOut, library.ExportTemplate)
		})
	},
}

// writeTo runs write against path, or stdout when path is empty or "-".
func writeTo(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(templateCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: stdout)")
	templateCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: stdout)")
}
