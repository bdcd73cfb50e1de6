package main

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/marlowai/marlow/internal/config"
	"github.com/marlowai/marlow/internal/di"
)

var (
	dataPath    string
	storeDriver string
	envFile     string
	logLevel    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "marlowctl",
	Short: "Manage marlow reading lists from the command line",
	Long: `marlowctl works directly on a marlow data directory.
Stop the server first when using the badger driver: the database allows one process at a time.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataPath, "data-path", "", "Directory for persistent data (default: DATA_PATH or ~/.marlow)")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store-driver", "", "Storage driver (badger, sqlite)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

// openContainer loads configuration from the persistent flags and builds
// the DI container. Callers must shut the container down.
func openContainer() (*do.RootScope, error) {
	args := []string{"--env-file", envFile, "--log-level", logLevel}
	if dataPath != "" {
		args = append(args, "--data-path", dataPath)
	}
	if storeDriver != "" {
		args = append(args, "--store-driver", storeDriver)
	}

	cfg, err := config.Load(args)
	if err != nil {
		return nil, err
	}
	return di.NewContainer(cfg), nil
}

// withService opens the container, resolves T and runs fn.
func withService[T any](fn func(svc T) error) error {
	injector, err := openContainer()
	if err != nil {
		return err
	}
	defer injector.Shutdown()

	svc, err := do.Invoke[T](injector)
	if err != nil {
		return err
	}
	return fn(svc)
}
