package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/intervue-ai/intervue/pkg/config"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "intervue",
		Short:   "InterVue - AI interview practice server",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newScoreCmd(),
		newBankCmd(),
		newCacheCmd(),
		newMCPCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file. A missing file at the default path is
// not an error; the defaults are used instead.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	config.LoadEnvFiles(".env.local", ".env")

	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
