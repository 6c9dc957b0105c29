package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xphoton/xphoton/lib/xlog"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "xphoton",
	Short: "xphoton - mock X-ray observation pipeline",
	Long: `xphoton generates mock X-ray observations from gas datasets.

The pipeline runs in stages, each driven by its own subcommand:

  make-photons  sample photons from a dataset with a source model
  project       project a photon sample onto the sky plane
  spectrum      extract a count-rate spectrum from an event list
  image         bin an event list into a counts image
  check         validate a config file without running anything

Stages hand their results to each other through files: make-photons writes
a .xph photon sample, project turns it into a .xev event list, and spectrum
and image post-process event lists. Run parameters live in a YAML config
file passed with --config; every key has a usable default.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = xlog.New(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"keep debug log records")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the YAML config file")

	rootCmd.AddCommand(makePhotonsCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(spectrumCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(checkCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
