// Package cmd assembles the nuclei-pipeline command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"nuclei-pipeline/cmd/datasetcmd"
	"nuclei-pipeline/cmd/embedcmd"
	"nuclei-pipeline/cmd/experimentcmd"
	"nuclei-pipeline/cmd/normalizecmd"
	"nuclei-pipeline/cmd/pcacmd"
	"nuclei-pipeline/cmd/preprocess"
	"nuclei-pipeline/cmd/segmentcmd"
	"nuclei-pipeline/cmd/versioncmd"
	"nuclei-pipeline/internal/config"
)

// RootCommand creates the root command with every subcommand attached.
func RootCommand(settings *config.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nuclei-pipeline",
		Short: "Single-cell image preprocessing pipeline",
		Long: `nuclei-pipeline prepares microscopy plates for representation learning:
it curates plate metadata, segments nucleus crops from outline masks,
normalizes crop sizes, builds labeled datasets, and embeds them with a
trained encoder.`,
		SilenceUsage: true,
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		preprocess.Command(settings),
		segmentcmd.Command(settings),
		normalizecmd.PadCommand(settings),
		normalizecmd.ResizeCommand(settings),
		datasetcmd.Command(settings),
		embedcmd.Command(settings),
		experimentcmd.Command(settings),
		pcacmd.Command(settings),
		versioncmd.Command(),
	)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		settings.InitLogging()
	}

	return rootCmd
}

func setupFlags(rootCmd *cobra.Command, settings *config.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&settings.LogJSON, "log-json", settings.LogJSON, "Emit logs as JSON")
	rootCmd.PersistentFlags().StringVarP(&settings.OutputDir, "output", "o", settings.OutputDir, "Output directory")
	rootCmd.PersistentFlags().Int64Var(&settings.Seed, "seed", settings.Seed, "Random seed for reproducible sampling")
}
