// Package versioncmd implements the version command.
package versioncmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nuclei-pipeline/internal/version"
)

// Command creates the version command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nuclei-pipeline %s (commit %s, built %s)\n",
				version.Version, version.GitCommit, version.BuildTime)
		},
	}
}
