// Package main provides the entry point for the nuclei-pipeline CLI.
package main

import (
	"fmt"
	"os"

	"nuclei-pipeline/cmd"
	"nuclei-pipeline/internal/config"
)

func main() {
	settings, err := config.Load(configFileArg(os.Args[1:]))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	root := cmd.RootCommand(settings)
	root.PersistentFlags().String("config", "", "Config file (default ./nuclei-pipeline.yaml)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// configFileArg extracts --config before cobra parsing so settings exist when
// the command tree is built.
func configFileArg(args []string) string {
	for i, a := range args {
		switch {
		case a == "--config" && i+1 < len(args):
			return args[i+1]
		case len(a) > len("--config=") && a[:len("--config=")] == "--config=":
			return a[len("--config="):]
		}
	}
	return ""
}
