// Package pcacmd implements the latent-space projection command.
package pcacmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"nuclei-pipeline/internal/config"
	"nuclei-pipeline/internal/latent"
	"nuclei-pipeline/internal/store"
)

// Command creates the pca command: project a stored embedding run onto its
// principal components and plot the first two. With --walk it additionally
// interpolates between two stored samples and writes the waypoints to CSV.
func Command(settings *config.Settings) *cobra.Command {
	var (
		runID      string
		components int
		walk       []string
		walkSteps  int
	)
	cmd := &cobra.Command{
		Use:   "pca",
		Short: "Project a stored embedding run and plot the first two components",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings, runID, components, walk, walkSteps)
		},
	}
	cmd.Flags().StringVar(&settings.Embed.StorePath, "store", settings.Embed.StorePath, "Embeddings SQLite database")
	cmd.Flags().StringVar(&runID, "run", "", "Run id to project (default: latest run)")
	cmd.Flags().IntVar(&components, "components", 2, "Number of principal components to fit")
	cmd.Flags().StringSliceVar(&walk, "walk", nil, "Two sample ids to interpolate between in latent space")
	cmd.Flags().IntVar(&walkSteps, "walk-steps", 10, "Number of interpolation steps for --walk")
	return cmd
}

func run(settings *config.Settings, runID string, components int, walk []string, walkSteps int) error {
	if settings.Embed.StorePath == "" {
		return errors.New("embed.store_path is required")
	}
	if len(walk) != 0 && len(walk) != 2 {
		return fmt.Errorf("--walk takes exactly two sample ids, got %d", len(walk))
	}

	db, err := store.Open(settings.Embed.StorePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if runID == "" {
		runs, err := db.Runs()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return errors.New("no embedding runs in store")
		}
		runID = runs[0].ID
	}

	embeddings, err := db.LatentsByRun(runID)
	if err != nil {
		return err
	}
	if len(embeddings) == 0 {
		return fmt.Errorf("run %s has no latents", runID)
	}

	pca, err := latent.FitPCA(embeddings, components)
	if err != nil {
		return err
	}
	coords, err := pca.ProjectAll(embeddings)
	if err != nil {
		return err
	}

	outFile := filepath.Join(settings.OutputDir, fmt.Sprintf("pca_%s.png", runID))
	if err := latent.ScatterPlot(embeddings, coords, nil, outFile); err != nil {
		return err
	}

	slog.Info("pca projection plotted",
		"run", runID, "samples", len(embeddings),
		"explained_variance", pca.ExplainedVariance(), "plot", outFile)

	if len(walk) == 2 {
		points, err := latent.WalkBetween(embeddings, walk[0], walk[1], walkSteps)
		if err != nil {
			return err
		}
		walkFile := filepath.Join(settings.OutputDir, fmt.Sprintf("pca_walk_%s.csv", runID))
		if err := latent.WriteWalkCSV(walkFile, points); err != nil {
			return err
		}
		slog.Info("latent walk written",
			"from", walk[0], "to", walk[1], "steps", walkSteps, "file", walkFile)
	}
	return nil
}
