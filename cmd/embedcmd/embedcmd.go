// Package embedcmd implements the encoder inference command.
package embedcmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"nuclei-pipeline/cmd/datasetcmd"
	"nuclei-pipeline/internal/config"
	"nuclei-pipeline/internal/embed"
	"nuclei-pipeline/internal/store"
)

// Command creates the embed command: run the exported encoder over the
// dataset and persist the latent vectors as a new run.
func Command(settings *config.Settings) *cobra.Command {
	var csvOut string
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Encode the dataset into latent vectors and store them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings, csvOut)
		},
	}
	setupFlags(cmd, settings)
	cmd.Flags().StringVar(&csvOut, "csv", "", "Also export the latents to this CSV file")
	return cmd
}

func setupFlags(cmd *cobra.Command, settings *config.Settings) {
	cmd.Flags().StringVar(&settings.Embed.ModelPath, "model", settings.Embed.ModelPath, "Exported encoder .onnx file")
	cmd.Flags().StringVar(&settings.Embed.MetadataPath, "model-metadata", settings.Embed.MetadataPath, "Encoder shape metadata JSON")
	cmd.Flags().StringVar(&settings.Embed.StorePath, "store", settings.Embed.StorePath, "Embeddings SQLite database")
	cmd.Flags().StringVar(&settings.Dataset.ImageDir, "images", settings.Dataset.ImageDir, "Directory of normalized crops, one subdirectory per plate")
	cmd.Flags().StringVarP(&settings.Dataset.MetadataFile, "metadata", "m", settings.Dataset.MetadataFile, "Nucleus metadata CSV")
}

func run(settings *config.Settings, csvOut string) error {
	if err := settings.ValidateEmbed(); err != nil {
		return err
	}

	ds, err := datasetcmd.Build(settings)
	if err != nil {
		return err
	}

	encoder, err := embed.NewEncoder(settings.Embed.ModelPath, settings.Embed.MetadataPath)
	if err != nil {
		return err
	}
	defer encoder.Close()

	embeddings, err := encoder.EncodeDataset(ds)
	if err != nil {
		return err
	}

	db, err := store.Open(settings.Embed.StorePath)
	if err != nil {
		return err
	}
	defer db.Close()

	runRec, err := db.CreateRun(settings.Embed.ModelPath, settings.Dataset.ImageDir,
		len(embeddings), encoder.LatentDim(), settings.Seed)
	if err != nil {
		return err
	}
	if err := db.InsertLatents(runRec.ID, embeddings); err != nil {
		return err
	}

	if csvOut != "" {
		if err := embed.WriteCSV(csvOut, embeddings); err != nil {
			return err
		}
	}

	slog.Info("embedding run stored",
		"run", runRec.ID, "samples", len(embeddings),
		"latent_dim", runRec.LatentDim, "db", settings.Embed.StorePath)
	return nil
}
