// Package preprocess implements the metadata curation command.
package preprocess

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"nuclei-pipeline/internal/config"
	"nuclei-pipeline/internal/metadata"
)

// Command creates the preprocess command: curate plate metadata and copy the
// surviving illumination-corrected images.
func Command(settings *config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Curate plate metadata and copy quality-filtered images",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
	setupFlags(cmd, settings)
	return cmd
}

func setupFlags(cmd *cobra.Command, settings *config.Settings) {
	cmd.Flags().StringVarP(&settings.ImageInputDir, "images", "i", settings.ImageInputDir, "Directory of per-plate image subdirectories")
	cmd.Flags().StringVarP(&settings.MetadataFile, "metadata", "m", settings.MetadataFile, "Plate metadata CSV")
	cmd.Flags().StringVar(&settings.Curate.IllumSuffix, "illum-suffix", settings.Curate.IllumSuffix, "Suffix inserted before the extension of raw filenames")
	cmd.Flags().BoolVar(&settings.Curate.CopyImages, "copy-images", settings.Curate.CopyImages, "Copy surviving images to the output directory")
	cmd.Flags().StringSliceVar(&settings.Curate.OutlierPlates, "exclude-plates", settings.Curate.OutlierPlates, "Plates to exclude")
	cmd.Flags().StringSliceVar(&settings.Curate.OutlierPlateWells, "exclude-plate-wells", settings.Curate.OutlierPlateWells, "plate:well pairs to exclude")
	cmd.Flags().StringSliceVar(&settings.Curate.OutlierWells, "exclude-wells", settings.Curate.OutlierWells, "Wells to exclude across all plates")
}

func run(settings *config.Settings) error {
	if err := settings.ValidatePreprocess(); err != nil {
		return err
	}

	curator, err := metadata.NewCurator(
		settings.ImageInputDir, settings.MetadataFile, settings.OutputDir,
		settings.MetadataColumns())
	if err != nil {
		return err
	}
	total := curator.Meta.Len()

	if err := curator.DeriveIlluminationFilenames(settings.Curate.IllumSuffix); err != nil {
		return err
	}
	if err := curator.FilterQualityFlags(); err != nil {
		return err
	}

	plateWells, err := settings.OutlierPlateWells()
	if err != nil {
		return err
	}
	if err := curator.RemoveOutliers(settings.Curate.OutlierPlates, plateWells, settings.Curate.OutlierWells); err != nil {
		return err
	}

	if err := os.MkdirAll(settings.OutputDir, 0755); err != nil {
		return err
	}
	outFile := filepath.Join(settings.OutputDir, "curated_metadata.csv")
	if err := curator.Meta.Save(outFile); err != nil {
		return err
	}

	copied := 0
	if settings.Curate.CopyImages {
		if copied, err = curator.CopyFilteredImages(); err != nil {
			return err
		}
	}

	slog.Info("preprocessing complete",
		"rows_in", total, "rows_out", curator.Meta.Len(),
		"images_copied", copied, "metadata", outFile)
	return nil
}
