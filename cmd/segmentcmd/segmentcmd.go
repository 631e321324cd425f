// Package segmentcmd implements the nucleus segmentation command.
package segmentcmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"nuclei-pipeline/internal/config"
	"nuclei-pipeline/internal/metadata"
	"nuclei-pipeline/internal/segment"
)

// Command creates the segment command: cut nucleus crops out of every
// curated image using its outline mask.
func Command(settings *config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Segment nucleus crops from outline masks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
	setupFlags(cmd, settings)
	return cmd
}

func setupFlags(cmd *cobra.Command, settings *config.Settings) {
	cmd.Flags().StringVarP(&settings.ImageInputDir, "images", "i", settings.ImageInputDir, "Directory of intensity images, one subdirectory per plate")
	cmd.Flags().StringVar(&settings.Segment.OutlineInputDir, "outlines", settings.Segment.OutlineInputDir, "Directory of outline masks, parallel layout")
	cmd.Flags().StringVarP(&settings.MetadataFile, "metadata", "m", settings.MetadataFile, "Curated metadata CSV")
	cmd.Flags().IntVar(&settings.Segment.MinArea, "min-area", settings.Segment.MinArea, "Remove components below this pixel area")
	cmd.Flags().IntVar(&settings.Segment.MaxArea, "max-area", settings.Segment.MaxArea, "Reject regions at or above this pixel area (0 disables)")
	cmd.Flags().Float64Var(&settings.Segment.MaxEccentricity, "max-eccentricity", settings.Segment.MaxEccentricity, "Reject regions at or above this eccentricity (0 disables)")
	cmd.Flags().IntVar(&settings.Segment.MaxBBoxArea, "max-bbox-area", settings.Segment.MaxBBoxArea, "Reject regions whose bounding box is at or above this area (0 disables)")
	cmd.Flags().Float64Var(&settings.Segment.MinSolidity, "min-solidity", settings.Segment.MinSolidity, "Reject regions at or below this solidity (0 disables)")
}

func run(settings *config.Settings) error {
	if err := settings.ValidateSegment(); err != nil {
		return err
	}

	meta, err := metadata.LoadTable(settings.MetadataFile)
	if err != nil {
		return err
	}

	res, err := segment.Run(meta, segment.Config{
		ImageInputDir:   settings.ImageInputDir,
		OutlineInputDir: settings.Segment.OutlineInputDir,
		OutputDir:       settings.OutputDir,
		Cols:            settings.MetadataColumns(),
		MinArea:         settings.Segment.MinArea,
		Filter: segment.Filter{
			MaxArea:         settings.Segment.MaxArea,
			MaxEccentricity: settings.Segment.MaxEccentricity,
			MaxBBoxArea:     settings.Segment.MaxBBoxArea,
			MinSolidity:     settings.Segment.MinSolidity,
		},
	})
	if err != nil {
		return err
	}

	slog.Info("pad size for downstream normalization",
		"width", res.PadSize.W, "height", res.PadSize.H)
	return nil
}
