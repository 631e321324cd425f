// Package normalizecmd implements the crop size normalization commands.
package normalizecmd

import (
	"errors"

	"github.com/spf13/cobra"

	"nuclei-pipeline/internal/config"
	"nuclei-pipeline/internal/normalize"
	"nuclei-pipeline/internal/segment"
)

// PadCommand creates the pad command: place every crop on a fixed-size zero
// canvas and rescale to 8-bit.
func PadCommand(settings *config.Settings) *cobra.Command {
	var inputDir string
	cmd := &cobra.Command{
		Use:   "pad",
		Short: "Pad nucleus crops onto a fixed-size canvas",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputDir == "" {
				return errors.New("input directory is required")
			}
			if settings.Normalize.PadWidth <= 0 || settings.Normalize.PadHeight <= 0 {
				return errors.New("pad width and height must be positive")
			}
			_, err := normalize.PadAll(inputDir, settings.OutputDir, segment.PadSize{
				W: settings.Normalize.PadWidth,
				H: settings.Normalize.PadHeight,
			})
			return err
		},
	}
	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory of crops, one subdirectory per plate")
	cmd.Flags().IntVar(&settings.Normalize.PadWidth, "width", settings.Normalize.PadWidth, "Canvas width, from the segment run's pad size")
	cmd.Flags().IntVar(&settings.Normalize.PadHeight, "height", settings.Normalize.PadHeight, "Canvas height, from the segment run's pad size")
	return cmd
}

// ResizeCommand creates the resize command: scale every crop to a fixed size
// without intensity rescaling.
func ResizeCommand(settings *config.Settings) *cobra.Command {
	var inputDir string
	cmd := &cobra.Command{
		Use:   "resize",
		Short: "Resize nucleus crops to a fixed size",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputDir == "" {
				return errors.New("input directory is required")
			}
			if settings.Normalize.ResizeWidth <= 0 || settings.Normalize.ResizeHeight <= 0 {
				return errors.New("resize width and height must be positive")
			}
			_, err := normalize.ResizeAll(inputDir, settings.OutputDir,
				settings.Normalize.ResizeWidth, settings.Normalize.ResizeHeight)
			return err
		},
	}
	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory of crops, one subdirectory per plate")
	cmd.Flags().IntVar(&settings.Normalize.ResizeWidth, "width", settings.Normalize.ResizeWidth, "Target width")
	cmd.Flags().IntVar(&settings.Normalize.ResizeHeight, "height", settings.Normalize.ResizeHeight, "Target height")
	return cmd
}
