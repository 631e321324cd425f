// Package datasetcmd implements the dataset inspection command.
package datasetcmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"nuclei-pipeline/internal/config"
	"nuclei-pipeline/internal/dataset"
)

// Command creates the dataset command: build the labeled dataset from the
// settings, report its class composition, and optionally write the encoded
// label column back to the metadata CSV.
func Command(settings *config.Settings) *cobra.Command {
	var encodeLabels bool
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Build the labeled dataset and report its composition",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings, encodeLabels)
		},
	}
	setupFlags(cmd, settings)
	cmd.Flags().BoolVar(&encodeLabels, "encode-labels", false, "Append an encoded label column to the metadata CSV")
	return cmd
}

func setupFlags(cmd *cobra.Command, settings *config.Settings) {
	cmd.Flags().StringVar(&settings.Dataset.ImageDir, "images", settings.Dataset.ImageDir, "Directory of normalized crops, one subdirectory per plate")
	cmd.Flags().StringVarP(&settings.Dataset.MetadataFile, "metadata", "m", settings.Dataset.MetadataFile, "Nucleus metadata CSV")
	cmd.Flags().StringVar(&settings.Dataset.LabelCol, "label-col", settings.Dataset.LabelCol, "Metadata column used as the class label")
	cmd.Flags().StringSliceVar(&settings.Dataset.TargetList, "targets", settings.Dataset.TargetList, "Restrict to these classes (controls always kept)")
	cmd.Flags().IntVar(&settings.Dataset.NControlSamples, "n-controls", settings.Dataset.NControlSamples, "Undersample controls to this count (0 disables)")
	cmd.Flags().StringVar(&settings.Dataset.TransformPreset, "transform", settings.Dataset.TransformPreset, "Transform pipeline preset")
	cmd.Flags().IntVar(&settings.Dataset.TransformSize, "transform-size", settings.Dataset.TransformSize, "Resize target of the transform presets")
	cmd.Flags().BoolVar(&settings.Dataset.PseudoRGB, "pseudo-rgb", settings.Dataset.PseudoRGB, "Replicate the intensity channel into 3 channels")
}

// Build constructs the dataset described by the settings. Shared with the
// embed command so both resolve presets identically.
func Build(settings *config.Settings) (*dataset.NucleiImageDataset, error) {
	pipeline, err := dataset.PipelinePreset(
		settings.Dataset.TransformPreset, settings.Dataset.TransformSize, settings.Seed)
	if err != nil {
		return nil, err
	}
	return dataset.New(dataset.Config{
		ImageDir:        settings.Dataset.ImageDir,
		MetadataFile:    settings.Dataset.MetadataFile,
		ImageFileCol:    settings.Dataset.ImageFileCol,
		PlateCol:        settings.Dataset.PlateCol,
		LabelCol:        settings.Dataset.LabelCol,
		TargetList:      settings.Dataset.TargetList,
		NControlSamples: settings.Dataset.NControlSamples,
		Pipeline:        pipeline,
		PseudoRGB:       settings.Dataset.PseudoRGB,
		Seed:            settings.Seed,
	})
}

func run(settings *config.Settings, encodeLabels bool) error {
	if err := settings.ValidateDataset(); err != nil {
		return err
	}

	ds, err := Build(settings)
	if err != nil {
		return err
	}

	counts := make(map[int]int)
	for _, l := range ds.Labels() {
		counts[l]++
	}
	classes := ds.Encoder().Classes()
	fmt.Printf("%d samples, %d classes\n", ds.Len(), len(classes))
	for code, class := range classes {
		fmt.Printf("  %3d  %-16s %d\n", code, class, counts[code])
	}

	if encodeLabels {
		labelCol := settings.Dataset.LabelCol
		if labelCol == "" {
			labelCol = "gene_symbol"
		}
		if err := dataset.AddEncodedLabelColumn(settings.Dataset.MetadataFile, labelCol, labelCol+"_code"); err != nil {
			return err
		}
		slog.Info("encoded label column written", "file", settings.Dataset.MetadataFile)
	}
	return nil
}
