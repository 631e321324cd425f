package metadata

// The assay's CellProfiler-style column names and the short schema the
// pipeline publishes. Both output tables (per-image and per-nucleus) carry
// the same 18 annotation columns, renamed 1:1 and order-preserving; the
// image table additionally carries the outline filename and nucleus count.

var selectedSourceColumns = []string{
	"Image_Metadata_Plate",
	"Image_Metadata_Well",
	"Image_FileName_IllumHoechst",
	"Image_Metadata_GeneID",
	"Image_Metadata_GeneSymbol",
	"Image_Metadata_IsLandmark",
	"Image_Metadata_AlleleDesc",
	"Image_Metadata_ExpressionVector",
	"Image_Metadata_FlaggedForToxicity",
	"Image_Metadata_IE_Blast_noBlast",
	"Image_Metadata_IntendedOrfMismatch",
	"Image_Metadata_OpenOrClosed",
	"Image_Metadata_RNAiVirusPlateName",
	"Image_Metadata_Site",
	"Image_Metadata_Type",
	"Image_Metadata_Virus_Vol_ul",
	"Image_Metadata_TimePoint_Hours",
	"Image_Metadata_ASSAY_WELL_ROLE",
}

var targetColumns = []string{
	"plate",
	"well",
	"image_file",
	"gene_id",
	"gene_symbol",
	"is_landmark",
	"allele",
	"expr_vec",
	"toxicity",
	"ie_blast",
	"intended_orf_mismatch",
	"open_closed",
	"rnai_plate",
	"site",
	"type",
	"virus_vol",
	"timepoint",
	"assay_well_role",
}

// SelectedSourceColumns returns the source annotation columns carried into
// the output tables.
func SelectedSourceColumns() []string {
	out := make([]string, len(selectedSourceColumns))
	copy(out, selectedSourceColumns)
	return out
}

// TargetColumns returns the short column names of the output schema.
func TargetColumns() []string {
	out := make([]string, len(targetColumns))
	copy(out, targetColumns)
	return out
}

// RenameToTarget projects a table with source-schema columns onto the short
// output schema. Extra source/target column pairs (e.g. outline filename and
// nucleus count on the image table) are appended to the projection.
func RenameToTarget(t *Table, extraSrc, extraDst []string) (*Table, error) {
	src := append(SelectedSourceColumns(), extraSrc...)
	dst := append(TargetColumns(), extraDst...)
	return t.SelectRenamed(src, dst)
}
