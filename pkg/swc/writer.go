// Package swc serializes a classified skeleton to the SWC interchange
// format consumed by third-party morphology-analysis tools. The numeric
// formatting of the data rows is fixed-precision and must not change, or
// downstream tools will see different geometry.
package swc

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"neuromorph/internal/models"
)

// FormatVersion is the skeleton format revision written to the header
const FormatVersion = "1.0"

// Scale factors written to the header. Coordinates are already in
// microns, so no rescaling is applied on export.
const (
	ScaleX = 1.0
	ScaleY = 1.0
	ScaleZ = 1.0
)

// sourceRegions maps known volume names to the anatomical region
// recorded in the export header
var sourceRegions = map[string]string{
	"RC1":  "retina",
	"RC2":  "retina",
	"RPC1": "retina",
}

// Header carries the free-text metadata written before the data rows
type Header struct {
	// Cell is the cell name of the exported neuron
	Cell string

	// Source is the originating volume name
	Source string

	// Species is the subject species
	Species string

	// Region is the anatomical region. When empty it is inferred from
	// Source via the fixed volume lookup; unknown volumes record "unknown".
	Region string

	// SomaRadius is the cell-body radius in microns used for the soma
	// cross-sectional area. When zero the root record's radius is used.
	SomaRadius float64
}

// RegionForSource returns the anatomical region recorded for a volume
// name, or "unknown" for volumes outside the fixed lookup
func RegionForSource(source string) string {
	if region, ok := sourceRegions[strings.TrimSpace(source)]; ok {
		return region
	}
	return "unknown"
}

// Write serializes the skeleton records to an SWC file at path.
// The output directory must already exist; a missing directory is fatal.
// The file is flushed and closed on every exit path so a failed export
// never leaves a silently truncated file behind.
func Write(path string, hdr Header, records []models.SkeletonNode) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create SWC file: %w", err)
	}

	if err := WriteTo(f, hdr, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTo serializes the skeleton records to w: a block of "#" header
// lines followed by one whitespace-delimited data row per record,
// "index type x y z radius parent", 1-indexed, root parent -1.
func WriteTo(w io.Writer, hdr Header, records []models.SkeletonNode) error {
	region := hdr.Region
	if region == "" {
		region = RegionForSource(hdr.Source)
	}

	somaRadius := hdr.SomaRadius
	if somaRadius == 0 && len(records) > 0 {
		somaRadius = records[0].Rum
	}
	somaArea := math.Pi * somaRadius * somaRadius

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# SWC skeleton export\n")
	fmt.Fprintf(bw, "# CELL %s\n", hdr.Cell)
	fmt.Fprintf(bw, "# ORIGINAL_SOURCE %s\n", hdr.Source)
	fmt.Fprintf(bw, "# SPECIES %s\n", hdr.Species)
	fmt.Fprintf(bw, "# REGION %s\n", region)
	fmt.Fprintf(bw, "# VERSION %s\n", FormatVersion)
	fmt.Fprintf(bw, "# SCALE %.1f %.1f %.1f\n", ScaleX, ScaleY, ScaleZ)
	fmt.Fprintf(bw, "# SOMA_AREA %.4f\n", somaArea)

	// X and Y carry 4 decimal places, Z two (section spacing is coarser
	// than in-plane resolution), radius 4. This layout is pinned by
	// interchange compatibility and by the writer tests.
	for _, r := range records {
		fmt.Fprintf(bw, "%d %d %.4f %.4f %.2f %.4f %d\n",
			r.Index, int(r.Class), r.XYZum[0], r.XYZum[1], r.XYZum[2], r.Rum, r.Parent)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write SWC data: %w", err)
	}
	return nil
}
