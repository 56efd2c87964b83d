package skeleton

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"neuromorph/internal/models"
)

// Morphometry summarizes a derived skeleton for the closing report
type Morphometry struct {
	// Nodes is the number of skeleton records
	Nodes int

	// ForkPoints and EndPoints count the branch and terminal nodes
	ForkPoints int
	EndPoints  int

	// TotalCableUm is the summed parent-to-child path length in microns
	TotalCableUm float64

	// MeanRadiusUm and MaxRadiusUm summarize the annotation radii
	MeanRadiusUm float64
	MaxRadiusUm  float64

	// MaxDepth is the longest root-to-leaf path in node count,
	// with the root at depth 1
	MaxDepth int
}

// Stats computes morphometry over a skeleton table. Records must be in
// traversal order (parents before children), which Build guarantees.
func Stats(records []models.SkeletonNode) Morphometry {
	m := Morphometry{Nodes: len(records)}
	if len(records) == 0 {
		return m
	}

	radii := make([]float64, len(records))
	depth := make([]int, len(records))

	for i, r := range records {
		radii[i] = r.Rum

		switch r.Class {
		case models.ClassForkPoint:
			m.ForkPoints++
		case models.ClassEndPoint:
			m.EndPoints++
		}

		if r.Parent == models.NoParent {
			depth[i] = 1
			continue
		}

		parent := records[r.Parent-1]
		depth[i] = depth[r.Parent-1] + 1

		dx := r.XYZum[0] - parent.XYZum[0]
		dy := r.XYZum[1] - parent.XYZum[1]
		dz := r.XYZum[2] - parent.XYZum[2]
		m.TotalCableUm += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}

	m.MeanRadiusUm = stat.Mean(radii, nil)
	m.MaxRadiusUm = floats.Max(radii)
	for _, d := range depth {
		if d > m.MaxDepth {
			m.MaxDepth = d
		}
	}
	return m
}
