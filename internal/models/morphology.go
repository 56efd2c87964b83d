package models

import (
	"fmt"
	"math"
)

// Annotation represents a single annotated location on the EM image stack
type Annotation struct {
	// ID is the location identifier assigned by the annotation database
	ID int64

	// XYZum is the 3D coordinate of the annotation in microns
	XYZum [3]float64

	// Rum is the annotation radius in microns
	Rum float64
}

// Distance returns the Euclidean distance to another annotation in microns
func (a Annotation) Distance(b Annotation) float64 {
	dx := a.XYZum[0] - b.XYZum[0]
	dy := a.XYZum[1] - b.XYZum[1]
	dz := a.XYZum[2] - b.XYZum[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// NodeClass is the topological role of a skeleton node, using the
// SWC standard structure identifiers understood by downstream
// morphology-analysis tools
type NodeClass int

const (
	// ClassUnassigned marks a node that has not been classified yet
	ClassUnassigned NodeClass = 0

	// ClassRoot marks the unique tree root, conventionally the cell body
	ClassRoot NodeClass = 1

	// ClassDendrite marks a continuation node with exactly one child
	ClassDendrite NodeClass = 3

	// ClassForkPoint marks a branch node with two or more children
	ClassForkPoint NodeClass = 5

	// ClassEndPoint marks a terminal node with no children
	ClassEndPoint NodeClass = 6
)

// String returns a human-readable name for the node class
func (c NodeClass) String() string {
	switch c {
	case ClassUnassigned:
		return "unassigned"
	case ClassRoot:
		return "root"
	case ClassDendrite:
		return "dendrite"
	case ClassForkPoint:
		return "fork-point"
	case ClassEndPoint:
		return "end-point"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// NoParent is the parent sentinel for the root skeleton record
const NoParent = -1

// SkeletonNode is one record of the derived skeleton tree, in the order
// the tree traversal visited it. Parents always precede their children,
// so records can be streamed to an SWC file without a second pass.
type SkeletonNode struct {
	// Index is the 1-based sequential position of this record
	// in the skeleton table; the root is always index 1
	Index int

	// AnnotationID is the source annotation this record was derived from
	AnnotationID int64

	// Class is the topological role assigned during traversal
	Class NodeClass

	// XYZum is the 3D coordinate copied from the source annotation, in microns
	XYZum [3]float64

	// Rum is the radius copied from the source annotation, in microns
	Rum float64

	// Parent is the sequential index of the parent record,
	// or NoParent for the root
	Parent int
}
