// Package skeleton derives a classified tree from a neuron's structural
// annotation graph. It validates the tree-shape invariants (single root,
// no in-degree above one), walks the tree depth-first assigning a
// topological class to every node, and copies coordinates and radii from
// the annotation table into the resulting skeleton records.
package skeleton

import (
	"fmt"
	"log"
	"sort"

	"gonum.org/v1/gonum/graph"

	"neuromorph/internal/models"
)

// GraphError reports a structural violation of the tree invariants.
// It is returned before any traversal or file I/O happens.
type GraphError struct {
	// Reason is the violated invariant ("multiple or zero roots",
	// "non-tree structure")
	Reason string

	// Nodes lists the offending annotation IDs
	Nodes []int64
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if len(e.Nodes) == 0 {
		return "invalid annotation graph: " + e.Reason
	}
	return fmt.Sprintf("invalid annotation graph: %s (annotations %v)", e.Reason, e.Nodes)
}

// Source supplies the tree builder's inputs: the directed structural
// graph and the annotation table keyed by location ID
type Source interface {
	// Graph returns the directed structural graph; node IDs are
	// annotation location IDs
	Graph() graph.Directed

	// Annotation looks up one annotation by location ID
	Annotation(id int64) (models.Annotation, bool)
}

// Result is the outcome of a tree build
type Result struct {
	// Records is the skeleton table in traversal order. The root is the
	// first record and every parent precedes its children.
	Records []models.SkeletonNode

	// RootID is the annotation ID of the tree root
	RootID int64

	// MissingAttrs counts records whose annotation could not be found
	// during attribute assignment and were left zero-filled
	MissingAttrs int
}

// Build derives the classified skeleton tree from src.
//
// The build has three stages:
//  1. Precondition scan: every graph node's in-degree is checked once,
//     globally, before any traversal. Exactly one node may have
//     in-degree 0 (the root) and no node may have in-degree 2 or more.
//  2. Depth-first pre-order walk from the root with an explicit stack,
//     appending one skeleton record per node. A node's class follows its
//     child count: none = end-point, one = dendrite, several = fork-point;
//     the root keeps the root class regardless of its child count.
//  3. Attribute assignment: coordinates and radii are copied from the
//     annotation table. A missing annotation leaves the record
//     zero-filled; each miss is logged and counted, never fatal.
func Build(src Source) (*Result, error) {
	g := src.Graph()

	ids := sortedNodeIDs(g)
	if len(ids) == 0 {
		return nil, &GraphError{Reason: "multiple or zero roots"}
	}

	// Stage 1: global in-degree precondition
	var roots, overlinked []int64
	for _, id := range ids {
		switch indegree(g, id) {
		case 0:
			roots = append(roots, id)
		case 1:
			// expected for every non-root node
		default:
			overlinked = append(overlinked, id)
		}
	}
	if len(roots) != 1 {
		return nil, &GraphError{Reason: "multiple or zero roots", Nodes: roots}
	}
	if len(overlinked) > 0 {
		return nil, &GraphError{Reason: "non-tree structure", Nodes: overlinked}
	}
	root := roots[0]

	// Stage 2: depth-first pre-order classification with an explicit
	// stack, so deep reconstructions cannot exhaust the call stack
	res := &Result{
		Records: make([]models.SkeletonNode, 0, len(ids)),
		RootID:  root,
	}

	type frame struct {
		id        int64
		parentRow int // 1-based index of the parent record, or models.NoParent
	}
	stack := []frame{{id: root, parentRow: models.NoParent}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if g.Node(f.id) == nil {
			// Defensive: the graph changed under us or a link references
			// a node the graph never held. Not a normal path.
			log.Printf("Warning: skipping unknown annotation %d during classification", f.id)
			continue
		}

		children := sortedSuccessors(g, f.id)

		class := classify(len(children))
		if f.id == root {
			class = models.ClassRoot
		}

		res.Records = append(res.Records, models.SkeletonNode{
			Index:        len(res.Records) + 1,
			AnnotationID: f.id,
			Class:        class,
			Parent:       f.parentRow,
		})
		row := len(res.Records)

		// Push in reverse so the lowest-numbered child is visited first
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: children[i], parentRow: row})
		}
	}

	// A component that passed the in-degree checks can still be
	// unreachable from the root (a detached cycle has in-degree 1
	// everywhere). That is a non-tree graph, not a degraded one.
	if len(res.Records) != len(ids) {
		unvisited := missingIDs(ids, res.Records)
		return nil, &GraphError{Reason: "non-tree structure", Nodes: unvisited}
	}

	// Stage 3: attribute assignment from the annotation table
	for i := range res.Records {
		a, ok := src.Annotation(res.Records[i].AnnotationID)
		if !ok {
			log.Printf("Warning: annotation %d not found in source table; skeleton record %d left zero-filled",
				res.Records[i].AnnotationID, res.Records[i].Index)
			res.MissingAttrs++
			continue
		}
		res.Records[i].XYZum = a.XYZum
		res.Records[i].Rum = a.Rum
	}

	return res, nil
}

// classify maps a node's child count to its topological class
func classify(children int) models.NodeClass {
	switch {
	case children == 0:
		return models.ClassEndPoint
	case children == 1:
		return models.ClassDendrite
	default:
		return models.ClassForkPoint
	}
}

// indegree counts the incoming structural links of a node
func indegree(g graph.Directed, id int64) int {
	return g.To(id).Len()
}

// sortedNodeIDs returns every graph node ID in ascending order, so the
// precondition scan and error reports are deterministic
func sortedNodeIDs(g graph.Directed) []int64 {
	var ids []int64
	it := g.Nodes()
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// sortedSuccessors returns the direct children of a node in ascending
// ID order, so traversal order is deterministic
func sortedSuccessors(g graph.Directed, id int64) []int64 {
	var ids []int64
	it := g.From(id)
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// missingIDs returns the node IDs that never received a skeleton record
func missingIDs(ids []int64, records []models.SkeletonNode) []int64 {
	seen := make(map[int64]bool, len(records))
	for _, r := range records {
		seen[r.AnnotationID] = true
	}
	var missing []int64
	for _, id := range ids {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
