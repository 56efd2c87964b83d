package connectivity

import (
	"log"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Node is one row of the normalized node table
type Node struct {
	// CellID is the numeric cell/structure identifier. A non-numeric
	// identifier in the export parses to NaN and is preserved;
	// downstream consumers filter these rows rather than failing here.
	CellID float64

	// Label is the human-readable node label
	Label string

	// UUID is the opaque unique identifier from the source export
	UUID string
}

// Edge is one row of the normalized edge table
type Edge struct {
	// Source and Target are 0-based row indices into the node table
	Source int
	Target int

	// Directional is true for directed links
	Directional bool

	// Loop is true when the edge belongs to the export's loop-membership set
	Loop bool

	// Name is the local display name of the edge
	Name string

	// Type is the link-type label
	Type string

	// UUID is the raw edge identifier from the source export
	UUID string

	// ParentIDs is the canonical annotation-ID pair for this edge.
	// When the export encodes several pairs, the last one wins, which
	// restricts downstream link queries to one synapse at a time.
	ParentIDs [2]float64

	// AllParentIDs keeps every decoded pair so callers that need the full
	// annotation mapping are not limited to the canonical pair
	AllParentIDs [][2]float64
}

// Metadata records the provenance of a parse run
type Metadata struct {
	// FileName is the originating export file, empty for in-memory parses
	FileName string

	// ParsedAt is the wall-clock time of the parse
	ParsedAt time.Time

	// ParseID uniquely identifies this parse run
	ParseID uuid.UUID

	// DeclaredNodes and DeclaredEdges are the counts from the export
	// header, kept for the consistency check against the parsed tables
	DeclaredNodes int
	DeclaredEdges int

	// Warnings counts non-fatal anomalies encountered during the parse
	// (dropped edges, malformed UUID keys, count mismatches)
	Warnings int
}

// Tables is the parse result: the normalized node and edge tables plus
// provenance metadata. Row order is the encounter order of the export's
// value mappings and is deterministic across parses of the same input.
type Tables struct {
	Nodes []Node
	Edges []Edge
	Meta  Metadata

	// nodeRow maps node UUID to its row index
	nodeRow map[string]int
}

// NodeRow returns the node-table row index for a node UUID
func (t *Tables) NodeRow(nodeUUID string) (int, bool) {
	row, ok := t.nodeRow[nodeUUID]
	return row, ok
}

// ParseFile decodes a serialized export file and parses it into tables.
// The path must carry the .json extension the exporter writes; anything
// else is rejected as a FormatError before touching the file.
func ParseFile(path string) (*Tables, error) {
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return nil, &FormatError{
			File:   path,
			Entity: "export",
			Reason: "not a decoded export structure or a .json export path",
		}
	}

	exp, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}

	tables, err := Parse(exp)
	if err != nil {
		if fe, ok := err.(*FormatError); ok {
			fe.File = path
		}
		return nil, err
	}
	tables.Meta.FileName = filepath.Base(path)
	return tables, nil
}

// Parse builds the normalized node and edge tables from a decoded export.
//
// The parse is a single pass over each value mapping:
//  1. Node pass: every entry of the ID node-value mapping becomes a node
//     row in encounter order.
//  2. Edge pass: every entry of the Source edge-value mapping becomes an
//     edge row; entries whose endpoints cannot be resolved against the
//     node table are dropped with a warning rather than failing the parse.
//
// Malformed parent-ID blobs and missing required fields abort the whole
// parse; no partial tables are returned.
func Parse(exp *Export) (*Tables, error) {
	if exp == nil {
		return nil, &FormatError{Entity: "export", Reason: "nil export"}
	}

	tables := &Tables{
		Meta: Metadata{
			ParsedAt:      time.Now(),
			ParseID:       uuid.New(),
			DeclaredNodes: exp.Graph.NodesNumber,
			DeclaredEdges: exp.Graph.EdgesNumber,
		},
		nodeRow: make(map[string]int),
	}

	props := &exp.Graph.Properties

	// Node pass
	for _, key := range props.ID.NodesValues.Keys() {
		rawID, _ := props.ID.NodesValues.Get(key)
		label, ok := props.ViewLabel.NodesValues.Get(key)
		if !ok {
			return nil, &FormatError{Entity: "node", UUID: key, Field: "viewLabel", Reason: "missing required field"}
		}

		cellID, err := strconv.ParseFloat(rawID, 64)
		if err != nil {
			// Non-numeric identifiers are preserved as NaN; downstream
			// consumers filter them out
			cellID = math.NaN()
		}

		if uuid.Validate(key) != nil {
			log.Printf("Warning: node key %q is not a well-formed UUID", key)
			tables.Meta.Warnings++
		}

		tables.nodeRow[key] = len(tables.Nodes)
		tables.Nodes = append(tables.Nodes, Node{CellID: cellID, Label: label, UUID: key})
	}

	// Edge pass
	for _, key := range props.Source.EdgesValues.Keys() {
		srcUUID, _ := props.Source.EdgesValues.Get(key)
		tgtUUID, ok := props.Target.EdgesValues.Get(key)
		if !ok {
			return nil, &FormatError{Entity: "edge", UUID: key, Field: "Target", Reason: "missing required field"}
		}

		blob, ok := props.LinkedStructures.EdgesValues.Get(key)
		if !ok {
			return nil, &FormatError{Entity: "edge", UUID: key, Field: "LinkedStructures", Reason: "missing required field"}
		}
		pairs, err := decodeParentIDs(key, blob)
		if err != nil {
			return nil, err
		}

		src, srcOK := tables.nodeRow[srcUUID]
		tgt, tgtOK := tables.nodeRow[tgtUUID]
		if !srcOK || !tgtOK {
			log.Printf("Warning: dropping edge %s: unresolvable endpoint (source %q, target %q)", key, srcUUID, tgtUUID)
			tables.Meta.Warnings++
			continue
		}

		directional, _ := props.Directional.EdgesValues.Get(key)
		name, _ := props.ViewLabel.EdgesValues.Get(key)
		edgeType, _ := props.EdgeType.EdgesValues.Get(key)

		tables.Edges = append(tables.Edges, Edge{
			Source:       src,
			Target:       tgt,
			Directional:  directional == "True",
			Loop:         props.IsLoop.EdgesValues.Has(key),
			Name:         name,
			Type:         edgeType,
			UUID:         key,
			ParentIDs:    pairs[len(pairs)-1],
			AllParentIDs: pairs,
		})
	}

	// Consistency check against the export header. The parsed tables are
	// the source of truth; a mismatch is logged, not fatal.
	if len(tables.Nodes) != exp.Graph.NodesNumber {
		log.Printf("Warning: export declares %d nodes but %d were parsed", exp.Graph.NodesNumber, len(tables.Nodes))
		tables.Meta.Warnings++
	}
	if len(tables.Edges) != exp.Graph.EdgesNumber {
		log.Printf("Warning: export declares %d edges but %d were parsed", exp.Graph.EdgesNumber, len(tables.Edges))
		tables.Meta.Warnings++
	}

	return tables, nil
}

// segmentSeparator delimits annotation-ID pairs inside the
// LinkedStructures blob. The exporter writes exactly three spaces.
const segmentSeparator = "   "

// decodeParentIDs decodes the compact parent-ID pair blob: one or more
// triple-space-delimited segments, each an arrow-delimited pair of numeric
// annotation IDs ("123->456")
func decodeParentIDs(edgeUUID, blob string) ([][2]float64, error) {
	segments := strings.Split(blob, segmentSeparator)
	pairs := make([][2]float64, 0, len(segments))
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		parts := strings.Split(segment, "->")
		if len(parts) != 2 {
			return nil, &FormatError{
				Entity: "edge",
				UUID:   edgeUUID,
				Field:  "LinkedStructures",
				Reason: "segment " + strconv.Quote(segment) + " is missing the arrow delimiter",
			}
		}

		var pair [2]float64
		for i, part := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, &FormatError{
					Entity: "edge",
					UUID:   edgeUUID,
					Field:  "LinkedStructures",
					Reason: "segment " + strconv.Quote(segment) + " has a non-numeric annotation ID",
				}
			}
			pair[i] = v
		}
		pairs = append(pairs, pair)
	}

	if len(pairs) == 0 {
		return nil, &FormatError{
			Entity: "edge",
			UUID:   edgeUUID,
			Field:  "LinkedStructures",
			Reason: "no annotation-ID pairs in blob",
		}
	}
	return pairs, nil
}
