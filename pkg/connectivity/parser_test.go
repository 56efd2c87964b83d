package connectivity

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// testNodeUUID returns a well-formed UUID string for node i
func testNodeUUID(i int) string {
	return nodeUUIDs[i]
}

var nodeUUIDs = []string{
	"11111111-1111-1111-1111-111111111111",
	"22222222-2222-2222-2222-222222222222",
	"33333333-3333-3333-3333-333333333333",
}

var edgeUUIDs = []string{
	"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa",
	"bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb",
}

// buildTestExport creates a small three-node, two-edge export:
// a directed ribbon synapse from node 0 to node 1 and an undirected
// adherens contact between node 1 and node 2
func buildTestExport() *Export {
	exp := &Export{}
	exp.Graph.NodesNumber = 3
	exp.Graph.EdgesNumber = 2
	exp.Graph.Edges = [][2]int{{0, 1}, {1, 2}}

	p := &exp.Graph.Properties
	p.ID.NodesValues = NewOrderedValues(
		testNodeUUID(0), "476",
		testNodeUUID(1), "514",
		testNodeUUID(2), "593",
	)
	p.ViewLabel.NodesValues = NewOrderedValues(
		testNodeUUID(0), "CBb3m 476",
		testNodeUUID(1), "CBb4w 514",
		testNodeUUID(2), "CBb5w 593",
	)
	p.Source.EdgesValues = NewOrderedValues(
		edgeUUIDs[0], testNodeUUID(0),
		edgeUUIDs[1], testNodeUUID(1),
	)
	p.Target.EdgesValues = NewOrderedValues(
		edgeUUIDs[0], testNodeUUID(1),
		edgeUUIDs[1], testNodeUUID(2),
	)
	p.LinkedStructures.EdgesValues = NewOrderedValues(
		edgeUUIDs[0], "1001->2002",
		edgeUUIDs[1], "3003->4004",
	)
	p.EdgeType.EdgesValues = NewOrderedValues(
		edgeUUIDs[0], "Ribbon Synapse",
		edgeUUIDs[1], "Adherens",
	)
	p.Directional.EdgesValues = NewOrderedValues(
		edgeUUIDs[0], "True",
		edgeUUIDs[1], "False",
	)
	p.ViewLabel.EdgesValues = NewOrderedValues(
		edgeUUIDs[0], "476-514",
		edgeUUIDs[1], "514-593",
	)
	return exp
}

func TestParseNodeTable(t *testing.T) {
	tables, err := Parse(buildTestExport())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(tables.Nodes) != 3 {
		t.Fatalf("Expected 3 node rows, got %d", len(tables.Nodes))
	}
	if tables.Meta.DeclaredNodes != len(tables.Nodes) {
		t.Errorf("Declared node count %d does not match parsed count %d",
			tables.Meta.DeclaredNodes, len(tables.Nodes))
	}

	// Row order must follow encounter order in the export mapping
	wantIDs := []float64{476, 514, 593}
	for i, want := range wantIDs {
		if tables.Nodes[i].CellID != want {
			t.Errorf("Node row %d: expected CellID %v, got %v", i, want, tables.Nodes[i].CellID)
		}
	}
	if tables.Nodes[2].Label != "CBb5w 593" {
		t.Errorf("Node row 2: unexpected label %q", tables.Nodes[2].Label)
	}
}

func TestParseNonNumericCellID(t *testing.T) {
	exp := buildTestExport()
	exp.Graph.Properties.ID.NodesValues.Set(testNodeUUID(1), "unlabeled")

	tables, err := Parse(exp)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// A non-numeric identifier is preserved as NaN, not an error
	if !math.IsNaN(tables.Nodes[1].CellID) {
		t.Errorf("Expected NaN CellID for non-numeric identifier, got %v", tables.Nodes[1].CellID)
	}
}

func TestParseEdgeTable(t *testing.T) {
	tables, err := Parse(buildTestExport())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(tables.Edges) != 2 {
		t.Fatalf("Expected 2 edge rows, got %d", len(tables.Edges))
	}

	e := tables.Edges[0]
	if e.Source != 0 || e.Target != 1 {
		t.Errorf("Edge 0: expected endpoints 0->1, got %d->%d", e.Source, e.Target)
	}
	if !e.Directional {
		t.Errorf("Edge 0: expected directional edge")
	}
	if e.Loop {
		t.Errorf("Edge 0: absent IsLoop entry must mean false")
	}
	if e.Type != "Ribbon Synapse" {
		t.Errorf("Edge 0: unexpected type %q", e.Type)
	}
	if e.ParentIDs != [2]float64{1001, 2002} {
		t.Errorf("Edge 0: unexpected ParentIDs %v", e.ParentIDs)
	}

	if tables.Edges[1].Directional {
		t.Errorf("Edge 1: expected undirected edge")
	}
}

func TestParseLoopMembership(t *testing.T) {
	exp := buildTestExport()
	exp.Graph.Properties.IsLoop.EdgesValues = NewOrderedValues(edgeUUIDs[1], "True")

	tables, err := Parse(exp)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tables.Edges[0].Loop {
		t.Errorf("Edge 0 must not be a loop")
	}
	if !tables.Edges[1].Loop {
		t.Errorf("Edge 1 must be a loop: its UUID is in the membership set")
	}
}

// TestParentIDsLastWins pins the acknowledged truncation behavior: when
// an edge blob encodes several annotation pairs, the last one is the
// canonical ParentIDs
func TestParentIDsLastWins(t *testing.T) {
	exp := buildTestExport()
	exp.Graph.Properties.LinkedStructures.EdgesValues.Set(edgeUUIDs[0], "12->34   56->78")

	tables, err := Parse(exp)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if tables.Edges[0].ParentIDs != [2]float64{56, 78} {
		t.Errorf("Expected last segment [56 78] to win, got %v", tables.Edges[0].ParentIDs)
	}
	want := [][2]float64{{12, 34}, {56, 78}}
	if !reflect.DeepEqual(tables.Edges[0].AllParentIDs, want) {
		t.Errorf("Expected full pair list %v, got %v", want, tables.Edges[0].AllParentIDs)
	}
}

func TestParentIDsMissingArrow(t *testing.T) {
	exp := buildTestExport()
	exp.Graph.Properties.LinkedStructures.EdgesValues.Set(edgeUUIDs[0], "12-34")

	_, err := Parse(exp)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected FormatError for missing arrow delimiter, got %v", err)
	}
	if fe.Field != "LinkedStructures" {
		t.Errorf("Expected error to name the LinkedStructures field, got %q", fe.Field)
	}
	if fe.UUID != edgeUUIDs[0] {
		t.Errorf("Expected error to carry the offending edge UUID, got %q", fe.UUID)
	}
}

func TestParseMissingRequiredField(t *testing.T) {
	exp := buildTestExport()
	exp.Graph.Properties.LinkedStructures.EdgesValues = OrderedValues{}

	_, err := Parse(exp)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected FormatError for missing field, got %v", err)
	}
	if fe.Field != "LinkedStructures" {
		t.Errorf("Expected error to name the missing field, got %q", fe.Field)
	}
}

func TestParseDropsUnresolvableEdge(t *testing.T) {
	exp := buildTestExport()
	exp.Graph.Properties.Source.EdgesValues.Set(edgeUUIDs[0], "99999999-9999-9999-9999-999999999999")

	tables, err := Parse(exp)
	if err != nil {
		t.Fatalf("Unresolvable endpoint must drop the edge, not fail the parse: %v", err)
	}
	if len(tables.Edges) != 1 {
		t.Fatalf("Expected 1 surviving edge, got %d", len(tables.Edges))
	}
	if tables.Edges[0].UUID != edgeUUIDs[1] {
		t.Errorf("Wrong edge survived: %s", tables.Edges[0].UUID)
	}
	if tables.Meta.Warnings == 0 {
		t.Errorf("Dropped edge must be counted as a warning")
	}
}

func TestParseCountMismatchIsNotFatal(t *testing.T) {
	exp := buildTestExport()
	exp.Graph.NodesNumber = 7

	tables, err := Parse(exp)
	if err != nil {
		t.Fatalf("Count mismatch must be logged, not fatal: %v", err)
	}
	if tables.Meta.Warnings == 0 {
		t.Errorf("Count mismatch must be counted as a warning")
	}
}

func TestParseFileRejectsWrongExtension(t *testing.T) {
	_, err := ParseFile("export.graphml")
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected FormatError for non-.json path, got %v", err)
	}
}

func TestParseFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "network.json")

	data := []byte(`{
		"graph": {
			"nodesNumber": 2,
			"edgesNumber": 1,
			"edges": [[0, 1]],
			"properties": {
				"ID": {"nodesValues": {
					"11111111-1111-1111-1111-111111111111": "476",
					"22222222-2222-2222-2222-222222222222": "514"
				}},
				"viewLabel": {
					"nodesValues": {
						"11111111-1111-1111-1111-111111111111": "CBb3m 476",
						"22222222-2222-2222-2222-222222222222": "CBb4w 514"
					},
					"edgesValues": {"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa": "476-514"}
				},
				"LinkedStructures": {"edgesValues": {"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa": "1001->2002"}},
				"Source": {"edgesValues": {"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa": "11111111-1111-1111-1111-111111111111"}},
				"Target": {"edgesValues": {"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa": "22222222-2222-2222-2222-222222222222"}},
				"edgeType": {"edgesValues": {"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa": "Ribbon Synapse"}},
				"Directional": {"edgesValues": {"aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa": "True"}}
			}
		}
	}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write test export: %v", err)
	}

	tables, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(tables.Nodes) != 2 || len(tables.Edges) != 1 {
		t.Fatalf("Expected 2 nodes and 1 edge, got %d and %d", len(tables.Nodes), len(tables.Edges))
	}
	if tables.Meta.FileName != "network.json" {
		t.Errorf("Expected provenance file name network.json, got %q", tables.Meta.FileName)
	}
	if tables.Edges[0].Source != 0 || tables.Edges[0].Target != 1 {
		t.Errorf("Unexpected edge endpoints %d->%d", tables.Edges[0].Source, tables.Edges[0].Target)
	}
}

// TestParseIdempotence verifies two parses of the same export yield
// identical tables: row order must not depend on map iteration order
func TestParseIdempotence(t *testing.T) {
	first, err := Parse(buildTestExport())
	if err != nil {
		t.Fatalf("First parse failed: %v", err)
	}
	second, err := Parse(buildTestExport())
	if err != nil {
		t.Fatalf("Second parse failed: %v", err)
	}

	if !reflect.DeepEqual(first.Nodes, second.Nodes) {
		t.Errorf("Node tables differ between identical parses")
	}
	if !reflect.DeepEqual(first.Edges, second.Edges) {
		t.Errorf("Edge tables differ between identical parses")
	}
}

func TestAdjacencyMatrix(t *testing.T) {
	tables, err := Parse(buildTestExport())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	adj := tables.AdjacencyMatrix()
	rows, cols := adj.Dims()
	if rows != 3 || cols != 3 {
		t.Fatalf("Expected 3x3 matrix, got %dx%d", rows, cols)
	}

	// Directed edge 0->1 contributes one orientation only
	if adj.At(0, 1) != 1 || adj.At(1, 0) != 0 {
		t.Errorf("Directed edge: expected (0,1)=1 (1,0)=0, got %v and %v", adj.At(0, 1), adj.At(1, 0))
	}
	// Undirected edge 1-2 is mirrored
	if adj.At(1, 2) != 1 || adj.At(2, 1) != 1 {
		t.Errorf("Undirected edge: expected mirrored entries, got %v and %v", adj.At(1, 2), adj.At(2, 1))
	}
}

func TestWriteCSV(t *testing.T) {
	tables, err := Parse(buildTestExport())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "tables")
	if err := tables.WriteCSV(dir); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	for _, name := range []string{"nodes.csv", "edges.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Expected %s to exist: %v", name, err)
		}
		if info.Size() == 0 {
			t.Errorf("Expected %s to be non-empty", name)
		}
	}
}
