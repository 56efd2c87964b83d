package connectivity

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteCSV dumps the node and edge tables to nodes.csv and edges.csv in
// dir, for inspection in spreadsheet tools. The directory is created if
// it does not exist.
func (t *Tables) WriteCSV(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create table directory: %w", err)
	}

	nodeRows := make([][]string, 0, len(t.Nodes)+1)
	nodeRows = append(nodeRows, []string{"CellID", "NodeLabel", "NodeUUID"})
	for _, n := range t.Nodes {
		nodeRows = append(nodeRows, []string{
			strconv.FormatFloat(n.CellID, 'g', -1, 64),
			n.Label,
			n.UUID,
		})
	}
	if err := writeCSVFile(filepath.Join(dir, "nodes.csv"), nodeRows); err != nil {
		return err
	}

	edgeRows := make([][]string, 0, len(t.Edges)+1)
	edgeRows = append(edgeRows, []string{
		"Source", "Target", "Directional", "Loop", "EdgeName",
		"ParentA", "ParentB", "EdgeType", "EdgeUUID",
	})
	for _, e := range t.Edges {
		edgeRows = append(edgeRows, []string{
			strconv.Itoa(e.Source),
			strconv.Itoa(e.Target),
			strconv.FormatBool(e.Directional),
			strconv.FormatBool(e.Loop),
			e.Name,
			strconv.FormatFloat(e.ParentIDs[0], 'g', -1, 64),
			strconv.FormatFloat(e.ParentIDs[1], 'g', -1, 64),
			e.Type,
			e.UUID,
		})
	}
	return writeCSVFile(filepath.Join(dir, "edges.csv"), edgeRows)
}

// writeCSVFile writes rows to path, flushing and closing on every path
func writeCSVFile(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
