package connectivity

import "gonum.org/v1/gonum/mat"

// AdjacencyMatrix builds the dense adjacency matrix of the parsed graph.
// Entry (i, j) counts the edges from node row i to node row j; undirected
// edges contribute to both orientations. Self-loops land on the diagonal.
func (t *Tables) AdjacencyMatrix() *mat.Dense {
	n := len(t.Nodes)
	if n == 0 {
		return &mat.Dense{}
	}

	m := mat.NewDense(n, n, nil)
	for _, e := range t.Edges {
		m.Set(e.Source, e.Target, m.At(e.Source, e.Target)+1)
		if !e.Directional && e.Source != e.Target {
			m.Set(e.Target, e.Source, m.At(e.Target, e.Source)+1)
		}
	}
	return m
}
