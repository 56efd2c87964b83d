// Package neuron is the data-access layer for a single neuron's annotation
// graph: the annotation table (location, coordinate, radius) and the
// directed structural links between annotations. It supplies the inputs
// the skeleton tree builder consumes.
package neuron

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"neuromorph/internal/models"
)

// Neuron holds one neuron's annotation table and structural graph
type Neuron struct {
	// Name is the cell name used in export headers (e.g. "CBb5w 593")
	Name string

	// Source is the originating volume name, used for region lookup
	// in export headers
	Source string

	// SomaRadius is the separately tracked cell-body radius in microns.
	// When zero, consumers fall back to the radius of the root annotation.
	SomaRadius float64

	annotations []models.Annotation
	byID        map[int64]int
	g           *simple.DirectedGraph
}

// New creates an empty neuron with the given name
func New(name string) *Neuron {
	return &Neuron{
		Name: name,
		byID: make(map[int64]int),
		g:    simple.NewDirectedGraph(),
	}
}

// AddAnnotation adds one annotated location to the neuron
func (n *Neuron) AddAnnotation(a models.Annotation) error {
	if _, exists := n.byID[a.ID]; exists {
		return fmt.Errorf("duplicate annotation ID %d", a.ID)
	}
	n.byID[a.ID] = len(n.annotations)
	n.annotations = append(n.annotations, a)
	if n.g.Node(a.ID) == nil {
		n.g.AddNode(simple.Node(a.ID))
	}
	return nil
}

// AddLink records a directed structural link between two annotations.
// Both endpoints must already be in the annotation table.
func (n *Neuron) AddLink(parent, child int64) error {
	if _, ok := n.byID[parent]; !ok {
		return fmt.Errorf("link references unknown annotation %d", parent)
	}
	if _, ok := n.byID[child]; !ok {
		return fmt.Errorf("link references unknown annotation %d", child)
	}
	if parent == child {
		return fmt.Errorf("annotation %d links to itself", parent)
	}
	n.g.SetEdge(n.g.NewEdge(simple.Node(parent), simple.Node(child)))
	return nil
}

// Graph returns the directed structural graph, with node IDs equal to
// annotation location IDs
func (n *Neuron) Graph() graph.Directed {
	return n.g
}

// Annotation looks up one annotation by its location ID
func (n *Neuron) Annotation(id int64) (models.Annotation, bool) {
	row, ok := n.byID[id]
	if !ok {
		return models.Annotation{}, false
	}
	return n.annotations[row], true
}

// Annotations returns the annotation table in insertion order
func (n *Neuron) Annotations() []models.Annotation {
	return n.annotations
}

// NumAnnotations returns the size of the annotation table
func (n *Neuron) NumAnnotations() int {
	return len(n.annotations)
}

// fileFormat is the on-disk JSON schema for a neuron's annotation graph
type fileFormat struct {
	Name        string           `json:"name"`
	Source      string           `json:"source"`
	SomaRadius  float64          `json:"somaRadius"`
	Annotations []fileAnnotation `json:"annotations"`
	Links       [][2]int64       `json:"links"`
}

type fileAnnotation struct {
	ID     int64   `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Radius float64 `json:"radius"`
}

// Load reads a neuron annotation-graph file produced by the annotation
// database exporter
func Load(path string) (*Neuron, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read neuron file: %w", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("failed to decode neuron file %s: %w", path, err)
	}

	n := New(ff.Name)
	n.Source = ff.Source
	n.SomaRadius = ff.SomaRadius

	for _, fa := range ff.Annotations {
		a := models.Annotation{
			ID:    fa.ID,
			XYZum: [3]float64{fa.X, fa.Y, fa.Z},
			Rum:   fa.Radius,
		}
		if err := n.AddAnnotation(a); err != nil {
			return nil, fmt.Errorf("failed to load neuron %s: %w", path, err)
		}
	}
	for _, link := range ff.Links {
		if err := n.AddLink(link[0], link[1]); err != nil {
			return nil, fmt.Errorf("failed to load neuron %s: %w", path, err)
		}
	}
	return n, nil
}
