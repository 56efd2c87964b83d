// Package connectivity parses raw network exports from the annotation
// database into normalized node and edge tables suitable for
// adjacency-matrix construction and downstream link queries.
package connectivity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Export is the decoded in-memory representation of a network export file.
// The exporter emits a single top-level graph object; node- and edge-scoped
// values live under dynamically keyed property mappings.
type Export struct {
	Graph Graph `json:"graph"`
}

// Graph holds the export header counts, the flat edge index list and the
// per-property value mappings.
type Graph struct {
	// NodesNumber and EdgesNumber are the counts declared by the exporter.
	// They are used for a consistency check against the parsed tables,
	// never as the source of truth.
	NodesNumber int `json:"nodesNumber"`
	EdgesNumber int `json:"edgesNumber"`

	// Edges is the exporter's flat list of 0-based node index pairs
	Edges [][2]int `json:"edges"`

	Properties Properties `json:"properties"`
}

// Properties groups the per-node and per-edge value mappings by property name
type Properties struct {
	// ID maps node UUID to the cell/structure identifier string
	ID ValueSet `json:"ID"`

	// ViewLabel maps node and edge UUIDs to their display labels
	ViewLabel ValueSet `json:"viewLabel"`

	// LinkedStructures maps edge UUID to the parent-ID pair text blob
	LinkedStructures ValueSet `json:"LinkedStructures"`

	// Source and Target map edge UUID to the node UUID at each endpoint
	Source ValueSet `json:"Source"`
	Target ValueSet `json:"Target"`

	// EdgeType maps edge UUID to the link-type label
	EdgeType ValueSet `json:"edgeType"`

	// Directional maps edge UUID to the string "True" for directed links
	Directional ValueSet `json:"Directional"`

	// IsLoop is a membership set: an edge UUID present here belongs to a
	// loop; absence means false for all edges
	IsLoop ValueSet `json:"IsLoop"`
}

// ValueSet carries the node-scoped and edge-scoped values of one property
type ValueSet struct {
	NodesValues OrderedValues `json:"nodesValues"`
	EdgesValues OrderedValues `json:"edgesValues"`
}

// OrderedValues is a UUID-to-value mapping that preserves the key order of
// the source document. Table row order follows encounter order, so two
// parses of the same export always produce identical tables.
type OrderedValues struct {
	keys   []string
	values map[string]string
}

// NewOrderedValues builds an OrderedValues from alternating key/value pairs,
// primarily for constructing exports in tests
func NewOrderedValues(pairs ...string) OrderedValues {
	ov := OrderedValues{values: make(map[string]string)}
	for i := 0; i+1 < len(pairs); i += 2 {
		ov.Set(pairs[i], pairs[i+1])
	}
	return ov
}

// Set appends or replaces a key/value pair
func (ov *OrderedValues) Set(key, value string) {
	if ov.values == nil {
		ov.values = make(map[string]string)
	}
	if _, ok := ov.values[key]; !ok {
		ov.keys = append(ov.keys, key)
	}
	ov.values[key] = value
}

// Get returns the value for key and whether it was present
func (ov OrderedValues) Get(key string) (string, bool) {
	v, ok := ov.values[key]
	return v, ok
}

// Has reports whether key is present, for membership-set properties
func (ov OrderedValues) Has(key string) bool {
	_, ok := ov.values[key]
	return ok
}

// Keys returns the keys in document order
func (ov OrderedValues) Keys() []string {
	return ov.keys
}

// Len returns the number of entries
func (ov OrderedValues) Len() int {
	return len(ov.keys)
}

// UnmarshalJSON decodes a JSON object while preserving key order.
// Scalar values of any JSON type are normalized to strings, matching the
// exporter's habit of writing numbers and booleans without quoting.
func (ov *OrderedValues) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	ov.keys = nil
	ov.values = make(map[string]string)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		ov.Set(key, tokenToString(valTok))
	}

	// Consume the closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the mapping back to a JSON object in document order
func (ov OrderedValues) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, key := range ov.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(ov.values[key])
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

// tokenToString normalizes a decoded JSON scalar to its string form
func tokenToString(tok json.Token) string {
	switch v := tok.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// DecodeFile reads and decodes a serialized export file into the in-memory
// representation consumed by Parse
func DecodeFile(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}

	exp := &Export{}
	if err := json.Unmarshal(data, exp); err != nil {
		return nil, &FormatError{File: path, Entity: "export", Reason: err.Error()}
	}
	return exp, nil
}
