package devtree

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tree is an immutable in-memory snapshot of the static configuration
// nodes. It is safe for concurrent lookups.
type Tree struct {
	nodes map[string]map[string][]byte
}

// treeFile is the YAML schema for a configuration tree file.
type treeFile struct {
	Nodes map[string]map[string]string `yaml:"nodes"`
}

// Load reads a configuration tree from a YAML file.
func Load(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading device tree: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing device tree %s: %w", path, err)
	}
	return t, nil
}

// Parse builds a Tree from YAML bytes.
func Parse(data []byte) (*Tree, error) {
	var file treeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshalling device tree: %w", err)
	}

	nodes := make(map[string]map[string][]byte, len(file.Nodes))
	for path, props := range file.Nodes {
		converted := make(map[string][]byte, len(props))
		for key, value := range props {
			// Stored string properties carry a trailing NUL.
			converted[key] = append([]byte(value), 0)
		}
		nodes[path] = converted
	}

	return &Tree{nodes: nodes}, nil
}

// LookupProperty returns the raw stored bytes of a property beneath a node.
// It implements retimer.PropertySource.
func (t *Tree) LookupProperty(node, key string) ([]byte, bool) {
	props, ok := t.nodes[node]
	if !ok {
		return nil, false
	}
	value, ok := props[key]
	if !ok {
		return nil, false
	}
	// Copy so callers cannot mutate the snapshot.
	out := make([]byte, len(value))
	copy(out, value)
	return out, true
}

// HasNode reports whether the tree contains the given node path.
func (t *Tree) HasNode(node string) bool {
	_, ok := t.nodes[node]
	return ok
}

// NodeCount returns the number of nodes in the tree.
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}
