package graph

import (
	"fmt"
	"slices"
)

// NodeSet is a named, ordered collection of node IDs used as the source or
// target of an analysis.
type NodeSet struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	IDs         []string `json:"ids"`
}

// NewNodeSet creates a node set, dropping duplicate IDs while keeping the
// first occurrence.
func NewNodeSet(name, description string, ids []string) NodeSet {
	seen := make(map[string]bool, len(ids))
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	return NodeSet{Name: name, Description: description, IDs: uniq}
}

// Len returns the number of members.
func (s NodeSet) Len() int { return len(s.IDs) }

// Contains reports whether id is a member.
func (s NodeSet) Contains(id string) bool { return slices.Contains(s.IDs, id) }

// Validate checks that every member is a node of g.
func (s NodeSet) Validate(g *Graph) error {
	for _, id := range s.IDs {
		if !g.HasNode(id) {
			return fmt.Errorf("node set %q: %w: %s", s.Name, ErrNodeNotFound, id)
		}
	}
	return nil
}
