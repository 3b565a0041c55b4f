package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"strings"

	gdserrors "github.com/sbrg/gds/pkg/errors"
	"github.com/sbrg/gds/pkg/graph"
	"github.com/sbrg/gds/pkg/graphdb"
)

// NodeSetSpec describes a node set either by explicit node IDs or by
// property values matched against nodes with a label.
type NodeSetSpec struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Label       string   `json:"label,omitempty"`    // empty matches any label
	Property    string   `json:"property,omitempty"` // default "name"
	Values      []string `json:"values,omitempty"`
	IDs         []string `json:"ids,omitempty"`
}

// Validate checks the spec and fills in the default property.
func (s *NodeSetSpec) Validate() error {
	if err := gdserrors.ValidateName("node set name", s.Name); err != nil {
		return err
	}
	if len(s.IDs) > 0 {
		if len(s.Values) > 0 {
			return gdserrors.New(gdserrors.ErrCodeInvalidNodeSet, "node set %q: ids and values are exclusive", s.Name)
		}
		return nil
	}
	if s.Property == "" {
		s.Property = DefaultMatchProperty
	}
	if !graphdb.ValidIdentifier(s.Property) || (s.Label != "" && !graphdb.ValidIdentifier(s.Label)) {
		return gdserrors.New(gdserrors.ErrCodeInvalidIdentifier,
			"node set %q: label and property must be identifiers", s.Name)
	}
	return gdserrors.ValidateValues(s.Name, s.Values)
}

// ParseNodeSetSpec parses the command line form of a node set:
//
//	Gene:name=lacZ,lacY    label Gene, property name
//	:name=lacZ             any label
//	Gene=lacZ              default property
//	Gene:name=@genes.txt   values read from a file, one per line
//	@genes.txt             any label, default property, values from a file
//	id:4:abc:1,4:abc:2     explicit node IDs
func ParseNodeSetSpec(name, s string) (NodeSetSpec, error) {
	spec := NodeSetSpec{Name: name}
	s = strings.TrimSpace(s)

	switch {
	case s == "":
		return spec, gdserrors.New(gdserrors.ErrCodeInvalidNodeSet, "node set %q: empty spec", name)
	case strings.HasPrefix(s, "id:"):
		spec.IDs = splitList(strings.TrimPrefix(s, "id:"))
		if len(spec.IDs) == 0 {
			return spec, gdserrors.New(gdserrors.ErrCodeInvalidNodeSet, "node set %q: no ids", name)
		}
		return spec, nil
	case strings.HasPrefix(s, "@"):
		values, err := readValues(s[1:])
		spec.Values = values
		return spec, err
	}

	selector, values, ok := strings.Cut(s, "=")
	if !ok {
		return spec, gdserrors.New(gdserrors.ErrCodeInvalidNodeSet,
			"node set %q: expected label:property=values, got %q", name, s)
	}
	spec.Label, spec.Property, _ = strings.Cut(selector, ":")
	if strings.HasPrefix(values, "@") {
		v, err := readValues(values[1:])
		spec.Values = v
		return spec, err
	}
	spec.Values = splitList(values)
	return spec, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// readValues reads one value per line, skipping blank lines and lines
// starting with '#'.
func readValues(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gdserrors.Wrap(gdserrors.ErrCodeInvalidPath, err, "read node set values")
	}
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

// ResolveNodeSet turns spec into a node set of g. Value specs are matched
// through the source, then restricted to nodes present in g. Values with
// no node are returned as unmatched; an empty result is an error.
func (r *Runner) ResolveNodeSet(ctx context.Context, g *graph.Graph, spec NodeSetSpec) (graph.NodeSet, []string, error) {
	if err := spec.Validate(); err != nil {
		return graph.NodeSet{}, nil, err
	}

	var ids, unmatched []string
	if len(spec.IDs) > 0 {
		for _, id := range spec.IDs {
			if g.HasNode(id) {
				ids = append(ids, id)
			} else {
				unmatched = append(unmatched, id)
			}
		}
	} else {
		matched, missing, err := r.Source.MatchNodes(ctx, spec.Label, spec.Property, spec.Values)
		if err != nil {
			return graph.NodeSet{}, nil, gdserrors.Wrap(gdserrors.ErrCodeDatabase, err, "match node set %q", spec.Name)
		}
		unmatched = missing
		for _, id := range matched {
			if g.HasNode(id) {
				ids = append(ids, id)
			}
		}
	}

	if len(unmatched) > 0 {
		r.Logger.Warn("unmatched node set values", "set", spec.Name, "count", len(unmatched), "values", unmatched)
	}
	if len(ids) == 0 {
		return graph.NodeSet{}, unmatched, gdserrors.New(gdserrors.ErrCodeNodeNotFound,
			"node set %q matched no nodes in the loaded graph", spec.Name)
	}
	return graph.NewNodeSet(spec.Name, spec.Description, ids), unmatched, nil
}
