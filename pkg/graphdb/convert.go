package graphdb

import (
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/sbrg/gds/pkg/graph"
)

// NodeFromDriver converts a driver node, keyed by its element ID.
func NodeFromDriver(n neo4j.Node) graph.Node {
	return graph.Node{
		ID:     n.ElementId,
		Labels: append([]string(nil), n.Labels...),
		Props:  convertProps(n.Props),
	}
}

// EdgeFromDriver converts a driver relationship between element IDs.
func EdgeFromDriver(r neo4j.Relationship) graph.Edge {
	return graph.Edge{
		From:  r.StartElementId,
		To:    r.EndElementId,
		Type:  r.Type,
		Props: convertProps(r.Props),
	}
}

func convertProps(in map[string]any) graph.Properties {
	out := make(graph.Properties, len(in))
	for k, v := range in {
		out[k] = convertValue(v)
	}
	return out
}

// convertValue makes driver values JSON friendly: temporal and spatial
// types become strings.
func convertValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = convertValue(e)
		}
		return out
	case map[string]any:
		return map[string]any(convertProps(x))
	case fmt.Stringer:
		return x.String()
	}
	return v
}

func recordValue[T neo4j.RecordValue](rec *neo4j.Record, key string) (T, error) {
	v, isNil, err := neo4j.GetRecordValue[T](rec, key)
	if err != nil {
		return v, fmt.Errorf("graphdb: record key %s: %w", key, err)
	}
	if isNil {
		return v, fmt.Errorf("graphdb: record key %s: %w", key, ErrNilValue)
	}
	return v, nil
}
