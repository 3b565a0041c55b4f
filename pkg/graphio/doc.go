// Package graphio provides JSON import and export for property graphs.
//
// # Overview
//
// The format is the node-link layout used by networkx and by the Lifelike
// application, so graphs exported by gds can be loaded by notebooks and
// vice versa. It is also the cache encoding for graphs loaded from the
// database.
//
// # JSON Format
//
//	{
//	  "directed": true,
//	  "multigraph": true,
//	  "graph": {"source": "neo4j://localhost"},
//	  "nodes": [
//	    {"id": "4:ab:1", "labels": ["Gene"], "properties": {"name": "lacZ"}},
//	    {"id": "4:ab:2", "labels": ["Protein"]}
//	  ],
//	  "links": [
//	    {"source": "4:ab:1", "target": "4:ab:2", "key": 0, "type": "ENCODES"}
//	  ]
//	}
//
// Each node must have an "id". Each link must reference existing node IDs
// through "source" and "target". Parallel links are allowed; their keys are
// reassigned on import in file order.
//
// # Determinism
//
// Export preserves node and edge insertion order, so exporting the same
// graph twice produces byte-identical output. The cache layer relies on this
// to hash graphs.
package graphio
