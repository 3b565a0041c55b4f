// Package pkg holds the gds libraries.
//
// # Overview
//
// gds runs graph data science analyses over a Lifelike knowledge graph: it
// loads a subgraph from Neo4j, traces shortest paths between node sets,
// ranks nodes by personalized PageRank around a source set, and exports
// the results as Sankey trace graphs, tables, spreadsheets and diagrams.
//
// # Architecture
//
//	Neo4j / JSON graph file
//	         ↓
//	    [graphdb] (load subgraph, resolve node sets)
//	         ↓
//	    [graph] (in-memory property multigraph)
//	         ↓
//	    [trace] / [radiate] (built on [algo])
//	         ↓
//	    [table], [export], [render/nodelink]
//	         ↓
//	    graph / json / xlsx / dot / svg artifacts
//
// [pipeline] orchestrates these stages with caching through [cache], and
// is shared by the CLI and the [server] HTTP API.
//
// # Quick Start
//
//	src, _ := graphdb.Open(ctx, graphdb.Config{URI: "bolt://localhost:7687"})
//	runner := pipeline.NewRunner(src, nil, nil, nil)
//	defer runner.Close(ctx)
//
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Analysis: pipeline.AnalysisRadiate,
//	    Sources:  pipeline.NodeSetSpec{Label: "Gene", Values: []string{"lacZ"}},
//	    Formats:  []string{pipeline.FormatJSON},
//	})
//
// # Supporting Packages
//
// [graphio] reads and writes node-link JSON. [config] layers defaults, a
// YAML or TOML file and GDS_* variables. [errors] defines coded errors
// shared by the CLI and the API. [observability] exposes hooks for
// metrics and tracing. [buildinfo] carries version information.
package pkg
