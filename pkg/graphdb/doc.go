// Package graphdb loads property graphs from Neo4j.
//
// A [Client] wraps the Neo4j Go driver. A [Loader] turns Cypher results into
// a [graph.Graph], keying nodes by their element ID. Labels, relationship
// types and property names are validated and back-tick quoted before they
// reach a query; filter values are always passed as parameters.
//
// Analyses do not depend on Neo4j directly. They take a [Source], which is
// either a database ([DBSource]) or a node-link JSON file ([FileSource]).
package graphdb

import "errors"

var (
	// ErrNoURI is returned when no database URI is configured.
	ErrNoURI = errors.New("no database URI configured")

	// ErrInvalidIdentifier is returned for labels, types or property names
	// that are not plain identifiers.
	ErrInvalidIdentifier = errors.New("graphdb: invalid identifier")

	// ErrNilValue is returned when a record holds null where a node or
	// relationship is expected.
	ErrNilValue = errors.New("graphdb: unexpected null value")
)
