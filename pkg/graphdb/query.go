package graphdb

import (
	"fmt"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s can be used as a label, relationship
// type or property name.
func ValidIdentifier(s string) bool { return identifier.MatchString(s) }

func quote(names ...string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		if !ValidIdentifier(n) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, n)
		}
		out[i] = "`" + n + "`"
	}
	return out, nil
}

// labelPredicate returns "(v:`A` OR v:`B`)" or "" when labels is empty.
func labelPredicate(v string, labels []string) (string, error) {
	q, err := quote(labels...)
	if err != nil || len(q) == 0 {
		return "", err
	}
	parts := make([]string, len(q))
	for i, l := range q {
		parts[i] = v + ":" + l
	}
	return "(" + strings.Join(parts, " OR ") + ")", nil
}

// NodesQuery returns all nodes carrying any of labels (every node when
// labels is empty), ordered by element ID.
func NodesQuery(labels []string, limit int) (string, map[string]any, error) {
	pred, err := labelPredicate("n", labels)
	if err != nil {
		return "", nil, err
	}
	var b strings.Builder
	b.WriteString("MATCH (n)")
	if pred != "" {
		b.WriteString(" WHERE " + pred)
	}
	b.WriteString(" RETURN n ORDER BY elementId(n)")
	params := map[string]any{}
	if limit > 0 {
		b.WriteString(" LIMIT $limit")
		params["limit"] = limit
	}
	return b.String(), params, nil
}

// RelationshipsQuery returns relationships of the given types (any type
// when empty) whose endpoints both carry one of labels.
func RelationshipsQuery(labels, types []string, limit int) (string, map[string]any, error) {
	qt, err := quote(types...)
	if err != nil {
		return "", nil, err
	}
	var b strings.Builder
	b.WriteString("MATCH (a)-[r")
	if len(qt) > 0 {
		b.WriteString(":" + strings.Join(qt, "|"))
	}
	b.WriteString("]->(b)")

	pa, err := labelPredicate("a", labels)
	if err != nil {
		return "", nil, err
	}
	if pa != "" {
		pb, _ := labelPredicate("b", labels)
		b.WriteString(" WHERE " + pa + " AND " + pb)
	}
	b.WriteString(" RETURN r ORDER BY elementId(r)")
	params := map[string]any{}
	if limit > 0 {
		b.WriteString(" LIMIT $limit")
		params["limit"] = limit
	}
	return b.String(), params, nil
}

// MatchQuery finds nodes with label whose property, compared as a string,
// is one of $values. Numeric values also match the other spellings listed
// by [valueAliases], so "1" finds a node whose property is the float 1.0.
func MatchQuery(label, property string, values []string) (string, map[string]any, error) {
	q, err := quote(label, property)
	if err != nil {
		return "", nil, err
	}
	cypher := fmt.Sprintf(
		"MATCH (n:%s) WHERE toString(n.%s) IN $values RETURN elementId(n) AS id, toString(n.%s) AS value ORDER BY id",
		q[0], q[1], q[1],
	)
	return cypher, map[string]any{"values": withAliases(values, valueAliases(values))}, nil
}

// valueAliases maps the alternate spellings of each numeric value to the
// value as given. Cypher prints the float 1.0 as "1.0" while graph
// properties print it as "1", and integral floats below 1e7 are the ones
// where the two differ. Values given explicitly are never aliased.
func valueAliases(values []string) map[string]string {
	given := make(map[string]bool, len(values))
	for _, v := range values {
		given[v] = true
	}
	aliases := make(map[string]string)
	for _, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			continue
		}
		short := strconv.FormatFloat(f, 'f', -1, 64)
		spellings := []string{short}
		if f == math.Trunc(f) && math.Abs(f) < 1e7 {
			spellings = append(spellings, short+".0")
		}
		for _, alt := range spellings {
			if _, taken := aliases[alt]; !given[alt] && !taken {
				aliases[alt] = v
			}
		}
	}
	return aliases
}

func withAliases(values []string, aliases map[string]string) []string {
	if len(aliases) == 0 {
		return values
	}
	return append(slices.Clone(values), slices.Sorted(maps.Keys(aliases))...)
}

// resolveAlias returns the given value an alias stands for, or v itself.
func resolveAlias(aliases map[string]string, v string) string {
	if given, ok := aliases[v]; ok {
		return given
	}
	return v
}
