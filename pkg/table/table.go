// Package table holds tabular analysis results.
//
// A [Table] wraps a gota DataFrame with a small, error-returning API. Radiate
// rankings, trace summaries and node-set listings are all tables, so the
// spreadsheet exporter, JSON writer and terminal browser need to understand
// only one shape.
package table

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Kind is a column type.
type Kind string

// Column kinds. Values match gota's series types.
const (
	String Kind = Kind(series.String)
	Int    Kind = Kind(series.Int)
	Float  Kind = Kind(series.Float)
	Bool   Kind = Kind(series.Bool)
)

// Column describes one column of a table.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"type"`
}

var (
	// ErrNoColumns is returned when a table is built without columns.
	ErrNoColumns = errors.New("table: no columns")

	// ErrUnknownColumn is returned when an operation names a column the
	// table does not have.
	ErrUnknownColumn = errors.New("table: unknown column")

	// ErrRowWidth is returned when a row has the wrong number of cells.
	ErrRowWidth = errors.New("table: row width does not match columns")
)

// Table is an immutable column-typed table. Operations return new tables.
type Table struct {
	df dataframe.DataFrame
}

// FromRows builds a table. Each row must have one cell per column; nil
// cells become missing values.
func FromRows(columns []Column, rows [][]any) (*Table, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c.Name == "" || seen[c.Name] {
			return nil, fmt.Errorf("table: invalid or duplicate column name %q", c.Name)
		}
		seen[c.Name] = true
		switch c.Kind {
		case String, Int, Float, Bool:
		default:
			return nil, fmt.Errorf("table: column %s: unsupported type %q", c.Name, c.Kind)
		}
	}

	cells := make([][]any, len(columns))
	for i := range cells {
		cells[i] = make([]any, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRowWidth, r, len(row), len(columns))
		}
		for c, v := range row {
			cells[c][r] = v
		}
	}

	cols := make([]series.Series, len(columns))
	for i, c := range columns {
		cols[i] = series.New(cells[i], series.Type(c.Kind), c.Name)
		if err := cols[i].Err; err != nil {
			return nil, fmt.Errorf("table: column %s: %w", c.Name, err)
		}
	}
	return wrap(dataframe.New(cols...))
}

func wrap(df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("table: %w", df.Err)
	}
	return &Table{df: df}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.df.Nrow() }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return t.df.Names() }

// Schema returns column names with their kinds.
func (t *Table) Schema() []Column {
	names := t.df.Names()
	types := t.df.Types()
	out := make([]Column, len(names))
	for i := range names {
		out[i] = Column{Name: names[i], Kind: Kind(types[i])}
	}
	return out
}

// HasColumn reports whether the table has a column called name.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.df.Names(), name)
}

func (t *Table) requireColumns(names ...string) error {
	for _, n := range names {
		if !t.HasColumn(n) {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, n)
		}
	}
	return nil
}

// SortDesc orders rows by col, largest first. The sort is stable.
func (t *Table) SortDesc(col string) (*Table, error) {
	if err := t.requireColumns(col); err != nil {
		return nil, err
	}
	if t.Len() < 2 {
		return t, nil
	}
	return wrap(t.df.Arrange(dataframe.RevSort(col)))
}

// SortAsc orders rows by col, smallest first. The sort is stable.
func (t *Table) SortAsc(col string) (*Table, error) {
	if err := t.requireColumns(col); err != nil {
		return nil, err
	}
	if t.Len() < 2 {
		return t, nil
	}
	return wrap(t.df.Arrange(dataframe.Sort(col)))
}

// Head returns the first n rows. n <= 0 or n >= Len returns t.
func (t *Table) Head(n int) *Table {
	if n <= 0 || n >= t.Len() {
		return t
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return &Table{df: t.df.Subset(idx)}
}

// FilterEq keeps rows whose col equals value.
func (t *Table) FilterEq(col string, value any) (*Table, error) {
	if err := t.requireColumns(col); err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return t, nil
	}
	return wrap(t.df.Filter(dataframe.F{Colname: col, Comparator: series.Eq, Comparando: value}))
}

// FilterIn keeps rows whose string value in col is one of values.
func (t *Table) FilterIn(col string, values ...string) (*Table, error) {
	if err := t.requireColumns(col); err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return t, nil
	}
	return wrap(t.df.Filter(dataframe.F{Colname: col, Comparator: series.In, Comparando: values}))
}

// Select keeps the named columns in the given order.
func (t *Table) Select(cols ...string) (*Table, error) {
	if err := t.requireColumns(cols...); err != nil {
		return nil, err
	}
	return wrap(t.df.Select(cols))
}

// Floats returns col as float64 values; missing cells are NaN.
func (t *Table) Floats(col string) ([]float64, error) {
	if err := t.requireColumns(col); err != nil {
		return nil, err
	}
	return t.df.Col(col).Float(), nil
}

// Rows returns the cell values row by row. Missing cells are nil.
func (t *Table) Rows() [][]any {
	nr, nc := t.df.Dims()
	out := make([][]any, nr)
	for r := 0; r < nr; r++ {
		row := make([]any, nc)
		for c := 0; c < nc; c++ {
			row[c] = t.df.Elem(r, c).Val()
		}
		out[r] = row
	}
	return out
}

// Maps returns one map per row keyed by column name.
func (t *Table) Maps() []map[string]any {
	return t.df.Maps()
}

// String renders the table the way gota prints DataFrames.
func (t *Table) String() string { return t.df.String() }
