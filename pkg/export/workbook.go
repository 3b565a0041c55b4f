// Package export writes analysis results to Excel workbooks.
//
// Each [table.Table] becomes one sheet with a bold, frozen header row and
// an auto filter, which is how Lifelike users expect to receive ranked node
// lists and trace summaries.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/sbrg/gds/pkg/graph"
	"github.com/sbrg/gds/pkg/table"
)

// Excel sheet name limits.
const (
	maxSheetName = 31
	minColWidth  = 8
	maxColWidth  = 60
	defaultSheet = "Sheet1"
)

// ErrClosed is returned when a closed workbook is used.
var ErrClosed = errors.New("export: workbook closed")

// Workbook accumulates sheets for a single .xlsx file.
type Workbook struct {
	f      *excelize.File
	sheets []string
	used   map[string]bool
	header int
}

// NewWorkbook creates an empty workbook. Until a table is added the
// workbook holds one blank sheet.
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#8EA9DB", Style: 1},
		},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("export: header style: %w", err)
	}
	return &Workbook{f: f, used: make(map[string]bool), header: style}, nil
}

// Sheets returns the names of the sheets added so far.
func (w *Workbook) Sheets() []string { return w.sheets }

// AddTable writes t to a new sheet and returns the sheet name actually
// used after sanitising and de-duplication.
func (w *Workbook) AddTable(name string, t *table.Table) (string, error) {
	if w.f == nil {
		return "", ErrClosed
	}
	sheet := w.uniqueName(SanitizeSheetName(name))

	if len(w.sheets) == 0 {
		if err := w.f.SetSheetName(defaultSheet, sheet); err != nil {
			return "", fmt.Errorf("export: rename sheet: %w", err)
		}
	} else if _, err := w.f.NewSheet(sheet); err != nil {
		return "", fmt.Errorf("export: new sheet %s: %w", sheet, err)
	}
	w.sheets = append(w.sheets, sheet)
	w.used[strings.ToLower(sheet)] = true

	if err := w.writeTable(sheet, t); err != nil {
		return "", fmt.Errorf("export: sheet %s: %w", sheet, err)
	}
	return sheet, nil
}

func (w *Workbook) writeTable(sheet string, t *table.Table) error {
	cols := t.Columns()
	widths := make([]int, len(cols))

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
		widths[i] = utf8.RuneCountInString(c)
	}
	if err := w.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	rows := t.Rows()
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		for i, v := range row {
			if v == nil {
				continue
			}
			widths[i] = max(widths[i], utf8.RuneCountInString(fmt.Sprint(v)))
		}
		if err := w.f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, w.header); err != nil {
		return err
	}
	for i, wd := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(sheet, name, name, float64(min(max(wd+2, minColWidth), maxColWidth))); err != nil {
			return err
		}
	}
	if err := w.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if len(rows) > 0 {
		end, err := excelize.CoordinatesToCellName(len(cols), len(rows)+1)
		if err != nil {
			return err
		}
		if err := w.f.AutoFilter(sheet, "A1:"+end, nil); err != nil {
			return err
		}
	}
	return nil
}

// AddNodeSets writes one sheet listing every member of sets with its
// display name and labels.
func (w *Workbook) AddNodeSets(g *graph.Graph, sets []graph.NodeSet, displayProp string) (string, error) {
	var rows [][]any
	for _, s := range sets {
		for _, id := range s.IDs {
			name, labels := id, ""
			if n, ok := g.Node(id); ok {
				name = n.DisplayName(displayProp)
				labels = strings.Join(n.Labels, ";")
			}
			rows = append(rows, []any{s.Name, id, name, labels})
		}
	}
	t, err := table.FromRows([]table.Column{
		{Name: "node_set", Kind: table.String},
		{Name: "id", Kind: table.String},
		{Name: "name", Kind: table.String},
		{Name: "labels", Kind: table.String},
	}, rows)
	if err != nil {
		return "", err
	}
	return w.AddTable("node sets", t)
}

// Summarizer is implemented by results that can describe themselves as a
// table, such as trace graphs.
type Summarizer interface {
	Summary() (*table.Table, error)
}

// AddTraceSummary writes s.Summary() to a sheet called name.
func (w *Workbook) AddTraceSummary(name string, s Summarizer) (string, error) {
	t, err := s.Summary()
	if err != nil {
		return "", err
	}
	return w.AddTable(name, t)
}

// Save writes the workbook to path.
func (w *Workbook) Save(path string) error {
	if w.f == nil {
		return ErrClosed
	}
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

// WriteTo writes the workbook in .xlsx format to dst.
func (w *Workbook) WriteTo(dst io.Writer) (int64, error) {
	if w.f == nil {
		return 0, ErrClosed
	}
	n, err := w.f.WriteTo(dst)
	if err != nil {
		return n, fmt.Errorf("export: write: %w", err)
	}
	return n, nil
}

// Close releases the workbook. It is safe to call more than once.
func (w *Workbook) Close() error {
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *Workbook) uniqueName(name string) string {
	if !w.used[strings.ToLower(name)] {
		return name
	}
	for i := 2; ; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		base := truncateRunes(name, maxSheetName-len(suffix))
		if cand := base + suffix; !w.used[strings.ToLower(cand)] {
			return cand
		}
	}
}

// SanitizeSheetName applies Excel's sheet naming rules: at most 31
// characters, none of []:*?/\ and no leading or trailing apostrophe.
// An empty result becomes "Sheet".
func SanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	name = strings.Trim(name, "' ")
	name = strings.Trim(truncateRunes(name, maxSheetName), "' ")
	if name == "" {
		return "Sheet"
	}
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
