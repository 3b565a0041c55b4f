package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	gdstable "github.com/sbrg/gds/pkg/table"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorMuted)
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		sortBy  string
		columns string
		top     int
	)

	cmd := &cobra.Command{
		Use:   "browse [table]",
		Short: "Browse a ranked table (from radiate -f json) interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTable(args[0])
			if err != nil {
				return err
			}
			if sortBy != "" {
				if t, err = t.SortDesc(sortBy); err != nil {
					return err
				}
			}
			if cols := splitList(columns); len(cols) > 0 {
				if t, err = t.Select(cols...); err != nil {
					return err
				}
			}
			if top > 0 {
				t = t.Head(top)
			}
			if t.Len() == 0 {
				printInfo("Table is empty")
				return nil
			}

			final, err := tea.NewProgram(NewTableModel(args[0], t), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			if m, ok := final.(TableModel); ok && m.Selected >= 0 {
				printRow(m.Columns, m.Rows[m.Selected])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "", "sort descending by this column")
	cmd.Flags().StringVar(&columns, "columns", "", "only show these columns (comma-separated)")
	cmd.Flags().IntVar(&top, "top", 0, "only show the first n rows")
	return cmd
}

// =============================================================================
// TableModel - Interactive table browser
// =============================================================================

// TableModel is the bubbletea model for scrolling through a result table.
// Enter selects a row and quits.
type TableModel struct {
	Title    string
	Columns  []string
	Rows     [][]string
	Cursor   int
	Offset   int
	Height   int
	Selected int
}

// NewTableModel creates a table model with cells rendered as text.
func NewTableModel(title string, t *gdstable.Table) TableModel {
	m := TableModel{Title: title, Columns: t.Columns(), Height: 15, Selected: -1}
	for _, row := range t.Rows() {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		m.Rows = append(m.Rows, cells)
	}
	return m
}

func (m TableModel) Init() tea.Cmd {
	return nil
}

func (m TableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown", " ":
			m.move(m.Height)
		case "home", "g":
			m.move(-len(m.Rows))
		case "end", "G":
			m.move(len(m.Rows))
		case "enter":
			m.Selected = m.Cursor
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor by delta, clamped, and scrolls it into view.
func (m *TableModel) move(delta int) {
	m.Cursor = min(max(m.Cursor+delta, 0), len(m.Rows)-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m TableModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  pgup/pgdn page  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))
	headerStyle := lipgloss.NewStyle().Foreground(colorLabel).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers(append([]string{"#"}, m.Columns...)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case m.Offset+row == m.Cursor:
				return listSelectedStyle
			case col == 0:
				return listDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorText)
		})
	for i := m.Offset; i < end; i++ {
		t.Row(append([]string{strconv.Itoa(i + 1)}, m.Rows[i]...)...)
	}

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'g', 6, 64)
	case string:
		return v
	}
	return fmt.Sprint(v)
}

func printRow(columns, row []string) {
	for i, col := range columns {
		printKeyValue(col, row[i])
	}
}
