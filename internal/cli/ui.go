package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sbrg/gds/pkg/pipeline"
)

// Palette, by role.
var (
	colorAccent = lipgloss.Color("36")  // teal: titles, spinner
	colorOK     = lipgloss.Color("35")  // green
	colorWarn   = lipgloss.Color("220") // amber
	colorFail   = lipgloss.Color("167") // soft red
	colorLink   = lipgloss.Color("75")  // light blue: commands, addresses
	colorText   = lipgloss.Color("255")
	colorLabel  = lipgloss.Color("245") // keys, table headers
	colorMuted  = lipgloss.Color("240")
)

var (
	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleLink  = lipgloss.NewStyle().Foreground(colorLink).Underline(true)
	styleMuted = lipgloss.NewStyle().Foreground(colorMuted)
	styleValue = lipgloss.NewStyle().Foreground(colorText)
	styleLabel = lipgloss.NewStyle().Foreground(colorLabel)

	styleOK      = lipgloss.NewStyle().Foreground(colorOK)
	styleWarn    = lipgloss.NewStyle().Foreground(colorWarn)
	styleFail    = lipgloss.NewStyle().Foreground(colorFail)
	styleSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleCommand = lipgloss.NewStyle().Foreground(colorLink)
)

// maxUnmatchedShown caps the node set values listed by printUnmatched.
const maxUnmatchedShown = 5

func status(icon string, style lipgloss.Style, msg string) {
	fmt.Println(style.Render(icon) + " " + msg)
}

func printSuccess(format string, args ...any) {
	status("✓", styleOK, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	status("✗", styleFail, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	status("!", styleWarn, styleWarn.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	status("›", styleLabel, fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + styleMuted.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Println("  " + styleMuted.Render("→") + " " + styleValue.Render(path))
}

func printNextStep(description, cmd string) {
	fmt.Println(styleMuted.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() { fmt.Println() }

// printUnmatched warns about node set values that matched no node.
func printUnmatched(values []string) {
	if len(values) == 0 {
		return
	}
	printWarning("No node for %d value(s): %s", len(values), listShort(values, maxUnmatchedShown))
}

// listShort joins at most n values and counts the rest.
func listShort(values []string, n int) string {
	if len(values) <= n {
		return strings.Join(values, ", ")
	}
	return strings.Join(values[:n], ", ") + fmt.Sprintf(" and %d more", len(values)-n)
}

// printFacts prints short facts on one muted line separated by dots.
// Facts may carry their own styling.
func printFacts(facts ...string) {
	var b strings.Builder
	b.WriteString("  ")
	for i, f := range facts {
		if i > 0 {
			b.WriteString(styleMuted.Render(" · "))
		}
		b.WriteString(f)
	}
	fmt.Println(b.String())
}

func graphFacts(nodes, edges int) []string {
	return []string{
		styleMuted.Render(plural(nodes, "node")),
		styleMuted.Render(plural(edges, "edge")),
	}
}

// runFacts describes a finished analysis: graph size, the time spent per
// stage and whether the artifacts came from the cache.
func runFacts(s pipeline.Stats, cached bool) []string {
	facts := graphFacts(s.NodeCount, s.EdgeCount)
	for _, st := range []struct {
		name string
		d    time.Duration
	}{
		{"load", s.LoadTime},
		{"analysis", s.AnalysisTime},
		{"render", s.RenderTime},
	} {
		if st.d > 0 {
			facts = append(facts, styleMuted.Render(st.name+" "+formatDuration(st.d)))
		}
	}
	return append(facts, cacheFact(cached))
}

func cacheFact(hit bool) string {
	if hit {
		return styleOK.Render("cached")
	}
	return styleLabel.Render("fresh")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

// formatDuration rounds d for display: milliseconds below one second,
// tenths of a second above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// printCounts prints a titled block of right-aligned counts.
func printCounts(title string, counts []keyCount) {
	fmt.Println(styleTitle.Render(title))
	if len(counts) == 0 {
		printDetail("none")
		return
	}
	keyWidth, numWidth := 0, 0
	for _, kc := range counts {
		keyWidth = max(keyWidth, lipgloss.Width(kc.key))
		numWidth = max(numWidth, len(strconv.Itoa(kc.n)))
	}
	key := styleLabel.Width(keyWidth + 2)
	num := styleValue.Width(numWidth).Align(lipgloss.Right)
	for _, kc := range counts {
		fmt.Println("  " + key.Render(kc.key) + num.Render(strconv.Itoa(kc.n)))
	}
}

// printKeyValue prints one labeled value, as in the browse detail view.
func printKeyValue(key, value string) {
	fmt.Println(styleLabel.Width(16).Render(key) + " " + styleValue.Render(value))
}
