package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sbrg/gds/pkg/pipeline"
	"github.com/sbrg/gds/pkg/render/nodelink"
	"github.com/sbrg/gds/pkg/trace"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output          string   // output file path (or base path for multiple outputs)
	formats         []string // output formats: "dot", "svg"
	detailed        bool     // show labels and properties in node labels
	displayProperty string   // node property used as label
}

// renderCommand creates the render command, which draws a saved Sankey
// trace graph as a node-link diagram.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{displayProperty: pipeline.DefaultDisplayProperty}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a trace graph (from trace -f graph) to DOT or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = splitList(formatsStr)
			if len(opts.formats) == 0 {
				opts.formats = []string{pipeline.FormatSVG}
			}
			for _, f := range opts.formats {
				if f != pipeline.FormatDOT && f != pipeline.FormatSVG {
					return fmt.Errorf("invalid format: %s (must be 'dot' or 'svg')", f)
				}
			}
			return c.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show labels and properties in nodes")
	cmd.Flags().StringVar(&opts.displayProperty, "display-property", opts.displayProperty, "node property used as label")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	logger.Infof("Rendering %s", input)

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	tg, err := trace.ReadSankey(f)
	f.Close()
	if err != nil {
		return err
	}
	tg.DisplayProperty = opts.displayProperty
	logger.Infof("Loaded trace graph: %d nodes, %d edges, %d networks",
		tg.Graph.NodeCount(), tg.Graph.EdgeCount(), len(tg.Networks))

	nl := nodelink.Options{DisplayProperty: opts.displayProperty}
	if len(tg.Networks) > 0 {
		nl = nodelink.ForTrace(tg)
	}
	nl.Detailed = opts.detailed
	dot := nodelink.ToDOT(tg.Graph, nl)

	for _, format := range opts.formats {
		data := []byte(dot)
		if format == pipeline.FormatSVG {
			if data, err = nodelink.RenderSVG(ctx, dot); err != nil {
				return err
			}
		}
		path := renderPath(opts.output, input, format, len(opts.formats) > 1)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// renderPath derives an output path. Without -o the input name is reused
// with the format extension; with several formats -o is a base path.
func renderPath(output, input, format string, multiple bool) string {
	if output != "" && !multiple {
		return output
	}
	base := output
	if base == "" {
		base = strings.TrimSuffix(input, ".json")
		base = strings.TrimSuffix(base, ".graph")
	} else if ext := filepath.Ext(base); ext == ".svg" || ext == ".dot" {
		base = strings.TrimSuffix(base, ext)
	}
	return base + "." + format
}
