package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sbrg/gds/pkg/observability"
	"github.com/sbrg/gds/pkg/pipeline"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a status line while a graph loads or an analysis runs.
// The line reads "<frame> <message> · <stage> <elapsed>"; the stage is
// updated from pipeline events, see [Spinner.FollowPipeline].
type Spinner struct {
	out     io.Writer
	message string
	start   time.Time

	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once

	mu    sync.Mutex
	stage string
	width int // cells of the last frame drawn
}

// newSpinner creates a spinner on stderr that stops with ctx.
func newSpinner(ctx context.Context, message string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, message)
}

func newSpinnerTo(ctx context.Context, out io.Writer, message string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     out,
		message: message,
		parent:  ctx,
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.start = time.Now()
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// SetStage replaces the stage shown after the message.
func (s *Spinner) SetStage(stage string) {
	s.mu.Lock()
	s.stage = stage
	s.mu.Unlock()
}

// Stage returns the current stage.
func (s *Spinner) Stage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

func (s *Spinner) line(frame string) string {
	var b strings.Builder
	b.WriteString(styleSpinner.Render(frame) + " " + s.message)
	if s.stage != "" {
		b.WriteString(styleMuted.Render(" · " + s.stage))
	}
	b.WriteString(styleMuted.Render(" " + formatDuration(time.Since(s.start))))
	return b.String()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.line(frame)
	w := lipgloss.Width(l)
	// Pad over a longer previous frame.
	pad := max(s.width-w, 0)
	fmt.Fprintf(s.out, "\r%s%s", l, strings.Repeat(" ", pad))
	s.width = w
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
		s.width = 0
	}
}

// Stop ends the animation and clears the line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		if !s.start.IsZero() {
			<-s.stopped
		}
	})
}

// StopWithError stops the spinner and reports failure at the last stage.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	if stage := s.Stage(); stage != "" {
		message += " while " + stage
	}
	printError("%s", message)
}

// Cancelled reports whether the context the spinner was created with has
// ended, as on an interrupt.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}

// FollowPipeline shows pipeline stages on s until the returned function is
// called, which restores the previous pipeline hooks.
func (s *Spinner) FollowPipeline() (restore func()) {
	prev := observability.Pipeline()
	observability.SetPipelineHooks(stageHooks{s: s})
	return func() { observability.SetPipelineHooks(prev) }
}

// stageHooks turns pipeline events into spinner stages.
type stageHooks struct {
	observability.NoopPipelineHooks
	s *Spinner
}

func (h stageHooks) OnLoadStart(context.Context, string) {
	h.s.SetStage("loading graph")
}

func (h stageHooks) OnLoadComplete(_ context.Context, _ string, nodes, edges int, _ time.Duration, err error) {
	if err == nil {
		h.s.SetStage("loaded " + plural(nodes, "node") + ", " + plural(edges, "edge"))
	}
}

func (h stageHooks) OnAnalysisStart(_ context.Context, kind string, nodes int) {
	switch kind {
	case pipeline.AnalysisTrace:
		h.s.SetStage("tracing paths across " + plural(nodes, "node"))
	case pipeline.AnalysisRadiate:
		h.s.SetStage("ranking " + plural(nodes, "node"))
	default:
		h.s.SetStage("running " + kind)
	}
}

func (h stageHooks) OnRenderStart(_ context.Context, formats []string) {
	h.s.SetStage("rendering " + strings.Join(formats, ", "))
}
