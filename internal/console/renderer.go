package console

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/angeloszaimis/sim-health/internal/healthcheck"
)

var (
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)  // green
	styleFail    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red
	styleSkip    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
	styleTarget  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))             // cyan
	styleDetail  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleHeading = lipgloss.NewStyle().Bold(true)
)

// Renderer writes one line per result followed by a summary.
type Renderer struct {
	w io.Writer
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Heading prints a title line.
func (r *Renderer) Heading(title string) error {
	_, err := fmt.Fprintln(r.w, styleHeading.Render(title))
	return err
}

// Result prints a single probe result.
func (r *Renderer) Result(result healthcheck.Result) error {
	_, err := fmt.Fprintln(r.w, line(result))
	return err
}

// Summary prints every result and a closing line. It returns the number of
// failed results.
func (r *Renderer) Summary(results []healthcheck.Result) (int, error) {
	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
		}
		if err := r.Result(result); err != nil {
			return failed, err
		}
	}

	var closing string
	if failed == 0 {
		closing = styleOK.Render("All health checks passed")
	} else {
		closing = styleFail.Render(fmt.Sprintf("%d of %d health checks failed", failed, len(results)))
	}

	_, err := fmt.Fprintln(r.w, closing)
	return failed, err
}

func line(result healthcheck.Result) string {
	target := styleTarget.Render(result.Target)

	switch {
	case result.Skipped:
		return fmt.Sprintf("%s %s %s", styleSkip.Render("SKIP"), target, styleDetail.Render("not configured"))
	case result.Healthy:
		return fmt.Sprintf("%s %s %s", styleOK.Render("OK  "), target, styleDetail.Render(latency(result.Latency)))
	default:
		detail := "unhealthy"
		if result.Err != nil {
			detail = result.Err.Error()
		}
		return fmt.Sprintf("%s %s %s", styleFail.Render("FAIL"), target, styleDetail.Render(detail))
	}
}

func latency(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
