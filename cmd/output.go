package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/ziadkadry99/trialrag/internal/trials"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	okColor      = color.New(color.FgGreen)
	missingColor = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.Faint)
)

// run tracks one user-facing flow from its start banner to its runtime line.
type run struct {
	name  string
	out   io.Writer
	start time.Time
}

func startRun(out io.Writer, name string) *run {
	headingColor.Fprintf(out, "\n\nStarting %s\n\n", name)
	return &run{name: name, out: out, start: time.Now()}
}

// inference prints the banner that separates indexing from questions.
func (r *run) inference() {
	headingColor.Fprintf(r.out, "\n\n\n%s\n", trials.InferenceBanner)
}

// answer prints one model answer followed by a blank line.
func (r *run) answer(text string) {
	fmt.Fprintf(r.out, "%s \n\n", text)
}

func (r *run) finish() {
	dimColor.Fprintf(r.out, "\n\n= = = = =\nThis is the end\nBeautiful friend\nThis is the end\nMy only friend, the end.  [The Doors, of course]\n")
	fmt.Fprintf(r.out, "--- Runtime: %.2f seconds ---\n", time.Since(r.start).Seconds())
}
