package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nemanja-m/lapreduce/pkg/core"
)

const rule = "=================================================="

// Console renders reduction outcomes as a human-readable banner.
type Console struct {
	w       io.Writer
	title   string
	verbose bool
}

// NewConsole writes to w. When verbose, one line per partition precedes
// the summary.
func NewConsole(w io.Writer, title string, verbose bool) *Console {
	return &Console{w: w, title: title, verbose: verbose}
}

func (c *Console) Report(r core.Report) error {
	var b strings.Builder

	if c.verbose {
		for i, p := range r.Partitions {
			fmt.Fprintf(&b, "Partition %d processed %s (%d laps): min %.2f, max %.2f\n",
				p.Index, p.Name, len(p.Samples), r.Locals[i].Min, r.Locals[i].Max)
		}
	}

	c.header(&b)
	fmt.Fprintf(&b, "Overall Fastest Lap Time (Min): %.2f seconds\n", r.Extrema.Min)
	fmt.Fprintf(&b, "Overall Slowest Lap Time (Max): %.2f seconds\n", r.Extrema.Max)
	fmt.Fprintf(&b, "Laps Analysed                 : %d in %d partitions\n", r.Samples, len(r.Partitions))
	fmt.Fprintf(&b, "Total Execution Time          : %f seconds\n", r.Elapsed.Seconds())
	fmt.Fprintf(&b, "Peak Memory Usage             : %d KB\n", r.PeakMemoryKB)
	b.WriteString(rule + "\n")

	_, err := io.WriteString(c.w, b.String())
	return err
}

func (c *Console) Fail(err error) error {
	var b strings.Builder

	c.header(&b)
	fmt.Fprintf(&b, "Analysis failed               : %s\n", core.KindOf(err))
	if idx, ok := core.PartitionOf(err); ok {
		fmt.Fprintf(&b, "Partition                     : %d\n", idx)
	}
	fmt.Fprintf(&b, "Error                         : %v\n", err)
	b.WriteString(rule + "\n")

	_, werr := io.WriteString(c.w, b.String())
	return werr
}

func (c *Console) header(b *strings.Builder) {
	b.WriteString("\n" + rule + "\n")
	fmt.Fprintf(b, "       %s\n", c.title)
	b.WriteString(rule + "\n")
}
