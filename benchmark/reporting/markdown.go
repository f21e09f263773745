// Package reporting renders engine benchmark results.
package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/macbase/macbase/benchmark/analysis"
)

// MarkdownReport writes a benchmark report in Markdown.
type MarkdownReport struct {
	w io.Writer
}

// NewMarkdownReport creates a new Markdown report writer.
func NewMarkdownReport(w io.Writer) *MarkdownReport {
	return &MarkdownReport{w: w}
}

// WriteHeader writes the report header.
func (r *MarkdownReport) WriteHeader(title string, now time.Time) {
	fmt.Fprintf(r.w, "# %s\n\n", title)
	fmt.Fprintf(r.w, "Generated: %s\n\n", now.Format(time.RFC3339))
}

// WriteMethodology writes the methodology section.
func (r *MarkdownReport) WriteMethodology(engine string, games, positions int) {
	fmt.Fprintln(r.w, "## Methodology")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Engine:** `%s`\n", engine)
	fmt.Fprintf(r.w, "- **Games:** %d\n", games)
	fmt.Fprintf(r.w, "- **Positions evaluated:** %d\n", positions)
	fmt.Fprintln(r.w, "- **Metric:** wall time of one primary evaluation, alone and under background load")
	fmt.Fprintln(r.w, "- **Statistical tests:** Mann-Whitney U, Cohen's d")
	fmt.Fprintln(r.w)
}

// Row is one line of the summary table.
type Row struct {
	Name    string
	Latency analysis.Latency
	Errors  int
}

// WriteSummaryTable writes the latency table in milliseconds.
func (r *MarkdownReport) WriteSummaryTable(rows []Row) {
	fmt.Fprintln(r.w, "## Summary")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Run | N | Mean | Median | P90 | P99 | Max | Errors |")
	fmt.Fprintln(r.w, "|-----|---|------|--------|-----|-----|-----|--------|")
	for _, row := range rows {
		l := row.Latency
		fmt.Fprintf(r.w, "| %s | %d | %s | %s | %s | %s | %s | %d |\n",
			row.Name, l.N, ms(l.Mean), ms(l.Median), ms(l.P90), ms(l.P99), ms(l.Max), row.Errors)
	}
	fmt.Fprintln(r.w)
}

// WriteComparison writes the comparison of two runs.
func (r *MarkdownReport) WriteComparison(c *analysis.Comparison) {
	fmt.Fprintf(r.w, "## %s vs %s\n\n", c.Baseline, c.Other)
	fmt.Fprintf(r.w, "- **Mean:** %s vs %s\n", ms(c.BaselineStats.Mean), ms(c.OtherStats.Mean))
	fmt.Fprintf(r.w, "- **Mann-Whitney U:** %.2f (z=%.2f, p=%.4f)\n", c.RankSum.U, c.RankSum.Z, c.RankSum.PValue)
	fmt.Fprintf(r.w, "- **Effect size (Cohen's d):** %.2f (%s)\n", c.Effect.CohensD, c.Effect.Interpretation)
	fmt.Fprintln(r.w)

	if c.RankSum.Significant && c.Effect.CohensD > 0 {
		fmt.Fprintf(r.w, "**%s** is significantly slower than %s (p < 0.05, effect size: %s).\n",
			c.Other, c.Baseline, c.Effect.Interpretation)
	} else {
		fmt.Fprintf(r.w, "No significant slowdown of %s over %s (p >= 0.05 or faster).\n", c.Other, c.Baseline)
	}
	fmt.Fprintln(r.w)
}

// WriteDistributionChart writes an ASCII histogram of a latency sample.
func (r *MarkdownReport) WriteDistributionChart(name string, sample []float64) {
	fmt.Fprintf(r.w, "### %s Distribution\n\n", name)
	fmt.Fprintln(r.w, "```")

	lo, width, hist := histogram(sample, 10)
	peak := 0
	for _, n := range hist {
		peak = max(peak, n)
	}
	for i, n := range hist {
		bar := 0
		if peak > 0 {
			bar = n * 40 / peak
		}
		from := lo + float64(i)*width
		fmt.Fprintf(r.w, "%8s │ %s %d\n", ms(from), strings.Repeat("█", bar), n)
	}

	fmt.Fprintln(r.w, "```")
	fmt.Fprintln(r.w)
}

// histogram buckets sample into equal-width bins starting at lo.
func histogram(sample []float64, buckets int) (lo, width float64, hist []int) {
	hist = make([]int, buckets)
	if len(sample) == 0 {
		return 0, 0, hist
	}

	lo, hi := sample[0], sample[0]
	for _, v := range sample {
		lo, hi = min(lo, v), max(hi, v)
	}
	width = (hi - lo) / float64(buckets)
	for _, v := range sample {
		b := buckets - 1
		if width > 0 {
			b = min(int((v-lo)/width), buckets-1)
		}
		hist[b]++
	}
	return lo, width, hist
}

// WriteFooter writes the report footer.
func (r *MarkdownReport) WriteFooter() {
	fmt.Fprintln(r.w, "---")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "*Report generated by macbase bench*")
}

func ms(seconds float64) string {
	return fmt.Sprintf("%.1fms", seconds*1000)
}
