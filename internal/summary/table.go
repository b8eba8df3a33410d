package summary

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/lehigh-university-libraries/firstedition/internal/resolver"
	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if IsTerminal(w) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
		tw.Style().Options.DrawBorder = false
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw
}

// Render writes the run totals as a two-column table.
func (s *Summary) Render(w io.Writer) {
	tw := newTable(w)
	tw.SetTitle(fmt.Sprintf("%s run %s", s.Config.Command, s.Config.RunID))
	tw.AppendHeader(table.Row{"Metric", "Count"})
	tw.AppendRows([]table.Row{
		{"total", s.Counts.Total},
		{"processed", s.Counts.Processed},
		{"skipped (already done)", s.Counts.Skipped},
		{"malformed", s.Counts.Malformed},
		{"incomplete", s.Counts.Incomplete},
		{"errors", s.Counts.Errors},
	})
	if len(s.Counts.Outcomes) > 0 {
		tw.AppendSeparator()
		for _, k := range outcomeOrder(s.Counts.Outcomes) {
			tw.AppendRow(table.Row{"outcome: " + k, s.Counts.Outcomes[k]})
		}
	}
	if len(s.Counts.Strategies) > 0 {
		tw.AppendSeparator()
		for _, k := range sortedKeys(s.Counts.Strategies) {
			tw.AppendRow(table.Row{"strategy: " + k, s.Counts.Strategies[k]})
		}
	}
	tw.AppendFooter(table.Row{"duration", s.Duration().Round(time.Millisecond).String()})
	tw.Render()
}

// RenderCoverage writes coverage statistics as a table.
func RenderCoverage(w io.Writer, c Coverage) {
	tw := newTable(w)
	tw.SetTitle("Coverage")
	tw.AppendHeader(table.Row{"Field", "Records", "Percent"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	for _, row := range c.Rows() {
		tw.AppendRow(table.Row{row.Label, row.Count, percent(row.Count, c.Total)})
	}
	tw.AppendFooter(table.Row{"total", c.Total, ""})
	tw.Render()
}

// outcomeOrder lists the recorded outcomes in pipeline order, followed by
// any unrecognized ones sorted by name.
func outcomeOrder(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	known := map[string]bool{}
	for _, o := range resolver.Outcomes {
		known[string(o)] = true
		if _, ok := counts[string(o)]; ok {
			keys = append(keys, string(o))
		}
	}
	for _, k := range sortedKeys(counts) {
		if !known[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

func percent(n, total int) string {
	if total == 0 {
		return "-"
	}
	return strconv.FormatFloat(100*float64(n)/float64(total), 'f', 1, 64) + "%"
}
