package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

var (
	passColor    = text.Colors{text.FgGreen}
	warnColor    = text.Colors{text.FgYellow}
	sectionColor = text.Colors{text.Bold, text.FgBlue}
)

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func paint(colors text.Colors, s string, colorize bool) string {
	if !colorize {
		return s
	}
	return colors.Sprint(s)
}

func writeSection(out io.Writer, title string, colorize bool) {
	fmt.Fprintln(out, paint(sectionColor, "== "+title+" ==", colorize))
}

func renderStatus(out io.Writer, report statusReport, recent int) {
	colorize := shouldColorize(out)

	writeSection(out, "Ledger", colorize)
	fmt.Fprintf(out, "File: %s\n", report.LedgerFile)
	counts := newTable(colorize, "Status", "Items")
	for _, c := range report.Counts {
		counts.AppendRow(table.Row{c.Status, c.Items})
	}
	counts.AppendFooter(table.Row{"total", report.Total})
	counts.SetColumnConfigs(rightAligned(2))
	fmt.Fprintln(out, counts.Render())

	if shown := lastItems(report, recent); len(shown) > 0 {
		fmt.Fprintln(out)
		writeSection(out, "Recent items", colorize)
		items := newTable(colorize, "#", "Video", "Status", "Channel", "Published", "Title")
		offset := len(report.Items) - len(shown)
		for i, item := range shown {
			items.AppendRow(table.Row{strconv.Itoa(offset + i + 1), item.VideoID, item.Status, item.ChannelOrDefault(), item.Published, item.Title})
		}
		items.SetColumnConfigs(append(rightAligned(1), trimColumn(6)))
		fmt.Fprintln(out, items.Render())
	}

	fmt.Fprintln(out)
	writeSection(out, "Environment", colorize)
	checks := newTable(colorize, "Check", "State", "Detail")
	for _, check := range report.Checks {
		state := paint(passColor, "ok", colorize)
		if !check.Passed {
			state = paint(warnColor, "warn", colorize)
		}
		checks.AppendRow(table.Row{check.Name, state, check.Detail})
	}
	fmt.Fprintln(out, checks.Render())
}

func lastItems(report statusReport, n int) []statusItem {
	if n <= 0 || len(report.Items) == 0 {
		return nil
	}
	if len(report.Items) <= n {
		return report.Items
	}
	return report.Items[len(report.Items)-n:]
}
