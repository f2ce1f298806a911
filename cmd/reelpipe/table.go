package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// titleWidth caps free-text columns; longer values are cut.
const titleWidth = 48

func newTable(colorize bool, headers ...any) table.Writer {
	tw := table.NewWriter()
	style := table.StyleLight
	if colorize {
		style.Color.Header = text.Colors{text.Bold, text.FgCyan}
	}
	tw.SetStyle(style)
	tw.AppendHeader(table.Row(headers))
	return tw
}

// rightAligned returns configs that right-align the given 1-based columns.
func rightAligned(columns ...int) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, n := range columns {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	return configs
}

// trimColumn limits column n to titleWidth runes.
func trimColumn(n int) table.ColumnConfig {
	return table.ColumnConfig{Number: n, WidthMax: titleWidth, WidthMaxEnforcer: text.Trim}
}
