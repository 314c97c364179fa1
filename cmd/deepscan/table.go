package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. MaxWidth > 0 wraps longer cells.
type column struct {
	Header   string
	Align    text.Align
	MaxWidth int
}

func leftColumn(header string) column { return column{Header: header, Align: text.AlignLeft} }

func rightColumn(header string) column { return column{Header: header, Align: text.AlignRight} }

func wrappedColumn(header string, width int) column {
	return column{Header: header, Align: text.AlignLeft, MaxWidth: width}
}

// renderTable draws rows under columns; short rows are padded with blanks and
// extra cells are dropped.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.Header
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       col.Align,
			AlignHeader: text.AlignLeft,
			WidthMax:    col.MaxWidth,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		cells := make(table.Row, len(columns))
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		tw.AppendRow(cells)
	}
	return tw.Render()
}
