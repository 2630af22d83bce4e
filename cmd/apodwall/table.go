package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderActiveTable lays out the active set as Date, File, Size, Dimensions
// with the numeric columns right aligned.
func renderActiveTable(rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Date", "File", "Size", "Dimensions"})
	for _, r := range rows {
		tw.AppendRow(table.Row{r[0], r[1], r[2], r[3]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})
	return tw.Render()
}
