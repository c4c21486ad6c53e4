package cli

import (
	"context"
	"io"

	"github.com/dmitrijs2005/colsync/internal/comments"
	"github.com/dmitrijs2005/colsync/internal/fragment"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const messageWidth = 40

func (a *App) List(ctx context.Context) error {
	list, err := a.commentService.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.printf("No comments\n")
		return nil
	}
	comments.Sort(list)
	renderList(a.out, list)
	return nil
}

// renderList writes list as a table, one comment per row.
func renderList(w io.Writer, list []*comments.Envelope) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(table.Row{"ID", "Range", "Tier", "Sender", "Modified", "State", "Message"})
	for _, e := range list {
		tw.AppendRow(table.Row{
			e.MessageID,
			timeRange(e),
			e.TierName,
			e.Sender,
			humanize.Time(e.ModificationDate),
			state(e),
			text.Trim(firstLine(e.Message), messageWidth),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.Render()
}

func timeRange(e *comments.Envelope) string {
	switch {
	case e.StartTime < 0:
		return "-"
	case e.EndTime < 0 || e.EndTime == e.StartTime:
		return fragment.FormatTime(e.StartTime)
	default:
		return fragment.FormatTime(e.StartTime) + "-" + fragment.FormatTime(e.EndTime)
	}
}

func state(e *comments.Envelope) string {
	switch {
	case e.ReadOnly:
		return "read-only"
	case e.ToBeSavedToServer:
		return "pending"
	case e.MessageURL == "":
		return "local"
	default:
		return "synced"
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i] + " ..."
		}
	}
	return s
}
