package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/syncer"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// syncMark tells whether the entity already exists on the server.
func syncMark[P any](e models.Entity[P]) string {
	if e.Synced() {
		return "synced"
	}
	return "local"
}

func fmtDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func renderTasks(w io.Writer, list []models.Entity[models.Task]) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE\tSYNC")
	for _, e := range list {
		t := e.Payload
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Ref(), t.Status, t.Priority, fmtDate(t.DueDate), truncate(t.Title, 48), syncMark(e))
	}
	return tw.Flush()
}

func renderEntries(w io.Writer, list []models.Entity[models.JournalEntry]) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tMOOD\tTAGS\tTITLE\tSYNC")
	for _, e := range list {
		p := e.Payload
		mood := "-"
		if p.Mood > 0 {
			mood = strings.Repeat("*", p.Mood)
		}
		title := p.Title
		if title == "" {
			title = p.Content
		}
		sync := syncMark(e)
		if e.IsTemplate {
			sync = "template"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Ref(), fmtDate(&p.EntryDate), mood, strings.Join(p.Tags, ","), truncate(title, 48), sync)
	}
	return tw.Flush()
}

func renderChanges(w io.Writer, kind string, list []models.PendingChange) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "%s\n", kind)
	fmt.Fprintln(tw, "  CHANGE\tTYPE\tTARGET\tSTATUS\tRETRIES\tNEXT\tERROR")
	for _, c := range list {
		next := "-"
		switch {
		case c.Permanent:
			next = "manual retry"
		case c.NextAttemptAt > 0:
			next = time.UnixMilli(c.NextAttemptAt).Local().Format(time.TimeOnly)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			c.ID, c.Type, c.TargetID, c.Status, c.RetryCount, next, truncate(c.LastError, 60))
	}
	return tw.Flush()
}

func formatResult(r syncer.Result) string {
	if r.Skipped {
		return fmt.Sprintf("%s: skipped (offline)", r.Kind)
	}
	s := fmt.Sprintf("%s: sent %d, dropped %d, failed %d, deferred %d; pulled +%d ~%d -%d",
		r.Kind, r.Sent, r.Dropped, r.Failed, r.Deferred, r.Merge.Inserted, r.Merge.Updated, r.Merge.Removed)
	if r.Compensate > 0 {
		s += fmt.Sprintf("; %d compensating deletes queued", r.Compensate)
	}
	if r.PullError != "" {
		s += "; pull failed: " + r.PullError
	}
	if r.Err != nil {
		s += "; aborted: " + r.Err.Error()
	}
	return s
}
