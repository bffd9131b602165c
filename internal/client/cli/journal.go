package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/services"
)

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (a *App) readEntry() (models.JournalEntry, error) {
	var e models.JournalEntry

	title, err := GetSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return e, err
	}
	content, err := GetMultiline(a.reader, "Content", a.out)
	if err != nil {
		return e, err
	}
	mood, err := GetSimpleText(a.reader, "Mood 1-5 (optional)", a.out)
	if err != nil {
		return e, err
	}
	tags, err := GetSimpleText(a.reader, "Tags, comma separated (optional)", a.out)
	if err != nil {
		return e, err
	}

	e.Title, e.Content, e.Tags = title, content, splitTags(tags)
	if mood != "" {
		if e.Mood, err = strconv.Atoi(mood); err != nil {
			return e, fmt.Errorf("invalid mood %q", mood)
		}
	}
	return e, nil
}

// AddEntry writes a new entry; with a template id it copies the template.
func (a *App) AddEntry(ctx context.Context, args []string) error {
	var (
		e   models.Entity[models.JournalEntry]
		err error
	)
	switch len(args) {
	case 0:
		entry, rerr := a.readEntry()
		if rerr != nil {
			return rerr
		}
		e, err = a.journal.Add(ctx, entry)
	case 1:
		id, perr := models.ParseID(args[0])
		if perr != nil {
			return perr
		}
		e, err = a.journal.FromTemplate(ctx, id)
	default:
		return usage("addentry [template-id]")
	}
	if err != nil {
		return err
	}
	printlnFn("Entry added:", e.Ref())
	return nil
}

func (a *App) AddTemplate(ctx context.Context, _ []string) error {
	entry, err := a.readEntry()
	if err != nil {
		return err
	}
	e, err := a.journal.AddTemplate(ctx, entry)
	if err != nil {
		return err
	}
	printlnFn("Template added:", e.Ref())
	return nil
}

func (a *App) Journal(ctx context.Context, args []string) error {
	opts, words := parseArgs(args)
	f := services.JournalFilter{Tag: opts["tag"], Search: opts["q"]}
	for _, w := range words {
		if w != "oldest" {
			return usage("journal [tag=] [q=] [from=YYYY-MM-DD] [to=YYYY-MM-DD] [oldest]")
		}
		f.OldestFirst = true
	}
	if v := opts["from"]; v != "" {
		d, err := parseDate(v)
		if err != nil {
			return err
		}
		f.From = &d
	}
	if v := opts["to"]; v != "" {
		d, err := parseDate(v)
		if err != nil {
			return err
		}
		// the whole day
		d = d.Add(24*time.Hour - time.Nanosecond)
		f.To = &d
	}

	list, err := a.journal.List(ctx, f)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("No entries")
		return nil
	}
	return renderEntries(a.out, list)
}

func (a *App) Templates(ctx context.Context, _ []string) error {
	list, err := a.journal.Templates(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("No templates")
		return nil
	}
	return renderEntries(a.out, list)
}

func entryPatch(in map[string]string) (map[string]any, error) {
	patch := map[string]any{}
	for k, v := range in {
		switch k {
		case "title", "content":
			patch[k] = v
		case "mood":
			if v == "" {
				patch[k] = nil
				continue
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid mood %q", v)
			}
			patch[k] = n
		case "tags":
			tags := splitTags(v)
			if len(tags) == 0 {
				patch[k] = nil
				continue
			}
			patch[k] = tags
		case "date", "entryDate":
			d, err := parseDate(v)
			if err != nil {
				return nil, err
			}
			patch["entryDate"] = d.Format(time.RFC3339)
		default:
			return nil, fmt.Errorf("unknown journal field %q", k)
		}
	}
	return patch, nil
}

func (a *App) EditEntry(ctx context.Context, args []string) error {
	id, err := oneID(args, "editentry")
	if err != nil {
		return err
	}
	in, err := GetAssignments(a.reader, "Fields: title, content, mood, tags, date", a.out)
	if err != nil {
		return err
	}
	patch, err := entryPatch(in)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		printlnFn("Nothing to change")
		return nil
	}
	e, err := a.journal.Edit(ctx, id, patch)
	if err != nil {
		return err
	}
	printlnFn("Entry updated:", e.Ref())
	return nil
}

func (a *App) DeleteEntry(ctx context.Context, args []string) error {
	id, err := oneID(args, "delentry")
	if err != nil {
		return err
	}
	if err := a.journal.Delete(ctx, id); err != nil {
		return err
	}
	printlnFn("Entry deleted")
	return nil
}
