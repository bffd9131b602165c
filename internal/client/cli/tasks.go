package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/services"
)

const dateLayout = "2006-01-02"

var errUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

// parseDate accepts YYYY-MM-DD or RFC3339.
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func oneID(args []string, cmd string) (models.ID, error) {
	if len(args) != 1 {
		return models.ID{}, usage(cmd + " <id>")
	}
	return models.ParseID(args[0])
}

func (a *App) AddTask(ctx context.Context, _ []string) error {
	title, err := GetSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	desc, err := GetSimpleText(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}
	prio, err := GetSimpleText(a.reader, "Priority: low, medium or high (default medium)", a.out)
	if err != nil {
		return err
	}
	due, err := GetSimpleText(a.reader, "Due date YYYY-MM-DD (optional)", a.out)
	if err != nil {
		return err
	}

	task := models.Task{Title: title, Description: desc, Priority: models.TaskPriority(strings.ToLower(prio))}
	if due != "" {
		d, err := parseDate(due)
		if err != nil {
			return err
		}
		task.DueDate = &d
	}

	e, err := a.tasks.Add(ctx, task)
	if err != nil {
		return err
	}
	printlnFn("Task added:", e.Ref())
	return nil
}

func (a *App) Tasks(ctx context.Context, args []string) error {
	opts, words := parseArgs(args)
	if len(words) > 0 {
		return usage("tasks [status=] [priority=] [sort=created|due|priority|title] [q=]")
	}
	f := services.TaskFilter{
		Status:   models.TaskStatus(opts["status"]),
		Priority: models.TaskPriority(opts["priority"]),
		Search:   opts["q"],
		SortBy:   services.TaskSort(opts["sort"]),
	}
	list, err := a.tasks.List(ctx, f)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("No tasks")
		return nil
	}
	return renderTasks(a.out, list)
}

func (a *App) Done(ctx context.Context, args []string) error {
	id, err := oneID(args, "done")
	if err != nil {
		return err
	}
	e, err := a.tasks.Complete(ctx, id)
	if err != nil {
		return err
	}
	printlnFn("Done:", e.Payload.Title)
	return nil
}

// taskPatch converts user assignments into a task patch. An empty value
// clears optional fields.
func taskPatch(in map[string]string) (map[string]any, error) {
	patch := map[string]any{}
	for k, v := range in {
		switch k {
		case "title", "status", "priority":
			patch[k] = v
		case "description":
			patch[k] = nilIfEmpty(v)
		case "due", "dueDate":
			if v == "" {
				patch["dueDate"] = nil
				continue
			}
			d, err := parseDate(v)
			if err != nil {
				return nil, err
			}
			patch["dueDate"] = d.Format(time.RFC3339)
		default:
			return nil, fmt.Errorf("unknown task field %q", k)
		}
	}
	return patch, nil
}

func nilIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func (a *App) EditTask(ctx context.Context, args []string) error {
	id, err := oneID(args, "edittask")
	if err != nil {
		return err
	}
	if _, err := a.tasks.Get(ctx, id); err != nil {
		return err
	}
	in, err := GetAssignments(a.reader, "Fields: title, description, status, priority, due", a.out)
	if err != nil {
		return err
	}
	patch, err := taskPatch(in)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		printlnFn("Nothing to change")
		return nil
	}
	e, err := a.tasks.Edit(ctx, id, patch)
	if err != nil {
		return err
	}
	printlnFn("Task updated:", e.Ref())
	return nil
}

func (a *App) DeleteTask(ctx context.Context, args []string) error {
	id, err := oneID(args, "deltask")
	if err != nil {
		return err
	}
	if err := a.tasks.Delete(ctx, id); err != nil {
		return err
	}
	printlnFn("Task deleted")
	return nil
}
