package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn and promptFn are test seams for user-facing output.
var (
	printlnFn = fmt.Println
	promptFn  = fmt.Print
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	AddTask(ctx context.Context, args []string) error
	Tasks(ctx context.Context, args []string) error
	Done(ctx context.Context, args []string) error
	EditTask(ctx context.Context, args []string) error
	DeleteTask(ctx context.Context, args []string) error

	AddEntry(ctx context.Context, args []string) error
	EditEntry(ctx context.Context, args []string) error
	Journal(ctx context.Context, args []string) error
	AddTemplate(ctx context.Context, args []string) error
	Templates(ctx context.Context, args []string) error
	DeleteEntry(ctx context.Context, args []string) error

	Sync(ctx context.Context, args []string) error
	Pending(ctx context.Context, args []string) error
	Failed(ctx context.Context, args []string) error
	Retry(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
}

const helpText = `Tasks:
  addtask                          add a task
  tasks [status=] [priority=] [sort=created|due|priority|title] [q=]
  done <id>                        mark a task done
  edittask <id>                    change task fields
  deltask <id>                     delete a task
Journal:
  addentry [template-id]           write an entry, optionally from a template
  editentry <id>                   change entry fields
  journal [tag=] [q=] [from=YYYY-MM-DD] [to=YYYY-MM-DD] [oldest]
  template                         add a local-only template
  templates                        list templates
  delentry <id>                    delete an entry or template
Sync:
  sync [kind]                      run a sync pass now
  pending [kind]                   show queued changes
  failed [kind]                    show failed changes
  retry <kind> [change-id]         re-queue failed changes
  status                           connectivity and queue summary
  exit | quit`

// runREPL starts a simple read–eval–print loop for the daybook CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a' with the remaining tokens as arguments. The
// prompt shows the current status (from statusFn). Command errors are printed
// and the loop goes on. The loop exits on EOF, when ctx is done, or when the
// user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		promptFn(fmt.Sprintf("daybook %s> ", statusFn()))

		line, err := ReadLine(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				printlnFn("Error:", err)
			}
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var run func(context.Context, []string) error
		switch cmd {
		case "help":
			printlnFn(helpText)
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "addtask":
			run = a.AddTask
		case "tasks", "t":
			run = a.Tasks
		case "done":
			run = a.Done
		case "edittask":
			run = a.EditTask
		case "deltask":
			run = a.DeleteTask

		case "addentry":
			run = a.AddEntry
		case "editentry":
			run = a.EditEntry
		case "journal", "j":
			run = a.Journal
		case "template":
			run = a.AddTemplate
		case "templates":
			run = a.Templates
		case "delentry":
			run = a.DeleteEntry

		case "sync":
			run = a.Sync
		case "pending":
			run = a.Pending
		case "failed":
			run = a.Failed
		case "retry":
			run = a.Retry
		case "status":
			run = a.Status

		default:
			printlnFn("Unknown command:", cmd)
			continue
		}

		if err := run(ctx, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}
