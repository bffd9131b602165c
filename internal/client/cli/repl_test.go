package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	calls []string
	fail  map[string]error
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	return f.fail[name]
}

func (f *fakeExec) AddTask(_ context.Context, a []string) error     { return f.record("addtask", a) }
func (f *fakeExec) Tasks(_ context.Context, a []string) error       { return f.record("tasks", a) }
func (f *fakeExec) Done(_ context.Context, a []string) error        { return f.record("done", a) }
func (f *fakeExec) EditTask(_ context.Context, a []string) error    { return f.record("edittask", a) }
func (f *fakeExec) DeleteTask(_ context.Context, a []string) error  { return f.record("deltask", a) }
func (f *fakeExec) AddEntry(_ context.Context, a []string) error    { return f.record("addentry", a) }
func (f *fakeExec) EditEntry(_ context.Context, a []string) error   { return f.record("editentry", a) }
func (f *fakeExec) Journal(_ context.Context, a []string) error     { return f.record("journal", a) }
func (f *fakeExec) AddTemplate(_ context.Context, a []string) error { return f.record("template", a) }
func (f *fakeExec) Templates(_ context.Context, a []string) error   { return f.record("templates", a) }
func (f *fakeExec) DeleteEntry(_ context.Context, a []string) error { return f.record("delentry", a) }
func (f *fakeExec) Sync(_ context.Context, a []string) error        { return f.record("sync", a) }
func (f *fakeExec) Pending(_ context.Context, a []string) error     { return f.record("pending", a) }
func (f *fakeExec) Failed(_ context.Context, a []string) error      { return f.record("failed", a) }
func (f *fakeExec) Retry(_ context.Context, a []string) error       { return f.record("retry", a) }
func (f *fakeExec) Status(_ context.Context, a []string) error      { return f.record("status", a) }

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var out []string
	origPrint, origPrompt := printlnFn, promptFn
	printlnFn = func(a ...any) (int, error) {
		out = append(out, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	promptFn = func(a ...any) (int, error) {
		out = append(out, fmt.Sprint(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn, promptFn = origPrint, origPrompt })
	return &out
}

func TestRunREPL_DispatchesCommandsWithArgs(t *testing.T) {
	captureOutput(t)

	input := strings.Join([]string{
		"help",
		"addtask",
		"tasks status=todo sort=due",
		"",
		"done local:1",
		"j tag=work",
		"retry tasks",
		"status",
		"exit",
		"sync",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(offline)" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{
		"addtask",
		"tasks status=todo sort=due",
		"done local:1",
		"journal tag=work",
		"retry tasks",
		"status",
	}, exec.calls)
}

func TestRunREPL_PrintsErrorsAndUnknownCommands(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{fail: map[string]error{"deltask": errors.New("boom")}}
	runREPL(context.Background(), exec, func() string { return "(online)" },
		bufio.NewReader(strings.NewReader("foobar\ndeltask 9\n")))

	assert.Equal(t, []string{"deltask 9"}, exec.calls)
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "Error: boom")
	assert.Contains(t, *out, "daybook (online)> ")
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	captureOutput(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, bufio.NewReader(strings.NewReader("tasks\n")))
	assert.Empty(t, exec.calls)
}
