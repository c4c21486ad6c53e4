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
	loggedIn bool

	calls []string
	args  [][]string
	err   error
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context, args []string) error {
	f.loggedIn = true
	return f.record("login", args)
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}
func (f *fakeExec) List(ctx context.Context) error                  { return f.record("list", nil) }
func (f *fakeExec) Show(ctx context.Context, args []string) error   { return f.record("show", args) }
func (f *fakeExec) Add(ctx context.Context) error                   { return f.record("add", nil) }
func (f *fakeExec) Edit(ctx context.Context, args []string) error   { return f.record("edit", args) }
func (f *fakeExec) Delete(ctx context.Context, args []string) error { return f.record("delete", args) }
func (f *fakeExec) Pull(ctx context.Context) error                  { return f.record("pull", nil) }
func (f *fakeExec) Push(ctx context.Context) error                  { return f.record("push", nil) }
func (f *fakeExec) Sync(ctx context.Context) error                  { return f.record("sync", nil) }
func (f *fakeExec) Import(ctx context.Context, args []string) error { return f.record("import", args) }
func (f *fakeExec) Export(ctx context.Context, args []string) error { return f.record("export", args) }

// capturePrints replaces printlnFn for the duration of the test.
func capturePrints(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	capturePrints(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login alice",
		"help",
		"add",
		"l",
		"show c1",
		"edit c1",
		"delete c1",
		"pull",
		"push",
		"sync",
		"import in.xml",
		"export out.xml",
		"logout",
		"foobar",
		"exit",
		"list",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	assert.Equal(t, []string{
		"login", "add", "list", "show", "edit", "delete",
		"pull", "push", "sync", "import", "export", "logout",
	}, exec.calls)
	assert.Equal(t, []string{"alice"}, exec.args[0])
	assert.Equal(t, []string{"c1"}, exec.args[3])
	assert.Equal(t, []string{"out.xml"}, exec.args[10])
}

func TestRunREPL_SyncNeedsLogin(t *testing.T) {
	lines := capturePrints(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("pull\npush\nsync\n")))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, "Please login first")
}

func TestRunREPL_ErrorsArePrintedAndLoopContinues(t *testing.T) {
	lines := capturePrints(t)

	exec := &fakeExec{loggedIn: true, err: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("list\npull\nquit\n")))

	assert.Equal(t, []string{"list", "pull"}, exec.calls)
	assert.Contains(t, *lines, "Error: boom")
	assert.Contains(t, *lines, "Bye!")
}

func TestRunREPL_UnknownAndQuit(t *testing.T) {
	lines := capturePrints(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("get\n\nquit\nlist\n")))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, "Unknown command: get")
}

func TestOneArg(t *testing.T) {
	got, err := oneArg([]string{"x"}, "show <id>")
	assert.NoError(t, err)
	assert.Equal(t, "x", got)

	_, err = oneArg(nil, "show <id>")
	assert.EqualError(t, err, "usage: show <id>")

	_, err = oneArg([]string{"a", "b"}, "show <id>")
	assert.Error(t, err)
}
