package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Pull(ctx context.Context) error
	Push(ctx context.Context) error
	Sync(ctx context.Context) error
	Import(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the colsync CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and the rest as its arguments, and dispatches to methods on 'a'.
// The loop exits on scanner EOF or when the user types "exit" or "quit".
//
// Commands
//
//	help                 show available commands
//	login [user]         authenticate with the annotation service
//	logout               forget the session
//	list | l             list comments of the transcription
//	show <id>            show one comment
//	add                  add a comment
//	edit <id>            change the message of a comment
//	delete <id>          delete a comment
//	pull                 fetch comments from the server
//	push                 send local changes to the server
//	sync                 pull, then push
//	import <file>        load comments from a file
//	export <file>        write comments to a file
//	exit | quit          leave the program
//
// Errors returned by command handlers are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("cs %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, show, add, edit, delete, pull, push, sync, import, export, logout, exit")
			} else {
				printlnFn("Available commands: login, (l)ist, show, add, edit, delete, import, export, exit")
			}

		case "login":
			err = a.Login(ctx, args)
		case "logout":
			err = a.Logout(ctx)
		case "l", "list":
			err = a.List(ctx)
		case "show":
			err = a.Show(ctx, args)
		case "add":
			err = a.Add(ctx)
		case "edit":
			err = a.Edit(ctx, args)
		case "delete":
			err = a.Delete(ctx, args)

		case "pull", "push", "sync":
			if !a.isLoggedIn() {
				printlnFn("Please login first")
				continue
			}
			switch cmd {
			case "pull":
				err = a.Pull(ctx)
			case "push":
				err = a.Push(ctx)
			default:
				err = a.Sync(ctx)
			}

		case "import":
			err = a.Import(ctx, args)
		case "export":
			err = a.Export(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

// oneArg returns the single argument of a command, or an error showing its
// usage.
func oneArg(args []string, usage string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return args[0], nil
}
