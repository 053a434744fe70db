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
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Discover(ctx context.Context, path string) error
	List(ctx context.Context) error
	Show(ctx context.Context, name string) error
	Unlock(ctx context.Context, name string) error
	Stats(ctx context.Context) error
	Sync(ctx context.Context) error
	Reset(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the Skydex CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("skydex %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: discover <photo>, (l)ist, show <card>, unlock <card>, stats, sync, reset, logout, exit")
			} else {
				printlnFn("Available commands: register, login, discover <photo>, (l)ist, show <card>, stats, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "discover":
			if len(args) == 0 {
				printlnFn("Usage: discover <path-to-photo>")
				continue
			}
			_ = a.Discover(ctx, args[0])

		case "l", "list":
			_ = a.List(ctx)

		case "show":
			if len(args) == 0 {
				printlnFn("Usage: show <card-id-or-name>")
				continue
			}
			_ = a.Show(ctx, strings.Join(args, " "))

		case "unlock":
			if len(args) == 0 {
				printlnFn("Usage: unlock <card-id-or-name>")
				continue
			}
			_ = a.Unlock(ctx, strings.Join(args, " "))

		case "stats":
			_ = a.Stats(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "reset":
			_ = a.Reset(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
