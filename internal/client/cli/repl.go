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
	AddVehicle(ctx context.Context) error
	List(ctx context.Context) error
	Delete(ctx context.Context) error
	AddCheck(ctx context.Context) error
	Checks(ctx context.Context) error
	Reminders(ctx context.Context) error
	Settings(ctx context.Context) error
	AutoSync(ctx context.Context) error
	Sync(ctx context.Context) error
	Push(ctx context.Context) error
	Pull(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL starts a read–eval–print loop for the AutoChecks CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers print their
// own errors. This keeps the loop focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ac> %s", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: addvehicle, (l)ist, delete, addcheck, checks, reminders, settings, autosync, sync, push, pull, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, addvehicle, (l)ist, delete, addcheck, checks, reminders, settings, status, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "addvehicle":
			_ = a.AddVehicle(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "addcheck":
			_ = a.AddCheck(ctx)

		case "checks":
			_ = a.Checks(ctx)

		case "reminders":
			_ = a.Reminders(ctx)

		case "settings":
			_ = a.Settings(ctx)

		case "autosync":
			_ = a.AutoSync(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "push":
			_ = a.Push(ctx)

		case "pull":
			_ = a.Pull(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

// getStatus renders the prompt suffix: signed-in email and the current sync
// state.
func (a *App) getStatus() string {
	s := ""
	if session := a.client.Session(); session.Email != "" {
		s = session.Email
	}
	if snap := a.status.Get(); snap.State != "" {
		if s != "" {
			s += " "
		}
		s += string(snap.State)
	}
	if s != "" {
		s = fmt.Sprintf("(%s) ", s)
	}
	return s
}
