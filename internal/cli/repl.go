package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/patientkeeper/internal/common"
)

// printlnFn and printFn are test seams for user-facing output. printFn
// writes the prompt, so input stays on the prompt line.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	hasSelection() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Select(ctx context.Context, args []string) error
	AddPatient(ctx context.Context) error
	AddMedication(ctx context.Context) error
	Show(ctx context.Context) error
	Export(ctx context.Context, args []string) error
	Remove(ctx context.Context) error
	Back(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the patientkeeper CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on end of input or when the
// user types "exit" or "quit".
//
//	Not logged in:
//	  - help              show available commands
//	  - login             authenticate
//	  - exit | quit       leave the program
//
//	Logged in (patient list):
//	  - (l)ist            list patients
//	  - select [name]     open a patient
//	  - add               add a patient
//	  - logout
//
//	Patient selected, additionally:
//	  - show              patient details and medication logs
//	  - addmed            log a medication
//	  - export [csv|pdf]  write the medication report
//	  - remove            delete the patient
//	  - back              return to the patient list
//
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printFn(fmt.Sprintf("pk%s> ", statusFn()))

		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			switch {
			case a.hasSelection():
				printlnFn("Available commands: show, addmed, export [csv|pdf], remove, back, (l)ist, select, add, logout, exit")
			case a.isLoggedIn():
				printlnFn("Available commands: (l)ist, select [name], add, logout, exit")
			default:
				printlnFn("Available commands: login, exit")
			}

		case "login":
			report(a.Login(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			if !a.isLoggedIn() {
				if isCommand(cmd) {
					printlnFn("Please login first.")
				} else {
					printlnFn("Unknown command:", cmd)
				}
				continue
			}
			dispatch(ctx, a, cmd, args)
		}
	}
}

var commands = map[string]bool{
	"l": true, "list": true, "select": true, "add": true, "logout": true,
	"show": true, "addmed": true, "export": true, "remove": true, "back": true,
}

func isCommand(cmd string) bool {
	return commands[cmd]
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) {
	switch cmd {
	case "l", "list":
		report(a.List(ctx))
	case "select":
		report(a.Select(ctx, args))
	case "add":
		report(a.AddPatient(ctx))
	case "logout":
		report(a.Logout(ctx))
	case "show":
		report(a.Show(ctx))
	case "addmed":
		report(a.AddMedication(ctx))
	case "export":
		report(a.Export(ctx, args))
	case "remove":
		report(a.Remove(ctx))
	case "back":
		report(a.Back(ctx))
	default:
		printlnFn("Unknown command:", cmd)
	}
}

// report prints err as a user-visible message.
func report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, errInputClosed):
	case errors.Is(err, common.ErrNoSelection):
		printlnFn("No patient selected. Use 'select' first.")
	default:
		printlnFn("Error:", err)
	}
}
