package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Drink(ctx context.Context, args []string) error
	Draw(ctx context.Context, args []string) error
	Join(ctx context.Context, args []string) error
	Share(ctx context.Context, args []string) error
	Leave(ctx context.Context, args []string) error
	Refresh(ctx context.Context, args []string) error
	Stats(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Backup(ctx context.Context, args []string) error
}

const helpText = `Available commands:
  list [text]          list wines, optionally filtered (alias: l, search)
  show <wine>          show a wine and its vintages
  add                  add a wine
  edit <wine>          edit a wine and its vintages
  delete <wine>        delete a wine and all its bottles
  drink <quantity>     take one bottle out
  draw [type=.. region=.. year=..]  suggest a random bottle
  join <code|link>     join a shared cellar
  share                print the link to share this cellar
  leave                forget the current cellar on this device
  refresh              reload the cellar from the server
  stats                totals, value and aging phases
  import <file>        import a JSON or YAML export
  backup               upload a backup of the cellar
  exit | quit          leave the program`

// runREPL reads commands line by line from reader and dispatches them to a.
// The prompt goes to prompt. The first token is the command, the rest are
// its arguments. Errors are printed and the loop goes on. It returns on EOF,
// exit or quit.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, prompt io.Writer) {
	for {
		fmt.Fprintf(prompt, "vinocave %s> ", statusFn())
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help", "?":
			printlnFn(helpText)
		case "l", "list", "search":
			cmdErr = a.List(ctx, args)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "add":
			cmdErr = a.Add(ctx, args)
		case "edit":
			cmdErr = a.Edit(ctx, args)
		case "delete", "rm":
			cmdErr = a.Delete(ctx, args)
		case "drink":
			cmdErr = a.Drink(ctx, args)
		case "draw":
			cmdErr = a.Draw(ctx, args)
		case "join":
			cmdErr = a.Join(ctx, args)
		case "share":
			cmdErr = a.Share(ctx, args)
		case "leave":
			cmdErr = a.Leave(ctx, args)
		case "refresh", "sync":
			cmdErr = a.Refresh(ctx, args)
		case "stats":
			cmdErr = a.Stats(ctx, args)
		case "import":
			cmdErr = a.Import(ctx, args)
		case "backup":
			cmdErr = a.Backup(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
