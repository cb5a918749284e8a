package cli

import (
	"context"
	"fmt"
	"io"
	"os"
)

func (a *App) getStatus() string {
	s := string(a.Mode())
	if id, ok := a.state.OwnerID(); ok {
		s = shortID(id) + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}

// Root restores the bound cellar, starts the online watcher and runs the
// REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	if !isTerminal(int(os.Stdin.Fd())) {
		// scripted input: keep prompts out of the output
		a.promptOut = io.Discard
	}

	printlnFn("Welcome to vinocave (type 'help' for commands)")

	a.checkOnline(ctx)
	if err := a.ownership.Bootstrap(ctx); err != nil {
		a.logger.Warn(ctx, "bootstrap incomplete", "error", err)
		printlnFn("Working from the local copy:", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader, a.promptOut)
}
