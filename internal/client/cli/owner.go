package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/vinocave/internal/client/client"
	"github.com/dmitrijs2005/vinocave/internal/client/services"
)

// Join binds this device to the cellar behind a code or share link.
func (a *App) Join(ctx context.Context, args []string) error {
	code := strings.Join(args, " ")
	if code == "" {
		var err error
		if code, err = GetSimpleText(a.reader, "Enter the code or link you received", a.promptOut); err != nil {
			return err
		}
	}

	before, _ := a.state.OwnerID()
	err := a.ownership.JoinByCode(ctx, code)
	if errors.Is(err, client.ErrNotFound) {
		fmt.Fprintln(a.out, "No cellar found for this code.")
		return nil
	}

	if id, _ := a.state.OwnerID(); err == nil || id != before {
		fmt.Fprintf(a.out, "Joined cellar %s: %d wine(s).\n", shortID(id), len(a.cache.Wines()))
	}
	return err
}

func (a *App) Share(ctx context.Context, args []string) error {
	link, err := a.ownership.ShareLink()
	if errors.Is(err, services.ErrNotBound) {
		fmt.Fprintln(a.out, "Nothing to share yet: add a wine or join a cellar first.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, link)
	return nil
}

// Leave forgets the current cellar on this device. Remote data is kept.
func (a *App) Leave(ctx context.Context, args []string) error {
	if _, ok := a.state.OwnerID(); !ok {
		fmt.Fprintln(a.out, "This device is not bound to a cellar.")
		return nil
	}
	ok, err := GetConfirm(a.reader, "Leave this cellar? Keep the share link to come back", a.promptOut)
	if err != nil || !ok {
		return err
	}
	if err := a.ownership.Leave(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Left the cellar.")
	return nil
}

func (a *App) Refresh(ctx context.Context, args []string) error {
	if err := a.ownership.Refetch(ctx); err != nil {
		if errors.Is(err, services.ErrNotBound) {
			fmt.Fprintln(a.out, "This device is not bound to a cellar.")
			return nil
		}
		return err
	}
	fmt.Fprintf(a.out, "%d wine(s), %d vintage(s).\n", len(a.cache.Wines()), len(a.cache.Quantities()))
	return nil
}
