package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/vinocave/internal/client/services"
)

// Import loads a JSON or YAML export and saves its wines.
func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: import <file>", errUsage)
	}
	path := strings.Join(args, " ")

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := services.ParseImport(f, services.FormatFor(path))
	if err != nil {
		return err
	}

	report, err := a.importer.Import(ctx, rows)
	if report != nil {
		fmt.Fprintf(a.out, "Imported %d wine(s), %d bottle(s).\n", report.Wines, report.Bottles)
		for _, r := range report.Rejected {
			fmt.Fprintln(a.out, "  skipped", r.Error())
		}
	}
	return err
}

func (a *App) Backup(ctx context.Context, args []string) error {
	key, err := a.backup.Backup(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Backup stored as", key)
	return nil
}
