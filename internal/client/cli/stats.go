package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/vinocave/internal/client/models"
	"github.com/dmitrijs2005/vinocave/internal/client/services"
)

// Stats prints cellar totals, value and aging phases. With a year argument
// it lists the wines holding that vintage instead.
func (a *App) Stats(ctx context.Context, args []string) error {
	wines, qs := a.cache.Wines(), a.cache.Quantities()

	if len(args) == 1 {
		year, err := parseYear(args[0])
		if err != nil {
			return err
		}
		return a.printWineCounts(fmt.Sprintf("Vintage %s", models.YearLabel(year)), services.WinesForYear(wines, qs, year))
	}

	bottles, value := services.CellarValue(qs)
	fmt.Fprintf(a.out, "%d bottle(s), %d wine(s), value %s\n", bottles, len(wines), formatPrice(value))

	sections := []struct {
		title string
		rows  []countRow
	}{
		{"By type", byCountDesc(services.TotalsByType(wines, qs), models.WineType.String)},
		{"By country", byCountDesc(services.TotalsByCountry(wines, qs), models.Country.String)},
		{"By region", byCountDesc(services.TotalsByRegion(wines, qs), models.Region.String)},
		{"By appellation", byCountDesc(services.TotalsByAppellation(wines, qs), models.Appellation.String)},
	}
	for _, s := range sections {
		if len(s.rows) == 0 {
			continue
		}
		fmt.Fprintf(a.out, "\n%s\n", s.title)
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		for _, r := range s.rows {
			fmt.Fprintf(tw, "  %s\t%d\n", r.Label, r.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	byYear := services.TotalsByYear(wines, qs)
	if years := services.Years(wines, qs); len(years) > 0 {
		fmt.Fprintln(a.out, "\nBy vintage")
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		for _, y := range years {
			fmt.Fprintf(tw, "  %s\t%d\n", models.YearLabel(y), byYear[y])
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, g := range services.ByPhase(wines, qs, a.now().Year()) {
		if g.Total == 0 {
			continue
		}
		if err := a.printWineCounts(g.Phase.String()+" ("+strconv.Itoa(g.Total)+")", g.Wines); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) printWineCounts(title string, rows []services.WineCount) error {
	fmt.Fprintf(a.out, "\n%s\n", title)
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "  none")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\t%s\t%d\n", shortID(r.Wine.ID), r.Wine.Name, r.Count)
	}
	return tw.Flush()
}
