package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/vinocave/internal/client/models"
	"github.com/dmitrijs2005/vinocave/internal/client/services"
)

// List prints the wines matching the optional search text.
func (a *App) List(ctx context.Context, args []string) error {
	wines := services.Search(a.cache.Wines(), strings.Join(args, " "))
	if len(wines) == 0 {
		fmt.Fprintln(a.out, "No wines.")
		return nil
	}

	totals := services.Totals(a.cache.Quantities())
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRODUCER\tTYPE\tORIGIN\tBOTTLES")
	for _, w := range wines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", shortID(w.ID), w.Name, w.Producer, w.Type, w.Origin(), totals[w.ID])
	}
	return tw.Flush()
}

// Show prints one wine with its vintages.
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: show <wine>", errUsage)
	}
	w, err := a.findWine(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s (%s)\n", w.Name, shortID(w.ID))
	if w.Producer != "" {
		fmt.Fprintln(a.out, "Producer:", w.Producer)
	}
	fmt.Fprintln(a.out, "Type:", w.Type)
	fmt.Fprintln(a.out, "Origin:", w.Origin())
	if w.Country == models.CountryFrance && w.Region == models.RegionBordeaux {
		fmt.Fprintln(a.out, "Appellation:", w.Appellation)
	}
	if w.Country == models.CountryUSA {
		fmt.Fprintln(a.out, "Appellation:", w.USAppellation)
	}
	fmt.Fprintln(a.out, "Size:", w.Size)
	if w.Info != "" {
		fmt.Fprintln(a.out, "Notes:", w.Info)
	}

	qs := a.cache.QuantitiesForWine(w.ID)
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tYEAR\tCOUNT\tPRICE\tPHASE")
	year := a.now().Year()
	for _, q := range qs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", shortID(q.ID), models.YearLabel(q.Year), q.Count,
			formatPrice(q.Price), models.PhaseFor(w.Type, q.Year, year))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Total:", services.TotalForWine(qs, w.ID))
	return nil
}

// Add prompts for a new wine and its vintages.
func (a *App) Add(ctx context.Context, args []string) error {
	wine, err := a.inputWine(models.Wine{})
	if err != nil {
		return err
	}
	lines, err := GetVintageLines(a.reader, a.promptOut)
	if err != nil {
		return err
	}

	vm := applyVintageLines(models.VintageMap{}, lines)
	if len(vm.Active()) == 0 {
		fmt.Fprintln(a.out, "Nothing saved: a wine needs at least one bottle.")
		return nil
	}
	return a.save(ctx, wine, vm)
}

// Edit prompts for new values of an existing wine. Empty answers keep the
// current value; vintages not mentioned are kept.
func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: edit <wine>", errUsage)
	}
	current, err := a.findWine(args[0])
	if err != nil {
		return err
	}

	wine, err := a.inputWine(current)
	if err != nil {
		return err
	}

	vm := models.VintageMapOf(a.cache.QuantitiesForWine(current.ID))
	for _, y := range vm.Years() {
		fmt.Fprintf(a.promptOut, "  %s: %d x %s\n", models.YearLabel(y), vm[y].Count, formatPrice(vm[y].Price))
	}
	lines, err := GetVintageLines(a.reader, a.promptOut)
	if err != nil {
		return err
	}
	vm = applyVintageLines(vm, lines)

	if len(vm.Active()) == 0 {
		ok, err := GetConfirm(a.reader, "No bottle left, delete the wine?", a.promptOut)
		if err != nil || !ok {
			return err
		}
	}
	return a.save(ctx, wine, vm)
}

// Delete removes a wine and all its vintages after confirmation.
func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete <wine>", errUsage)
	}
	w, err := a.findWine(args[0])
	if err != nil {
		return err
	}
	ok, err := GetConfirm(a.reader, fmt.Sprintf("Delete %s and its %d bottle(s)?", w.Name,
		services.TotalForWine(a.cache.Quantities(), w.ID)), a.promptOut)
	if err != nil || !ok {
		return err
	}

	res, err := a.cellar.DeleteWine(ctx, w.ID)
	a.printSave(res)
	return err
}

// Drink takes one bottle out of a vintage.
func (a *App) Drink(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: drink <quantity>", errUsage)
	}
	q, err := a.findQuantity(args[0])
	if err != nil {
		return err
	}
	return a.drink(ctx, q)
}

func (a *App) drink(ctx context.Context, q models.Quantity) error {
	res, err := a.cellar.DecrementOne(ctx, q.ID)
	if res != nil {
		switch {
		case res.WineDeleted:
			fmt.Fprintln(a.out, "That was the last bottle of this wine.")
		case res.QuantityDeleted:
			fmt.Fprintf(a.out, "No %s left.\n", models.YearLabel(q.Year))
		default:
			fmt.Fprintf(a.out, "%d bottle(s) of %s left.\n", res.Quantity.Count, models.YearLabel(q.Year))
		}
	}
	return err
}

// Draw suggests a random bottle, optionally filtered by
// type=, region= and year= arguments (comma separated values).
func (a *App) Draw(ctx context.Context, args []string) error {
	filter, err := parseDrawFilter(args)
	if err != nil {
		return err
	}

	d, err := a.drawer.Draw(a.cache.Wines(), a.cache.Quantities(), filter)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "How about %s %s (%s, %s)?\n", d.Wine.Name, models.YearLabel(d.Quantity.Year), d.Wine.Type, d.Wine.Origin())
	ok, err := GetConfirm(a.reader, "Drink it?", a.promptOut)
	if err != nil || !ok {
		return err
	}
	return a.drink(ctx, d.Quantity)
}

func parseDrawFilter(args []string) (services.DrawFilter, error) {
	var f services.DrawFilter
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return f, fmt.Errorf("%w: draw [type=..] [region=..] [year=..]", errUsage)
		}
		for _, v := range strings.Split(value, ",") {
			switch strings.ToLower(key) {
			case "type":
				t, err := models.ParseWineType(v)
				if err != nil {
					return f, err
				}
				f.Types = append(f.Types, t)
			case "region":
				r, err := models.ParseRegion(v)
				if err != nil {
					return f, err
				}
				f.Regions = append(f.Regions, r)
			case "year":
				y, err := parseYear(v)
				if err != nil {
					return f, err
				}
				f.Years = append(f.Years, y)
			default:
				return f, fmt.Errorf("%w: unknown filter %q", errUsage, key)
			}
		}
	}
	return f, nil
}

func (a *App) save(ctx context.Context, wine models.Wine, vm models.VintageMap) error {
	res, err := a.cellar.SaveWine(ctx, wine, vm)
	a.printSave(res)

	var pf *services.PartialFailureError
	if errors.As(err, &pf) {
		fmt.Fprintln(a.out, "Some changes were not saved:")
		for _, op := range pf.Ops {
			fmt.Fprintln(a.out, "  -", op)
		}
		return nil
	}
	return err
}

func (a *App) printSave(res *services.SaveResult) {
	if res == nil {
		return
	}
	if res.WineDeleted {
		fmt.Fprintf(a.out, "Deleted %s.\n", res.Wine.Name)
		return
	}
	if res.Wine.IsPersisted() {
		fmt.Fprintf(a.out, "Saved %s (%s): %d added, %d updated, %d removed.\n", res.Wine.Name,
			shortID(res.Wine.ID), len(res.Created), len(res.Updated), len(res.Deleted))
	}
}

func applyVintageLines(vm models.VintageMap, lines []VintageLine) models.VintageMap {
	for _, l := range lines {
		v := vm[l.Year]
		v.Count = l.Count
		if l.HasPrice {
			v.Price = l.Price
		}
		vm[l.Year] = v
	}
	return vm
}

// inputWine prompts for every descriptive field, defaulting to base.
func (a *App) inputWine(base models.Wine) (models.Wine, error) {
	w := base
	var err error

	if w.Name, err = GetWithDefault(a.reader, "Name", base.Name, a.promptOut); err != nil {
		return w, err
	}
	if w.Producer, err = GetWithDefault(a.reader, "Producer", base.Producer, a.promptOut); err != nil {
		return w, err
	}

	t, err := choose(a, "Type", models.WineTypes(), int(base.Type), func(s string) (int, error) {
		v, err := models.ParseWineType(s)
		return int(v), err
	})
	if err != nil {
		return w, err
	}
	w.Type = models.WineType(t)

	c, err := choose(a, "Country", models.Countries(), int(base.Country), func(s string) (int, error) {
		v, err := models.ParseCountry(s)
		return int(v), err
	})
	if err != nil {
		return w, err
	}
	w.Country = models.Country(c)

	switch w.Country {
	case models.CountryFrance:
		r, err := choose(a, "Region", models.Regions(), int(base.Region), func(s string) (int, error) {
			v, err := models.ParseRegion(s)
			return int(v), err
		})
		if err != nil {
			return w, err
		}
		w.Region = models.Region(r)

		if w.Region == models.RegionBordeaux {
			ap, err := choose(a, "Appellation", models.Appellations(), int(base.Appellation), func(s string) (int, error) {
				v, err := models.ParseAppellation(s)
				return int(v), err
			})
			if err != nil {
				return w, err
			}
			w.Appellation = models.Appellation(ap)
		}
	case models.CountryUSA:
		ap, err := choose(a, "Appellation", models.USAppellations(), int(base.USAppellation), func(s string) (int, error) {
			v, err := models.ParseUSAppellation(s)
			return int(v), err
		})
		if err != nil {
			return w, err
		}
		w.USAppellation = models.USAppellation(ap)
	}

	sz, err := choose(a, "Size", models.Sizes(), int(base.Size), func(s string) (int, error) {
		v, err := models.ParseSize(s)
		return int(v), err
	})
	if err != nil {
		return w, err
	}
	w.Size = models.Size(sz)

	if w.Info, err = GetWithDefault(a.reader, "Notes", base.Info, a.promptOut); err != nil {
		return w, err
	}
	return w, nil
}

func choose[T fmt.Stringer](a *App, prompt string, cases []T, def int, parse func(string) (int, error)) (int, error) {
	return GetChoice(a.reader, prompt, labelsOf(cases), def, parse, a.promptOut)
}
