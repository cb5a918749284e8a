package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/vinocave/internal/client/cache"
	"github.com/dmitrijs2005/vinocave/internal/client/models"
	"github.com/dmitrijs2005/vinocave/internal/logging"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ImportRow is one line of a cellar export, keyed by the French column
// names used by the spreadsheet it comes from.
type ImportRow struct {
	Region      string  `json:"Region" yaml:"Region" validate:"required"`
	Type        string  `json:"Type" yaml:"Type" validate:"required"`
	Appellation string  `json:"Appelation" yaml:"Appelation"`
	Name        string  `json:"Nom" yaml:"Nom" validate:"required"`
	Year        int     `json:"Annee" yaml:"Annee" validate:"required"`
	Quantity    int     `json:"Quantite" yaml:"Quantite" validate:"gte=1"`
	Price       float64 `json:"Prix" yaml:"Prix" validate:"gte=0"`
}

type importFile struct {
	Data []ImportRow `json:"data" yaml:"data"`
}

type ImportFormat string

const (
	FormatJSON ImportFormat = "json"
	FormatYAML ImportFormat = "yaml"
)

// FormatFor guesses the format from the file extension. JSON is the default.
func FormatFor(path string) ImportFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseImport decodes {"data": [rows...]} in the given format.
func ParseImport(r io.Reader, format ImportFormat) ([]ImportRow, error) {
	var f importFile
	var err error
	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&f)
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&f)
	default:
		return nil, fmt.Errorf("unsupported import format %q", format)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s import: %w", format, err)
	}
	return f.Data, nil
}

// RowError points at a rejected row, 1-based.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

// ImportReport summarizes an import.
type ImportReport struct {
	Wines    int
	Bottles  int
	Rejected []RowError
	Failed   []error
}

// ImportService turns rows into wines and saves each one through the
// cellar service. Rows describing a wine already in the cache add to it.
type ImportService struct {
	cellar   CellarService
	cache    *cache.Cache
	validate *validator.Validate
	logger   logging.Logger
}

func NewImportService(cellar CellarService, cc *cache.Cache, logger logging.Logger) *ImportService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ImportService{
		cellar:   cellar,
		cache:    cc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("module", "import"),
	}
}

type pendingWine struct {
	wine     models.Wine
	vintages models.VintageMap
}

// Import validates every row first, then saves wine by wine. A failing
// wine does not stop the others.
func (s *ImportService) Import(ctx context.Context, rows []ImportRow) (*ImportReport, error) {
	report := &ImportReport{}

	var order []string
	pending := make(map[string]*pendingWine)

	for i, row := range rows {
		wine, err := s.rowWine(row)
		if err != nil {
			report.Rejected = append(report.Rejected, RowError{Row: i + 1, Err: err})
			continue
		}

		key := identity(wine)
		p, ok := pending[key]
		if !ok {
			p = s.startFrom(wine)
			pending[key] = p
			order = append(order, key)
		}

		v := p.vintages[row.Year]
		v.Count += row.Quantity
		v.Price = row.Price
		p.vintages[row.Year] = v
		report.Bottles += row.Quantity
	}

	for _, key := range order {
		p := pending[key]
		if _, err := s.cellar.SaveWine(ctx, p.wine, p.vintages); err != nil {
			s.logger.Warn(ctx, "import save failed", "name", p.wine.Name, "error", err)
			report.Failed = append(report.Failed, fmt.Errorf("%s: %w", p.wine.Name, err))
			continue
		}
		report.Wines++
	}

	s.logger.Info(ctx, "import finished", "wines", report.Wines,
		"rejected", len(report.Rejected), "failed", len(report.Failed))

	if len(report.Failed) > 0 {
		return report, errors.Join(report.Failed...)
	}
	return report, nil
}

func (s *ImportService) rowWine(row ImportRow) (models.Wine, error) {
	if err := s.validate.Struct(row); err != nil {
		return models.Wine{}, err
	}
	if row.Year != models.NoVintage && (row.Year < 1800 || row.Year > 2999) {
		return models.Wine{}, fmt.Errorf("%w: year %d", models.ErrInvalidVintage, row.Year)
	}

	region, err := models.ParseRegion(row.Region)
	if err != nil {
		return models.Wine{}, err
	}
	wt, err := models.ParseWineType(row.Type)
	if err != nil {
		return models.Wine{}, err
	}
	var app models.Appellation
	if strings.TrimSpace(row.Appellation) != "" {
		if app, err = models.ParseAppellation(row.Appellation); err != nil {
			return models.Wine{}, err
		}
	}

	return models.Wine{
		Type:        wt,
		Region:      region,
		Appellation: app,
		Name:        strings.TrimSpace(row.Name),
		Country:     models.CountryFrance,
	}, nil
}

// startFrom reuses a cached wine with the same identity and its current
// vintages so that an import adds bottles instead of replacing them.
func (s *ImportService) startFrom(wine models.Wine) *pendingWine {
	key := identity(wine)
	for _, w := range s.cache.Wines() {
		if identity(w) == key {
			return &pendingWine{wine: w, vintages: models.VintageMapOf(s.cache.QuantitiesForWine(w.ID))}
		}
	}
	return &pendingWine{wine: wine, vintages: models.VintageMap{}}
}

func identity(w models.Wine) string {
	return fmt.Sprintf("%s|%d|%d|%d|%d", models.Fold(w.Name), w.Type, w.Country, w.Region, w.Appellation)
}
