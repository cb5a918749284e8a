package services

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/vinocave/internal/client/client"
	"github.com/dmitrijs2005/vinocave/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importJSON = `{"data": [
  {"Region": "Bordeaux", "Type": "Rouge", "Appelation": "Pauillac", "Nom": "Latour", "Annee": 2010, "Quantite": 2, "Prix": 400},
  {"Region": "Bordeaux", "Type": "Rouge", "Appelation": "Pauillac", "Nom": "latour", "Annee": 2010, "Quantite": 1, "Prix": 420},
  {"Region": "Bordeaux", "Type": "Rouge", "Appelation": "Pauillac", "Nom": "Latour", "Annee": 2012, "Quantite": 3},
  {"Region": "Pays de la loire", "Type": "Blanc", "Appelation": "", "Nom": "Sancerre", "Annee": 9999, "Quantite": 6, "Prix": 15},
  {"Region": "Atlantide", "Type": "Rouge", "Appelation": "", "Nom": "Nowhere", "Annee": 2010, "Quantite": 1},
  {"Region": "Bordeaux", "Type": "Rouge", "Appelation": "", "Nom": "", "Annee": 2010, "Quantite": 1}
]}`

const importYAML = `
data:
  - Region: Champagne
    Type: Pétillant
    Appelation: ""
    Nom: Brut Réserve
    Annee: 2015
    Quantite: 4
    Prix: 35.5
`

func TestParseImport(t *testing.T) {
	rows, err := ParseImport(strings.NewReader(importJSON), FormatJSON)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, ImportRow{Region: "Bordeaux", Type: "Rouge", Appellation: "Pauillac", Name: "Latour", Year: 2010, Quantity: 2, Price: 400}, rows[0])

	rows, err = ParseImport(strings.NewReader(importYAML), FormatYAML)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Brut Réserve", rows[0].Name)
	assert.Equal(t, 35.5, rows[0].Price)

	rows, err = ParseImport(strings.NewReader(""), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = ParseImport(strings.NewReader("{"), FormatJSON)
	assert.Error(t, err)

	_, err = ParseImport(strings.NewReader(""), "csv")
	assert.Error(t, err)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("/tmp/cave.YML"))
	assert.Equal(t, FormatYAML, FormatFor("cave.yaml"))
	assert.Equal(t, FormatJSON, FormatFor("cave.json"))
	assert.Equal(t, FormatJSON, FormatFor("cave"))
}

func TestImportService_Import(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := NewImportService(f.cellar, f.cache, nil)

	rows, err := ParseImport(strings.NewReader(importJSON), FormatJSON)
	require.NoError(t, err)

	report, err := svc.Import(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Wines)
	assert.Equal(t, 12, report.Bottles)
	require.Len(t, report.Rejected, 2)
	assert.Equal(t, 5, report.Rejected[0].Row)
	assert.ErrorIs(t, report.Rejected[0].Err, models.ErrUnknownValue)
	assert.Equal(t, 6, report.Rejected[1].Row)

	wines := f.cache.Wines()
	require.Len(t, wines, 2)
	latour := wines[0]
	assert.Equal(t, "Latour", latour.Name)
	assert.Equal(t, models.AppellationPauillac, latour.Appellation)
	assert.Equal(t, models.VintageMap{
		2010: {Count: 3, Price: 420},
		2012: {Count: 3, Price: 0},
	}, models.VintageMapOf(f.cache.QuantitiesForWine(latour.ID)))

	assert.Equal(t, models.RegionLoire, wines[1].Region)
	assert.Equal(t, models.WineTypeWhite, wines[1].Type)
}

func TestImportService_AddsToExistingWine(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := NewImportService(f.cellar, f.cache, nil)

	res, err := f.cellar.SaveWine(ctx, models.Wine{Name: "Brut Réserve", Type: models.WineTypeSparkling, Region: models.RegionChampagne}, models.VintageMap{2015: {Count: 1, Price: 30}})
	require.NoError(t, err)

	rows, err := ParseImport(strings.NewReader(importYAML), FormatYAML)
	require.NoError(t, err)
	_, err = svc.Import(ctx, rows)
	require.NoError(t, err)

	require.Len(t, f.cache.Wines(), 1)
	assert.Equal(t, models.VintageMap{2015: {Count: 5, Price: 35.5}}, models.VintageMapOf(f.cache.QuantitiesForWine(res.Wine.ID)))
}

func TestImportService_FailuresAreCollected(t *testing.T) {
	f := newFixture()
	f.remote.wineErr = client.ErrWriteFailed
	svc := NewImportService(f.cellar, f.cache, nil)

	rows, err := ParseImport(strings.NewReader(importYAML), FormatYAML)
	require.NoError(t, err)

	report, err := svc.Import(context.Background(), rows)
	require.ErrorIs(t, err, client.ErrWriteFailed)
	assert.Zero(t, report.Wines)
	assert.Len(t, report.Failed, 1)
}
