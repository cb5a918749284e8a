package models

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnknownValue is returned when a label does not name any enum case.
var ErrUnknownValue = errors.New("unknown value")

// WineType is the colour/style of a wine. Values are stored as integers
// remotely, so the order of the constants is part of the wire format.
type WineType int

const (
	WineTypeRed WineType = iota
	WineTypeWhite
	WineTypeRose
	WineTypeSparkling
	WineTypeOther
)

var wineTypeLabels = []string{"Rouge", "Blanc", "Rosé", "Pétillant", "Autre"}

func (t WineType) String() string { return label(wineTypeLabels, int(t)) }

func WineTypes() []WineType { return cases[WineType](len(wineTypeLabels)) }

func ParseWineType(s string) (WineType, error) {
	i, err := parseLabel(wineTypeLabels, s)
	return WineType(i), err
}

// Region is a French wine region. It is only meaningful when the wine's
// Country is France.
type Region int

const (
	RegionBourgogne Region = iota
	RegionBordeaux
	RegionAlsace
	RegionLoire
	RegionRhone
	RegionChampagne
	RegionBeaujolais
	RegionJuraSavoie
	RegionProvence
	RegionLanguedocRoussillon
	RegionSudOuest
	RegionOther
)

var regionLabels = []string{
	"Bourgogne", "Bordeaux", "Alsace", "Pays de la loire", "Vallée du Rhone", "Champagne",
	"Beaujolais", "Jura / Savoie", "Provence", "Languedoc / Roussillon", "Sud Ouest", "Autre",
}

func (r Region) String() string { return label(regionLabels, int(r)) }

func Regions() []Region { return cases[Region](len(regionLabels)) }

func ParseRegion(s string) (Region, error) {
	i, err := parseLabel(regionLabels, s)
	return Region(i), err
}

// Appellation is a Bordeaux sub-appellation. Only meaningful for RegionBordeaux.
type Appellation int

const (
	AppellationPauillac Appellation = iota
	AppellationSaintEstephe
	AppellationSaintJulien
	AppellationMargaux
	AppellationMedoc
	AppellationHautMedoc
	AppellationListracMedoc
	AppellationMoulis
	AppellationPessacLeognan
	AppellationCotesDeBordeaux
	AppellationCotesDeBourg
	AppellationSainteFoyBordeaux
	AppellationBordeauxCotesDeFrancs
	AppellationCotesDeCastillon
	AppellationSaintEmilion
	AppellationLussacSaintEmilion
	AppellationPuisseguinSaintEmilion
	AppellationMontagneSaintEmilion
	AppellationSaintGeorgesSaintEmilion
	AppellationPomerol
	AppellationLalandeDePomerol
	AppellationFronsac
	AppellationCanonFronsac
	AppellationBlaye
	AppellationCotesDeBlaye
	AppellationPremieresCotesDeBlaye
	AppellationGraves
	AppellationGravesDeVayres
	AppellationGravesSuperieures
	AppellationCremantDeBordeaux
	AppellationBarsac
	AppellationBordeauxSuperieur
	AppellationCerons
	AppellationCotesDeBordeauxSaintMacaire
	AppellationLoupiac
	AppellationSainteCroixDuMont
	AppellationSauternes
	AppellationOther
)

var appellationLabels = []string{
	"Pauillac", "Saint Estèphe", "Saint Julien", "Margaux", "Médoc", "Haut-Médoc", "Listrac Médoc",
	"Moulis", "Pessac-Léognan", "Côtes de Bordeaux", "Côtes de Bourg", "Sainte-Foy-Bordeaux",
	"Bordeaux Côtes de Francs", "Côtes de Castillon", "Saint-Emilion", "Lussac Saint-Emilion",
	"Puisseguin Saint-Emilion", "Montagne Saint-Emilion", "Saint Georges Saint-Emilion", "Pomerol",
	"Lalande de Pomerol", "Fronsac", "Canon Fronsac", "Blaye", "Côtes de Blaye",
	"Premières Côtes de Blaye", "Graves", "Graves de Vayres", "Graves Supérieures",
	"Crémant de Bordeaux", "Barsac", "Bordeaux Supérieur", "Cérons", "Côtes de Bordeaux-Saint-Macaire",
	"Loupiac", "Sainte-Croix-du-Mont", "Sauternes", "Autre",
}

func (a Appellation) String() string { return label(appellationLabels, int(a)) }

func Appellations() []Appellation { return cases[Appellation](len(appellationLabels)) }

func ParseAppellation(s string) (Appellation, error) {
	i, err := parseLabel(appellationLabels, s)
	return Appellation(i), err
}

// Country of origin.
type Country int

const (
	CountryFrance Country = iota
	CountryUSA
	CountryItaly
	CountrySpain
	CountryGermany
	CountryPortugal
	CountryArgentina
	CountryChile
	CountryAustralia
	CountrySouthAfrica
	CountryNewZealand
	CountryOther
)

var countryLabels = []string{
	"France", "USA", "Italie", "Espagne", "Allemagne", "Portugal", "Argentine", "Chili",
	"Australie", "Afrique du Sud", "Nouvelle-Zélande", "Autre",
}

func (c Country) String() string { return label(countryLabels, int(c)) }

func Countries() []Country { return cases[Country](len(countryLabels)) }

func ParseCountry(s string) (Country, error) {
	i, err := parseLabel(countryLabels, s)
	return Country(i), err
}

// USAppellation is an American viticultural area. Only meaningful for CountryUSA.
type USAppellation int

const (
	USAppellationNapaValley USAppellation = iota
	USAppellationSonoma
	USAppellationPasoRobles
	USAppellationSantaBarbara
	USAppellationWillametteValley
	USAppellationColumbiaValley
	USAppellationFingerLakes
	USAppellationOther
)

var usAppellationLabels = []string{
	"Napa Valley", "Sonoma", "Paso Robles", "Santa Barbara", "Willamette Valley",
	"Columbia Valley", "Finger Lakes", "Autre",
}

func (a USAppellation) String() string { return label(usAppellationLabels, int(a)) }

func USAppellations() []USAppellation { return cases[USAppellation](len(usAppellationLabels)) }

func ParseUSAppellation(s string) (USAppellation, error) {
	i, err := parseLabel(usAppellationLabels, s)
	return USAppellation(i), err
}

// Size is the bottle format.
type Size int

const (
	SizeBottle Size = iota
	SizeHalf
	SizeMagnum
	SizeJeroboam
	SizeOther
)

var sizeLabels = []string{"Bouteille", "Demi-bouteille", "Magnum", "Jéroboam", "Autre"}

func (s Size) String() string { return label(sizeLabels, int(s)) }

func Sizes() []Size { return cases[Size](len(sizeLabels)) }

func ParseSize(s string) (Size, error) {
	i, err := parseLabel(sizeLabels, s)
	return Size(i), err
}

// label falls back to the trailing "other" label for out-of-range values,
// which keeps documents written by newer clients readable.
func label(labels []string, i int) string {
	if i < 0 || i >= len(labels) {
		return labels[len(labels)-1]
	}
	return labels[i]
}

// parseLabel matches s against labels ignoring case and accents. A plain
// integer in range is accepted as well.
func parseLabel(labels []string, s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n < len(labels) {
			return n, nil
		}
		return 0, fmt.Errorf("%w: %d", ErrUnknownValue, n)
	}
	want := Fold(s)
	for i, l := range labels {
		if Fold(l) == want {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownValue, s)
}

func cases[T ~int](n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(i)
	}
	return out
}
