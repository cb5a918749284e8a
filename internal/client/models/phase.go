package models

// AgingPhase is where a bottle sits in its drinking window.
type AgingPhase int

const (
	PhaseYouth AgingPhase = iota
	PhaseMaturity
	PhasePeak
	PhaseDecline
)

var phaseLabels = []string{"Jeunesse", "Maturité", "Apogée", "Déclin"}

func (p AgingPhase) String() string { return label(phaseLabels, int(p)) }

func AgingPhases() []AgingPhase { return cases[AgingPhase](len(phaseLabels)) }

// PhaseFor classifies a vintage of the given type against currentYear.
// Bottles without a vintage are considered at their peak. A vintage later
// than currentYear falls outside every window and is reported as decline.
func PhaseFor(t WineType, year, currentYear int) AgingPhase {
	if year == NoVintage {
		return PhasePeak
	}
	age := currentYear - year
	if age < 0 && t != WineTypeSparkling {
		return PhaseDecline
	}

	switch t {
	case WineTypeRed:
		return byAge(age, 2, 7, 16)
	case WineTypeWhite:
		return byAge(age, 1, 3, 8)
	case WineTypeSparkling:
		return PhasePeak
	default:
		if age <= 2 {
			return PhasePeak
		}
		return PhaseDecline
	}
}

// byAge maps age onto youth [..youth], maturity (youth..maturity],
// peak (maturity..peak] and decline after that.
func byAge(age, youth, maturity, peak int) AgingPhase {
	switch {
	case age <= youth:
		return PhaseYouth
	case age <= maturity:
		return PhaseMaturity
	case age <= peak:
		return PhasePeak
	default:
		return PhaseDecline
	}
}
