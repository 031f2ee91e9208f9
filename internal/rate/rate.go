package rate

import (
	"strings"

	"shippingcalc/internal/parcel"
)

// Mode selects how many quotes a calculation returns.
type Mode int

const (
	// ModeAll returns every eligible carrier, cheapest first.
	ModeAll Mode = iota
	// ModeBest returns only the cheapest eligible carrier.
	ModeBest
)

func (m Mode) String() string {
	if m == ModeBest {
		return "best"
	}
	return "all"
}

// ModeByName parses a configured mode. Unknown names fall back to ModeAll.
func ModeByName(name string) Mode {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "best":
		return ModeBest
	default:
		return ModeAll
	}
}

// Strategy decides which ceiling parcels are split under.
type Strategy int

const (
	// SplitPerCarrier splits the cart separately under each carrier's own ceiling.
	SplitPerCarrier Strategy = iota
	// SplitSharedCeiling splits once under the largest ceiling of all carriers.
	SplitSharedCeiling
)

func (s Strategy) String() string {
	if s == SplitSharedCeiling {
		return "shared"
	}
	return "per_carrier"
}

// StrategyByName parses a configured strategy. Unknown names fall back to SplitPerCarrier.
func StrategyByName(name string) Strategy {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "shared", "shared_ceiling", "max":
		return SplitSharedCeiling
	default:
		return SplitPerCarrier
	}
}

// Calculator turns a cart into quotes: split, price, select.
type Calculator struct {
	Selector *Selector
	Strategy Strategy
	// MaxUnits caps the units of one cart; 0 disables the cap.
	MaxUnits int
}

// NewCalculator returns a Calculator capped at parcel.DefaultMaxUnits; a nil selector
// gets EUR defaults.
func NewCalculator(sel *Selector, strategy Strategy) *Calculator {
	if sel == nil {
		sel = NewSelector("EUR")
	}
	return &Calculator{Selector: sel, Strategy: strategy, MaxUnits: parcel.DefaultMaxUnits}
}

// Result is a calculation outcome with the quotes to present.
type Result struct {
	Quotes  []Quote
	Outcome Outcome
}

// Quote validates items, builds parcel sets and selects carriers for country.
// It only fails on malformed items; missing or unusable carriers yield fallback quotes.
func (c *Calculator) Quote(items []parcel.Item, country string, carriers []Carrier, mode Mode) (Result, error) {
	if err := parcel.ValidateItems(items, c.MaxUnits); err != nil {
		return Result{}, err
	}

	cands := c.candidates(items, carriers)
	eligible, outcome := c.Selector.evaluate(cands, country)
	if mode == ModeBest {
		return Result{Quotes: []Quote{c.Selector.best(eligible, outcome)}, Outcome: outcome}, nil
	}
	return Result{Quotes: c.Selector.all(eligible, outcome), Outcome: outcome}, nil
}

func (c *Calculator) candidates(items []parcel.Item, carriers []Carrier) []candidate {
	cands := make([]candidate, len(carriers))
	switch c.Strategy {
	case SplitSharedCeiling:
		limits := make([]float64, len(carriers))
		for i, cr := range carriers {
			limits[i] = cr.MaxWeightKg
		}
		parcels, err := parcel.Split(items, parcel.MaxCeilingGrams(limits...))
		for i, cr := range carriers {
			cands[i] = candidate{carrier: cr, parcels: parcels, unusable: err != nil}
		}
	default:
		// carriers sharing a ceiling share one parcel set
		type split struct {
			parcels []parcel.Parcel
			err     error
		}
		byCeiling := make(map[float64]split, len(carriers))
		for i, cr := range carriers {
			ceiling := cr.MaxWeightGrams()
			sp, ok := byCeiling[ceiling]
			if !ok {
				sp.parcels, sp.err = parcel.Split(items, ceiling)
				byCeiling[ceiling] = sp
			}
			cands[i] = candidate{carrier: cr, parcels: sp.parcels, unusable: sp.err != nil}
		}
	}
	return cands
}
