package rate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"shippingcalc/internal/parcel"
)

// Quote is a priced shipping option ready for the checkout boundary.
type Quote struct {
	CarrierID       string  `json:"carrier_id,omitempty"`
	CarrierName     string  `json:"carrier_name"`
	ServiceName     string  `json:"service_name"`
	ServiceCode     string  `json:"service_code"`
	TotalPriceCents int64   `json:"total_price"`
	ParcelCount     int     `json:"parcel_count"`
	WeightGrams     float64 `json:"weight_grams"`
	Description     string  `json:"description"`
	Currency        string  `json:"currency"`
	DeliveryTime    string  `json:"delivery_time,omitempty"`
	Fallback        bool    `json:"fallback"`
}

// Fallback is a fixed-price rate returned when normal pricing cannot proceed.
type Fallback struct {
	Name        string
	Code        string
	Description string
	PriceCents  int64
}

// Default fallback rates.
var (
	NoCarriersFallback = Fallback{
		Name:        "Standard Shipping",
		Code:        "standard",
		Description: "Standard shipping (no carriers configured)",
		PriceCents:  1000,
	}
	InfeasibleFallback = Fallback{
		Name:        "Standard Shipping",
		Code:        "standard",
		Description: "Standard shipping (order exceeds carrier limits)",
		PriceCents:  1500,
	}
	ErrorFallback = Fallback{
		Name:        "Standard Shipping",
		Code:        "standard",
		Description: "Standard shipping (fallback)",
		PriceCents:  1000,
	}
)

// Outcome tells which path a selection took.
type Outcome int

const (
	OutcomePriced Outcome = iota
	OutcomeNoCarriers
	OutcomeInfeasible
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoCarriers:
		return "no_carriers"
	case OutcomeInfeasible:
		return "infeasible"
	default:
		return "priced"
	}
}

// Selector chooses among carriers priced for the same destination.
type Selector struct {
	Currency   string
	NoCarriers Fallback
	Infeasible Fallback
}

// NewSelector returns a Selector with the default fallbacks.
func NewSelector(currency string) *Selector {
	if strings.TrimSpace(currency) == "" {
		currency = "EUR"
	}
	return &Selector{Currency: currency, NoCarriers: NoCarriersFallback, Infeasible: InfeasibleFallback}
}

// candidate is one carrier together with the parcel set it is asked to ship.
type candidate struct {
	carrier Carrier
	parcels []parcel.Parcel
	// unusable marks carriers whose parcel set could not be built.
	unusable bool
}

// SelectBest returns the cheapest eligible carrier for parcels, or a fallback quote.
func (s *Selector) SelectBest(parcels []parcel.Parcel, country string, carriers []Carrier) Quote {
	return s.best(s.evaluate(shared(parcels, carriers), country))
}

// SelectAllEligible returns every eligible carrier sorted by price, cheapest first.
// The result always holds at least one quote.
func (s *Selector) SelectAllEligible(parcels []parcel.Parcel, country string, carriers []Carrier) []Quote {
	return s.all(s.evaluate(shared(parcels, carriers), country))
}

func shared(parcels []parcel.Parcel, carriers []Carrier) []candidate {
	cands := make([]candidate, len(carriers))
	for i, c := range carriers {
		cands[i] = candidate{carrier: c, parcels: parcels}
	}
	return cands
}

// evaluate prices every candidate and keeps the eligible ones sorted by cost.
// Ties keep the carrier order.
func (s *Selector) evaluate(cands []candidate, country string) ([]Pricing, Outcome) {
	if len(cands) == 0 {
		return nil, OutcomeNoCarriers
	}
	eligible := make([]Pricing, 0, len(cands))
	for _, c := range cands {
		if c.unusable {
			continue
		}
		p := PriceCarrier(c.carrier, c.parcels, country)
		if p.Eligible {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return nil, OutcomeInfeasible
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].TotalCost.LessThan(eligible[j].TotalCost)
	})
	return eligible, OutcomePriced
}

func (s *Selector) best(eligible []Pricing, outcome Outcome) Quote {
	if outcome != OutcomePriced {
		return s.fallbackFor(outcome)
	}
	return s.quote(eligible[0])
}

func (s *Selector) all(eligible []Pricing, outcome Outcome) []Quote {
	if outcome != OutcomePriced {
		return []Quote{s.fallbackFor(outcome)}
	}
	quotes := make([]Quote, len(eligible))
	for i, p := range eligible {
		quotes[i] = s.quote(p)
	}
	return quotes
}

func (s *Selector) fallbackFor(outcome Outcome) Quote {
	if outcome == OutcomeNoCarriers {
		return FallbackQuote(s.NoCarriers, s.Currency)
	}
	return FallbackQuote(s.Infeasible, s.Currency)
}

// FallbackQuote turns a fixed fallback into a quote.
func FallbackQuote(f Fallback, currency string) Quote {
	return Quote{
		CarrierName:     f.Name,
		ServiceName:     f.Name,
		ServiceCode:     f.Code,
		TotalPriceCents: f.PriceCents,
		Description:     f.Description,
		Currency:        currency,
		Fallback:        true,
	}
}

func (s *Selector) quote(p Pricing) Quote {
	n := len(p.Parcels)
	weight := parcel.TotalWeight(p.Parcels)
	desc := fmt.Sprintf("%skg in %d %s", parcel.FormatKg(weight), n, parcelNoun(n))
	if p.DeliveryTime != "" {
		desc += fmt.Sprintf(" (Delivery: %s days)", p.DeliveryTime)
	}
	return Quote{
		CarrierID:       p.Carrier.ID,
		CarrierName:     p.Carrier.Name,
		ServiceName:     fmt.Sprintf("%s (%d %s)", p.Carrier.Name, n, parcelNoun(n)),
		ServiceCode:     ServiceCode(p.Carrier.Name),
		TotalPriceCents: p.Cents(),
		ParcelCount:     n,
		WeightGrams:     weight,
		Description:     desc,
		Currency:        s.Currency,
		DeliveryTime:    p.DeliveryTime,
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ServiceCode derives the checkout service code from a carrier name:
// lower case with every whitespace run replaced by one underscore.
func ServiceCode(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "_")
}

func parcelNoun(n int) string {
	if n == 1 {
		return "parcel"
	}
	return "parcels"
}
