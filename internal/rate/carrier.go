package rate

import "shippingcalc/internal/parcel"

// Carrier is a shipping provider configuration as read from the carrier directory.
type Carrier struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	MaxWeightKg    float64       `json:"max_weight_kg"`
	BaseCostCents  int64         `json:"base_cost_cents"`
	CostPerKgCents int64         `json:"cost_per_kg_cents"`
	Countries      []CountryRate `json:"countries"`
}

// CountryRate holds the destination specific pricing of a carrier.
type CountryRate struct {
	ID           string       `json:"id"`
	CountryCode  string       `json:"country_code"`
	DeliveryTime string       `json:"delivery_time"`
	WeightRates  []WeightRate `json:"weight_rates"`
}

// WeightRate prices parcels whose weight lies in [MinWeightKg, MaxWeightKg].
type WeightRate struct {
	ID          string  `json:"id"`
	MinWeightKg float64 `json:"min_weight_kg"`
	MaxWeightKg float64 `json:"max_weight_kg"`
	PriceCents  int64   `json:"price_cents"`
}

// Contains reports whether weightKg falls inside the band (both ends inclusive).
func (w WeightRate) Contains(weightKg float64) bool {
	return weightKg >= w.MinWeightKg && weightKg <= w.MaxWeightKg
}

// MaxWeightGrams is the carrier ceiling in cart units.
func (c Carrier) MaxWeightGrams() float64 { return parcel.KgToGrams(c.MaxWeightKg) }

// Country returns the rate table for an exact country code match.
func (c Carrier) Country(code string) (CountryRate, bool) {
	for _, cr := range c.Countries {
		if cr.CountryCode == code {
			return cr, true
		}
	}
	return CountryRate{}, false
}

// Band returns the first band in stored order containing weightKg.
// Overlapping bands are resolved by order, not by value.
func (cr CountryRate) Band(weightKg float64) (WeightRate, bool) {
	for _, w := range cr.WeightRates {
		if w.Contains(weightKg) {
			return w, true
		}
	}
	return WeightRate{}, false
}
