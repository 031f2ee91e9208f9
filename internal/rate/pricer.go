package rate

import (
	"github.com/shopspring/decimal"

	"shippingcalc/internal/parcel"
)

// Pricing is the outcome of pricing one parcel set with one carrier.
type Pricing struct {
	Carrier Carrier
	Parcels []parcel.Parcel
	// TotalCost is in cents and may carry a fraction until the quote is built.
	TotalCost decimal.Decimal
	// Eligible is false once any parcel exceeded the carrier ceiling.
	Eligible     bool
	DeliveryTime string
}

// PriceCarrier prices every parcel with the carrier's rate table for country.
//
// A parcel heavier than the carrier ceiling makes the carrier ineligible, but its
// cost is still accumulated so the total reflects what the order would have cost.
// Parcels are priced from the first matching weight band of the destination and
// otherwise from base + kg * per-kg.
func PriceCarrier(c Carrier, parcels []parcel.Parcel, country string) Pricing {
	p := Pricing{Carrier: c, Parcels: parcels, TotalCost: decimal.Zero, Eligible: true}
	cr, hasCountry := c.Country(country)

	for _, pc := range parcels {
		weightKg := parcel.GramsToKg(pc.WeightGrams)
		if weightKg > c.MaxWeightKg {
			p.Eligible = false
		}

		if hasCountry {
			if band, ok := cr.Band(weightKg); ok {
				p.TotalCost = p.TotalCost.Add(decimal.NewFromInt(band.PriceCents))
				p.DeliveryTime = cr.DeliveryTime
				continue
			}
		}
		p.TotalCost = p.TotalCost.Add(linearCost(c, weightKg))
	}
	return p
}

func linearCost(c Carrier, weightKg float64) decimal.Decimal {
	perKg := decimal.NewFromFloat(weightKg).Mul(decimal.NewFromInt(c.CostPerKgCents))
	return decimal.NewFromInt(c.BaseCostCents).Add(perKg)
}

// Cents rounds the total to whole cents, half away from zero.
func (p Pricing) Cents() int64 {
	return p.TotalCost.Round(0).IntPart()
}
