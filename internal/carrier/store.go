package carrier

import (
	"context"
	"math"
	"strings"

	"shippingcalc/internal/rate"
	apperrors "shippingcalc/pkg/errors"
)

// Store is the writable carrier directory behind the admin API.
type Store interface {
	Directory
	GetCarrier(ctx context.Context, id string) (rate.Carrier, error)
	CreateCarrier(ctx context.Context, in CarrierInput) (rate.Carrier, error)
	UpdateCarrier(ctx context.Context, id string, in CarrierInput) (rate.Carrier, error)
	DeleteCarrier(ctx context.Context, id string) error

	AddCountryRate(ctx context.Context, carrierID string, in CountryRateInput) (rate.CountryRate, error)
	UpdateCountryRate(ctx context.Context, carrierID, countryID string, in CountryRateInput) (rate.CountryRate, error)
	DeleteCountryRate(ctx context.Context, carrierID, countryID string) error

	AddWeightRate(ctx context.Context, carrierID, countryID string, in WeightRateInput) (rate.WeightRate, error)
	UpdateWeightRate(ctx context.Context, carrierID, countryID, rateID string, in WeightRateInput) (rate.WeightRate, error)
	DeleteWeightRate(ctx context.Context, carrierID, countryID, rateID string) error
}

type CarrierInput struct {
	Name           string  `json:"name"`
	MaxWeightKg    float64 `json:"max_weight_kg"`
	BaseCostCents  int64   `json:"base_cost_cents"`
	CostPerKgCents int64   `json:"cost_per_kg_cents"`
}

// Validate trims the name and checks limits and costs.
func (in *CarrierInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	verr := &apperrors.ValidationError{Message: "invalid carrier"}
	if in.Name == "" {
		verr.Add("name", "carrier name is required")
	}
	if !(in.MaxWeightKg > 0) || math.IsInf(in.MaxWeightKg, 0) {
		verr.Add("max_weight_kg", "max weight must be a positive number")
	}
	if in.BaseCostCents < 0 {
		verr.Add("base_cost_cents", "base cost must be a non-negative number")
	}
	if in.CostPerKgCents < 0 {
		verr.Add("cost_per_kg_cents", "cost per kg must be a non-negative number")
	}
	return verr.OrNil()
}

type CountryRateInput struct {
	CountryCode  string `json:"country_code"`
	DeliveryTime string `json:"delivery_time"`
}

// Validate upper-cases the code and requires two ASCII letters.
func (in *CountryRateInput) Validate() error {
	in.CountryCode = strings.ToUpper(strings.TrimSpace(in.CountryCode))
	in.DeliveryTime = strings.TrimSpace(in.DeliveryTime)
	verr := &apperrors.ValidationError{Message: "invalid country rate"}
	if !isCountryCode(in.CountryCode) {
		verr.Add("country_code", "must be a two letter country code")
	}
	return verr.OrNil()
}

func isCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

type WeightRateInput struct {
	MinWeightKg float64 `json:"min_weight_kg"`
	MaxWeightKg float64 `json:"max_weight_kg"`
	PriceCents  int64   `json:"price_cents"`
}

func (in WeightRateInput) Validate() error {
	verr := &apperrors.ValidationError{Message: "invalid weight rate"}
	if math.IsNaN(in.MinWeightKg) || math.IsInf(in.MinWeightKg, 0) || in.MinWeightKg < 0 {
		verr.Add("min_weight_kg", "min weight must be a non-negative number")
	}
	if math.IsNaN(in.MaxWeightKg) || math.IsInf(in.MaxWeightKg, 0) {
		verr.Add("max_weight_kg", "max weight must be a finite number")
	} else if !(in.MinWeightKg < in.MaxWeightKg) {
		verr.Add("max_weight_kg", "max weight must be greater than min weight")
	}
	if in.PriceCents < 0 {
		verr.Add("price_cents", "price must be a non-negative number")
	}
	return verr.OrNil()
}

// checkOverlap rejects a band that overlaps another band of the same country.
// Bands may share an endpoint, so [0,3] and [3,10] can coexist.
func checkOverlap(existing []rate.WeightRate, in WeightRateInput, skipID string) error {
	for _, w := range existing {
		if w.ID == skipID {
			continue
		}
		if in.MinWeightKg < w.MaxWeightKg && w.MinWeightKg < in.MaxWeightKg {
			verr := &apperrors.ValidationError{Message: "invalid weight rate"}
			verr.Add("min_weight_kg", "weight band overlaps an existing band")
			return verr
		}
	}
	return nil
}

func notFound(resource, id string) error {
	return &apperrors.NotFoundError{Resource: resource, ID: id}
}

func duplicateCountry(code string) error {
	return &apperrors.ConflictError{Message: "country " + code + " is already configured for this carrier"}
}
