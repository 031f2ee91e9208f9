package parcel

import "strconv"

const gramsPerKg = 1000.0

// GramsToKg converts a cart weight (grams) into the unit carriers are configured in.
func GramsToKg(g float64) float64 { return g / gramsPerKg }

// KgToGrams converts a carrier limit (kilograms) into cart units.
func KgToGrams(kg float64) float64 { return kg * gramsPerKg }

// ExceedsKg reports whether a weight in grams is above a limit in kilograms.
// The comparison happens in kilograms, matching how carrier limits are stored.
func ExceedsKg(grams, limitKg float64) bool {
	return GramsToKg(grams) > limitKg
}

// FormatKg renders grams as kilograms with two decimals, e.g. 1250 -> "1.25".
func FormatKg(grams float64) string {
	return strconv.FormatFloat(GramsToKg(grams), 'f', 2, 64)
}
