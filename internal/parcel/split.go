package parcel

import (
	"math"
	"sort"
	"strconv"

	apperrors "shippingcalc/pkg/errors"
)

// Item is one cart line: Quantity units of UnitWeightGrams each.
type Item struct {
	ID              string
	UnitWeightGrams float64
	Quantity        int
}

// Weight is the total weight the item contributes to the cart.
func (it Item) Weight() float64 { return it.UnitWeightGrams * float64(it.Quantity) }

// Entry is the fragment of an Item placed in one parcel.
type Entry struct {
	ID              string
	UnitWeightGrams float64
	Quantity        int
}

// Weight of the fragment.
func (e Entry) Weight() float64 { return e.UnitWeightGrams * float64(e.Quantity) }

// Parcel groups entries under a weight ceiling.
type Parcel struct {
	Items       []Entry
	WeightGrams float64
}

// Oversized reports whether the parcel exceeds maxWeightGrams. Split only produces
// such parcels for a single unit that is heavier than the ceiling on its own.
func (p Parcel) Oversized(maxWeightGrams float64) bool {
	return p.WeightGrams > maxWeightGrams
}

// Quantity returns how many units of the item with the given ID the parcel holds.
func (p Parcel) Quantity(id string) int {
	n := 0
	for _, e := range p.Items {
		if e.ID == id {
			n += e.Quantity
		}
	}
	return n
}

func (p Parcel) clone() Parcel {
	items := make([]Entry, len(p.Items))
	copy(items, p.Items)
	return Parcel{Items: items, WeightGrams: p.WeightGrams}
}

// TotalWeight sums the weight of all parcels.
func TotalWeight(parcels []Parcel) float64 {
	var total float64
	for _, p := range parcels {
		total += p.WeightGrams
	}
	return total
}

// Validate checks the ceiling and the items before any packing happens.
func Validate(items []Item, maxWeightGrams float64) error {
	verr := &apperrors.ValidationError{Message: "invalid parcel input"}
	if !(maxWeightGrams > 0) || math.IsInf(maxWeightGrams, 0) {
		verr.Add("max_weight_grams", "must be a positive finite number")
	}
	validateItems(verr, items)
	return verr.OrNil()
}

// DefaultMaxUnits caps the units of one cart. Every unit can end up in its own
// parcel, so the cap bounds the work of a split.
const DefaultMaxUnits = 5000

// ValidateItems checks cart lines on their own. A zero unit weight is rejected
// because the fill loop could never make progress on it. Carts holding more than
// maxUnits units in total are rejected; maxUnits <= 0 disables the cap.
func ValidateItems(items []Item, maxUnits int) error {
	verr := &apperrors.ValidationError{Message: "invalid items"}
	validateItems(verr, items)
	if maxUnits > 0 && exceedsUnits(items, maxUnits) {
		verr.Add("items", "cart exceeds the limit of "+strconv.Itoa(maxUnits)+" units")
	}
	return verr.OrNil()
}

// exceedsUnits sums quantities without overflowing on hostile input.
func exceedsUnits(items []Item, maxUnits int) bool {
	total := 0
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if it.Quantity > maxUnits-total {
			return true
		}
		total += it.Quantity
	}
	return false
}

func validateItems(verr *apperrors.ValidationError, items []Item) {
	for i, it := range items {
		prefix := "items[" + strconv.Itoa(i) + "]"
		if it.Quantity <= 0 {
			verr.Add(prefix+".quantity", "must be a positive integer")
		}
		if math.IsNaN(it.UnitWeightGrams) || math.IsInf(it.UnitWeightGrams, 0) {
			verr.Add(prefix+".grams", "must be a finite number")
		} else if it.UnitWeightGrams <= 0 {
			verr.Add(prefix+".grams", "must be greater than zero")
		}
	}
}

// Split partitions items into parcels whose weight never exceeds maxWeightGrams,
// except for parcels holding a single unit that is heavier than the ceiling itself.
//
// Items are placed heaviest first, filling the open parcel with as many whole units
// as fit, then parcels are merged pairwise while the combined weight still fits.
// The result is a heuristic, not an optimal packing. Inputs are never mutated.
func Split(items []Item, maxWeightGrams float64) ([]Parcel, error) {
	if err := Validate(items, maxWeightGrams); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []Parcel{}, nil
	}

	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight() > sorted[j].Weight()
	})

	var parcels []Parcel
	current := Parcel{}
	for _, it := range sorted {
		if it.UnitWeightGrams > maxWeightGrams {
			for n := 0; n < it.Quantity; n++ {
				parcels = append(parcels, Parcel{
					Items:       []Entry{{ID: it.ID, UnitWeightGrams: it.UnitWeightGrams, Quantity: 1}},
					WeightGrams: it.UnitWeightGrams,
				})
			}
			continue
		}

		remaining := it.Quantity
		for remaining > 0 {
			fit := unitsThatFit(maxWeightGrams-current.WeightGrams, it.UnitWeightGrams)
			if fit == 0 {
				if len(current.Items) > 0 {
					parcels = append(parcels, current)
				}
				current = Parcel{}
				continue
			}
			if fit > remaining {
				fit = remaining
			}
			e := Entry{ID: it.ID, UnitWeightGrams: it.UnitWeightGrams, Quantity: fit}
			current.Items = append(current.Items, e)
			current.WeightGrams += e.Weight()
			remaining -= fit
		}
	}
	if len(current.Items) > 0 {
		parcels = append(parcels, current)
	}

	return Merge(parcels, maxWeightGrams), nil
}

// unitsThatFit returns how many whole units of unit grams fit in capacity grams.
func unitsThatFit(capacity, unit float64) int {
	if capacity <= 0 {
		return 0
	}
	n := int(math.Floor(capacity / unit))
	// guard against float rounding pushing the parcel over its ceiling
	for n > 0 && float64(n)*unit > capacity {
		n--
	}
	return n
}

// Merge combines parcel pairs whose combined weight fits under maxWeightGrams,
// always taking the first mergeable pair in (i, j) scan order. Each merge removes one
// parcel, so at most len(parcels)-1 merges happen. The input slice is not modified.
func Merge(parcels []Parcel, maxWeightGrams float64) []Parcel {
	out := make([]Parcel, len(parcels))
	for i, p := range parcels {
		out[i] = p.clone()
	}

	i, j := 0, 1
	for {
		var ok bool
		i, j, ok = nextMergeablePair(out, maxWeightGrams, i, j)
		if !ok {
			break
		}
		out[i].Items = append(out[i].Items, out[j].Items...)
		out[i].WeightGrams += out[j].WeightGrams
		out = append(out[:j], out[j+1:]...)
	}
	return out
}

// nextMergeablePair scans pairs from (i, j) on. A merge only makes parcel i heavier,
// so no pair before the last merged one can have become mergeable and the scan
// resumes where it stopped instead of restarting at (0, 1).
func nextMergeablePair(parcels []Parcel, maxWeightGrams float64, i, j int) (int, int, bool) {
	for ; i < len(parcels); i, j = i+1, i+2 {
		if parcels[i].WeightGrams > maxWeightGrams {
			continue
		}
		for ; j < len(parcels); j++ {
			if parcels[i].WeightGrams+parcels[j].WeightGrams <= maxWeightGrams {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// MaxCeilingGrams returns the largest of the supplied limits (in kilograms) as grams.
// It returns 0 when no limits are supplied.
func MaxCeilingGrams(limitsKg ...float64) float64 {
	var max float64
	for _, kg := range limitsKg {
		if kg > max {
			max = kg
		}
	}
	return KgToGrams(max)
}
