package carrier

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"shippingcalc/internal/rate"
)

// MemoryStore keeps carriers in process. Useful for tests and local runs without a database.
type MemoryStore struct {
	mu       sync.Mutex
	carriers map[string]*rate.Carrier
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carriers: make(map[string]*rate.Carrier)}
}

// Carriers implements Directory. Carriers are ordered by name.
func (s *MemoryStore) Carriers(_ context.Context) ([]rate.Carrier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]rate.Carrier, 0, len(s.carriers))
	for _, c := range s.carriers {
		out = append(out, cloneCarrier(*c))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemoryStore) GetCarrier(_ context.Context, id string) (rate.Carrier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carriers[id]
	if !ok {
		return rate.Carrier{}, notFound("carrier", id)
	}
	return cloneCarrier(*c), nil
}

func (s *MemoryStore) CreateCarrier(_ context.Context, in CarrierInput) (rate.Carrier, error) {
	if err := in.Validate(); err != nil {
		return rate.Carrier{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &rate.Carrier{
		ID:             uuid.New().String(),
		Name:           in.Name,
		MaxWeightKg:    in.MaxWeightKg,
		BaseCostCents:  in.BaseCostCents,
		CostPerKgCents: in.CostPerKgCents,
		Countries:      []rate.CountryRate{},
	}
	s.carriers[c.ID] = c
	return cloneCarrier(*c), nil
}

func (s *MemoryStore) UpdateCarrier(_ context.Context, id string, in CarrierInput) (rate.Carrier, error) {
	if err := in.Validate(); err != nil {
		return rate.Carrier{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carriers[id]
	if !ok {
		return rate.Carrier{}, notFound("carrier", id)
	}
	c.Name = in.Name
	c.MaxWeightKg = in.MaxWeightKg
	c.BaseCostCents = in.BaseCostCents
	c.CostPerKgCents = in.CostPerKgCents
	return cloneCarrier(*c), nil
}

func (s *MemoryStore) DeleteCarrier(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carriers[id]; !ok {
		return notFound("carrier", id)
	}
	delete(s.carriers, id)
	return nil
}

func (s *MemoryStore) AddCountryRate(_ context.Context, carrierID string, in CountryRateInput) (rate.CountryRate, error) {
	if err := in.Validate(); err != nil {
		return rate.CountryRate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carriers[carrierID]
	if !ok {
		return rate.CountryRate{}, notFound("carrier", carrierID)
	}
	if _, exists := c.Country(in.CountryCode); exists {
		return rate.CountryRate{}, duplicateCountry(in.CountryCode)
	}
	cr := rate.CountryRate{
		ID:           uuid.New().String(),
		CountryCode:  in.CountryCode,
		DeliveryTime: in.DeliveryTime,
		WeightRates:  []rate.WeightRate{},
	}
	c.Countries = append(c.Countries, cr)
	return cloneCountry(cr), nil
}

func (s *MemoryStore) UpdateCountryRate(_ context.Context, carrierID, countryID string, in CountryRateInput) (rate.CountryRate, error) {
	if err := in.Validate(); err != nil {
		return rate.CountryRate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, cr, err := s.country(carrierID, countryID)
	if err != nil {
		return rate.CountryRate{}, err
	}
	for _, other := range c.Countries {
		if other.ID != countryID && other.CountryCode == in.CountryCode {
			return rate.CountryRate{}, duplicateCountry(in.CountryCode)
		}
	}
	cr.CountryCode = in.CountryCode
	cr.DeliveryTime = in.DeliveryTime
	return cloneCountry(*cr), nil
}

func (s *MemoryStore) DeleteCountryRate(_ context.Context, carrierID, countryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carriers[carrierID]
	if !ok {
		return notFound("carrier", carrierID)
	}
	for i, cr := range c.Countries {
		if cr.ID == countryID {
			c.Countries = append(c.Countries[:i], c.Countries[i+1:]...)
			return nil
		}
	}
	return notFound("country rate", countryID)
}

func (s *MemoryStore) AddWeightRate(_ context.Context, carrierID, countryID string, in WeightRateInput) (rate.WeightRate, error) {
	if err := in.Validate(); err != nil {
		return rate.WeightRate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, cr, err := s.country(carrierID, countryID)
	if err != nil {
		return rate.WeightRate{}, err
	}
	if err := checkOverlap(cr.WeightRates, in, ""); err != nil {
		return rate.WeightRate{}, err
	}
	w := rate.WeightRate{
		ID:          uuid.New().String(),
		MinWeightKg: in.MinWeightKg,
		MaxWeightKg: in.MaxWeightKg,
		PriceCents:  in.PriceCents,
	}
	cr.WeightRates = append(cr.WeightRates, w)
	return w, nil
}

func (s *MemoryStore) UpdateWeightRate(_ context.Context, carrierID, countryID, rateID string, in WeightRateInput) (rate.WeightRate, error) {
	if err := in.Validate(); err != nil {
		return rate.WeightRate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, cr, err := s.country(carrierID, countryID)
	if err != nil {
		return rate.WeightRate{}, err
	}
	for i := range cr.WeightRates {
		if cr.WeightRates[i].ID != rateID {
			continue
		}
		if err := checkOverlap(cr.WeightRates, in, rateID); err != nil {
			return rate.WeightRate{}, err
		}
		cr.WeightRates[i].MinWeightKg = in.MinWeightKg
		cr.WeightRates[i].MaxWeightKg = in.MaxWeightKg
		cr.WeightRates[i].PriceCents = in.PriceCents
		return cr.WeightRates[i], nil
	}
	return rate.WeightRate{}, notFound("weight rate", rateID)
}

func (s *MemoryStore) DeleteWeightRate(_ context.Context, carrierID, countryID, rateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, cr, err := s.country(carrierID, countryID)
	if err != nil {
		return err
	}
	for i, w := range cr.WeightRates {
		if w.ID == rateID {
			cr.WeightRates = append(cr.WeightRates[:i], cr.WeightRates[i+1:]...)
			return nil
		}
	}
	return notFound("weight rate", rateID)
}

// country must be called with s.mu held.
func (s *MemoryStore) country(carrierID, countryID string) (*rate.Carrier, *rate.CountryRate, error) {
	c, ok := s.carriers[carrierID]
	if !ok {
		return nil, nil, notFound("carrier", carrierID)
	}
	for i := range c.Countries {
		if c.Countries[i].ID == countryID {
			return c, &c.Countries[i], nil
		}
	}
	return nil, nil, notFound("country rate", countryID)
}

func cloneCarrier(c rate.Carrier) rate.Carrier {
	countries := make([]rate.CountryRate, len(c.Countries))
	for i, cr := range c.Countries {
		countries[i] = cloneCountry(cr)
	}
	c.Countries = countries
	return c
}

func cloneCountry(cr rate.CountryRate) rate.CountryRate {
	bands := make([]rate.WeightRate, len(cr.WeightRates))
	copy(bands, cr.WeightRates)
	cr.WeightRates = bands
	return cr
}
