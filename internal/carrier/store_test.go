package carrier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"shippingcalc/internal/rate"
	apperrors "shippingcalc/pkg/errors"
)

func TestCarrierInputValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    CarrierInput
		field string
	}{
		{name: "missing name", in: CarrierInput{Name: "  ", MaxWeightKg: 10}, field: "name"},
		{name: "zero max weight", in: CarrierInput{Name: "DHL", MaxWeightKg: 0}, field: "max_weight_kg"},
		{name: "negative base cost", in: CarrierInput{Name: "DHL", MaxWeightKg: 10, BaseCostCents: -1}, field: "base_cost_cents"},
		{name: "negative per kg", in: CarrierInput{Name: "DHL", MaxWeightKg: 10, CostPerKgCents: -1}, field: "cost_per_kg_cents"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.in.Validate()
			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Contains(t, verr.Fields, tc.field)
		})
	}

	ok := CarrierInput{Name: " DHL ", MaxWeightKg: 31.5}
	require.NoError(t, ok.Validate())
	require.Equal(t, "DHL", ok.Name)
}

func TestCountryRateInputValidate(t *testing.T) {
	t.Parallel()

	in := CountryRateInput{CountryCode: " at ", DeliveryTime: " 2-3 "}
	require.NoError(t, in.Validate())
	require.Equal(t, "AT", in.CountryCode)
	require.Equal(t, "2-3", in.DeliveryTime)

	for _, code := range []string{"", "A", "AUT", "A1"} {
		bad := CountryRateInput{CountryCode: code}
		require.Error(t, bad.Validate(), code)
	}
}

func TestWeightRateInputValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, WeightRateInput{MinWeightKg: 0, MaxWeightKg: 3, PriceCents: 500}.Validate())
	require.Error(t, WeightRateInput{MinWeightKg: 3, MaxWeightKg: 3}.Validate())
	require.Error(t, WeightRateInput{MinWeightKg: 5, MaxWeightKg: 3}.Validate())
	require.Error(t, WeightRateInput{MinWeightKg: -1, MaxWeightKg: 3}.Validate())
	require.Error(t, WeightRateInput{MinWeightKg: 0, MaxWeightKg: 3, PriceCents: -5}.Validate())
}

func TestMemoryStoreLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	post, err := s.CreateCarrier(ctx, CarrierInput{Name: "Post", MaxWeightKg: 31.5, BaseCostCents: 500, CostPerKgCents: 100})
	require.NoError(t, err)
	_, err = s.CreateCarrier(ctx, CarrierInput{Name: "DHL", MaxWeightKg: 20, BaseCostCents: 700})
	require.NoError(t, err)

	at, err := s.AddCountryRate(ctx, post.ID, CountryRateInput{CountryCode: "at", DeliveryTime: "1-2"})
	require.NoError(t, err)
	require.Equal(t, "AT", at.CountryCode)

	_, err = s.AddCountryRate(ctx, post.ID, CountryRateInput{CountryCode: "AT"})
	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)

	_, err = s.AddWeightRate(ctx, post.ID, at.ID, WeightRateInput{MinWeightKg: 0, MaxWeightKg: 3, PriceCents: 500})
	require.NoError(t, err)
	heavy, err := s.AddWeightRate(ctx, post.ID, at.ID, WeightRateInput{MinWeightKg: 3, MaxWeightKg: 10, PriceCents: 900})
	require.NoError(t, err)

	_, err = s.AddWeightRate(ctx, post.ID, at.ID, WeightRateInput{MinWeightKg: 2, MaxWeightKg: 4, PriceCents: 700})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)

	updated, err := s.UpdateWeightRate(ctx, post.ID, at.ID, heavy.ID, WeightRateInput{MinWeightKg: 3, MaxWeightKg: 12, PriceCents: 950})
	require.NoError(t, err)
	require.Equal(t, int64(950), updated.PriceCents)

	carriers, err := s.Carriers(ctx)
	require.NoError(t, err)
	require.Len(t, carriers, 2)
	require.Equal(t, "DHL", carriers[0].Name, "carriers are ordered by name")
	require.Equal(t, "Post", carriers[1].Name)
	require.Len(t, carriers[1].Countries, 1)
	require.Len(t, carriers[1].Countries[0].WeightRates, 2)
	require.Equal(t, 0.0, carriers[1].Countries[0].WeightRates[0].MinWeightKg, "bands keep insertion order")

	// mutating a read result must not leak into the store
	carriers[1].Countries[0].WeightRates[0].PriceCents = 1
	again, err := s.GetCarrier(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, int64(500), again.Countries[0].WeightRates[0].PriceCents)

	require.NoError(t, s.DeleteWeightRate(ctx, post.ID, at.ID, heavy.ID))
	require.NoError(t, s.DeleteCountryRate(ctx, post.ID, at.ID))
	require.NoError(t, s.DeleteCarrier(ctx, post.ID))

	var nf *apperrors.NotFoundError
	_, err = s.GetCarrier(ctx, post.ID)
	require.ErrorAs(t, err, &nf)
	require.ErrorAs(t, s.DeleteCarrier(ctx, post.ID), &nf)
}

func TestMemoryStoreUpdateCountryRateRejectsDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	c, err := s.CreateCarrier(ctx, CarrierInput{Name: "Post", MaxWeightKg: 10})
	require.NoError(t, err)
	_, err = s.AddCountryRate(ctx, c.ID, CountryRateInput{CountryCode: "AT"})
	require.NoError(t, err)
	de, err := s.AddCountryRate(ctx, c.ID, CountryRateInput{CountryCode: "DE"})
	require.NoError(t, err)

	_, err = s.UpdateCountryRate(ctx, c.ID, de.ID, CountryRateInput{CountryCode: "AT"})
	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)

	renamed, err := s.UpdateCountryRate(ctx, c.ID, de.ID, CountryRateInput{CountryCode: "DE", DeliveryTime: "3-4"})
	require.NoError(t, err)
	require.Equal(t, "3-4", renamed.DeliveryTime)
}

type failingDirectory struct{}

func (failingDirectory) Carriers(context.Context) ([]rate.Carrier, error) {
	return nil, errors.New("connection refused")
}

type nilDirectory struct{}

func (nilDirectory) Carriers(context.Context) ([]rate.Carrier, error) { return nil, nil }

func TestReaderNeverFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.NotNil(t, NewReader(failingDirectory{}, nil).Load(ctx))
	require.Empty(t, NewReader(failingDirectory{}, nil).Load(ctx))
	require.NotNil(t, NewReader(nilDirectory{}, nil).Load(ctx))
	require.Empty(t, NewReader(nil, nil).Load(ctx))

	s := NewMemoryStore()
	_, err := s.CreateCarrier(ctx, CarrierInput{Name: "Post", MaxWeightKg: 10})
	require.NoError(t, err)
	require.Len(t, NewReader(s, nil).Load(ctx), 1)
}
