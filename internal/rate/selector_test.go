package rate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectBestSkipsCarrierBelowParcelWeight(t *testing.T) {
	t.Parallel()

	carriers := []Carrier{
		{ID: "a", Name: "Carrier A", MaxWeightKg: 30, BaseCostCents: 500, CostPerKgCents: 100},
		{ID: "b", Name: "Carrier B", MaxWeightKg: 5, BaseCostCents: 100, CostPerKgCents: 10},
	}
	q := NewSelector("EUR").SelectBest(singleParcel(10000), "AT", carriers)
	require.False(t, q.Fallback)
	require.Equal(t, "a", q.CarrierID)
	require.Equal(t, int64(1500), q.TotalPriceCents)
	require.Equal(t, "carrier_a", q.ServiceCode)
	require.Equal(t, "Carrier A (1 parcel)", q.ServiceName)
	require.Equal(t, "10.00kg in 1 parcel", q.Description)
	require.Equal(t, 1, q.ParcelCount)
}

func TestSelectBestUsesCountryBand(t *testing.T) {
	t.Parallel()

	q := NewSelector("EUR").SelectBest(singleParcel(7000), "AT", []Carrier{bandedCarrier()})
	require.Equal(t, int64(900), q.TotalPriceCents)
	require.Equal(t, "7.00kg in 1 parcel (Delivery: 2-3 days)", q.Description)
	require.Equal(t, "2-3", q.DeliveryTime)
}

func TestSelectBestWithoutCarriers(t *testing.T) {
	t.Parallel()

	for _, currency := range []string{"EUR", "USD"} {
		q := NewSelector(currency).SelectBest(singleParcel(1000), "AT", nil)
		require.True(t, q.Fallback)
		require.Equal(t, NoCarriersFallback.PriceCents, q.TotalPriceCents)
		require.Equal(t, currency, q.Currency)
		require.Equal(t, "standard", q.ServiceCode)
	}
}

func TestSelectBestWhenNoCarrierIsEligible(t *testing.T) {
	t.Parallel()

	carriers := []Carrier{
		{Name: "Tiny", MaxWeightKg: 1, BaseCostCents: 100},
		{Name: "Small", MaxWeightKg: 2, BaseCostCents: 100},
	}
	q := NewSelector("EUR").SelectBest(singleParcel(2500), "AT", carriers)
	require.True(t, q.Fallback)
	require.Equal(t, InfeasibleFallback.PriceCents, q.TotalPriceCents)
	require.NotEqual(t, NoCarriersFallback.PriceCents, q.TotalPriceCents)
	require.Equal(t, InfeasibleFallback.Description, q.Description)
}

func TestSelectBestTieKeepsCarrierOrder(t *testing.T) {
	t.Parallel()

	carriers := []Carrier{
		{ID: "first", Name: "First", MaxWeightKg: 10, BaseCostCents: 700},
		{ID: "second", Name: "Second", MaxWeightKg: 10, BaseCostCents: 700},
		{ID: "pricey", Name: "Pricey", MaxWeightKg: 10, BaseCostCents: 900},
	}
	sel := NewSelector("EUR")
	for i := 0; i < 10; i++ {
		require.Equal(t, "first", sel.SelectBest(singleParcel(1000), "AT", carriers).CarrierID)
	}
}

func TestSelectAllEligibleSortedByPrice(t *testing.T) {
	t.Parallel()

	carriers := []Carrier{
		{ID: "expensive", Name: "Express  Air", MaxWeightKg: 30, BaseCostCents: 2000},
		{ID: "too-small", Name: "Letter", MaxWeightKg: 0.5, BaseCostCents: 50},
		{ID: "cheap", Name: "Ground", MaxWeightKg: 30, BaseCostCents: 300},
	}
	quotes := NewSelector("EUR").SelectAllEligible(singleParcel(2000), "AT", carriers)
	require.Len(t, quotes, 2)
	require.Equal(t, "cheap", quotes[0].CarrierID)
	require.Equal(t, "expensive", quotes[1].CarrierID)
	require.Equal(t, "express_air", quotes[1].ServiceCode)
}

func TestSelectAllEligibleFallbacks(t *testing.T) {
	t.Parallel()

	sel := NewSelector("EUR")
	quotes := sel.SelectAllEligible(singleParcel(1000), "AT", nil)
	require.Len(t, quotes, 1)
	require.Equal(t, NoCarriersFallback.PriceCents, quotes[0].TotalPriceCents)

	quotes = sel.SelectAllEligible(singleParcel(9000), "AT", []Carrier{{Name: "Tiny", MaxWeightKg: 1}})
	require.Len(t, quotes, 1)
	require.Equal(t, InfeasibleFallback.PriceCents, quotes[0].TotalPriceCents)
}

func TestServiceCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, "dhl_parcel", ServiceCode("DHL Parcel"))
	require.Equal(t, "post_express", ServiceCode("Post \t Express"))
	require.Equal(t, "ups", ServiceCode("UPS"))
}
