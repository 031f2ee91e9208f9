package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"shippingcalc/internal/carrier"
	"shippingcalc/internal/rate"
)

func TestCarrierAdminLifecycle(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, Options{Store: carrier.NewMemoryStore()})

	rr := do(h, http.MethodPost, "/carriers", `{"name":"  DHL Paket ","max_weight_kg":31.5,"base_cost_cents":490,"cost_per_kg_cents":20}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var c rate.Carrier
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &c))
	require.NotEmpty(t, c.ID)
	require.Equal(t, "DHL Paket", c.Name)

	rr = do(h, http.MethodPost, "/carriers/"+c.ID+"/countries", `{"country_code":"de","delivery_time":"1-2"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var cr rate.CountryRate
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cr))
	require.Equal(t, "DE", cr.CountryCode)

	rr = do(h, http.MethodPost, "/carriers/"+c.ID+"/countries", `{"country_code":"DE"}`)
	require.Equal(t, http.StatusConflict, rr.Code)

	base := "/carriers/" + c.ID + "/countries/" + cr.ID + "/weight-rates"
	rr = do(h, http.MethodPost, base, `{"min_weight_kg":0,"max_weight_kg":3,"price_cents":500}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var band rate.WeightRate
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &band))

	rr = do(h, http.MethodPost, base, `{"min_weight_kg":3,"max_weight_kg":10,"price_cents":900}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(h, http.MethodPost, base, `{"min_weight_kg":2,"max_weight_kg":5,"price_cents":700}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "overlaps")

	rr = do(h, http.MethodPut, base+"/"+band.ID, `{"min_weight_kg":0,"max_weight_kg":3,"price_cents":550}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(h, http.MethodGet, "/carriers/"+c.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got rate.Carrier
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Countries, 1)
	require.Len(t, got.Countries[0].WeightRates, 2)
	require.Equal(t, int64(550), got.Countries[0].WeightRates[0].PriceCents)

	rr = do(h, http.MethodPost, "/api/quotes", `{"country":"DE","items":[{"id":"box","grams":2500,"quantity":1}]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var q QuoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &q))
	require.Len(t, q.Quotes, 1)
	require.Equal(t, int64(550), q.Quotes[0].TotalPriceCents)
	require.Equal(t, "dhl_paket", q.Quotes[0].ServiceCode)

	rr = do(h, http.MethodDelete, base+"/"+band.ID, "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(h, http.MethodDelete, "/carriers/"+c.ID+"/countries/"+cr.ID, "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(h, http.MethodDelete, "/carriers/"+c.ID, "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(h, http.MethodGet, "/carriers/"+c.ID, "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "resource_not_found")
}

func TestCarrierAdminList(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, Options{Store: seedStore(t)})

	rr := do(h, http.MethodGet, "/carriers", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var res struct {
		Carriers []rate.Carrier `json:"carriers"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Len(t, res.Carriers, 2)
	require.Equal(t, "Express Cargo", res.Carriers[0].Name)
	require.Equal(t, "Post AT", res.Carriers[1].Name)
}

func TestCarrierAdminErrors(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, Options{Store: carrier.NewMemoryStore()})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"invalid json", http.MethodPost, "/carriers", `{"name":`, http.StatusBadRequest, "invalid_json"},
		{"missing name", http.MethodPost, "/carriers", `{"max_weight_kg":10}`, http.StatusBadRequest, "invalid_request"},
		{"zero ceiling", http.MethodPost, "/carriers", `{"name":"X","max_weight_kg":0}`, http.StatusBadRequest, "invalid_request"},
		{"unknown carrier", http.MethodGet, "/carriers/nope", "", http.StatusNotFound, "resource_not_found"},
		{"update unknown carrier", http.MethodPut, "/carriers/nope", `{"name":"X","max_weight_kg":1}`, http.StatusNotFound, "resource_not_found"},
		{"delete unknown carrier", http.MethodDelete, "/carriers/nope", "", http.StatusNotFound, "resource_not_found"},
		{"country on unknown carrier", http.MethodPost, "/carriers/nope/countries", `{"country_code":"AT"}`, http.StatusNotFound, "resource_not_found"},
		{"band on unknown country", http.MethodPost, "/carriers/nope/countries/nope/weight-rates", `{"min_weight_kg":0,"max_weight_kg":1,"price_cents":1}`, http.StatusNotFound, "resource_not_found"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rr := do(h, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rr.Code)
			var res struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
			require.Equal(t, tt.code, res.Error.Code)
		})
	}
}
