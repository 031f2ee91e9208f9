package server

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"shippingcalc/internal/parcel"
)

// ShopifyRateRequest is the body Shopify posts to a carrier service callback.
type ShopifyRateRequest struct {
	Rate *ShopifyRate `json:"rate"`
}

type ShopifyRate struct {
	Origin      ShopifyAddress `json:"origin"`
	Destination ShopifyAddress `json:"destination"`
	Items       []ShopifyItem  `json:"items"`
	Currency    string         `json:"currency"`
	Locale      string         `json:"locale"`
}

type ShopifyAddress struct {
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	PostalCode  string `json:"postal_code"`
	Province    string `json:"province"`
	City        string `json:"city"`
}

type ShopifyItem struct {
	Name             string          `json:"name"`
	SKU              string          `json:"sku"`
	Quantity         int             `json:"quantity"`
	Grams            float64         `json:"grams"`
	Price            int64           `json:"price"`
	Vendor           string          `json:"vendor"`
	RequiresShipping *bool           `json:"requires_shipping"`
	ProductID        json.RawMessage `json:"product_id"`
	VariantID        json.RawMessage `json:"variant_id"`
}

// ErrMissingRate is returned when a payload has no "rate" object.
var ErrMissingRate = errors.New("missing rate object")

// Normalizer maps Shopify rate payloads onto engine inputs.
type Normalizer struct {
	known          map[string]struct{}
	defaultCountry string
}

// NewNormalizer accepts the destination codes carriers are configured for.
// Any other destination is priced as defaultCountry. An empty list accepts every code.
func NewNormalizer(codes []string, defaultCountry string) *Normalizer {
	n := &Normalizer{defaultCountry: strings.ToUpper(strings.TrimSpace(defaultCountry))}
	if len(codes) > 0 {
		n.known = make(map[string]struct{}, len(codes))
		for _, c := range codes {
			n.known[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
		}
	}
	return n
}

// Country maps a destination code into the carrier configuration code space.
func (n *Normalizer) Country(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return n.defaultCountry
	}
	if n.known == nil {
		return code
	}
	if _, ok := n.known[code]; ok {
		return code
	}
	return n.defaultCountry
}

// Normalize decodes a callback body into cart items and a mapped destination.
// Items marked as not requiring shipping are dropped.
func (n *Normalizer) Normalize(body []byte) ([]parcel.Item, string, error) {
	var req ShopifyRateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, "", err
	}
	if req.Rate == nil {
		return nil, "", ErrMissingRate
	}

	items := make([]parcel.Item, 0, len(req.Rate.Items))
	for i, it := range req.Rate.Items {
		if it.RequiresShipping != nil && !*it.RequiresShipping {
			continue
		}
		items = append(items, parcel.Item{
			ID:              itemID(it, i),
			UnitWeightGrams: it.Grams,
			Quantity:        it.Quantity,
		})
	}
	return items, n.Country(req.Rate.Destination.code()), nil
}

// code prefers country and falls back to country_code.
func (a ShopifyAddress) code() string {
	if c := strings.TrimSpace(a.Country); c != "" {
		return c
	}
	return a.CountryCode
}

// itemID prefers the variant, then the product, then the SKU, then the line position.
func itemID(it ShopifyItem, pos int) string {
	for _, raw := range []json.RawMessage{it.VariantID, it.ProductID} {
		if id := rawID(raw); id != "" {
			return id
		}
	}
	if sku := strings.TrimSpace(it.SKU); sku != "" {
		return sku
	}
	return "line-" + strconv.Itoa(pos)
}

func rawID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	return strings.Trim(s, `"`)
}
