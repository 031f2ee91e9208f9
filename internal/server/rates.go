package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"shippingcalc/internal/parcel"
	"shippingcalc/internal/rate"
	apperrors "shippingcalc/pkg/errors"
)

const maxBodyBytes = 1 << 20

// ShopifyRateResponse is the carrier service callback answer.
type ShopifyRateResponse struct {
	Rates []ShopifyRateOption `json:"rates"`
}

type ShopifyRateOption struct {
	ServiceName string `json:"service_name"`
	ServiceCode string `json:"service_code"`
	TotalPrice  int64  `json:"total_price"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

func toShopifyRates(quotes []rate.Quote) ShopifyRateResponse {
	res := ShopifyRateResponse{Rates: make([]ShopifyRateOption, 0, len(quotes))}
	for _, q := range quotes {
		res.Rates = append(res.Rates, ShopifyRateOption{
			ServiceName: q.ServiceName,
			ServiceCode: q.ServiceCode,
			TotalPrice:  q.TotalPriceCents,
			Description: q.Description,
			Currency:    q.Currency,
		})
	}
	return res
}

func (s *Server) handleRatesStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"service":   serviceName,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

// handleShippingRates answers Shopify's rate callback. Apart from a bad signature it
// always answers 200 with at least one rate so checkout is never left without options.
func (s *Server) handleShippingRates(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With(zap.String("request_id", w.Header().Get("X-Request-ID")))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Warn("rate request read failed", zap.Error(err))
		s.writeFallbackRate(w)
		return
	}

	if s.secret != "" && !verifyShopifyHMAC(s.secret, body, r.Header.Get("X-Shopify-Hmac-Sha256")) {
		writeErrorJSON(w, http.StatusUnauthorized, "signature_mismatch", "invalid webhook signature")
		return
	}

	items, country, err := s.norm.Normalize(body)
	if err != nil {
		log.Warn("rate request could not be decoded", zap.Error(err))
		s.writeFallbackRate(w)
		return
	}

	carriers := s.carriers.Load(r.Context())
	res, err := s.calc.Quote(items, country, carriers, s.mode)
	if err != nil {
		log.Warn("rate request rejected", zap.Error(err), zap.Int("items", len(items)))
		s.writeFallbackRate(w)
		return
	}

	log.Info("shipping rates calculated",
		zap.String("country", country),
		zap.Int("items", len(items)),
		zap.Int("carriers", len(carriers)),
		zap.Stringer("outcome", res.Outcome),
		zap.Int("rates", len(res.Quotes)),
	)
	writeJSON(w, http.StatusOK, toShopifyRates(res.Quotes))
}

func (s *Server) writeFallbackRate(w http.ResponseWriter) {
	q := rate.FallbackQuote(s.fallback, s.calc.Selector.Currency)
	writeJSON(w, http.StatusOK, toShopifyRates([]rate.Quote{q}))
}

// verifyShopifyHMAC checks the base64 HMAC-SHA256 Shopify computes over the raw body.
func verifyShopifyHMAC(secret string, body []byte, header string) bool {
	header = strings.TrimSpace(header)
	if secret == "" || header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

// QuoteRequest is the body of the internal quote API.
type QuoteRequest struct {
	Country string      `json:"country"`
	Mode    string      `json:"mode"`
	Items   []QuoteItem `json:"items"`
}

type QuoteItem struct {
	ID       string  `json:"id"`
	Grams    float64 `json:"grams"`
	Quantity int     `json:"quantity"`
}

type QuoteResponse struct {
	Country string       `json:"country"`
	Outcome string       `json:"outcome"`
	Quotes  []rate.Quote `json:"quotes"`
}

// handleQuotes prices a cart for internal callers. Unlike the Shopify callback it
// reports malformed input as a 400.
func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	items := make([]parcel.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = parcel.Item{ID: it.ID, UnitWeightGrams: it.Grams, Quantity: it.Quantity}
	}
	mode := s.mode
	if strings.TrimSpace(req.Mode) != "" {
		mode = rate.ModeByName(req.Mode)
	}
	country := s.norm.Country(req.Country)

	res, err := s.calc.Quote(items, country, s.carriers.Load(r.Context()), mode)
	if err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
			return
		}
		writeErrorJSON(w, http.StatusInternalServerError, "internal_error", "quote failed")
		return
	}
	writeJSON(w, http.StatusOK, QuoteResponse{Country: country, Outcome: res.Outcome.String(), Quotes: res.Quotes})
}
