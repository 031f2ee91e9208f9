package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shippingcalc/internal/carrier"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return false
	}
	return true
}

func (s *Server) handleListCarriers(w http.ResponseWriter, r *http.Request) {
	carriers, err := s.store.Carriers(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"carriers": carriers})
}

func (s *Server) handleGetCarrier(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCarrier(r.Context(), chi.URLParam(r, "carrierID"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateCarrier(w http.ResponseWriter, r *http.Request) {
	var in carrier.CarrierInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := s.store.CreateCarrier(r.Context(), in)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCarrier(w http.ResponseWriter, r *http.Request) {
	var in carrier.CarrierInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := s.store.UpdateCarrier(r.Context(), chi.URLParam(r, "carrierID"), in)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCarrier(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCarrier(r.Context(), chi.URLParam(r, "carrierID")); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddCountryRate(w http.ResponseWriter, r *http.Request) {
	var in carrier.CountryRateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	cr, err := s.store.AddCountryRate(r.Context(), chi.URLParam(r, "carrierID"), in)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cr)
}

func (s *Server) handleUpdateCountryRate(w http.ResponseWriter, r *http.Request) {
	var in carrier.CountryRateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	cr, err := s.store.UpdateCountryRate(r.Context(), chi.URLParam(r, "carrierID"), chi.URLParam(r, "countryID"), in)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cr)
}

func (s *Server) handleDeleteCountryRate(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCountryRate(r.Context(), chi.URLParam(r, "carrierID"), chi.URLParam(r, "countryID")); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddWeightRate(w http.ResponseWriter, r *http.Request) {
	var in carrier.WeightRateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	wr, err := s.store.AddWeightRate(r.Context(), chi.URLParam(r, "carrierID"), chi.URLParam(r, "countryID"), in)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wr)
}

func (s *Server) handleUpdateWeightRate(w http.ResponseWriter, r *http.Request) {
	var in carrier.WeightRateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	wr, err := s.store.UpdateWeightRate(r.Context(), chi.URLParam(r, "carrierID"), chi.URLParam(r, "countryID"), chi.URLParam(r, "rateID"), in)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wr)
}

func (s *Server) handleDeleteWeightRate(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteWeightRate(r.Context(), chi.URLParam(r, "carrierID"), chi.URLParam(r, "countryID"), chi.URLParam(r, "rateID"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
