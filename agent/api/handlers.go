package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
	shipmentx "github.com/tanpawarit/cargo-dispatch/agent/shipment"
)

type errorResponse struct {
	Error string `json:"error"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var body contractx.ChatRequest
	if err := s.decode(w, r, &body); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid request body: %v", contractx.ErrValidation, err))
		return
	}

	resp, err := s.chat.HandleChat(r.Context(), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if resp.History == nil {
		resp.History = []contractx.ConversationTurn{}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// ListShipments handles GET /shipments.
func (s *Server) ListShipments(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []shipmentx.Record{}
	}
	writeJSON(w, r, http.StatusOK, records)
}

// UpdateShipmentStatus handles PATCH /shipments/{id}/status.
func (s *Server) UpdateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := s.decode(w, r, &body); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid request body: %v", contractx.ErrValidation, err))
		return
	}

	rec, err := s.store.UpdateStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(out)
}

// StatusOf maps domain errors onto HTTP status codes.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, contractx.ErrValidation), errors.Is(err, shipmentx.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, shipmentx.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, contractx.ErrModelTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	event := log.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = log.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")
	writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("response encode failed")
	}
}
