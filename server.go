package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"i4.energy/across/gsmat/gsm"
	"i4.energy/across/gsmat/modem"
)

// Server handles incoming HTTP requests for interacting with the
// configured modem instance
type Server struct {
	Logger *slog.Logger
	Modem  *modem.Modem
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sms", s.handleSendSMS)
	mux.HandleFunc("GET /sms", s.handleListSMS)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /operators", s.handleOperators)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)

}

func (s *Server) sendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// handleSendSMS processes incoming HTTP POST requests to send SMS messages
func (s *Server) handleSendSMS(w http.ResponseWriter, r *http.Request) {
	type SMSRequest struct {
		To      string `json:"to"`
		Message string `json:"message"`
	}

	var req SMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.To == "" || req.Message == "" {
		s.sendError(w, "both 'to' and 'message' fields are required", http.StatusBadRequest)
		return
	}

	pos, err := s.Modem.SendSMS(r.Context(), req.To, req.Message)
	if err != nil {
		s.Logger.Error("Failed to send SMS", "error", err, "to", req.To)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("SMS sent successfully", "to", req.To, "position", pos, "message_length", len(req.Message))
	s.sendJSON(w, struct {
		Position int32 `json:"position"`
	}{pos})
}

// maxListLimit bounds the "limit" query parameter of GET /sms; the
// result buffer is allocated up front, so the bound keeps a request
// from asking for an arbitrarily large allocation.
const maxListLimit = 256

// handleListSMS returns the messages in the active read storage. The
// optional "limit" query parameter caps the result; default 32.
func (s *Server) handleListSMS(w http.ResponseWriter, r *http.Request) {
	limit := 32
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 || n > maxListLimit {
			s.sendError(w, "'limit' must be between 1 and "+strconv.Itoa(maxListLimit), http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries := make([]gsm.SmsEntry, limit)
	n, err := s.Modem.ListSMS(r.Context(), gsm.MemCurrent, gsm.SmsStatusAll, entries)
	if err != nil {
		s.Logger.Error("Failed to list SMS", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type SMSEntry struct {
		Position int32  `json:"position"`
		Number   string `json:"number"`
		Text     string `json:"text"`
	}
	out := make([]SMSEntry, 0, n)
	for _, e := range entries[:n] {
		out = append(out, SMSEntry{Position: e.Pos, Number: e.Number, Text: e.Text})
	}
	s.sendJSON(w, out)
}

// handleStatus reports the SIM state and identity of the modem.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	info := s.Modem.SIMInfo()
	s.sendJSON(w, struct {
		SimState string `json:"sim_state"`
		CCID     string `json:"ccid,omitempty"`
		IMSI     string `json:"imsi,omitempty"`
	}{
		SimState: s.Modem.SimState().String(),
		CCID:     info.CCID,
		IMSI:     info.IMSI,
	})
}

// handleOperators runs a network survey. Surveys regularly run for
// tens of seconds, so the handler stretches the request deadline.
func (s *Server) handleOperators(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var ops [16]gsm.Operator
	n, err := s.Modem.ScanOperators(ctx, ops[:])
	if err != nil {
		s.Logger.Error("Operator scan failed", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type OperatorEntry struct {
		Status    uint8  `json:"status"`
		LongName  string `json:"long_name"`
		ShortName string `json:"short_name"`
		Num       int32  `json:"num"`
	}
	out := make([]OperatorEntry, 0, n)
	for _, op := range ops[:n] {
		out = append(out, OperatorEntry{
			Status:    uint8(op.Status),
			LongName:  op.LongName,
			ShortName: op.ShortName,
			Num:       op.Num,
		})
	}
	s.sendJSON(w, out)
}
