package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"i4.energy/across/atgsm/imei"
	"i4.energy/across/atgsm/modem"
)

// Device is the part of the modem facade exposed over HTTP.
type Device interface {
	IsResponding(ctx context.Context) (bool, error)
	IMEI(ctx context.Context) (string, error)
	IMSI(ctx context.Context) (string, error)
	ICCID(ctx context.Context) (string, error)
	SignalQuality(ctx context.Context) (modem.SignalQuality, error)
	IsNetworkReady(ctx context.Context) (bool, error)
	Reboot(ctx context.Context) error

	IsSIMLocked(ctx context.Context) (bool, error)
	UnlockSIM(ctx context.Context, pin string) (bool, error)

	ListSMS(ctx context.Context, includeRead, keepUnread bool) ([]modem.SMS, error)
	GetSMS(ctx context.Context, index int, keepUnread bool) (modem.SMS, bool, error)
	DeleteSMS(ctx context.Context, index int) (bool, error)
	DeleteAllSMS(ctx context.Context, includeUnread bool) (bool, error)

	GetContact(ctx context.Context, index int) (modem.Contact, bool, error)
	SetContact(ctx context.Context, index int, name, number string) (bool, error)

	Dial(ctx context.Context, number string) (bool, error)
	Answer(ctx context.Context) (bool, error)
	HangUp(ctx context.Context) (bool, error)
}

// Server handles incoming HTTP requests for interacting with the
// configured modem instance
type Server struct {
	Logger *slog.Logger
	Modem  Device
	router chi.Router
}

// NewServer wires the HTTP routes. Metrics are served from gatherer when it
// is not nil.
func NewServer(logger *slog.Logger, device Device, gatherer prometheus.Gatherer) *Server {
	s := &Server{Logger: logger, Modem: device}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/device", func(r chi.Router) {
		r.Get("/", s.handleDevice)
		r.Post("/reboot", s.handleReboot)
	})
	r.Route("/sim", func(r chi.Router) {
		r.Get("/", s.handleSIM)
		r.Post("/unlock", s.handleUnlockSIM)
	})
	r.Route("/sms", func(r chi.Router) {
		r.Get("/", s.handleListSMS)
		r.Delete("/", s.handleDeleteAllSMS)
		r.Get("/{index}", s.handleGetSMS)
		r.Delete("/{index}", s.handleDeleteSMS)
	})
	r.Route("/contacts", func(r chi.Router) {
		r.Get("/{index}", s.handleGetContact)
		r.Put("/{index}", s.handleSetContact)
	})
	r.Route("/call", func(r chi.Router) {
		r.Post("/dial", s.handleDial)
		r.Post("/answer", s.handleOutcome(s.Modem.Answer))
		r.Post("/hangup", s.handleOutcome(s.Modem.HangUp))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.router = r
	return s
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("Failed to write response", "error", err)
	}
}

// sendOutcome reports the result of an operation that only succeeds or not.
func (s *Server) sendOutcome(w http.ResponseWriter, ok bool) {
	type OutcomeResponse struct {
		OK bool `json:"ok"`
	}
	s.sendJSON(w, OutcomeResponse{OK: ok}, http.StatusOK)
}

// modemFailed logs and reports an error that came back from the modem.
func (s *Server) modemFailed(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.Logger.Error("Modem operation failed",
		"operation", op,
		"error", err,
		"request_id", middleware.GetReqID(r.Context()),
	)
	s.sendError(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	type DeviceResponse struct {
		Responding   bool                `json:"responding"`
		IMEI         string              `json:"imei"`
		IMEIValid    bool                `json:"imei_valid"`
		IMSI         string              `json:"imsi"`
		ICCID        string              `json:"iccid"`
		Signal       modem.SignalQuality `json:"signal"`
		NetworkReady bool                `json:"network_ready"`
	}

	ctx := r.Context()
	var (
		resp DeviceResponse
		err  error
	)
	if resp.Responding, err = s.Modem.IsResponding(ctx); err != nil {
		s.modemFailed(w, r, "is responding", err)
		return
	}
	if resp.IMEI, err = s.Modem.IMEI(ctx); err != nil {
		s.modemFailed(w, r, "imei", err)
		return
	}
	resp.IMEIValid = imei.Valid(resp.IMEI)
	if resp.IMSI, err = s.Modem.IMSI(ctx); err != nil {
		s.modemFailed(w, r, "imsi", err)
		return
	}
	if resp.ICCID, err = s.Modem.ICCID(ctx); err != nil {
		s.modemFailed(w, r, "iccid", err)
		return
	}
	if resp.Signal, err = s.Modem.SignalQuality(ctx); err != nil {
		s.modemFailed(w, r, "signal quality", err)
		return
	}
	if resp.NetworkReady, err = s.Modem.IsNetworkReady(ctx); err != nil {
		s.modemFailed(w, r, "network ready", err)
		return
	}

	s.sendJSON(w, resp, http.StatusOK)
}

func (s *Server) handleReboot(w http.ResponseWriter, r *http.Request) {
	if err := s.Modem.Reboot(r.Context()); err != nil {
		s.modemFailed(w, r, "reboot", err)
		return
	}
	s.Logger.Info("Modem reboot requested")
	s.sendOutcome(w, true)
}

func (s *Server) handleSIM(w http.ResponseWriter, r *http.Request) {
	type SIMResponse struct {
		Locked bool `json:"locked"`
	}

	locked, err := s.Modem.IsSIMLocked(r.Context())
	if err != nil {
		s.modemFailed(w, r, "sim status", err)
		return
	}
	s.sendJSON(w, SIMResponse{Locked: locked}, http.StatusOK)
}

func (s *Server) handleUnlockSIM(w http.ResponseWriter, r *http.Request) {
	type UnlockRequest struct {
		PIN string `json:"pin"`
	}

	var req UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PIN == "" {
		s.sendError(w, "'pin' field is required", http.StatusBadRequest)
		return
	}

	ok, err := s.Modem.UnlockSIM(r.Context(), req.PIN)
	if err != nil {
		s.modemFailed(w, r, "unlock sim", err)
		return
	}
	s.sendOutcome(w, ok)
}

func (s *Server) handleListSMS(w http.ResponseWriter, r *http.Request) {
	includeRead, err := queryBool(r, "include_read", false)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	keepUnread, err := queryBool(r, "keep_unread", false)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := s.Modem.ListSMS(r.Context(), includeRead, keepUnread)
	if err != nil {
		s.modemFailed(w, r, "list sms", err)
		return
	}
	s.sendJSON(w, list, http.StatusOK)
}

func (s *Server) handleGetSMS(w http.ResponseWriter, r *http.Request) {
	index, ok := s.indexParam(w, r)
	if !ok {
		return
	}
	keepUnread, err := queryBool(r, "keep_unread", false)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sms, found, err := s.Modem.GetSMS(r.Context(), index, keepUnread)
	if err != nil {
		s.modemFailed(w, r, "get sms", err)
		return
	}
	if !found {
		s.sendError(w, "no message at index "+strconv.Itoa(index), http.StatusNotFound)
		return
	}
	s.sendJSON(w, sms, http.StatusOK)
}

func (s *Server) handleDeleteSMS(w http.ResponseWriter, r *http.Request) {
	index, ok := s.indexParam(w, r)
	if !ok {
		return
	}

	deleted, err := s.Modem.DeleteSMS(r.Context(), index)
	if err != nil {
		s.modemFailed(w, r, "delete sms", err)
		return
	}
	s.sendOutcome(w, deleted)
}

func (s *Server) handleDeleteAllSMS(w http.ResponseWriter, r *http.Request) {
	includeUnread, err := queryBool(r, "include_unread", false)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	deleted, err := s.Modem.DeleteAllSMS(r.Context(), includeUnread)
	if err != nil {
		s.modemFailed(w, r, "delete all sms", err)
		return
	}
	s.sendOutcome(w, deleted)
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	index, ok := s.indexParam(w, r)
	if !ok {
		return
	}

	contact, found, err := s.Modem.GetContact(r.Context(), index)
	if err != nil {
		s.modemFailed(w, r, "get contact", err)
		return
	}
	if !found {
		s.sendError(w, "no contact at index "+strconv.Itoa(index), http.StatusNotFound)
		return
	}
	s.sendJSON(w, contact, http.StatusOK)
}

func (s *Server) handleSetContact(w http.ResponseWriter, r *http.Request) {
	index, ok := s.indexParam(w, r)
	if !ok {
		return
	}

	type ContactRequest struct {
		Name   string `json:"name"`
		Number string `json:"number"`
	}
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Number == "" {
		s.sendError(w, "'number' field is required", http.StatusBadRequest)
		return
	}

	written, err := s.Modem.SetContact(r.Context(), index, req.Name, req.Number)
	if err != nil {
		s.modemFailed(w, r, "set contact", err)
		return
	}
	s.sendOutcome(w, written)
}

func (s *Server) handleDial(w http.ResponseWriter, r *http.Request) {
	type DialRequest struct {
		Number string `json:"number"`
	}

	var req DialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Number == "" {
		s.sendError(w, "'number' field is required", http.StatusBadRequest)
		return
	}

	ok, err := s.Modem.Dial(r.Context(), req.Number)
	if err != nil {
		s.modemFailed(w, r, "dial", err)
		return
	}
	s.sendOutcome(w, ok)
}

func (s *Server) handleOutcome(op func(context.Context) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := op(r.Context())
		if err != nil {
			s.modemFailed(w, r, r.URL.Path, err)
			return
		}
		s.sendOutcome(w, ok)
	}
}

func (s *Server) indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		s.sendError(w, "index must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func queryBool(r *http.Request, name string, fallback bool) (bool, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid value %q for %s", value, name)
	}
	return b, nil
}
