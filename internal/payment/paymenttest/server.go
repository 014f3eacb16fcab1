// Package paymenttest provides an in-memory stand-in for the Stripe payment
// intents API, for use with the real Stripe client in tests and local runs.
package paymenttest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"coffee-shop/internal/config"
)

// Payment methods with a fixed confirm outcome.
const (
	MethodSucceeds = "pm_card_visa"
	MethodDeclines = "pm_card_chargeDeclined"
	MethodPending  = "pm_card_processing"
)

// Intent is the server's record of a created payment intent.
type Intent struct {
	ID            string `json:"id"`
	Object        string `json:"object"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	ClientSecret  string `json:"client_secret"`
	Status        string `json:"status"`
	PaymentMethod string `json:"-"`
}

type failure struct {
	status  int
	errType string
	message string
}

// Server fakes the subset of the Stripe API used by the payment package.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	seq       int
	intents   map[string]*Intent
	byKey     map[string]string
	overrides map[string]string
	failNext  *failure
	delay     time.Duration
	confirms  int
}

// NewServer starts a fake Stripe API. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		intents:   make(map[string]*Intent),
		byKey:     make(map[string]string),
		overrides: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/payment_intents", s.create)
	mux.HandleFunc("POST /v1/payment_intents/{id}/confirm", s.confirm)
	mux.HandleFunc("GET /v1/payment_intents/{id}", s.get)

	s.Server = httptest.NewServer(mux)
	return s
}

// PaymentConfig returns provider settings pointing at the server.
func (s *Server) PaymentConfig() config.PaymentConfig {
	return config.PaymentConfig{
		SecretKey:  "sk_test_stub",
		APIURL:     s.URL,
		Currency:   "EUR",
		Timeout:    2 * time.Second,
		MaxRetries: 0,
	}
}

// SetStatus forces the status the intent reports on its next confirm or read.
func (s *Server) SetStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[id] = status
	if in, ok := s.intents[id]; ok {
		in.Status = status
	}
}

// FailNext makes the next request fail with a Stripe error body.
func (s *Server) FailNext(status int, errType, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = &failure{status: status, errType: errType, message: message}
}

// SetDelay holds every response for d, or until the client gives up.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Intent returns a copy of a stored intent.
func (s *Server) Intent(id string) (Intent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.intents[id]
	if !ok {
		return Intent{}, false
	}
	return *in, true
}

// Created returns how many distinct intents were created.
func (s *Server) Created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.intents)
}

// Confirms returns how many confirm calls reached the server.
func (s *Server) Confirms() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirms
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	if !s.prelude(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "malformed form body")
		return
	}

	amount, err := strconv.ParseInt(r.PostForm.Get("amount"), 10, 64)
	if err != nil || amount <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "Invalid positive integer")
		return
	}

	s.mu.Lock()
	key := r.Header.Get("Idempotency-Key")
	if id, ok := s.byKey[key]; ok && key != "" {
		in := *s.intents[id]
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, in)
		return
	}

	s.seq++
	id := fmt.Sprintf("pi_test_%06d", s.seq)
	in := &Intent{
		ID:            id,
		Object:        "payment_intent",
		Amount:        amount,
		Currency:      strings.ToLower(r.PostForm.Get("currency")),
		ClientSecret:  id + "_secret_stub",
		Status:        "requires_confirmation",
		PaymentMethod: r.PostForm.Get("payment_method"),
	}
	s.intents[id] = in
	if key != "" {
		s.byKey[key] = id
	}
	out := *in
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) confirm(w http.ResponseWriter, r *http.Request) {
	if !s.prelude(w, r) {
		return
	}

	s.mu.Lock()
	s.confirms++
	in, ok := s.intents[r.PathValue("id")]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "invalid_request_error", "No such payment_intent")
		return
	}
	if in.Status == "succeeded" || in.Status == "canceled" {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "invalid_request_error",
			"You cannot confirm this PaymentIntent because it has a status of "+in.Status+".")
		return
	}

	if status, forced := s.overrides[in.ID]; forced {
		in.Status = status
	} else {
		switch in.PaymentMethod {
		case MethodDeclines:
			in.Status = "requires_payment_method"
		case MethodPending:
			in.Status = "processing"
		default:
			in.Status = "succeeded"
		}
	}
	out := *in
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	if !s.prelude(w, r) {
		return
	}

	s.mu.Lock()
	in, ok := s.intents[r.PathValue("id")]
	var out Intent
	if ok {
		out = *in
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "invalid_request_error", "No such payment_intent")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// prelude applies the configured delay and one-shot failure. It returns false
// when the response has already been written.
func (s *Server) prelude(w http.ResponseWriter, r *http.Request) bool {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeError(w, http.StatusUnauthorized, "invalid_request_error", "No API key provided")
		return false
	}

	s.mu.Lock()
	delay := s.delay
	fail := s.failNext
	s.failNext = nil
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return false
		}
	}

	if fail != nil {
		writeError(w, fail.status, fail.errType, fail.message)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}
