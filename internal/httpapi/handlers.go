// Package httpapi exposes the bank engine over HTTP: a JSON API for the
// session and account operations plus an SSE feed mirroring the countdown
// and movement events.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"banklet.org/internal/audit"
	"banklet.org/internal/bank"
	"banklet.org/internal/ledger"
	"banklet.org/internal/obs"
	"banklet.org/internal/stream"
)

// API is the HTTP layer.
type API struct {
	router  *mux.Router
	bank    *bank.Service
	stream  *stream.Stream
	log     *zap.Logger
	version string

	rateBurst  int
	ratePerSec int
}

func New(svc *bank.Service, st *stream.Stream, log *zap.Logger, version string) *API {
	if log == nil {
		log = zap.NewNop()
	}
	a := &API{
		router:     mux.NewRouter(),
		bank:       svc,
		stream:     st,
		log:        log,
		version:    version,
		rateBurst:  20,
		ratePerSec: 10,
	}

	r := a.router
	r.HandleFunc("/healthz", a.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/v1/info", a.Info).Methods(http.MethodGet)
	r.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/v1/session", a.login).Methods(http.MethodPost)
	r.HandleFunc("/v1/session", a.sessionState).Methods(http.MethodGet)
	r.HandleFunc("/v1/session", a.logout).Methods(http.MethodDelete)

	r.HandleFunc("/v1/account", a.accountView).Methods(http.MethodGet)
	r.HandleFunc("/v1/account", a.closeAccount).Methods(http.MethodDelete)
	r.HandleFunc("/v1/transfers", a.transfer).Methods(http.MethodPost)
	r.HandleFunc("/v1/loans", a.requestLoan).Methods(http.MethodPost)

	r.HandleFunc("/v1/stream", a.Stream).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return a
}

// SetRateLimit overrides the per-IP rate limit before Handler is built.
func (a *API) SetRateLimit(burst, perSec int) {
	a.rateBurst = burst
	a.ratePerSec = perSec
}

// Handler assembles the middleware chain around the router.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = a.Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "banklet-api",
		"version": a.version,
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "banklet-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func handleBankError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, bank.ErrAuthFailed):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, bank.ErrNoSession):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrSelfTransfer):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, bank.ErrLoanIneligible):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
