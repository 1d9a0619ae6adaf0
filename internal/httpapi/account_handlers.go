package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"banklet.org/internal/auth"
	"banklet.org/internal/bank"
	"banklet.org/internal/present"
)

type transferRequest struct {
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type loanRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type loanResponse struct {
	Approved string `json:"approved"`
	Status   string `json:"status"`
}

type closeAccountRequest struct {
	Username string `json:"username"`
	PIN      int    `json:"pin"`
}

func (a *API) accountView(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "no active session")
		return
	}

	acc, err := a.bank.Snapshot(username)
	if err != nil {
		handleBankError(w, r, err)
		return
	}

	sorted := r.URL.Query().Get("sorted") == "true"
	writeJSON(w, http.StatusOK, present.BuildAccountView(acc, sorted, time.Now().UTC()))
}

func (a *API) transfer(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "no active session")
		return
	}

	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	to := strings.ToLower(strings.TrimSpace(req.To))
	if to == "" {
		writeError(w, r, http.StatusBadRequest, "to is required")
		return
	}

	acc, err := a.bank.Transfer(r.Context(), username, to, req.Amount)
	if err != nil {
		handleBankError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, present.BuildAccountView(acc, false, time.Now().UTC()))
}

func (a *API) requestLoan(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "no active session")
		return
	}

	var req loanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	granted, err := a.bank.RequestLoan(r.Context(), username, req.Amount)
	if err != nil {
		handleBankError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, loanResponse{
		Approved: granted.String(),
		Status:   "processing",
	})
}

func (a *API) closeAccount(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "no active session")
		return
	}

	var req closeAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	confirm := strings.ToLower(strings.TrimSpace(req.Username))
	if err := a.bank.CloseAccount(r.Context(), username, confirm, req.PIN); err != nil {
		// A confirmation mismatch is not a token problem; the session survives.
		if errors.Is(err, bank.ErrAuthFailed) {
			writeError(w, r, http.StatusForbidden, "confirmation does not match")
			return
		}
		handleBankError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
