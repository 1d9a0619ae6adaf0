package httpapi

import (
	"net/http"
	"strings"
	"time"

	"banklet.org/internal/auth"
	"banklet.org/internal/present"
)

type loginRequest struct {
	Username string `json:"username"`
	PIN      int    `json:"pin"`
}

type loginResponse struct {
	Token     string              `json:"token"`
	Account   present.AccountView `json:"account"`
	Countdown string              `json:"countdown"`
}

type sessionStateResponse struct {
	State     string `json:"state"`
	Remaining int    `json:"remaining"`
	Countdown string `json:"countdown"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		writeError(w, r, http.StatusBadRequest, "username is required")
		return
	}

	acc, token, err := a.bank.Login(r.Context(), username, req.PIN)
	if err != nil {
		handleBankError(w, r, err)
		return
	}

	_, remaining := a.bank.Countdown()
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		Account:   present.BuildAccountView(acc, false, time.Now().UTC()),
		Countdown: present.Countdown(remaining),
	})
}

func (a *API) sessionState(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UsernameFromContext(r.Context()); !ok {
		writeError(w, r, http.StatusUnauthorized, "no active session")
		return
	}
	state, remaining := a.bank.Countdown()
	writeJSON(w, http.StatusOK, sessionStateResponse{
		State:     state.String(),
		Remaining: remaining,
		Countdown: present.Countdown(remaining),
	})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "no active session")
		return
	}
	if err := a.bank.Logout(r.Context(), username); err != nil {
		handleBankError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
