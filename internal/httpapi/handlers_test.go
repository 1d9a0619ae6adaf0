package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"banklet.org/internal/auth"
	"banklet.org/internal/bank"
	"banklet.org/internal/ledger"
	"banklet.org/internal/stream"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	t.Setenv("BANKLET_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()

	store := ledger.NewStore()
	err := store.Provision([]ledger.Seed{
		{
			Owner:        "Jonas Schmedtmann",
			PIN:          1111,
			Currency:     "EUR",
			Locale:       "pt-PT",
			InterestRate: decimal.RequireFromString("1.2"),
			Movements: []ledger.Movement{
				{Amount: decimal.RequireFromString("200"), At: time.Date(2019, 11, 18, 21, 31, 17, 0, time.UTC)},
				{Amount: decimal.RequireFromString("455.23"), At: time.Date(2019, 12, 23, 7, 42, 2, 0, time.UTC)},
			},
		},
		{
			Owner:        "Jessica Davis",
			PIN:          2222,
			Currency:     "USD",
			Locale:       "en-US",
			InterestRate: decimal.RequireFromString("1.5"),
			Movements: []ledger.Movement{
				{Amount: decimal.RequireFromString("5000"), At: time.Date(2019, 11, 1, 13, 15, 33, 0, time.UTC)},
			},
		},
	})
	if err != nil {
		t.Fatalf("provision store: %v", err)
	}

	st := stream.New()
	svc := bank.NewService(store, st, nil, bank.Options{
		TickInterval: time.Hour,
		LoanDelay:    5 * time.Millisecond,
	})
	t.Cleanup(svc.Close)

	api := New(svc, st, nil, "test")
	api.SetRateLimit(100, 100)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	target := path
	if params != nil {
		target += "?" + params.Encode()
	}
	return c.do(http.MethodGet, target, nil, headers)
}

func (c *apiClient) login(username string, pin int) (string, map[string]any) {
	c.t.Helper()
	resp := c.post("/v1/session", map[string]any{
		"username": username,
		"pin":      pin,
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected login status: %d", resp.StatusCode)
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		c.t.Fatalf("empty token issued")
	}
	account, _ := payload["account"].(map[string]any)
	return token, account
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestAPILoginTransferFlow(t *testing.T) {
	api := newTestAPI(t)

	token, account := api.login("js", 1111)
	if account["owner"] != "Jonas Schmedtmann" {
		t.Fatalf("unexpected owner: %v", account["owner"])
	}
	if account["welcome"] != "Welcome back, Jonas" {
		t.Fatalf("unexpected welcome: %v", account["welcome"])
	}
	authHeader := map[string]string{"Authorization": "Bearer " + token}

	// Transfer 100 to the other demo account.
	resp := api.post("/v1/transfers", map[string]any{
		"to":     "jd",
		"amount": "100",
	}, authHeader)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected transfer status: %d", resp.StatusCode)
	}
	view := decode[map[string]any](t, resp)
	if view["balance"] != "555.23" {
		t.Fatalf("unexpected balance after transfer: %v", view["balance"])
	}
	movements, _ := view["movements"].([]any)
	if len(movements) != 3 {
		t.Fatalf("expected 3 movements, got %d", len(movements))
	}
	newest, _ := movements[0].(map[string]any)
	if newest["kind"] != "withdrawal" || newest["amount"] != "-100" {
		t.Fatalf("unexpected newest movement: %v", newest)
	}

	// Sorted view orders ascending by amount.
	resp = api.get("/v1/account", url.Values{"sorted": []string{"true"}}, authHeader)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected account status: %d", resp.StatusCode)
	}
	sortedView := decode[map[string]any](t, resp)
	if sortedView["sorted"] != true {
		t.Fatalf("expected sorted view")
	}
	sortedMovements, _ := sortedView["movements"].([]any)
	first, _ := sortedMovements[0].(map[string]any)
	if first["amount"] != "-100" {
		t.Fatalf("expected smallest amount first, got %v", first["amount"])
	}
}

func TestAPITransferRejections(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.login("js", 1111)
	authHeader := map[string]string{"Authorization": "Bearer " + token}

	cases := []struct {
		name string
		to   string
		amt  string
		want int
	}{
		{"self transfer", "js", "10", http.StatusBadRequest},
		{"negative amount", "jd", "-5", http.StatusBadRequest},
		{"insufficient funds", "jd", "100000", http.StatusConflict},
		{"unknown recipient", "nobody", "10", http.StatusNotFound},
	}
	for _, tc := range cases {
		resp := api.post("/v1/transfers", map[string]any{"to": tc.to, "amount": tc.amt}, authHeader)
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, resp.StatusCode)
		}
	}
}

func TestAPILoanFlow(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.login("js", 1111)
	authHeader := map[string]string{"Authorization": "Bearer " + token}

	resp := api.post("/v1/loans", map[string]any{"amount": "1500.75"}, authHeader)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("unexpected loan status: %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	if payload["approved"] != "1500" {
		t.Fatalf("expected floored approval, got %v", payload["approved"])
	}

	// The movement lands after the processing delay.
	deadline := time.Now().Add(time.Second)
	for {
		resp = api.get("/v1/account", nil, authHeader)
		view := decode[map[string]any](t, resp)
		movements, _ := view["movements"].([]any)
		if len(movements) == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("loan movement never landed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Far above any prior inflow: refused.
	resp = api.post("/v1/loans", map[string]any{"amount": "1000000"}, authHeader)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for ineligible loan, got %d", resp.StatusCode)
	}
}

func TestAPICloseAccount(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.login("js", 1111)
	authHeader := map[string]string{"Authorization": "Bearer " + token}

	resp := api.do(http.MethodDelete, "/v1/account", map[string]any{
		"username": "js",
		"pin":      9999,
	}, authHeader)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong confirmation, got %d", resp.StatusCode)
	}

	resp = api.do(http.MethodDelete, "/v1/account", map[string]any{
		"username": "js",
		"pin":      1111,
	}, authHeader)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	// The token outlives the account but the session is gone.
	resp = api.get("/v1/account", nil, authHeader)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after close, got %d", resp.StatusCode)
	}
}

func TestAPIEnforcesAuth(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/v1/account", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var errBody map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody["error"] == "" {
		t.Fatalf("expected error message")
	}

	resp = api.get("/v1/account", nil, map[string]string{"Authorization": "Bearer garbage"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.StatusCode)
	}
}

func TestAPILoginValidation(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/session", map[string]any{"username": ""}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp = api.post("/v1/session", map[string]any{"username": "js", "pin": 9999}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp = api.post("/v1/session", map[string]any{"username": "js", "pin": 1111, "extra": 1}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", resp.StatusCode)
	}
}

func TestAPIHealthzPublic(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/healthz", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
	payload := decode[map[string]any](t, resp)
	if payload["status"] != "ok" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}
