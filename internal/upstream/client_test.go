package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/erazemk/stockmgtr/internal/model"
)

// tokenServer accepts one current access token and counts refreshes.
type tokenServer struct {
	mu        sync.Mutex
	access    string
	refresh   string
	rotate    bool
	refreshes atomic.Int32
	hits      atomic.Int32
}

func (ts *tokenServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		ts.refreshes.Add(1)
		if r.Header.Get("Authorization") != "" {
			t.Error("refresh request must not carry a bearer token")
		}
		var body struct {
			Refresh string `json:"refresh"`
		}
		json.NewDecoder(r.Body).Decode(&body)

		ts.mu.Lock()
		defer ts.mu.Unlock()
		if body.Refresh != ts.refresh {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Token is invalid or expired","code":"token_not_valid"}`)
			return
		}
		ts.access = "access-2"
		resp := map[string]string{"access": ts.access}
		if ts.rotate {
			ts.refresh = "refresh-2"
			resp["refresh"] = ts.refresh
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /api/v1/stock/", func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		ts.mu.Lock()
		ok := r.Header.Get("Authorization") == "Bearer "+ts.access
		ts.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Given token not valid for any token type"}`)
			return
		}
		io.WriteString(w, `{"count":0,"results":[]}`)
	})
	return mux
}

func newTestClient(t *testing.T, h http.Handler, tokens TokenStore) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api/v1", srv.Client(), tokens)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestRefreshOnceAndRetry(t *testing.T) {
	ts := &tokenServer{access: "access-1", refresh: "refresh-1"}
	tokens := NewMemoryTokens(model.TokenPair{Access: "expired", Refresh: "refresh-1"})
	c := newTestClient(t, ts.handler(t), tokens)

	var page model.Page[model.Stock]
	if err := c.Get(context.Background(), "/stock/", nil, &page); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n := ts.refreshes.Load(); n != 1 {
		t.Errorf("expected exactly 1 refresh, got %d", n)
	}
	if n := ts.hits.Load(); n != 2 {
		t.Errorf("expected the request to be retried once, got %d attempts", n)
	}

	got, _ := tokens.Tokens(context.Background())
	if got.Access != "access-2" {
		t.Errorf("expected stored access-2, got %q", got.Access)
	}
	if got.Refresh != "refresh-1" {
		t.Errorf("expected refresh token kept when not rotated, got %q", got.Refresh)
	}
}

func TestRefreshStoresRotatedToken(t *testing.T) {
	ts := &tokenServer{access: "access-1", refresh: "refresh-1", rotate: true}
	tokens := NewMemoryTokens(model.TokenPair{Access: "expired", Refresh: "refresh-1"})
	c := newTestClient(t, ts.handler(t), tokens)

	if err := c.Get(context.Background(), "/stock/", nil, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, _ := tokens.Tokens(context.Background())
	if got.Refresh != "refresh-2" {
		t.Errorf("expected rotated refresh token, got %q", got.Refresh)
	}
}

func TestRefreshFailureExpiresSession(t *testing.T) {
	ts := &tokenServer{access: "access-1", refresh: "refresh-1"}
	tokens := NewMemoryTokens(model.TokenPair{Access: "expired", Refresh: "revoked"})
	c := newTestClient(t, ts.handler(t), tokens)

	err := c.Get(context.Background(), "/stock/", nil, nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if ts.refreshes.Load() != 1 {
		t.Errorf("expected 1 refresh attempt, got %d", ts.refreshes.Load())
	}
	if ts.hits.Load() != 1 {
		t.Errorf("expected no retry after failed refresh, got %d attempts", ts.hits.Load())
	}
	if c.IsAuthenticated(context.Background()) {
		t.Error("expected tokens cleared after failed refresh")
	}
}

func TestSecond401IsNotRefreshedAgain(t *testing.T) {
	var refreshes, hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		io.WriteString(w, `{"access":"still-bad"}`)
	})
	mux.HandleFunc("GET /api/v1/stock/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"nope"}`)
	})
	c := newTestClient(t, mux, NewMemoryTokens(model.TokenPair{Access: "a", Refresh: "r"}))

	err := c.Get(context.Background(), "/stock/", nil, nil)
	ue, ok := AsError(err)
	if !ok || ue.Status != http.StatusUnauthorized {
		t.Fatalf("expected upstream 401 error, got %v", err)
	}
	if ue.Kind() != KindUnauthorized {
		t.Errorf("expected unauthorized kind, got %s", ue.Kind())
	}
	if errors.Is(err, ErrSessionExpired) {
		t.Error("second 401 should be a normal error")
	}
	if refreshes.Load() != 1 || hits.Load() != 2 {
		t.Errorf("expected 1 refresh and 2 attempts, got %d and %d", refreshes.Load(), hits.Load())
	}
}

func TestConcurrent401sRefreshOnce(t *testing.T) {
	ts := &tokenServer{access: "access-1", refresh: "refresh-1"}
	tokens := NewMemoryTokens(model.TokenPair{Access: "expired", Refresh: "refresh-1"})
	c := newTestClient(t, ts.handler(t), tokens)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Get(context.Background(), "/stock/", nil, nil)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Get: %v", err)
		}
	}
	if n := ts.refreshes.Load(); n != 1 {
		t.Errorf("expected a single refresh for concurrent requests, got %d", n)
	}
}

func TestLoginDoesNotRefresh(t *testing.T) {
	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/token/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"No active account found with the given credentials"}`)
	})
	mux.HandleFunc("POST /api/v1/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
	})
	tokens := NewMemoryTokens(model.TokenPair{})
	c := newTestClient(t, mux, tokens)

	_, err := c.Login(context.Background(), "alice", "wrong")
	if StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if refreshes.Load() != 0 {
		t.Error("login must not trigger a refresh")
	}
	if c.IsAuthenticated(context.Background()) {
		t.Error("expected no tokens stored after failed login")
	}
}

func TestLoginStoresTokens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/token/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"access":"a1","refresh":"r1"}`)
	})
	tokens := NewMemoryTokens(model.TokenPair{})
	c := newTestClient(t, mux, tokens)

	pair, err := c.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.Access != "a1" || !c.IsAuthenticated(context.Background()) {
		t.Errorf("expected stored tokens, got %+v", pair)
	}
	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if c.IsAuthenticated(context.Background()) {
		t.Error("expected logout to clear tokens")
	}
}

func TestErrorMessagePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail", 403, `{"detail":"You do not have permission","message":"x"}`, "You do not have permission"},
		{"message", 400, `{"message":"Stock too low","error":"y"}`, "Stock too low"},
		{"error", 400, `{"error":"Stocktake is not in progress"}`, "Stocktake is not in progress"},
		{"field", 400, `{"quantity":["Ensure this value is greater than 0."]}`, "quantity: Ensure this value is greater than 0."},
		{"first field sorted", 400, `{"zeta":["z"],"alpha":["a"]}`, "alpha: a"},
		{"non field", 400, `{"non_field_errors":["Dates overlap"],"alpha":["a"]}`, "Dates overlap"},
		{"nested", 400, `{"items":[{"quantity":["Required"]}]}`, "items: Required"},
		{"status text", 502, `<html>bad gateway</html>`, "Bad Gateway"},
		{"empty", 500, ``, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := responseError(tt.status, []byte(tt.body))
			if e.Message != tt.want {
				t.Errorf("expected %q, got %q", tt.want, e.Message)
			}
			if e.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, e.Status)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{0, KindTransport},
		{401, KindUnauthorized},
		{400, KindClient},
		{404, KindClient},
		{500, KindServer},
		{503, KindServer},
	}
	for _, tt := range tests {
		if got := (&Error{Status: tt.status}).Kind(); got != tt.want {
			t.Errorf("status %d: expected %s, got %s", tt.status, tt.want, got)
		}
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url+"/api/v1", nil, NewMemoryTokens(model.TokenPair{Access: "a"}))
	if err != nil {
		t.Fatal(err)
	}
	err = c.Get(context.Background(), "/stock/", nil, nil)
	ue, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ue.Status != 0 || ue.Kind() != KindTransport {
		t.Errorf("expected transport error with status 0, got %d", ue.Status)
	}
	if ue.Unwrap() == nil || ue.Message == "" {
		t.Error("expected wrapped cause and message")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	var got string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/stock/", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		io.WriteString(w, `{}`)
	})
	c := newTestClient(t, mux, NewMemoryTokens(model.TokenPair{Access: "a"}))

	ctx := WithRequestID(context.Background(), "req-123")
	if err := c.Get(ctx, "/stock/", nil, nil); err != nil {
		t.Fatal(err)
	}
	if got != "req-123" {
		t.Errorf("expected X-Request-ID req-123, got %q", got)
	}
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("/api/v1", nil, NewMemoryTokens(model.TokenPair{})); err == nil {
		t.Error("expected error for relative base url")
	}
}

func TestPostFormReplayedAfterRefresh(t *testing.T) {
	var bodies []string
	var mu sync.Mutex
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"access":"good"}`)
	})
	mux.HandleFunc("POST /api/v1/invoices/7/record-payment/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parsing multipart: %v", err)
		}
		mu.Lock()
		bodies = append(bodies, r.FormValue("payment_reference"))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f, hdr, err := r.FormFile("receipt_file")
		if err != nil {
			t.Errorf("missing receipt file: %v", err)
		} else {
			data, _ := io.ReadAll(f)
			if string(data) != "%PDF-1.4" || hdr.Filename != "r.pdf" {
				t.Errorf("unexpected file %q %q", hdr.Filename, data)
			}
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":1}`)
	})
	c := newTestClient(t, mux, NewMemoryTokens(model.TokenPair{Access: "stale", Refresh: "r"}))

	form := (&Form{}).Set("payment_reference", "PAY-1").SetOptional("notes", "").
		File("receipt_file", "r.pdf", "application/pdf", []byte("%PDF-1.4"))
	var out struct{ ID int }
	if err := c.PostForm(context.Background(), "/invoices/7/record-payment/", form, &out); err != nil {
		t.Fatalf("PostForm: %v", err)
	}
	if out.ID != 1 {
		t.Errorf("expected id 1, got %d", out.ID)
	}
	if len(bodies) != 2 || bodies[0] != "PAY-1" || bodies[1] != "PAY-1" {
		t.Errorf("expected the form sent twice intact, got %v", bodies)
	}
}

func TestUploadProgress(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/upload/", func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		io.WriteString(w, `{}`)
	})
	c := newTestClient(t, mux, NewMemoryTokens(model.TokenPair{Access: "a"}))

	var mu sync.Mutex
	var seen []int
	data := []byte(strings.Repeat("x", 256*1024))
	err := c.Upload(context.Background(), "/upload/", "big.bin", "", data, func(p int) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	}, nil)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(seen) < 2 || seen[0] != 0 || seen[len(seen)-1] != 100 {
		t.Fatalf("expected progress from 0 to 100, got %v", seen)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Errorf("progress went backwards: %v", seen)
			break
		}
	}
}
