package web

import (
	"bytes"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/stockmgtr/internal/auth"
	"github.com/erazemk/stockmgtr/internal/cache"
	"github.com/erazemk/stockmgtr/internal/db"
	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
	"github.com/erazemk/stockmgtr/internal/report"
	"github.com/erazemk/stockmgtr/internal/session"
	"github.com/erazemk/stockmgtr/internal/stockapi"
	"github.com/erazemk/stockmgtr/internal/stockapi/stockapitest"
	"github.com/erazemk/stockmgtr/internal/store"
)

type testEnv struct {
	server  *httptest.Server
	backend *stockapitest.Backend
}

func setupTestServer(t *testing.T, opts Options) *testEnv {
	t.Helper()
	backend := stockapitest.Start(t)
	database := db.NewTestDB(t)
	sealer, err := store.NewSealer(bytes.Repeat([]byte{3}, 32))
	if err != nil {
		t.Fatal(err)
	}
	sessions, err := session.NewManager(database, sealer, cache.New(), session.Config{
		BaseURL:  backend.URL,
		Lifetime: time.Hour,
		TTLs:     stockapi.DefaultTTLs,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	opts.Sessions = sessions
	opts.JWTSecret = "test-secret"
	if opts.LoginRate == 0 {
		opts.LoginRate = 600
		opts.LoginBurst = 100
	}
	router, err := NewRouter(opts)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testEnv{server: server, backend: backend}
}

// browser is a client with a cookie jar that does not follow redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (e *testEnv) browser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &browser{
		t:    t,
		base: e.server.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// login signs in and fails the test unless it succeeds.
func (e *testEnv) login(t *testing.T, username string) *browser {
	t.Helper()
	b := e.browser(t)
	resp, _ := b.post("/login", url.Values{"username": {username}, "password": {"secret"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("login as %s: expected redirect to /, got %d %q", username, resp.StatusCode, resp.Header.Get("Location"))
	}
	return b
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		b.t.Fatal(err)
	}
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest("GET", b.base+path, nil)
	if err != nil {
		b.t.Fatal(err)
	}
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest("POST", b.base+path, strings.NewReader(form.Encode()))
	if err != nil {
		b.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// follow posts form and loads the page it redirects to.
func (b *browser) follow(path string, form url.Values) string {
	b.t.Helper()
	resp, _ := b.post(path, form)
	if resp.StatusCode != http.StatusSeeOther {
		b.t.Fatalf("POST %s: expected 303, got %d", path, resp.StatusCode)
	}
	_, body := b.get(resp.Header.Get("Location"))
	return body
}

func expectRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Errorf("expected redirect to %s, got %s", location, got)
	}
}

func TestLoadTemplates(t *testing.T) {
	ts, err := LoadTemplates()
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	for _, name := range []string{
		"login.html", "dashboard.html", "stock_list.html", "stock_detail.html",
		"transfer_detail.html", "stocktake_detail.html", "purchase_order_form.html",
		"invoice_detail.html", "manufacturers.html", "error.html",
	} {
		if _, ok := ts.templates[name]; !ok {
			t.Errorf("template %s not loaded", name)
		}
	}
	if _, ok := ts.templates["layout.html"]; ok {
		t.Error("layout should not be registered as a page")
	}
}

func TestRedirectsToLogin(t *testing.T) {
	env := setupTestServer(t, Options{})
	b := env.browser(t)

	for _, path := range []string{"/", "/stock", "/purchase-orders/401"} {
		resp, _ := b.get(path)
		expectRedirect(t, resp, "/login")
	}

	resp, body := b.get("/login")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `name="password"`) {
		t.Errorf("expected login form, got %d", resp.StatusCode)
	}
}

func TestLogin(t *testing.T) {
	env := setupTestServer(t, Options{})
	b := env.browser(t)

	resp, body := b.post("/login", url.Values{"username": {"manager"}, "password": {"wrong"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login page, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Invalid username or password") {
		t.Error("expected invalid credentials message")
	}
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			t.Error("failed login should not set a session cookie")
		}
	}

	_, body = b.post("/login", url.Values{"username": {"disabled"}, "password": {"secret"}})
	if !strings.Contains(body, "Account is disabled") {
		t.Error("expected disabled account message")
	}

	_, body = b.post("/login", url.Values{"username": {""}, "password": {""}})
	if !strings.Contains(body, "Enter your username and password.") {
		t.Error("expected missing credentials message")
	}

	b = env.login(t, "manager")
	resp, body = b.get("/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected dashboard, got %d", resp.StatusCode)
	}
	// The seeded speaker line is below its reorder level.
	if !strings.Contains(body, "Speaker Pair") {
		t.Error("expected low stock on the dashboard")
	}
	if !strings.Contains(body, "PO-0401") {
		t.Error("expected open purchase orders on the dashboard")
	}
}

func TestLoginRateLimited(t *testing.T) {
	env := setupTestServer(t, Options{LoginRate: 1, LoginBurst: 2})
	b := env.browser(t)

	bad := url.Values{"username": {"manager"}, "password": {"wrong"}}
	for i := 0; i < 2; i++ {
		resp, _ := b.post("/login", bad)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}
	resp, body := b.post("/login", bad)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Too many login attempts") {
		t.Error("expected rate limit message")
	}
}

func TestLogout(t *testing.T) {
	env := setupTestServer(t, Options{})
	b := env.login(t, "manager")

	resp, _ := b.post("/logout", nil)
	expectRedirect(t, resp, "/login")

	resp, _ = b.get("/")
	expectRedirect(t, resp, "/login")
}

func TestViewerCapabilities(t *testing.T) {
	env := setupTestServer(t, Options{})
	b := env.login(t, "viewer")

	resp, body := b.get("/stock")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected stock list, got %d", resp.StatusCode)
	}
	if strings.Contains(body, `href="/purchase-orders"`) {
		t.Error("viewer should not see the purchase orders link")
	}

	for _, path := range []string{"/purchase-orders", "/stock/new", "/manufacturers"} {
		resp, _ := b.get(path)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("GET %s: expected 403, got %d", path, resp.StatusCode)
		}
	}

	resp, _ = b.post("/stock/201/issue", url.Values{"issue_quantity": {"1"}})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for issue, got %d", resp.StatusCode)
	}
	if got := env.backend.Quantity(stockapitest.FridgeID); got != 12 {
		t.Errorf("forbidden issue changed quantity to %d", got)
	}
}

func TestStockIssue(t *testing.T) {
	env := setupTestServer(t, Options{})
	b := env.login(t, "manager")

	body := b.follow("/stock/201/issue", url.Values{"issue_quantity": {"2"}, "issued_by": {"Sam"}})
	if !strings.Contains(body, "Issued 2. New quantity: 10.") {
		t.Error("expected issue confirmation")
	}
	if got := env.backend.Quantity(stockapitest.FridgeID); got != 10 {
		t.Errorf("expected quantity 10, got %d", got)
	}

	// The flash is shown once.
	_, body = b.get("/stock/201")
	if strings.Contains(body, "Issued 2.") {
		t.Error("flash message shown twice")
	}
}

func TestStockIssueErrors(t *testing.T) {
	env := setupTestServer(t, Options{})
	b := env.login(t, "manager")

	resp, body := b.post("/stock/201/issue", url.Values{"issue_quantity": {"50"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected the detail page again, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Insufficient stock. Available: 12") {
		t.Error("expected the backend's message")
	}
	if !strings.Contains(body, `value="50"`) {
		t.Error("expected the submitted quantity to be kept")
	}

	_, body = b.post("/stock/201/issue", url.Values{"issue_quantity": {"two"}})
	if !strings.Contains(body, "Quantity must be a whole number.") {
		t.Error("expected a type error for a non-numeric quantity")
	}
	if got := env.backend.Quantity(stockapitest.FridgeID); got != 12 {
		t.Errorf("failed issues changed quantity to %d", got)
	}
}

func TestTransferAction(t *testing.T) {
	env := setupTestServer(t, Options{})
	b := env.login(t, "manager")

	body := b.follow("/transfers/501/approve", nil)
	if !strings.Contains(body, "Transfer approved") {
		t.Error("expected approval message")
	}

	// Approving twice is rejected upstream and shown as an error toast.
	body = b.follow("/transfers/501/approve", nil)
	if !strings.Contains(body, "toast error") {
		t.Error("expected an error toast")
	}

	resp, _ := b.post("/transfers/501/explode", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown action, got %d", resp.StatusCode)
	}
}

func TestPurchaseOrderDetailAndSend(t *testing.T) {
	env := setupTestServer(t, Options{})
	b := env.login(t, "manager")

	resp, body := b.get("/purchase-orders/401")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected purchase order page, got %d", resp.StatusCode)
	}
	for _, want := range []string{"PO-0401", "$243.00", "$19.80", "$22.32", "$245.52"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s on the page", want)
		}
	}

	b.follow("/purchase-orders/401/send", nil)
	po, _ := env.backend.PurchaseOrder(stockapitest.DraftOrderID)
	if po.Status != model.POStatusSent {
		t.Errorf("expected sent, got %s", po.Status)
	}
}

func TestWorkflowActionNeedsItsCapability(t *testing.T) {
	env := setupTestServer(t, Options{})
	env.backend.AddAccount("sender", "secret", "purchasing", policy.ViewPurchaseOrder, policy.SendPurchaseOrder)
	env.backend.AddAccount("starter", "secret", "auditor", policy.ViewStock, policy.StartStocktake)

	b := env.login(t, "sender")
	for _, action := range []string{"cancel", "approve"} {
		resp, _ := b.post("/purchase-orders/401/"+action, nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", action, resp.StatusCode)
		}
		if n := env.backend.Hits("POST", "/purchase-orders/401/"+action+"/"); n != 0 {
			t.Errorf("%s reached the backend %d times", action, n)
		}
	}
	if po, _ := env.backend.PurchaseOrder(stockapitest.DraftOrderID); po.Status != model.POStatusDraft {
		t.Errorf("expected draft, got %s", po.Status)
	}
	resp, _ := b.post("/purchase-orders/401/send", nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("send: expected redirect, got %d", resp.StatusCode)
	}

	b = env.login(t, "starter")
	for _, action := range []string{"cancel", "complete", "approve"} {
		resp, _ := b.post("/stocktakes/601/"+action, nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", action, resp.StatusCode)
		}
		if n := env.backend.Hits("POST", "/stock-audits/601/"+action+"/"); n != 0 {
			t.Errorf("%s reached the backend %d times", action, n)
		}
	}
}

func TestSessionExpiry(t *testing.T) {
	env := setupTestServer(t, Options{})
	b := env.login(t, "manager")

	env.backend.ExpireAccessTokens()
	env.backend.SetFailRefresh(true)

	resp, _ := b.get("/stock")
	expectRedirect(t, resp, "/login")

	// The local session is gone too.
	env.backend.SetFailRefresh(false)
	resp, _ = b.get("/")
	expectRedirect(t, resp, "/login")
}

func TestExports(t *testing.T) {
	env := setupTestServer(t, Options{})
	b := env.login(t, "manager")

	tests := []struct {
		path        string
		contentType string
		filename    string
		magic       string
	}{
		{"/stock/export", report.XLSXContentType, "stock-", "PK"},
		{"/stocktakes/601/export", report.XLSXContentType, "SA-0601.xlsx", "PK"},
		{"/purchase-orders/401/pdf", report.PDFContentType, "PO-0401.pdf", "%PDF"},
	}
	for _, tt := range tests {
		resp, body := b.get(tt.path)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", tt.path, resp.StatusCode)
			continue
		}
		if got := resp.Header.Get("Content-Type"); got != tt.contentType {
			t.Errorf("GET %s: content type %q", tt.path, got)
		}
		if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, tt.filename) {
			t.Errorf("GET %s: disposition %q", tt.path, got)
		}
		if !strings.HasPrefix(body, tt.magic) {
			t.Errorf("GET %s: unexpected file contents", tt.path)
		}
	}
}

func TestNotFound(t *testing.T) {
	env := setupTestServer(t, Options{})
	b := env.login(t, "manager")

	for _, path := range []string{"/nope", "/stock/abc", "/stock/9999"} {
		resp, _ := b.get(path)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}
