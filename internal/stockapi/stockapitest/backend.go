// Package stockapitest is an in-memory stand-in for the stock management REST
// API. It exists for tests only and is never reachable at runtime.
//
// Unlike a canned mock it keeps real state: stocktake items are derived from
// the stock lines being audited, stock quantities move with issues, receipts
// and approvals, and every action endpoint rejects the transitions the real
// backend rejects.
package stockapitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
)

// Prefix is the path under which the API is served.
const Prefix = "/api/v1"

// Account is a user known to the backend.
type Account struct {
	ID          int64
	Username    string
	Password    string
	Active      bool
	Role        string
	Permissions map[string]bool
}

// Backend is the in-memory API.
type Backend struct {
	// URL is the API base URL, including Prefix, once started.
	URL string

	mux *http.ServeMux

	mu           sync.Mutex
	seq          int64
	accounts     map[string]*Account
	access       map[string]string
	refresh      map[string]string
	refreshCalls int
	failRefresh  bool
	loginStatus  int
	hits         map[string]int
	lastReqID    string

	stores          map[int64]*model.Store
	categories      map[int64]*model.Category
	stock           map[int64]*model.Stock
	history         map[int64][]model.StockHistory
	reservations    map[int64]*model.Reservation
	committed       map[int64]*model.CommittedStock
	transfers       map[int64]*model.Transfer
	stocktakes      map[int64]*model.Stocktake
	purchaseOrders  map[int64]*model.PurchaseOrder
	invoices        map[int64]*model.Invoice
	payments        map[int64]*model.Payment
	manufacturers   map[int64]*model.Manufacturer
	deliveryPersons map[int64]*model.DeliveryPerson
}

// AllCapabilities grants every capability the screens check.
var AllCapabilities = []policy.Capability{
	policy.CreatePurchaseOrder, policy.EditPurchaseOrder, policy.ViewPurchaseOrder,
	policy.SendPurchaseOrder, policy.ApprovePurchaseOrder, policy.CancelPurchaseOrder,
	policy.DeletePurchaseOrder, policy.ReceivePurchaseOrder, policy.ViewPurchaseOrderAmounts,
	policy.CreateStock, policy.EditStock, policy.ViewStock, policy.TransferStock,
	policy.CommitStock, policy.FulfillCommitment, policy.IssueStock, policy.ReceiveStock,
	policy.ReserveStock, policy.CreateStocktake, policy.StartStocktake,
	policy.CompleteStocktake, policy.CancelStocktake, policy.DeleteStocktake,
	policy.ManageManufacturers, policy.CreateInvoices, policy.ManagePayments,
}

// New returns a backend seeded with stores, stock, orders and these users:
// "manager" (every capability), "viewer" (can_view_stock only) and
// "disabled" (inactive). All passwords are "secret".
func New() *Backend {
	b := &Backend{
		accounts:        make(map[string]*Account),
		access:          make(map[string]string),
		refresh:         make(map[string]string),
		hits:            make(map[string]int),
		stores:          make(map[int64]*model.Store),
		categories:      make(map[int64]*model.Category),
		stock:           make(map[int64]*model.Stock),
		history:         make(map[int64][]model.StockHistory),
		reservations:    make(map[int64]*model.Reservation),
		committed:       make(map[int64]*model.CommittedStock),
		transfers:       make(map[int64]*model.Transfer),
		stocktakes:      make(map[int64]*model.Stocktake),
		purchaseOrders:  make(map[int64]*model.PurchaseOrder),
		invoices:        make(map[int64]*model.Invoice),
		payments:        make(map[int64]*model.Payment),
		manufacturers:   make(map[int64]*model.Manufacturer),
		deliveryPersons: make(map[int64]*model.DeliveryPerson),
	}
	b.AddAccount("manager", "secret", "admin", AllCapabilities...)
	b.AddAccount("viewer", "secret", "sales", policy.ViewStock)
	b.AddAccount("disabled", "secret", "sales", policy.ViewStock)
	b.accounts["disabled"].Active = false
	b.seed()
	b.routes()
	return b
}

// Start serves b on a test server that is closed when t finishes.
func Start(t testing.TB) *Backend {
	t.Helper()
	b := New()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	b.URL = srv.URL + Prefix
	return b
}

// AddAccount registers an active user granted caps.
func (b *Backend) AddAccount(username, password, role string, caps ...policy.Capability) *Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	perms := make(map[string]bool, len(caps))
	for _, c := range caps {
		perms[string(c)] = true
	}
	a := &Account{ID: b.next(), Username: username, Password: password, Active: true, Role: role, Permissions: perms}
	b.accounts[username] = a
	return a
}

// ExpireAccessTokens invalidates every issued access token. Refresh tokens
// stay valid.
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access = make(map[string]string)
}

// SetFailRefresh makes every refresh attempt fail with 401.
func (b *Backend) SetFailRefresh(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failRefresh = fail
}

// SetLoginStatus makes every login fail with status. Zero restores normal
// behaviour.
func (b *Backend) SetLoginStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loginStatus = status
}

// RefreshCalls returns the number of refresh requests received.
func (b *Backend) RefreshCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls
}

// Hits returns how many requests reached "METHOD /path/" (without Prefix or
// query).
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

// LastRequestID returns the X-Request-ID of the latest request received.
func (b *Backend) LastRequestID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastReqID
}

// ServeHTTP implements http.Handler.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.hits[r.Method+" "+strings.TrimPrefix(r.URL.Path, Prefix)]++
	b.lastReqID = r.Header.Get("X-Request-ID")
	b.mu.Unlock()
	b.mux.ServeHTTP(w, r)
}

// next returns a fresh ID. Callers hold mu.
func (b *Backend) next() int64 {
	b.seq++
	return b.seq
}

type ctxHandler func(w http.ResponseWriter, r *http.Request, a *Account)

// authed resolves the bearer token and runs h under the backend lock.
func (b *Backend) authed(h ctxHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		username := b.access[token]
		if !ok || username == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		h(w, r, b.accounts[username])
	}
}

// allowed writes a 403 unless a holds c.
func allowed(w http.ResponseWriter, a *Account, c policy.Capability) bool {
	if a.Permissions[string(c)] {
		return true
	}
	writeJSON(w, http.StatusForbidden, map[string]string{
		"detail": "You do not have permission to perform this action.",
	})
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func message(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error - " + err.Error()})
		return false
	}
	return true
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}

func sorted[T any](m map[int64]*T) []*T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*T, len(ids))
	for i, id := range ids {
		out[i] = m[id]
	}
	return out
}

const defaultPageSize = 25

func paginate[T any](r *http.Request, items []T) model.Page[T] {
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if size <= 0 {
		size = defaultPageSize
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	pages := (len(items) + size - 1) / size
	if pages == 0 {
		pages = 1
	}

	start := min((page-1)*size, len(items))
	end := min(start+size, len(items))

	link := func(p int) *string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(p))
		s := fmt.Sprintf("http://%s%s?%s", r.Host, r.URL.Path, q.Encode())
		return &s
	}
	out := model.Page[T]{
		Count:       len(items),
		TotalPages:  pages,
		CurrentPage: page,
		PageSize:    size,
		Results:     append([]T{}, items[start:end]...),
	}
	if page < pages {
		out.Links.Next = link(page + 1)
	}
	if page > 1 {
		out.Links.Previous = link(page - 1)
	}
	return out
}

func fieldErrors(w http.ResponseWriter, errs map[string][]string) bool {
	if len(errs) == 0 {
		return false
	}
	writeJSON(w, http.StatusBadRequest, errs)
	return true
}
