// Package testutil runs an in-process bookstore API for package tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bookbuddy/storefront/pkg/enums"
	"github.com/bookbuddy/storefront/pkg/types"
)

const PathPrefix = "/api/v1"

// Account is a user the fake backend can sign in.
type Account struct {
	Email    string
	Password string
	Token    string
	User     types.UserProfile
}

// Request is one call the backend received.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          []byte
}

// Backend serves the bookstore routes from in-memory fixtures set through
// the Set/Add methods.
type Backend struct {
	Server *httptest.Server

	mu          sync.Mutex
	categories  []types.Category
	products    []types.Product
	pageSize    int
	accounts    []Account
	orders      []types.Order
	clientToken string
	photos      map[string][]byte
	forced      map[string]int
	payments    []types.PaymentRequest
	requests    []Request
}

// NewBackend starts the server and closes it when t finishes.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		pageSize:    6,
		clientToken: "client-token-1",
		photos:      map[string][]byte{},
		forced:      map[string]int{},
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record, b.forceStatus)
	r.Route(PathPrefix, func(r chi.Router) {
		r.Get("/category/get-category", b.getCategories)

		r.Route("/product", func(r chi.Router) {
			r.Get("/product-list/{page}", b.listProducts)
			r.Get("/product-count", b.countProducts)
			r.Post("/product-filters", b.filterProducts)
			r.Get("/get-product/{slug}", b.getProduct)
			r.Get("/related-product/{pid}/{cid}", b.relatedProducts)
			r.Get("/product-category/{slug}", b.productsByCategory)
			r.Get("/search/{keyword}", b.search)
			r.Get("/product-photo/{pid}", b.photo)
			r.Get("/braintree/token", b.token)
			r.With(b.requireSignIn).Post("/braintree/payment", b.payment)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", b.login)
			r.With(b.requireSignIn).Get("/orders", b.userOrders)
			r.With(b.requireSignIn).Put("/profile", b.updateProfile)
			r.Group(func(r chi.Router) {
				r.Use(b.requireSignIn, b.requireAdmin)
				r.Get("/all-orders", b.allOrders)
				r.Put("/order-status/{id}", b.updateOrderStatus)
				r.Get("/all-users", b.allUsers)
			})
		})
	})
	return r
}

// URL is the base address to configure the client with.
func (b *Backend) URL() string { return b.Server.URL }

func (b *Backend) SetCategories(cats ...types.Category) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.categories = append([]types.Category(nil), cats...)
}

func (b *Backend) SetProducts(products ...types.Product) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.products = append([]types.Product(nil), products...)
}

func (b *Backend) SetPageSize(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pageSize = n
}

func (b *Backend) AddAccount(a Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts = append(b.accounts, a)
}

func (b *Backend) SetOrders(orders ...types.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = append([]types.Order(nil), orders...)
}

func (b *Backend) SetPhoto(productID string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.photos[productID] = data
}

func (b *Backend) SetClientToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clientToken = token
}

// ForceStatus makes every request to path (without the /api/v1 prefix)
// answer with status.
func (b *Backend) ForceStatus(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forced[PathPrefix+"/"+strings.TrimPrefix(path, "/")] = status
}

func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// RequestsTo returns the calls made to path (without the /api/v1 prefix).
func (b *Backend) RequestsTo(path string) []Request {
	full := PathPrefix + "/" + strings.TrimPrefix(path, "/")
	var out []Request
	for _, req := range b.Requests() {
		if req.Path == full {
			out = append(out, req)
		}
	}
	return out
}

func (b *Backend) Payments() []types.PaymentRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.PaymentRequest(nil), b.payments...)
}

func (b *Backend) Orders() []types.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.Order(nil), b.orders...)
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = readAll(r)
		}
		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-Id"),
			Body:          body,
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) forceStatus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		status, ok := b.forced[r.URL.Path]
		b.mu.Unlock()
		if ok {
			writeJSON(w, status, types.ErrorResponse{Success: false, Message: http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userKey struct{}

func (b *Backend) requireSignIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		account, ok := b.accountByToken(token)
		if token == "" || !ok {
			writeJSON(w, http.StatusUnauthorized, types.ErrorResponse{Message: "invalid token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r, account.User)))
	})
}

func (b *Backend) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := r.Context().Value(userKey{}).(types.UserProfile)
		if !user.Role.IsAdmin() {
			writeJSON(w, http.StatusUnauthorized, types.ErrorResponse{Message: "UnAuthorized Access"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) accountByToken(token string) (Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if a.Token == token {
			return a, true
		}
	}
	return Account{}, false
}

func (b *Backend) getCategories(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, types.CategoryListResponse{Success: true, Category: b.categories})
}

func (b *Backend) listProducts(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 1 {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Message: "bad page"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	start := (page - 1) * b.pageSize
	end := start + b.pageSize
	if start > len(b.products) {
		start = len(b.products)
	}
	if end > len(b.products) {
		end = len(b.products)
	}
	writeJSON(w, http.StatusOK, types.ProductListResponse{Success: true, Products: b.products[start:end]})
}

func (b *Backend) countProducts(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, types.ProductCountResponse{Success: true, Total: len(b.products)})
}

func (b *Backend) filterProducts(w http.ResponseWriter, r *http.Request) {
	var req types.FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Message: "bad filter"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.Product{}
	for _, p := range b.products {
		if len(req.Checked) > 0 && !contains(req.Checked, p.Category.ID) {
			continue
		}
		if len(req.Radio) == 2 && (p.Price < req.Radio[0] || p.Price > req.Radio[1]) {
			continue
		}
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, types.ProductListResponse{Success: true, Products: out})
}

func (b *Backend) getProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.products {
		if p.Slug == slug {
			p := p
			writeJSON(w, http.StatusOK, types.ProductResponse{Success: true, Product: &p})
			return
		}
	}
	writeJSON(w, http.StatusOK, types.ProductResponse{Success: true})
}

func (b *Backend) relatedProducts(w http.ResponseWriter, r *http.Request) {
	pid, cid := chi.URLParam(r, "pid"), chi.URLParam(r, "cid")
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.Product{}
	for _, p := range b.products {
		if p.Category.ID == cid && p.ID != pid {
			out = append(out, p)
		}
	}
	if len(out) > 3 {
		out = out[:3]
	}
	writeJSON(w, http.StatusOK, types.ProductListResponse{Success: true, Products: out})
}

func (b *Backend) productsByCategory(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.categories {
		if c.Slug != slug {
			continue
		}
		c := c
		out := []types.Product{}
		for _, p := range b.products {
			if p.Category.ID == c.ID {
				out = append(out, p)
			}
		}
		writeJSON(w, http.StatusOK, types.CategoryProductsResponse{Success: true, Category: &c, Products: out})
		return
	}
	writeJSON(w, http.StatusNotFound, types.ErrorResponse{Message: "category not found"})
}

func (b *Backend) search(w http.ResponseWriter, r *http.Request) {
	keyword := strings.ToLower(chi.URLParam(r, "keyword"))
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.Product{}
	for _, p := range b.products {
		if strings.Contains(strings.ToLower(p.Name), keyword) || strings.Contains(strings.ToLower(p.Description), keyword) {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) photo(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	data, ok := b.photos[chi.URLParam(r, "pid")]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, types.ErrorResponse{Message: "no photo"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (b *Backend) token(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, types.ClientTokenResponse{ClientToken: b.clientToken})
}

func (b *Backend) payment(w http.ResponseWriter, r *http.Request) {
	var req types.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Message: "bad payment"})
		return
	}
	user, _ := r.Context().Value(userKey{}).(types.UserProfile)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payments = append(b.payments, req)
	products := make([]types.Product, 0, len(req.Cart))
	for _, item := range req.Cart {
		products = append(products, types.Product{ID: item.ID, Name: item.Name, Price: item.Price, Slug: item.Slug})
	}
	b.orders = append(b.orders, types.Order{
		ID:       "order-" + strconv.Itoa(len(b.orders)+1),
		Buyer:    types.OrderBuyer{ID: user.ID, Name: user.Name},
		Products: products,
		Payment:  types.OrderPayment{Success: true},
		Status:   enums.OrderStatusNotProcess,
	})
	writeJSON(w, http.StatusOK, types.PaymentResponse{OK: true})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Message: "bad login"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if a.Email == req.Email && a.Password == req.Password {
			user := a.User
			writeJSON(w, http.StatusOK, types.LoginResponse{Success: true, Message: "login successfully", User: &user, Token: a.Token})
			return
		}
	}
	writeJSON(w, http.StatusOK, types.LoginResponse{Success: false, Message: "Invalid Password"})
}

func (b *Backend) userOrders(w http.ResponseWriter, r *http.Request) {
	user, _ := r.Context().Value(userKey{}).(types.UserProfile)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.Order{}
	for _, o := range b.orders {
		if o.Buyer.ID == user.ID {
			out = append(out, o)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) allOrders(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]types.Order{}, b.orders...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req types.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Status.IsValid() {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Message: "bad status"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orders {
		if b.orders[i].ID == id {
			b.orders[i].Status = req.Status
			writeJSON(w, http.StatusOK, b.orders[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, types.ErrorResponse{Message: "order not found"})
}

func (b *Backend) allUsers(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	users := make([]types.UserProfile, 0, len(b.accounts))
	for _, a := range b.accounts {
		users = append(users, a.User)
	}
	writeJSON(w, http.StatusOK, types.UserListResponse{Success: true, Users: users})
}

func (b *Backend) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req types.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Message: "bad profile"})
		return
	}
	if req.Password != "" && len(req.Password) < 6 {
		writeJSON(w, http.StatusOK, types.ProfileResponse{Error: "Password is required and 6 character long"})
		return
	}
	token := r.Header.Get("Authorization")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.accounts {
		if b.accounts[i].Token != token {
			continue
		}
		u := &b.accounts[i].User
		u.Name, u.Phone, u.Address = req.Name, req.Phone, req.Address
		updated := *u
		writeJSON(w, http.StatusOK, types.ProfileResponse{Success: true, Message: "Profile Updated Successfully", UpdatedUser: &updated})
		return
	}
	writeJSON(w, http.StatusUnauthorized, types.ErrorResponse{Message: "invalid token"})
}
