package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/bookstore-system/internal/auth"
	"github.com/mmeshcher/bookstore-system/internal/middleware"
	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/repository"
	"github.com/mmeshcher/bookstore-system/internal/service"
)

type stubService struct {
	signUpToken string
	signUpUser  *model.User
	signUpErr   error

	loginToken string
	loginUser  *model.User
	loginErr   error

	cartEntries []service.CartEntry

	addProductID string
	addQuantity  int
	addErr       error

	order    *model.Order
	orderErr error

	userOrders []model.Order
	allOrders  []model.Order

	statusOrderID string
	statusValue   model.OrderStatus
	statusErr     error

	products []model.Product
	product  *model.Product

	seedCalled bool
}

func (s *stubService) SignUp(_ context.Context, _, _, _, _ string) (string, *model.User, error) {
	return s.signUpToken, s.signUpUser, s.signUpErr
}

func (s *stubService) Login(_ context.Context, _, _ string) (string, *model.User, error) {
	return s.loginToken, s.loginUser, s.loginErr
}

func (s *stubService) GetCart(_ context.Context, _ *model.User) ([]service.CartEntry, error) {
	return s.cartEntries, nil
}

func (s *stubService) AddToCart(_ context.Context, _ *model.User, productID string, quantity int) error {
	s.addProductID = productID
	s.addQuantity = quantity
	return s.addErr
}

func (s *stubService) SetCartQuantity(_ context.Context, _ *model.User, _ string, _ int) error {
	return nil
}

func (s *stubService) RemoveFromCart(_ context.Context, _ *model.User, _ string) error {
	return nil
}

func (s *stubService) CreateOrder(_ context.Context, _ *model.User, _ model.ShippingAddress) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) GetOrdersByUser(_ context.Context, _ string) ([]model.Order, error) {
	return s.userOrders, nil
}

func (s *stubService) GetAllOrders(_ context.Context) ([]model.Order, error) {
	return s.allOrders, nil
}

func (s *stubService) SetOrderStatus(_ context.Context, orderID string, status model.OrderStatus) error {
	s.statusOrderID = orderID
	s.statusValue = status
	return s.statusErr
}

func (s *stubService) ListProducts(_ context.Context) ([]model.Product, error) {
	return s.products, nil
}

func (s *stubService) GetProduct(_ context.Context, _ string) (*model.Product, error) {
	if s.product == nil {
		return nil, repository.ErrProductNotFound
	}
	return s.product, nil
}

func (s *stubService) CreateProduct(_ context.Context, p *model.Product) error {
	p.ID = "generated-id"
	return nil
}

func (s *stubService) UpdateProduct(_ context.Context, _ *model.Product) error {
	return nil
}

func (s *stubService) DeleteProduct(_ context.Context, _ string) error {
	return nil
}

func (s *stubService) SubmitContact(_ context.Context, _, _, _ string) error {
	return nil
}

func (s *stubService) SeedData(_ context.Context) error {
	s.seedCalled = true
	return nil
}

type stubResolver struct {
	users map[string]*model.User
}

func (r *stubResolver) GetUserByID(_ context.Context, id string) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func testRouter(t *testing.T, svc Service, users ...*model.User) (http.Handler, *auth.TokenManager) {
	t.Helper()

	tokens := auth.NewTokenManager("test-secret")
	resolver := &stubResolver{users: make(map[string]*model.User)}
	for _, u := range users {
		resolver.users[u.ID] = u
	}

	authmw := middleware.NewAuth(tokens, resolver)
	h := NewHandler(svc, zap.NewNop(), authmw)
	return h.SetupRouter(), tokens
}

func bearerFor(t *testing.T, tokens *auth.TokenManager, user *model.User) string {
	t.Helper()

	token, err := tokens.Issue(user.ID, user.Role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + token
}

func TestSignup(t *testing.T) {
	email := "reader@example.com"
	svc := &stubService{
		signUpToken: "issued-token",
		signUpUser: &model.User{
			ID:       "u1",
			Username: "reader",
			Email:    &email,
			Role:     model.RoleUser,
		},
	}
	router, _ := testRouter(t, svc)

	body := `{"username":"reader","email":"reader@example.com","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken != "issued-token" {
		t.Errorf("expected issued token in response, got %q", resp.AccessToken)
	}
	if resp.User.Username != "reader" {
		t.Errorf("expected username in response, got %q", resp.User.Username)
	}
}

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing username", `{"email":"a@b.com","password":"secret"}`},
		{"missing password", `{"username":"reader","email":"a@b.com"}`},
		{"bad email", `{"username":"reader","email":"not-an-email","password":"secret"}`},
		{"bad mobile", `{"username":"reader","mobile_number":"12ab","password":"secret"}`},
		{"not json", `{{{`},
	}

	router, _ := testRouter(t, &stubService{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestSignup_Conflict(t *testing.T) {
	svc := &stubService{signUpErr: repository.ErrUserExists}
	router, _ := testRouter(t, svc)

	body := `{"username":"reader","email":"reader@example.com","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &stubService{loginErr: service.ErrInvalidCredentials}
	router, _ := testRouter(t, svc)

	body := `{"identifier":"reader@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestCart_RequiresToken(t *testing.T) {
	router, _ := testRouter(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAddToCart_DefaultQuantity(t *testing.T) {
	user := &model.User{ID: "u1", Username: "reader", Role: model.RoleUser}
	svc := &stubService{}
	router, tokens := testRouter(t, svc, user)

	body := `{"product_id":"p1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearerFor(t, tokens, user))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.addProductID != "p1" {
		t.Errorf("expected product p1, got %q", svc.addProductID)
	}
	if svc.addQuantity != 1 {
		t.Errorf("expected default quantity 1, got %d", svc.addQuantity)
	}
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	user := &model.User{ID: "u1", Username: "reader", Role: model.RoleUser}
	svc := &stubService{addErr: repository.ErrProductNotFound}
	router, tokens := testRouter(t, svc, user)

	body := `{"product_id":"ghost","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearerFor(t, tokens, user))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCreateOrder(t *testing.T) {
	user := &model.User{ID: "u1", Username: "reader", Role: model.RoleUser}
	svc := &stubService{
		order: &model.Order{
			ID:     "o1",
			UserID: "u1",
			Lines: []model.OrderLine{
				{ProductID: "p1", Title: "Twilight of the Moon", Quantity: 2, Price: 7500},
			},
			Total:       15000,
			PaymentMode: model.PaymentModeCOD,
			Status:      model.OrderStatusPending,
			CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	router, tokens := testRouter(t, svc, user)

	body := `{"shipping_address":{"full_name":"Reader","address":"1 Main St","city":"Springfield","state":"IL","postal_code":"62701","mobile_number":"9876543210"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearerFor(t, tokens, user))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp orderResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalAmount != 150.00 {
		t.Errorf("expected total 150.00, got %v", resp.TotalAmount)
	}
	if len(resp.Products) != 1 || resp.Products[0].Price != 75.00 {
		t.Errorf("unexpected order lines: %+v", resp.Products)
	}
	if resp.Status != string(model.OrderStatusPending) {
		t.Errorf("expected pending status, got %q", resp.Status)
	}
	if resp.PaymentMode != model.PaymentModeCOD {
		t.Errorf("expected COD payment mode, got %q", resp.PaymentMode)
	}
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	user := &model.User{ID: "u1", Username: "reader", Role: model.RoleUser}
	svc := &stubService{orderErr: service.ErrEmptyCart}
	router, tokens := testRouter(t, svc, user)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(`{}`))
	req.Header.Set("Authorization", bearerFor(t, tokens, user))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAdminRoutes_ForbiddenForUser(t *testing.T) {
	user := &model.User{ID: "u1", Username: "reader", Role: model.RoleUser}
	router, tokens := testRouter(t, &stubService{}, user)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("Authorization", bearerFor(t, tokens, user))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	admin := &model.User{ID: "a1", Username: "Admin", Role: model.RoleAdmin}
	svc := &stubService{}
	router, tokens := testRouter(t, svc, admin)

	body := `{"status":"Shipped"}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/orders/o1/status", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearerFor(t, tokens, admin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.statusOrderID != "o1" {
		t.Errorf("expected order o1, got %q", svc.statusOrderID)
	}
	if svc.statusValue != model.OrderStatusShipped {
		t.Errorf("expected Shipped, got %q", svc.statusValue)
	}
}

func TestUpdateOrderStatus_Invalid(t *testing.T) {
	admin := &model.User{ID: "a1", Username: "Admin", Role: model.RoleAdmin}
	svc := &stubService{statusErr: service.ErrInvalidStatus}
	router, tokens := testRouter(t, svc, admin)

	body := `{"status":"Returned"}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/orders/o1/status", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearerFor(t, tokens, admin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListProducts_Public(t *testing.T) {
	sale := int64(7500)
	svc := &stubService{
		products: []model.Product{
			{ID: "p1", Title: "Twilight of the Moon", OriginalPrice: 15000, SalePrice: &sale, Category: "Fantasy", Stock: 100},
		},
	}
	router, _ := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []productResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 product, got %d", len(resp))
	}
	if resp[0].OriginalPrice != 150.00 {
		t.Errorf("expected original price 150.00, got %v", resp[0].OriginalPrice)
	}
	if resp[0].SalePrice == nil || *resp[0].SalePrice != 75.00 {
		t.Errorf("expected sale price 75.00, got %v", resp[0].SalePrice)
	}
}

func TestInitData(t *testing.T) {
	svc := &stubService{}
	router, _ := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/init", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !svc.seedCalled {
		t.Error("expected seed to be called")
	}
}
