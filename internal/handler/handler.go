// Package handler содержит HTTP-обработчики API книжного магазина.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/bookstore-system/internal/middleware"
	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/repository"
	"github.com/mmeshcher/bookstore-system/internal/service"
	"github.com/mmeshcher/bookstore-system/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	SignUp(ctx context.Context, username, email, mobile, password string) (string, *model.User, error)
	Login(ctx context.Context, identifier, password string) (string, *model.User, error)
	GetCart(ctx context.Context, user *model.User) ([]service.CartEntry, error)
	AddToCart(ctx context.Context, user *model.User, productID string, quantity int) error
	SetCartQuantity(ctx context.Context, user *model.User, productID string, quantity int) error
	RemoveFromCart(ctx context.Context, user *model.User, productID string) error
	CreateOrder(ctx context.Context, user *model.User, address model.ShippingAddress) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	SetOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id string) error
	SubmitContact(ctx context.Context, name, email, message string) error
	SeedData(ctx context.Context) error
}

// Handler реализует HTTP-обработчики API книжного магазина.
type Handler struct {
	service Service
	logger  *zap.Logger
	auth    *middleware.Auth
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.Auth) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
		auth:    auth,
	}
}

// Цены в API передаются в основных денежных единицах, внутри — в копейках.
func centsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

func amountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

type userResponse struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Email        *string `json:"email,omitempty"`
	MobileNumber *string `json:"mobile_number,omitempty"`
	Role         string  `json:"role"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		MobileNumber: u.MobileNumber,
		Role:         string(u.Role),
	}
}

type authResponse struct {
	AccessToken string       `json:"access_token"`
	User        userResponse `json:"user"`
}

type signupRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobile_number"`
	Password     string `json:"password"`
}

// Signup регистрирует нового пользователя и возвращает токен вместе с профилем.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if req.Email != "" && !validation.IsValidEmail(req.Email) {
		respondError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if req.MobileNumber != "" && !validation.IsValidMobile(req.MobileNumber) {
		respondError(w, http.StatusBadRequest, "invalid mobile number")
		return
	}

	token, user, err := h.service.SignUp(r.Context(), req.Username, req.Email, req.MobileNumber, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingContact):
			respondError(w, http.StatusBadRequest, "either email or mobile number is required")
		case errors.Is(err, repository.ErrUserExists):
			respondError(w, http.StatusConflict, "user already exists")
		default:
			h.logger.Error("signup error", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondJSON(w, http.StatusOK, authResponse{
		AccessToken: token,
		User:        newUserResponse(user),
	})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Login аутентифицирует пользователя по email или мобильному номеру.
// Все причины неудачи сводятся к одному ответу.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Identifier == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "identifier and password are required")
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("login error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, authResponse{
		AccessToken: token,
		User:        newUserResponse(user),
	})
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	respondJSON(w, http.StatusOK, newUserResponse(user))
}

type productPayload struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	OriginalPrice float64  `json:"original_price"`
	SalePrice     *float64 `json:"sale_price"`
	ImageURL      string   `json:"image_url"`
	Category      string   `json:"category"`
	Stock         int      `json:"stock"`
}

func (p *productPayload) toModel() *model.Product {
	product := &model.Product{
		Title:         p.Title,
		Description:   p.Description,
		OriginalPrice: amountToCents(p.OriginalPrice),
		ImageURL:      p.ImageURL,
		Category:      p.Category,
		Stock:         p.Stock,
	}
	if p.SalePrice != nil {
		cents := amountToCents(*p.SalePrice)
		product.SalePrice = &cents
	}
	return product
}

type productResponse struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	OriginalPrice float64  `json:"original_price"`
	SalePrice     *float64 `json:"sale_price,omitempty"`
	ImageURL      string   `json:"image_url"`
	Category      string   `json:"category"`
	Stock         int      `json:"stock"`
}

func newProductResponse(p *model.Product) productResponse {
	resp := productResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		OriginalPrice: centsToAmount(p.OriginalPrice),
		ImageURL:      p.ImageURL,
		Category:      p.Category,
		Stock:         p.Stock,
	}
	if p.SalePrice != nil {
		amount := centsToAmount(*p.SalePrice)
		resp.SalePrice = &amount
	}
	return resp
}

// ListProducts возвращает весь каталог.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("list products error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]productResponse, 0, len(products))
	for i := range products {
		resp = append(resp, newProductResponse(&products[i]))
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetProduct возвращает карточку одного товара.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	product, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("get product error", zap.Error(err), zap.String("product", productID))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, newProductResponse(product))
}

// CreateProduct добавляет товар в каталог. Доступно администратору.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" || req.Category == "" {
		respondError(w, http.StatusBadRequest, "title and category are required")
		return
	}

	product := req.toModel()
	if err := h.service.CreateProduct(r.Context(), product); err != nil {
		h.logger.Error("create product error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, newProductResponse(product))
}

// UpdateProduct перезаписывает карточку товара. Доступно администратору.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req productPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := req.toModel()
	product.ID = productID

	if err := h.service.UpdateProduct(r.Context(), product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("update product error", zap.Error(err), zap.String("product", productID))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, newProductResponse(product))
}

// DeleteProduct удаляет товар из каталога. Доступно администратору.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	if err := h.service.DeleteProduct(r.Context(), productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("delete product error", zap.Error(err), zap.String("product", productID))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "product deleted"})
}

type cartItemResponse struct {
	Product  productResponse `json:"product"`
	Quantity int             `json:"quantity"`
}

type cartResponse struct {
	Cart []cartItemResponse `json:"cart"`
}

// GetCart возвращает корзину текущего пользователя с карточками товаров.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entries, err := h.service.GetCart(r.Context(), user)
	if err != nil {
		h.logger.Error("get cart error", zap.Error(err), zap.String("user", user.ID))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := cartResponse{Cart: make([]cartItemResponse, 0, len(entries))}
	for i := range entries {
		resp.Cart = append(resp.Cart, cartItemResponse{
			Product:  newProductResponse(&entries[i].Product),
			Quantity: entries[i].Quantity,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddToCart добавляет товар в корзину текущего пользователя.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := h.service.AddToCart(r.Context(), user, req.ProductID, req.Quantity); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			respondError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrInvalidQuantity):
			respondError(w, http.StatusBadRequest, "quantity must be positive")
		default:
			h.logger.Error("add to cart error", zap.Error(err), zap.String("user", user.ID))
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "item added to cart"})
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateCartItem устанавливает количество позиции корзины; ноль удаляет её.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID := chi.URLParam(r, "productID")

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.SetCartQuantity(r.Context(), user, productID, req.Quantity); err != nil {
		h.logger.Error("update cart error", zap.Error(err), zap.String("user", user.ID))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "cart updated"})
}

// RemoveCartItem убирает позицию из корзины текущего пользователя.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID := chi.URLParam(r, "productID")

	if err := h.service.RemoveFromCart(r.Context(), user, productID); err != nil {
		h.logger.Error("remove cart item error", zap.Error(err), zap.String("user", user.ID))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "item removed from cart"})
}

type createOrderRequest struct {
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
}

type orderLineResponse struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type orderResponse struct {
	ID              string                `json:"id"`
	UserID          string                `json:"user_id"`
	Products        []orderLineResponse   `json:"products"`
	TotalAmount     float64               `json:"total_amount"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	PaymentMode     string                `json:"payment_mode"`
	Status          string                `json:"status"`
	OrderDate       string                `json:"order_date"`
}

func newOrderResponse(o *model.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, line := range o.Lines {
		lines = append(lines, orderLineResponse{
			ProductID: line.ProductID,
			Title:     line.Title,
			Quantity:  line.Quantity,
			Price:     centsToAmount(line.Price),
		})
	}

	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Products:        lines,
		TotalAmount:     centsToAmount(o.Total),
		ShippingAddress: o.ShippingAddress,
		PaymentMode:     o.PaymentMode,
		Status:          string(o.Status),
		OrderDate:       o.CreatedAt.Format(time.RFC3339),
	}
}

// CreateOrder оформляет заказ из корзины текущего пользователя.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), user, req.ShippingAddress)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			respondError(w, http.StatusBadRequest, "cart is empty")
			return
		}
		h.logger.Error("create order error", zap.Error(err), zap.String("user", user.ID))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, newOrderResponse(order))
}

// GetOrders возвращает заказы текущего пользователя.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.service.GetOrdersByUser(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("get orders error", zap.Error(err), zap.String("user", user.ID))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, newOrderResponse(&orders[i]))
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetAllOrders возвращает заказы всех пользователей. Доступно администратору.
func (h *Handler) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetAllOrders(r.Context())
	if err != nil {
		h.logger.Error("get all orders error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, newOrderResponse(&orders[i]))
	}

	respondJSON(w, http.StatusOK, resp)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus устанавливает статус заказа. Доступно администратору.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.service.SetOrderStatus(r.Context(), orderID, model.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			respondError(w, http.StatusBadRequest, "invalid status")
		case errors.Is(err, repository.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, "order not found")
		default:
			h.logger.Error("update order status error", zap.Error(err), zap.String("order", orderID))
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "order status updated"})
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// SubmitContact принимает обращение из формы обратной связи.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" || req.Message == "" {
		respondError(w, http.StatusBadRequest, "name, email and message are required")
		return
	}

	if err := h.service.SubmitContact(r.Context(), req.Name, req.Email, req.Message); err != nil {
		h.logger.Error("submit contact error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "message sent"})
}

// InitData создаёт администратора и стартовый каталог, если их ещё нет.
func (h *Handler) InitData(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SeedData(r.Context()); err != nil {
		h.logger.Error("seed data error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "data initialized"})
}
