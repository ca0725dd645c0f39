// Package service реализует бизнес-логику книжного магазина.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/bookstore-system/internal/auth"
	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/repository"
)

// ErrMissingContact возвращается при регистрации без email и мобильного номера.
var (
	ErrMissingContact = errors.New("either email or mobile number is required")
	// ErrInvalidCredentials возвращается при любой ошибке входа: неизвестный
	// идентификатор и неверный пароль неразличимы для вызывающего.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidQuantity возвращается при попытке добавить в корзину неположительное количество.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrEmptyCart возвращается при оформлении заказа с пустой корзиной.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidStatus возвращается при попытке установить недопустимый статус заказа.
	ErrInvalidStatus = errors.New("invalid order status")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByMobile(ctx context.Context, mobile string) (*model.User, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	UpdateUserCart(ctx context.Context, userID string, cart []model.CartLine) error
	AdminExists(ctx context.Context) (bool, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id string) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	CountProducts(ctx context.Context) (int, error)
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error
	CreateContact(ctx context.Context, c *model.Contact) error
}

// Service содержит бизнес-логику книжного магазина.
type Service struct {
	repo   Repository
	tokens *auth.TokenManager
}

// NewService создаёт новый сервис с указанными репозиторием и выпуском токенов.
func NewService(repo Repository, tokens *auth.TokenManager) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// SignUp регистрирует нового пользователя и сразу выпускает ему токен:
// регистрация и первый вход неразделимы для вызывающего. Требуется хотя бы
// один контакт; проверка занятости идёт сначала по email, затем по номеру.
func (s *Service) SignUp(ctx context.Context, username, email, mobile, password string) (string, *model.User, error) {
	if email == "" && mobile == "" {
		return "", nil, ErrMissingContact
	}

	var existing *model.User
	if email != "" {
		u, err := s.repo.GetUserByEmail(ctx, email)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, fmt.Errorf("check email: %w", err)
		}
		existing = u
	}
	if existing == nil && mobile != "" {
		u, err := s.repo.GetUserByMobile(ctx, mobile)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, fmt.Errorf("check mobile: %w", err)
		}
		existing = u
	}
	if existing != nil {
		// Какое именно поле занято, не сообщается: перечисление аккаунтов
		// по email не должно быть возможным.
		return "", nil, repository.ErrUserExists
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return "", nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hashed,
		Role:         model.RoleUser,
		Cart:         []model.CartLine{},
	}
	if email != "" {
		user.Email = &email
	}
	if mobile != "" {
		user.MobileNumber = &mobile
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// Login аутентифицирует пользователя по идентификатору (email или мобильный
// номер) и паролю и выпускает токен.
func (s *Service) Login(ctx context.Context, identifier, password string) (string, *model.User, error) {
	user, err := s.repo.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// CartEntry объединяет позицию корзины с актуальной карточкой товара.
type CartEntry struct {
	Product  model.Product
	Quantity int
}

// GetCart возвращает корзину пользователя вместе с карточками товаров.
// Позиции, чей товар исчез из каталога, опускаются.
func (s *Service) GetCart(ctx context.Context, user *model.User) ([]CartEntry, error) {
	entries := make([]CartEntry, 0, len(user.Cart))
	for _, line := range user.Cart {
		p, err := s.repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				continue
			}
			return nil, fmt.Errorf("get product: %w", err)
		}
		entries = append(entries, CartEntry{Product: *p, Quantity: line.Quantity})
	}
	return entries, nil
}

// AddToCart добавляет товар в корзину пользователя. Если позиция уже есть,
// количество накапливается, а не заменяется. Корзина записывается целиком.
func (s *Service) AddToCart(ctx context.Context, user *model.User, productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return err
	}

	cart := make([]model.CartLine, len(user.Cart))
	copy(cart, user.Cart)

	found := false
	for i := range cart {
		if cart[i].ProductID == productID {
			cart[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		cart = append(cart, model.CartLine{ProductID: productID, Quantity: quantity})
	}

	if err := s.repo.UpdateUserCart(ctx, user.ID, cart); err != nil {
		return err
	}

	user.Cart = cart
	return nil
}

// SetCartQuantity устанавливает количество для позиции корзины. Количество
// ниже единицы удаляет позицию; отсутствующая позиция — не ошибка.
func (s *Service) SetCartQuantity(ctx context.Context, user *model.User, productID string, quantity int) error {
	idx := -1
	for i := range user.Cart {
		if user.Cart[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}

	cart := make([]model.CartLine, len(user.Cart))
	copy(cart, user.Cart)

	if quantity <= 0 {
		cart = append(cart[:idx], cart[idx+1:]...)
	} else {
		cart[idx].Quantity = quantity
	}

	if err := s.repo.UpdateUserCart(ctx, user.ID, cart); err != nil {
		return err
	}

	user.Cart = cart
	return nil
}

// RemoveFromCart убирает позицию из корзины. Отсутствие позиции — не ошибка.
func (s *Service) RemoveFromCart(ctx context.Context, user *model.User, productID string) error {
	cart := make([]model.CartLine, 0, len(user.Cart))
	for _, line := range user.Cart {
		if line.ProductID != productID {
			cart = append(cart, line)
		}
	}

	if err := s.repo.UpdateUserCart(ctx, user.ID, cart); err != nil {
		return err
	}

	user.Cart = cart
	return nil
}

// CreateOrder оформляет заказ из текущей корзины пользователя: фиксирует
// названия и действующие цены на момент оформления, считает сумму, сохраняет
// заказ и очищает корзину. Позиции исчезнувших товаров молча опускаются —
// доступность оформления важнее строгой полноты. Последующие изменения
// каталога на созданный заказ не влияют.
func (s *Service) CreateOrder(ctx context.Context, user *model.User, address model.ShippingAddress) (*model.Order, error) {
	if len(user.Cart) == 0 {
		return nil, ErrEmptyCart
	}

	var (
		lines []model.OrderLine
		total int64
	)
	for _, line := range user.Cart {
		p, err := s.repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				continue
			}
			return nil, fmt.Errorf("get product: %w", err)
		}

		price := p.EffectivePrice()
		lines = append(lines, model.OrderLine{
			ProductID: line.ProductID,
			Title:     p.Title,
			Quantity:  line.Quantity,
			Price:     price,
		})
		total += price * int64(line.Quantity)
	}

	order := &model.Order{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		Lines:           lines,
		Total:           total,
		ShippingAddress: address,
		PaymentMode:     model.PaymentModeCOD,
		Status:          model.OrderStatusPending,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	user.Cart = []model.CartLine{}
	return order, nil
}

// GetOrdersByUser возвращает заказы пользователя.
func (s *Service) GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// GetAllOrders возвращает заказы всех пользователей.
func (s *Service) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.GetAllOrders(ctx)
}

// SetOrderStatus устанавливает статус заказа. Значение вне допустимого
// набора отклоняется до какой-либо записи.
func (s *Service) SetOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return s.repo.UpdateOrderStatus(ctx, orderID, status)
}

// ListProducts возвращает весь каталог.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.ListProducts(ctx)
}

// GetProduct возвращает товар по идентификатору.
func (s *Service) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// CreateProduct добавляет товар в каталог и присваивает ему идентификатор.
func (s *Service) CreateProduct(ctx context.Context, p *model.Product) error {
	p.ID = uuid.NewString()
	return s.repo.CreateProduct(ctx, p)
}

// UpdateProduct перезаписывает карточку товара.
func (s *Service) UpdateProduct(ctx context.Context, p *model.Product) error {
	return s.repo.UpdateProduct(ctx, p)
}

// DeleteProduct удаляет товар из каталога.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.DeleteProduct(ctx, id)
}

// SubmitContact сохраняет обращение из формы обратной связи.
func (s *Service) SubmitContact(ctx context.Context, name, email, message string) error {
	return s.repo.CreateContact(ctx, &model.Contact{
		ID:          uuid.NewString(),
		Name:        name,
		Email:       email,
		Message:     message,
		SubmittedAt: time.Now().UTC(),
	})
}

// SeedData создаёт учётную запись администратора и стартовый каталог, если
// их ещё нет. Повторные вызовы ничего не меняют.
func (s *Service) SeedData(ctx context.Context) error {
	adminExists, err := s.repo.AdminExists(ctx)
	if err != nil {
		return err
	}

	if !adminExists {
		hashed, err := auth.HashPassword("Admin@123")
		if err != nil {
			return err
		}

		email := "admin@bookstore.local"
		mobile := "9876543210"
		admin := &model.User{
			ID:           uuid.NewString(),
			Username:     "Admin",
			Email:        &email,
			MobileNumber: &mobile,
			PasswordHash: hashed,
			Role:         model.RoleAdmin,
			Cart:         []model.CartLine{},
		}
		if err := s.repo.CreateUser(ctx, admin); err != nil {
			return err
		}
	}

	count, err := s.repo.CountProducts(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	salePrice := func(v int64) *int64 { return &v }
	samples := []model.Product{
		{
			Title:         "Twilight of the Moon",
			Description:   "A collection of poems about nature and the quiet beauty of everyday life.",
			OriginalPrice: 15000,
			SalePrice:     salePrice(7500),
			Category:      "Book",
			Stock:         100,
		},
		{
			Title:         "The Literary Stream",
			Description:   "A monthly magazine for readers of contemporary fiction.",
			OriginalPrice: 8000,
			Category:      "Magazine",
			Stock:         200,
		},
		{
			Title:         "Colored Memories",
			Description:   "A novel about the small moments that shape a life.",
			OriginalPrice: 20000,
			SalePrice:     salePrice(15000),
			Category:      "Novel",
			Stock:         50,
		},
		{
			Title:         "A Journey Within",
			Description:   "An inspiring autobiography of struggle and success.",
			OriginalPrice: 25000,
			SalePrice:     salePrice(20000),
			Category:      "Book",
			Stock:         60,
		},
	}

	for i := range samples {
		samples[i].ID = uuid.NewString()
		if err := s.repo.CreateProduct(ctx, &samples[i]); err != nil {
			return err
		}
	}

	return nil
}
