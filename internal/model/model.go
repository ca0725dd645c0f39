// Package model содержит доменные сущности книжного магазина.
package model

import "time"

// Role описывает роль пользователя в системе.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid сообщает, является ли значение одной из поддерживаемых ролей.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// Valid сообщает, является ли значение одним из поддерживаемых статусов.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentModeCOD — единственный поддерживаемый способ оплаты (наложенный платёж).
const PaymentModeCOD = "COD"

// CartLine представляет одну позицию корзины: товар и количество.
// На каждый товар в корзине приходится не более одной позиции.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// User представляет зарегистрированного пользователя магазина.
// Хотя бы один из контактов (email или мобильный номер) обязан присутствовать.
type User struct {
	ID           string
	Username     string
	Email        *string
	MobileNumber *string
	PasswordHash string
	Role         Role
	Cart         []CartLine
	Addresses    []ShippingAddress
	CreatedAt    time.Time
}

// Product представляет товар каталога. Цены хранятся в копейках.
type Product struct {
	ID            string
	Title         string
	Description   string
	OriginalPrice int64
	SalePrice     *int64
	ImageURL      string
	Category      string
	Stock         int
}

// EffectivePrice возвращает действующую цену товара: цену со скидкой,
// если она задана, иначе исходную цену.
func (p *Product) EffectivePrice() int64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.OriginalPrice
}

// ShippingAddress описывает адрес доставки заказа.
type ShippingAddress struct {
	FullName     string `json:"full_name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	MobileNumber string `json:"mobile_number"`
}

// OrderLine представляет позицию заказа: снимок товара на момент оформления.
// Название и цена зафиксированы при создании заказа и больше не меняются,
// даже если каталог изменится.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// Order представляет оформленный заказ. Сумма заказа вычисляется один раз
// при создании и равна сумме позиций; после создания меняется только статус.
type Order struct {
	ID              string
	UserID          string
	Lines           []OrderLine
	Total           int64
	ShippingAddress ShippingAddress
	PaymentMode     string
	Status          OrderStatus
	CreatedAt       time.Time
}

// Contact представляет обращение из формы обратной связи.
type Contact struct {
	ID          string
	Name        string
	Email       string
	Message     string
	SubmittedAt time.Time
}
