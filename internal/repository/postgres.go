// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Верхняя граница выборки при сканировании заказов без пагинации.
const listOrdersCap = 1000

// ErrUserExists возвращается при попытке создать пользователя с уже занятым email или номером.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
// Корзина пользователя хранится одной JSONB-колонкой и всегда заменяется
// целиком, как единый документ.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateUser сохраняет нового пользователя. Конфликт уникальности по email
// или мобильному номеру возвращается как ErrUserExists, без уточнения поля.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	cart, err := json.Marshal(u.Cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	addresses, err := json.Marshal(u.Addresses)
	if err != nil {
		return fmt.Errorf("marshal addresses: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, mobile_number, password_hash, role, cart, addresses)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Username, u.Email, u.MobileNumber, u.PasswordHash, string(u.Role), cart, addresses,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

const userColumns = `id, username, email, mobile_number, password_hash, role, cart, addresses, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u         model.User
		role      string
		cart      []byte
		addresses []byte
	)

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.MobileNumber, &u.PasswordHash, &role, &cart, &addresses, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Role = model.Role(role)

	if err := json.Unmarshal(cart, &u.Cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	if err := json.Unmarshal(addresses, &u.Addresses); err != nil {
		return nil, fmt.Errorf("unmarshal addresses: %w", err)
	}

	return &u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByMobile возвращает пользователя по мобильному номеру.
func (r *PostgresRepository) GetUserByMobile(ctx context.Context, mobile string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE mobile_number = $1`, mobile)
	return scanUser(row)
}

// GetUserByIdentifier возвращает пользователя, чей email или мобильный номер
// совпадает с идентификатором.
func (r *PostgresRepository) GetUserByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR mobile_number = $1`, identifier)
	return scanUser(row)
}

// UpdateUserCart заменяет корзину пользователя целиком одной атомарной записью.
// Версионирования нет: при конкурентных изменениях побеждает последняя запись.
func (r *PostgresRepository) UpdateUserCart(ctx context.Context, userID string, cart []model.CartLine) error {
	if cart == nil {
		cart = []model.CartLine{}
	}

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE users SET cart = $2 WHERE id = $1`, userID, data)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// AdminExists сообщает, есть ли в системе хотя бы один администратор.
func (r *PostgresRepository) AdminExists(ctx context.Context) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, string(model.RoleAdmin),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return exists, nil
}

// CreateProduct сохраняет новый товар каталога.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO products (id, title, description, original_price, sale_price, image_url, category, stock)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Title, p.Description, p.OriginalPrice, p.SalePrice, p.ImageURL, p.Category, p.Stock,
	)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// UpdateProduct перезаписывает все поля товара.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE products
		 SET title = $2, description = $3, original_price = $4, sale_price = $5,
		     image_url = $6, category = $7, stock = $8
		 WHERE id = $1`,
		p.ID, p.Title, p.Description, p.OriginalPrice, p.SalePrice, p.ImageURL, p.Category, p.Stock,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteProduct удаляет товар из каталога.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id string) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// GetProduct возвращает товар по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, title, description, original_price, sale_price, image_url, category, stock
		 FROM products WHERE id = $1`, id)

	var p model.Product
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.OriginalPrice, &p.SalePrice, &p.ImageURL, &p.Category, &p.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// ListProducts возвращает все товары каталога.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, original_price, sale_price, image_url, category, stock
		 FROM products ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.OriginalPrice, &p.SalePrice, &p.ImageURL, &p.Category, &p.Stock); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// CountProducts возвращает число товаров в каталоге.
func (r *PostgresRepository) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// CreateOrder сохраняет заказ и очищает корзину владельца в одной транзакции:
// состояние «заказ создан, корзина не очищена» невозможно.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshal order lines: %w", err)
	}
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		_, err = tx.Exec(ctx,
			`INSERT INTO orders (id, user_id, lines, total, shipping_address, payment_mode, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			o.ID, o.UserID, lines, o.Total, address, o.PaymentMode, string(o.Status), o.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET cart = '[]' WHERE id = $1`, o.UserID)
		if err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}

func scanOrders(rows pgx.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		var (
			o       model.Order
			status  string
			lines   []byte
			address []byte
		)
		if err := rows.Scan(&o.ID, &o.UserID, &lines, &o.Total, &address, &o.PaymentMode, &status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		o.Status = model.OrderStatus(status)

		if err := json.Unmarshal(lines, &o.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal order lines: %w", err)
		}
		if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// GetOrdersByUser возвращает заказы пользователя, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, lines, total, shipping_address, payment_mode, status, created_at
		 FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, listOrdersCap,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// GetAllOrders возвращает заказы всех пользователей, новые первыми.
func (r *PostgresRepository) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, lines, total, shipping_address, payment_mode, status, created_at
		 FROM orders
		 ORDER BY created_at DESC
		 LIMIT $1`,
		listOrdersCap,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// UpdateOrderStatus устанавливает статус заказа.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`,
		orderID, string(status),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// CreateContact сохраняет обращение из формы обратной связи.
func (r *PostgresRepository) CreateContact(ctx context.Context, c *model.Contact) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO contacts (id, name, email, message, submitted_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Email, c.Message, c.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}
