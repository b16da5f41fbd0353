// Package types defines the wire types exchanged with the remote gateway.
// Field names follow the gateway's JSON contract exactly; monetary fields
// use the minor-unit money value object.
package types

import "storefront/internal/money"

// User is the account record returned by the auth endpoints.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Product is a catalog entry.
type Product struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Price         money.Money `json:"price"`
	CategoryID    string      `json:"category_id"`
	CategoryName  string      `json:"category_name"`
	StockQuantity int         `json:"stock_quantity"`
	ImageURL      string      `json:"image_url"`
	IsActive      bool        `json:"is_active"`
	CreatedAt     string      `json:"created_at"`
	UpdatedAt     string      `json:"updated_at"`
}

// Category is a product category.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// Order lifecycle states owned by the remote order service. The client
// reads them and may request cancellation of PENDING orders; it never
// computes transitions itself.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// OrderItem is one line of a placed order. Total carries
// price.amount * quantity in the price currency.
type OrderItem struct {
	ID          string      `json:"id"`
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	Price       money.Money `json:"price"`
	Total       money.Money `json:"total"`
}

// Order is owned by the remote order service.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	Status          string      `json:"status"`
	Items           []OrderItem `json:"items"`
	TotalAmount     money.Money `json:"total_amount"`
	ShippingAddress string      `json:"shipping_address"`
	CreatedAt       string      `json:"created_at"`
	UpdatedAt       string      `json:"updated_at"`
}

// Cancellable reports whether the client may request cancellation.
func (o Order) Cancellable() bool {
	return o.Status == OrderStatusPending
}

// PaymentDetails is the card data collected at checkout and forwarded
// verbatim; the client never stores it.
type PaymentDetails struct {
	CardNumber  string `json:"card_number"`
	CardHolder  string `json:"card_holder"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv"`
}

// CreateOrderItem references a product by id only; the server recomputes
// authoritative pricing and ignores any client-side price.
type CreateOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest is the order-creation payload.
type CreateOrderRequest struct {
	UserID          string            `json:"user_id,omitempty"`
	Items           []CreateOrderItem `json:"items"`
	ShippingAddress string            `json:"shipping_address"`
	PaymentMethod   string            `json:"payment_method"`
	PaymentDetails  PaymentDetails    `json:"payment_details"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries the registration form.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// LoginResponse is the data payload of a successful login.
type LoginResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RegisterResponse is the data payload of a successful registration.
type RegisterResponse struct {
	User    User   `json:"user"`
	Message string `json:"message"`
}

// RefreshResponse is the data payload of a token refresh.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}
