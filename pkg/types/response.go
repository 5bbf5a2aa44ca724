package types

// Response envelopes as returned by the bookstore API.

type CategoryListResponse struct {
	Success  bool       `json:"success"`
	Message  string     `json:"message,omitempty"`
	Category []Category `json:"category"`
}

type ProductListResponse struct {
	Success  bool      `json:"success"`
	Products []Product `json:"products"`
}

type ProductCountResponse struct {
	Success bool `json:"success"`
	Total   int  `json:"total"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Product *Product `json:"product"`
}

type CategoryProductsResponse struct {
	Success  bool      `json:"success"`
	Category *Category `json:"category"`
	Products []Product `json:"products"`
}

type ClientTokenResponse struct {
	ClientToken string `json:"clientToken"`
}

// PaymentRequest is the body of POST product/braintree/payment.
type PaymentRequest struct {
	Nonce string     `json:"nonce" validate:"required"`
	Cart  []CartItem `json:"cart" validate:"required,min=1"`
}

type PaymentResponse struct {
	OK bool `json:"ok"`
}

type LoginResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *UserProfile `json:"user"`
	Token   string       `json:"token"`
}

type UserListResponse struct {
	Success bool          `json:"success"`
	Users   []UserProfile `json:"users"`
}

type ProfileResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message,omitempty"`
	Error       string       `json:"error,omitempty"`
	UpdatedUser *UserProfile `json:"updatedUser"`
}

// ErrorResponse is the body shape the API uses for failures.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}
