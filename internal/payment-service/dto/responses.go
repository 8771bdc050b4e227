package dto

type CreatePaymentResponse struct {
	PaymentID   string `json:"paymentId"`
	RedirectURL string `json:"redirect_url"`
	Status      string `json:"status"` // PENDING
}

type PaymentResponse struct {
	PaymentID     string `json:"paymentId"`
	BettorID      string `json:"bettorId"`
	GameID        string `json:"gameId"`
	TotalAmount   string `json:"total_amount"`
	Status        string `json:"status"`
	GatewayStatus string `json:"gateway_status,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type PaymentStatusResponse struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}
