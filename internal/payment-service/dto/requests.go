package dto

// LineItem é um palpite do carrinho; vira aposta só depois do pagamento
// confirmar.
type LineItem struct {
	Numbers []string `json:"numbers"`
}

type CreatePaymentRequest struct {
	BettorID    string     `json:"bettorId"`
	GameID      string     `json:"gameId"`
	LineItems   []LineItem `json:"line_items"`
	TotalAmount string     `json:"total_amount"` // decimal com 2 casas, ex: "60.00"
}
