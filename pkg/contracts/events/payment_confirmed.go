package events

import "time"

// Evento emitido pelo payment-service após um intent confirmar e as apostas
// serem materializadas.
type PaymentConfirmed struct {
	IntentID      string    `json:"intent_id"`
	GameID        string    `json:"game_id"`
	BettorID      string    `json:"bettor_id"`
	TotalAmount   string    `json:"total_amount"` // decimal com 2 casas
	BetIDs        []string  `json:"bet_ids"`
	GatewayStatus string    `json:"gateway_status"`
	Ts            time.Time `json:"ts"`
}
