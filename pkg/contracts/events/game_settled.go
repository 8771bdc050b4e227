package events

import "time"

type SettledWinner struct {
	BettorID string `json:"bettor_id"`
	BetID    string `json:"bet_id"`
	Tier     string `json:"tier"` // CHAMPION | RUNNER_UP | LOWEST
	Points   int    `json:"points"`
	Amount   string `json:"amount"` // decimal com 2 casas
}

// Evento publicado no tópico "game_settled" após a apuração de um jogo.
// O prize-notify-worker consome este evento para disparar e-mails.
type GameSettled struct {
	GameID       string          `json:"game_id"`
	Pool         string          `json:"pool"`
	AdminCost    string          `json:"admin_cost"`
	Net          string          `json:"net"`
	DrawnNumbers []string        `json:"drawn_numbers"`
	Winners      []SettledWinner `json:"winners"`
	SettledAt    time.Time       `json:"settled_at"`
}
