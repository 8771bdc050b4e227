package dto

type GameResponse struct {
	GameID         string `json:"gameId"`
	Name           string `json:"name"`
	NumeroInicial  int    `json:"numeroInicial"`
	NumeroFinal    int    `json:"numeroFinal"`
	NumeroPalpites int    `json:"numeroPalpites"`
	PointsPerMatch int    `json:"points_per_match"`
	PricePerBet    string `json:"price_per_bet"`
	Status         string `json:"status"`
}

type DrawResponse struct {
	DrawID     string   `json:"drawId"`
	GameID     string   `json:"gameId"`
	Ordinal    int      `json:"ordinal"`
	Label      string   `json:"label"`
	Numbers    []string `json:"numbers"`
	Duplicates []string `json:"duplicates,omitempty"` // união dos repetidos contra sorteios anteriores
	CreatedAt  string   `json:"created_at"`
}

type DrawnUnionResponse struct {
	GameID  string   `json:"gameId"`
	Numbers []string `json:"numbers"`
}

type WinnerResponse struct {
	BettorID   string `json:"bettorId"`
	BetID      string `json:"betId"`
	MatchCount int    `json:"match_count"`
	Points     int    `json:"points"`
	Amount     string `json:"amount"`
	Paid       bool   `json:"paid"`
}

type TierResponse struct {
	Tier    string           `json:"tier"`
	Total   string           `json:"total"`
	Winners []WinnerResponse `json:"winners"`
}

type SettlementResponse struct {
	GameID       string         `json:"gameId"`
	Pool         string         `json:"pool"`
	AdminCost    string         `json:"admin_cost"`
	Net          string         `json:"net"`
	Residue      string         `json:"residue"`
	DrawnNumbers []string       `json:"drawn_numbers"`
	Tiers        []TierResponse `json:"tiers"`
	SettledAt    string         `json:"settled_at"`
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}
