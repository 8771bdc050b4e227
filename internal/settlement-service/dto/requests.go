package dto

type CreateGameRequest struct {
	GameID         string            `json:"gameId,omitempty"` // opcional; gerado se vazio
	Name           string            `json:"name"`
	NumeroInicial  int               `json:"numeroInicial"`
	NumeroFinal    int               `json:"numeroFinal"`
	NumeroPalpites int               `json:"numeroPalpites"`
	PointsPerMatch int               `json:"points_per_match"`
	PricePerBet    string            `json:"price_per_bet"` // decimal com 2 casas
	Status         string            `json:"status"`        // aceita grafias legadas
	TierRule       string            `json:"tier_rule,omitempty"`
	PrizeMode      string            `json:"prize_mode"` // FIXED | BY_POINTS
	AdminPct       string            `json:"admin_pct,omitempty"`
	TierPct        map[string]string `json:"tier_pct,omitempty"`    // faixa -> fração, ex: {"CHAMPION":"0.60"}
	PointTable     map[string]string `json:"point_table,omitempty"` // pontos -> fração
}

type AppendDrawRequest struct {
	Label   string   `json:"label"`
	Numbers []string `json:"numbers"`
}
