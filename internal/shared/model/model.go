package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
)

// Status fechados por entidade. A normalização dos valores "soltos" do legado
// ("aberto"/"ativo"/"1"/...) acontece uma única vez, na borda de ingestão.

type GameStatus string

const (
	GameOpen    GameStatus = "OPEN"
	GameClosed  GameStatus = "CLOSED"
	GameSettled GameStatus = "SETTLED"
)

// ParseGameStatus aceita as grafias legadas e devolve o enum fechado.
func ParseGameStatus(raw string) (GameStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "open", "aberto", "ativo", "active", "1", "true":
		return GameOpen, nil
	case "closed", "fechado", "0", "false":
		return GameClosed, nil
	case "settled", "encerrado", "premiado":
		return GameSettled, nil
	}
	return "", apperr.Validationf("invalid_status", "unknown game status %q", raw)
}

type IntentStatus string

const (
	IntentPending   IntentStatus = "PENDING"
	IntentConfirmed IntentStatus = "CONFIRMED"
	IntentFailed    IntentStatus = "FAILED"
	IntentError     IntentStatus = "ERROR"
)

type BetStatus string

const (
	BetPending   BetStatus = "PENDING"
	BetConfirmed BetStatus = "CONFIRMED"
	BetFailed    BetStatus = "FAILED"
)

type Tier string

const (
	TierChampion Tier = "CHAMPION"
	TierRunnerUp Tier = "RUNNER_UP"
	TierLowest   Tier = "LOWEST"
)

// TierRule escolhe entre o corte legado (campeão >= 10 pontos, vice == 9,
// herdado do jogo canônico de 15 palpites) e o corte derivado da configuração
// do jogo.
type TierRule string

const (
	TierRuleLegacy TierRule = "LEGACY"
	TierRuleScaled TierRule = "SCALED"
)

type PrizeModeKind string

const (
	PrizeFixed    PrizeModeKind = "FIXED"
	PrizeByPoints PrizeModeKind = "BY_POINTS"
)

// PrizeMode é a variante resolvida uma única vez por jogo; o motor de
// apuração nunca volta a inspecionar a configuração crua.
type PrizeMode struct {
	Kind PrizeModeKind
	// FIXED: percentual administrativo e percentual por faixa.
	AdminPct decimal.Decimal
	TierPct  map[Tier]decimal.Decimal
	// BY_POINTS: percentual por pontuação; custo administrativo derivado de 10%.
	PointTable map[int]decimal.Decimal
}

type Game struct {
	ID             string
	Name           string
	NumeroInicial  int
	NumeroFinal    int
	NumeroPalpites int
	PointsPerMatch int
	PricePerBet    decimal.Decimal
	TierRule       TierRule
	Prize          PrizeMode
	Status         GameStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LineItem é o palpite ainda não materializado, carregado dentro do intent.
type LineItem struct {
	Numbers []string        `json:"numbers"`
	Amount  decimal.Decimal `json:"amount"`
}

type Intent struct {
	ID            string
	BettorID      string
	GameID        string
	TotalAmount   decimal.Decimal
	LineItems     []LineItem
	Status        IntentStatus
	GatewayID     string
	GatewayStatus string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Bet struct {
	ID        string
	GameID    string
	BettorID  string
	IntentID  string
	ItemIndex int
	Numbers   []string
	Amount    decimal.Decimal
	Status    BetStatus
	CreatedAt time.Time
}

// DuplicateRef registra a interseção de um sorteio novo com um sorteio
// estritamente anterior do mesmo jogo. Repetição entre sorteios é permitida,
// mas nunca silenciosa.
type DuplicateRef struct {
	Numbers       []string `json:"numbers"`
	SourceDrawID  string   `json:"source_draw_id"`
	SourceOrdinal int      `json:"source_ordinal"`
}

type Draw struct {
	ID            string
	GameID        string
	Ordinal       int
	Label         string
	Numbers       []string
	DuplicateRefs []DuplicateRef
	CreatedAt     time.Time
}

// AllDuplicates devolve a união dos números repetidos contra sorteios
// anteriores, para exibição.
func (d Draw) AllDuplicates() []string {
	seen := map[string]bool{}
	var out []string
	for _, ref := range d.DuplicateRefs {
		for _, n := range ref.Numbers {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

type Prize struct {
	GameID   string
	BettorID string
	Tier     Tier
	Amount   decimal.Decimal
	Paid     bool
	PaidAt   *time.Time
}

// BetScore é uma aposta confirmada com a pontuação apurada.
type BetScore struct {
	Bet        Bet
	MatchCount int
	Points     int
}

type TierResult struct {
	Tier    Tier
	Total   decimal.Decimal
	Winners []WinnerPrize
}

type WinnerPrize struct {
	BettorID   string
	BetID      string
	MatchCount int
	Points     int
	Amount     decimal.Decimal
	Paid       bool
}

// SettlementResult é o extrato completo devolvido pela apuração.
type SettlementResult struct {
	GameID       string
	Pool         decimal.Decimal
	AdminCost    decimal.Decimal
	Net          decimal.Decimal
	Residue      decimal.Decimal
	DrawnNumbers []string
	Tiers        []TierResult
	SettledAt    time.Time
}
