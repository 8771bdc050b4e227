package engine

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/bolao-settlement-platform/internal/shared/model"
	"github.com/radieske/bolao-settlement-platform/internal/shared/numbers"
)

// Corte legado herdado do jogo canônico de 15 palpites com 1 ponto por
// acerto: campeão com 10+ pontos, vice com exatamente 9.
const (
	legacyChampionMin = 10
	legacyRunnerUp    = 9
)

var tierOrder = []model.Tier{model.TierChampion, model.TierRunnerUp, model.TierLowest}

// thresholds resolve o corte de faixas conforme a regra do jogo. SCALED
// deriva da configuração e reproduz 10/9 no jogo canônico.
func thresholds(game *model.Game) (championMin, runnerUpPoints int) {
	if game.TierRule == model.TierRuleScaled {
		championMin = (game.NumeroPalpites - 5) * game.PointsPerMatch
		return championMin, championMin - game.PointsPerMatch
	}
	return legacyChampionMin, legacyRunnerUp
}

// scoreBets calcula acertos e pontos de cada aposta contra a união sorteada.
func scoreBets(bets []model.Bet, drawnUnion []string, pointsPerMatch int) []model.BetScore {
	out := make([]model.BetScore, len(bets))
	for i, b := range bets {
		matches := len(numbers.Intersect(b.Numbers, drawnUnion))
		out[i] = model.BetScore{
			Bet:        b,
			MatchCount: matches,
			Points:     matches * pointsPerMatch,
		}
	}
	return out
}

// classify particiona as apostas em faixas. Campeão avalia primeiro, depois
// vice; a faixa mínima sai do mínimo global sobre TODAS as apostas, mas uma
// aposta pertence a no máximo uma faixa.
func classify(scores []model.BetScore, championMin, runnerUpPoints int) map[model.Tier][]model.BetScore {
	tiers := map[model.Tier][]model.BetScore{}
	taken := map[string]bool{}

	for _, s := range scores {
		if s.Points >= championMin {
			tiers[model.TierChampion] = append(tiers[model.TierChampion], s)
			taken[s.Bet.ID] = true
		}
	}
	for _, s := range scores {
		if !taken[s.Bet.ID] && s.Points == runnerUpPoints {
			tiers[model.TierRunnerUp] = append(tiers[model.TierRunnerUp], s)
			taken[s.Bet.ID] = true
		}
	}

	// mínimo global calculado sobre a população inteira, inclusive os já
	// premiados; se todo mundo for campeão o mínimo coincide e a faixa
	// mínima fica vazia, o que é válido.
	min := scores[0].Points
	for _, s := range scores[1:] {
		if s.Points < min {
			min = s.Points
		}
	}
	for _, s := range scores {
		if !taken[s.Bet.ID] && s.Points == min {
			tiers[model.TierLowest] = append(tiers[model.TierLowest], s)
		}
	}
	return tiers
}

// tierPercents resolve o percentual de cada faixa sobre o líquido, conforme a
// variante de premiação do jogo.
func tierPercents(game *model.Game, tiers map[model.Tier][]model.BetScore) map[model.Tier]decimal.Decimal {
	pcts := map[model.Tier]decimal.Decimal{}

	if game.Prize.Kind == model.PrizeFixed {
		for _, t := range tierOrder {
			pcts[t] = game.Prize.TierPct[t]
		}
		return pcts
	}

	// BY_POINTS: percentual indexado pela pontuação representativa da faixa
	// (maior pontuação entre os vencedores).
	for _, t := range tierOrder {
		winners := tiers[t]
		if len(winners) == 0 {
			continue
		}
		rep := winners[0].Points
		for _, s := range winners[1:] {
			if s.Points > rep {
				rep = s.Points
			}
		}
		pcts[t] = game.Prize.PointTable[rep]
	}
	return pcts
}

// adminPct devolve o custo administrativo da variante: configurado no modo
// fixo, 10% derivado no modo por pontos.
func adminPct(game *model.Game) decimal.Decimal {
	if game.Prize.Kind == model.PrizeFixed {
		return game.Prize.AdminPct
	}
	return decimal.NewFromFloat(0.10)
}
