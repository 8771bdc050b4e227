// Package engine implementa a apuração: pontuação das apostas, classificação
// em faixas, rateio do prêmio e persistência idempotente.
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bolao-settlement-platform/internal/settlement-service/draws"
	"github.com/radieske/bolao-settlement-platform/internal/shared/metrics"
	"github.com/radieske/bolao-settlement-platform/internal/shared/model"
	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
	"github.com/radieske/bolao-settlement-platform/pkg/contracts/events"
)

type Store interface {
	GetGame(ctx context.Context, gameID string) (*model.Game, error)
	ListConfirmedBets(ctx context.Context, gameID string) ([]model.Bet, error)
	GetPrize(ctx context.Context, gameID, bettorID string, tier model.Tier) (*model.Prize, error)
	UpsertPrize(ctx context.Context, pr *model.Prize) error
	TransitionGameStatus(ctx context.Context, gameID string, from, to model.GameStatus) error
}

type DrawUnion interface {
	Union(ctx context.Context, gameID string) ([]string, error)
}

type Publisher interface {
	PublishGameSettled(ctx context.Context, ev events.GameSettled) error
}

type Engine struct {
	log    *zap.Logger
	store  Store
	draws  DrawUnion
	locker Locker
	publ   Publisher
}

func New(log *zap.Logger, store Store, d DrawUnion, locker Locker, publ Publisher) *Engine {
	return &Engine{log: log, store: store, draws: d, locker: locker, publ: publ}
}

// Settle apura um jogo fechado: pontua todas as apostas confirmadas contra a
// união de dezenas sorteadas, classifica vencedores, rateia o prêmio e grava
// os registros. Serializado por jogo via lease; re-execução nunca altera
// prêmio já pago.
func (e *Engine) Settle(ctx context.Context, gameID string) (*model.SettlementResult, error) {
	release, err := e.locker.Acquire(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer release()

	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status == model.GameSettled {
		return nil, apperr.Statef("already_settled", "game %s is already settled", gameID)
	}

	drawnUnion, err := e.draws.Union(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if len(drawnUnion) == 0 {
		return nil, apperr.Validationf("no_draws", "no draws recorded for game %s", gameID)
	}

	bets, err := e.store.ListConfirmedBets(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if len(bets) == 0 {
		return nil, apperr.Validationf("no_bets", "no confirmed bets for game %s", gameID)
	}

	scores := scoreBets(bets, drawnUnion, game.PointsPerMatch)
	championMin, runnerUp := thresholds(game)
	tiers := classify(scores, championMin, runnerUp)

	result := e.splitPool(game, scores, tiers, drawnUnion)

	if err := e.persistPrizes(ctx, game.ID, result); err != nil {
		metrics.SettlementsRun.WithLabelValues("error").Inc()
		return nil, err
	}

	// comportamento herdado: o jogo só vira SETTLED se alguma faixa tem
	// vencedor
	hasWinners := false
	for _, tr := range result.Tiers {
		if len(tr.Winners) > 0 {
			hasWinners = true
			break
		}
	}
	if hasWinners {
		if err := e.store.TransitionGameStatus(ctx, gameID, game.Status, model.GameSettled); err != nil {
			metrics.SettlementsRun.WithLabelValues("error").Inc()
			return nil, err
		}
		e.publish(ctx, result)
		metrics.SettlementsRun.WithLabelValues("settled").Inc()
	} else {
		metrics.SettlementsRun.WithLabelValues("no_winners").Inc()
	}

	return result, nil
}

// splitPool calcula pool, custo administrativo, rateio por faixa e resíduo de
// arredondamento. Valor por vencedor arredonda PARA BAIXO em 2 casas; o
// resíduo fica sem dono, nunca é redistribuído.
func (e *Engine) splitPool(game *model.Game, scores []model.BetScore, tiers map[model.Tier][]model.BetScore, drawnUnion []string) *model.SettlementResult {
	pool := decimal.Zero
	for _, s := range scores {
		pool = pool.Add(s.Bet.Amount)
	}

	admin := pool.Mul(adminPct(game)).Round(2)
	net := pool.Sub(admin)
	pcts := tierPercents(game, tiers)

	result := &model.SettlementResult{
		GameID:       game.ID,
		Pool:         pool,
		AdminCost:    admin,
		Net:          net,
		DrawnNumbers: drawnUnion,
		SettledAt:    time.Now().UTC(),
	}

	distributed := decimal.Zero
	for _, tier := range tierOrder {
		winners := tiers[tier]
		tr := model.TierResult{Tier: tier, Total: decimal.Zero}

		if len(winners) > 0 {
			allocated := net.Mul(pcts[tier])
			perWinner := allocated.Div(decimal.NewFromInt(int64(len(winners)))).RoundDown(2)
			for _, s := range winners {
				tr.Winners = append(tr.Winners, model.WinnerPrize{
					BettorID:   s.Bet.BettorID,
					BetID:      s.Bet.ID,
					MatchCount: s.MatchCount,
					Points:     s.Points,
					Amount:     perWinner,
				})
			}
			tr.Total = perWinner.Mul(decimal.NewFromInt(int64(len(winners))))
			distributed = distributed.Add(tr.Total)
		}
		result.Tiers = append(result.Tiers, tr)
	}

	result.Residue = net.Sub(distributed)
	return result
}

// persistPrizes grava um registro por (apostador, faixa). Prêmio já pago é
// devolvido como está; nunca é recalculado por cima.
func (e *Engine) persistPrizes(ctx context.Context, gameID string, result *model.SettlementResult) error {
	for ti := range result.Tiers {
		tr := &result.Tiers[ti]
		for wi := range tr.Winners {
			w := &tr.Winners[wi]

			existing, err := e.store.GetPrize(ctx, gameID, w.BettorID, tr.Tier)
			if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
				return err
			}
			if existing != nil && existing.Paid {
				w.Amount = existing.Amount
				w.Paid = true
				continue
			}

			if err := e.store.UpsertPrize(ctx, &model.Prize{
				GameID:   gameID,
				BettorID: w.BettorID,
				Tier:     tr.Tier,
				Amount:   w.Amount,
			}); err != nil {
				return err
			}
			metrics.PrizesWritten.Inc()
		}
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, result *model.SettlementResult) {
	ev := events.GameSettled{
		GameID:       result.GameID,
		Pool:         result.Pool.StringFixed(2),
		AdminCost:    result.AdminCost.StringFixed(2),
		Net:          result.Net.StringFixed(2),
		DrawnNumbers: result.DrawnNumbers,
		SettledAt:    result.SettledAt,
	}
	for _, tr := range result.Tiers {
		for _, w := range tr.Winners {
			ev.Winners = append(ev.Winners, events.SettledWinner{
				BettorID: w.BettorID,
				BetID:    w.BetID,
				Tier:     string(tr.Tier),
				Points:   w.Points,
				Amount:   w.Amount.StringFixed(2),
			})
		}
	}
	if err := e.publ.PublishGameSettled(ctx, ev); err != nil {
		// notificação é fire-and-forget; apuração nunca falha por causa dela
		e.log.Warn("publish game_settled", zap.String("gameId", result.GameID), zap.Error(err))
	}
}

var _ DrawUnion = (*draws.Ledger)(nil)
