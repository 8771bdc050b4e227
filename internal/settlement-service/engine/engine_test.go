package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/bolao-settlement-platform/internal/shared/model"
	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
	"github.com/radieske/bolao-settlement-platform/pkg/contracts/events"
)

type fakeStore struct {
	game    *model.Game
	bets    []model.Bet
	prizes  map[string]*model.Prize // key game|bettor|tier
	upserts int
	settled bool
}

func prizeKey(gameID, bettorID string, tier model.Tier) string {
	return gameID + "|" + bettorID + "|" + string(tier)
}

func (f *fakeStore) GetGame(_ context.Context, gameID string) (*model.Game, error) {
	if f.game == nil || f.game.ID != gameID {
		return nil, apperr.NotFoundf("game_not_found", "game %s not found", gameID)
	}
	return f.game, nil
}

func (f *fakeStore) ListConfirmedBets(_ context.Context, _ string) ([]model.Bet, error) {
	return f.bets, nil
}

func (f *fakeStore) GetPrize(_ context.Context, gameID, bettorID string, tier model.Tier) (*model.Prize, error) {
	if p, ok := f.prizes[prizeKey(gameID, bettorID, tier)]; ok {
		return p, nil
	}
	return nil, apperr.NotFoundf("prize_not_found", "no prize")
}

func (f *fakeStore) UpsertPrize(_ context.Context, pr *model.Prize) error {
	f.upserts++
	if f.prizes == nil {
		f.prizes = map[string]*model.Prize{}
	}
	key := prizeKey(pr.GameID, pr.BettorID, pr.Tier)
	if existing, ok := f.prizes[key]; ok && existing.Paid {
		return nil // paid é intocável
	}
	cp := *pr
	f.prizes[key] = &cp
	return nil
}

func (f *fakeStore) TransitionGameStatus(_ context.Context, _ string, _, to model.GameStatus) error {
	if to == model.GameSettled {
		f.settled = true
		f.game.Status = model.GameSettled
	}
	return nil
}

type fakeUnion struct{ union []string }

func (f *fakeUnion) Union(_ context.Context, _ string) ([]string, error) { return f.union, nil }

type fakeLocker struct{ held bool }

func (f *fakeLocker) Acquire(_ context.Context, gameID string) (func(), error) {
	if f.held {
		return nil, apperr.Statef("settlement_in_progress", "settlement already running for game %s", gameID)
	}
	f.held = true
	return func() { f.held = false }, nil
}

type fakePublisher struct{ published []events.GameSettled }

func (f *fakePublisher) PublishGameSettled(_ context.Context, ev events.GameSettled) error {
	f.published = append(f.published, ev)
	return nil
}

func fixedGame() *model.Game {
	return &model.Game{
		ID:             "g1",
		NumeroInicial:  1,
		NumeroFinal:    25,
		NumeroPalpites: 15,
		PointsPerMatch: 1,
		PricePerBet:    decimal.RequireFromString("20.00"),
		TierRule:       model.TierRuleLegacy,
		Status:         model.GameClosed,
		Prize: model.PrizeMode{
			Kind:     model.PrizeFixed,
			AdminPct: decimal.RequireFromString("0.10"),
			TierPct: map[model.Tier]decimal.Decimal{
				model.TierChampion: decimal.RequireFromString("0.60"),
				model.TierRunnerUp: decimal.RequireFromString("0.30"),
				model.TierLowest:   decimal.RequireFromString("0.10"),
			},
		},
	}
}

// união de 20 dezenas: 01..20
func drawn20() []string {
	out := make([]string, 20)
	for i := range out {
		out[i] = fmt.Sprintf("%02d", i+1)
	}
	return out
}

// aposta com n dezenas dentro da união e o resto fora
func betWithMatches(id string, matches int) model.Bet {
	var nums []string
	for i := 1; i <= matches; i++ {
		nums = append(nums, fmt.Sprintf("%02d", i))
	}
	for i := 21; len(nums) < 15 && i <= 25; i++ {
		nums = append(nums, fmt.Sprintf("%02d", i))
	}
	return model.Bet{
		ID:       id,
		GameID:   "g1",
		BettorID: "bettor-" + id,
		Numbers:  nums,
		Amount:   decimal.RequireFromString("20.00"),
		Status:   model.BetConfirmed,
	}
}

func newEngine(store *fakeStore, union []string) (*Engine, *fakePublisher) {
	publ := &fakePublisher{}
	eng := New(zap.NewNop(), store, &fakeUnion{union: union}, &fakeLocker{}, publ)
	return eng, publ
}

// Cenário de referência: faixa 1-25, 15 palpites, 1 ponto por acerto, 20
// dezenas sorteadas, três apostas com 10, 9 e 3 acertos.
func TestSettleReferenceScenario(t *testing.T) {
	store := &fakeStore{
		game: fixedGame(),
		bets: []model.Bet{
			betWithMatches("a", 10),
			betWithMatches("b", 9),
			betWithMatches("c", 3),
		},
	}
	eng, publ := newEngine(store, drawn20())

	res, err := eng.Settle(context.Background(), "g1")
	require.NoError(t, err)

	require.True(t, res.Pool.Equal(decimal.RequireFromString("60.00")), "pool=%s", res.Pool)
	require.True(t, res.AdminCost.Equal(decimal.RequireFromString("6.00")), "admin=%s", res.AdminCost)
	require.True(t, res.Net.Equal(decimal.RequireFromString("54.00")))

	byTier := map[model.Tier]model.TierResult{}
	for _, tr := range res.Tiers {
		byTier[tr.Tier] = tr
	}

	champ := byTier[model.TierChampion]
	require.Len(t, champ.Winners, 1)
	require.Equal(t, "a", champ.Winners[0].BetID)
	require.Equal(t, 10, champ.Winners[0].MatchCount)
	require.True(t, champ.Winners[0].Amount.Equal(decimal.RequireFromString("32.40")))

	runner := byTier[model.TierRunnerUp]
	require.Len(t, runner.Winners, 1)
	require.Equal(t, "b", runner.Winners[0].BetID)
	require.True(t, runner.Winners[0].Amount.Equal(decimal.RequireFromString("16.20")))

	lowest := byTier[model.TierLowest]
	require.Len(t, lowest.Winners, 1)
	require.Equal(t, "c", lowest.Winners[0].BetID)
	require.True(t, lowest.Winners[0].Amount.Equal(decimal.RequireFromString("5.40")))

	require.True(t, res.Residue.IsZero(), "residue=%s", res.Residue)
	require.True(t, store.settled)
	require.Len(t, publ.published, 1)
	require.Len(t, publ.published[0].Winners, 3)
}

// Conservação: admin + faixas + resíduo == pool, e o resíduo fica limitado
// pelo arredondamento por vencedor.
func TestSettleConservation(t *testing.T) {
	store := &fakeStore{
		game: fixedGame(),
		bets: []model.Bet{
			betWithMatches("a", 11),
			betWithMatches("b", 10),
			betWithMatches("c", 10),
			betWithMatches("d", 9),
			betWithMatches("e", 4),
			betWithMatches("f", 4),
			betWithMatches("g", 4),
		},
	}
	eng, _ := newEngine(store, drawn20())

	res, err := eng.Settle(context.Background(), "g1")
	require.NoError(t, err)

	total := res.AdminCost.Add(res.Residue)
	winners := 0
	for _, tr := range res.Tiers {
		total = total.Add(tr.Total)
		winners += len(tr.Winners)
	}
	require.True(t, total.Equal(res.Pool), "total=%s pool=%s", total, res.Pool)

	// resíduo <= nº de vencedores × 0.01
	limit := decimal.RequireFromString("0.01").Mul(decimal.NewFromInt(int64(winners)))
	require.True(t, res.Residue.LessThanOrEqual(limit), "residue=%s", res.Residue)
	require.True(t, res.Residue.GreaterThanOrEqual(decimal.Zero))
}

func TestSettleAlreadySettled(t *testing.T) {
	g := fixedGame()
	g.Status = model.GameSettled
	eng, _ := newEngine(&fakeStore{game: g}, drawn20())

	_, err := eng.Settle(context.Background(), "g1")
	require.True(t, apperr.IsKind(err, apperr.KindState))
}

func TestSettleNoDraws(t *testing.T) {
	eng, _ := newEngine(&fakeStore{game: fixedGame(), bets: []model.Bet{betWithMatches("a", 10)}}, nil)

	_, err := eng.Settle(context.Background(), "g1")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	require.Contains(t, err.Error(), "no draws")
}

func TestSettleNoBets(t *testing.T) {
	eng, _ := newEngine(&fakeStore{game: fixedGame()}, drawn20())

	_, err := eng.Settle(context.Background(), "g1")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	require.Contains(t, err.Error(), "no bets")
}

// Prêmio já pago nunca é recalculado: o valor gravado prevalece no resultado.
func TestSettlePaidPrizeImmutable(t *testing.T) {
	paid := &model.Prize{
		GameID:   "g1",
		BettorID: "bettor-a",
		Tier:     model.TierChampion,
		Amount:   decimal.RequireFromString("99.99"),
		Paid:     true,
	}
	store := &fakeStore{
		game: fixedGame(),
		bets: []model.Bet{
			betWithMatches("a", 10),
			betWithMatches("b", 9),
			betWithMatches("c", 3),
		},
		prizes: map[string]*model.Prize{
			prizeKey("g1", "bettor-a", model.TierChampion): paid,
		},
	}
	eng, _ := newEngine(store, drawn20())

	res, err := eng.Settle(context.Background(), "g1")
	require.NoError(t, err)

	var champ model.TierResult
	for _, tr := range res.Tiers {
		if tr.Tier == model.TierChampion {
			champ = tr
		}
	}
	require.Len(t, champ.Winners, 1)
	require.True(t, champ.Winners[0].Paid)
	require.True(t, champ.Winners[0].Amount.Equal(decimal.RequireFromString("99.99")))

	// o registro pago continua intacto no store
	stored := store.prizes[prizeKey("g1", "bettor-a", model.TierChampion)]
	require.True(t, stored.Paid)
	require.True(t, stored.Amount.Equal(decimal.RequireFromString("99.99")))
}

func TestSettleByPointsMode(t *testing.T) {
	g := fixedGame()
	g.Prize = model.PrizeMode{
		Kind: model.PrizeByPoints,
		PointTable: map[int]decimal.Decimal{
			10: decimal.RequireFromString("0.50"),
			9:  decimal.RequireFromString("0.30"),
			3:  decimal.RequireFromString("0.20"),
		},
	}
	store := &fakeStore{
		game: g,
		bets: []model.Bet{
			betWithMatches("a", 10),
			betWithMatches("b", 9),
			betWithMatches("c", 3),
		},
	}
	eng, _ := newEngine(store, drawn20())

	res, err := eng.Settle(context.Background(), "g1")
	require.NoError(t, err)

	// custo administrativo derivado: 10% de 60.00
	require.True(t, res.AdminCost.Equal(decimal.RequireFromString("6.00")))

	byTier := map[model.Tier]model.TierResult{}
	for _, tr := range res.Tiers {
		byTier[tr.Tier] = tr
	}
	require.True(t, byTier[model.TierChampion].Total.Equal(decimal.RequireFromString("27.00")))
	require.True(t, byTier[model.TierRunnerUp].Total.Equal(decimal.RequireFromString("16.20")))
	require.True(t, byTier[model.TierLowest].Total.Equal(decimal.RequireFromString("10.80")))
}

func TestSettleLockContention(t *testing.T) {
	locker := &fakeLocker{held: true}
	eng := New(zap.NewNop(), &fakeStore{game: fixedGame()}, &fakeUnion{union: drawn20()}, locker, &fakePublisher{})

	_, err := eng.Settle(context.Background(), "g1")
	require.True(t, apperr.IsKind(err, apperr.KindState))
	require.Contains(t, err.Error(), "already running")
}
