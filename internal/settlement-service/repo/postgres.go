package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/radieske/bolao-settlement-platform/internal/shared/model"
	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
)

// Postgres implementa a persistência de jogos, sorteios, apostas (leitura) e
// prêmios para a apuração.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) CreateGame(ctx context.Context, g *model.Game) error {
	tierPct, pointTable, err := marshalPrize(g.Prize)
	if err != nil {
		return err
	}

	res, err := p.db.ExecContext(ctx, `
		INSERT INTO games (id, name, numero_inicial, numero_final, numero_palpites,
			points_per_match, price_per_bet, tier_rule, prize_mode, admin_pct,
			tier_pct, point_table, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW(),NOW())
		ON CONFLICT (id) DO NOTHING`,
		g.ID, g.Name, g.NumeroInicial, g.NumeroFinal, g.NumeroPalpites,
		g.PointsPerMatch, g.PricePerBet.StringFixed(2), string(g.TierRule),
		string(g.Prize.Kind), g.Prize.AdminPct.String(), tierPct, pointTable,
		string(g.Status),
	)
	if err != nil {
		return apperr.Upstreamf("store_error", err, "insert game")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.Conflictf("game_exists", "game %s already exists", g.ID)
	}
	return nil
}

func (p *Postgres) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	var g model.Game
	var price, adminPct, status, tierRule, prizeMode string
	var tierPct, pointTable []byte

	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, numero_inicial, numero_final, numero_palpites,
		       points_per_match, price_per_bet::text, tier_rule, prize_mode,
		       admin_pct::text, tier_pct, point_table, status, created_at, updated_at
		FROM games WHERE id=$1`, gameID).
		Scan(&g.ID, &g.Name, &g.NumeroInicial, &g.NumeroFinal, &g.NumeroPalpites,
			&g.PointsPerMatch, &price, &tierRule, &prizeMode,
			&adminPct, &tierPct, &pointTable, &status, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("game_not_found", "game %s not found", gameID)
	}
	if err != nil {
		return nil, apperr.Upstreamf("store_error", err, "load game")
	}

	if g.PricePerBet, err = decimal.NewFromString(price); err != nil {
		return nil, apperr.Upstreamf("store_error", err, "parse price_per_bet")
	}
	st, err := model.ParseGameStatus(status)
	if err != nil {
		return nil, err
	}
	g.Status = st
	g.TierRule = model.TierRule(tierRule)
	if g.TierRule == "" {
		g.TierRule = model.TierRuleLegacy
	}
	if g.Prize, err = unmarshalPrize(prizeMode, adminPct, tierPct, pointTable); err != nil {
		return nil, err
	}
	return &g, nil
}

// TransitionGameStatus muda o status condicionado ao estado corrente; zero
// linhas afetadas significa corrida ou estado inválido.
func (p *Postgres) TransitionGameStatus(ctx context.Context, gameID string, from, to model.GameStatus) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE games SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		string(to), gameID, string(from))
	if err != nil {
		return apperr.Upstreamf("store_error", err, "transition game status")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.Statef("invalid_game_transition", "game %s is not %s", gameID, from)
	}
	return nil
}

// InsertDraw grava o sorteio condicionado ao id inédito e ao par
// (game_id, ordinal) livre; a corrida de ordinal perde aqui e vira conflito.
func (p *Postgres) InsertDraw(ctx context.Context, d *model.Draw) error {
	nums, err := json.Marshal(d.Numbers)
	if err != nil {
		return apperr.Upstreamf("store_error", err, "marshal draw numbers")
	}
	refs, err := json.Marshal(d.DuplicateRefs)
	if err != nil {
		return apperr.Upstreamf("store_error", err, "marshal duplicate refs")
	}

	res, err := p.db.ExecContext(ctx, `
		INSERT INTO draws (id, game_id, ordinal, label, numbers, duplicate_refs, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		ON CONFLICT DO NOTHING`,
		d.ID, d.GameID, d.Ordinal, d.Label, nums, refs)
	if err != nil {
		return apperr.Upstreamf("store_error", err, "insert draw")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.Conflictf("draw_conflict",
			"draw ordinal %d for game %s already taken, retry append", d.Ordinal, d.GameID)
	}
	return nil
}

// ListDraws devolve os sorteios do jogo em ordem de ordinal.
func (p *Postgres) ListDraws(ctx context.Context, gameID string, asc bool) ([]model.Draw, error) {
	order := "DESC"
	if asc {
		order = "ASC"
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, game_id, ordinal, label, numbers, duplicate_refs, created_at
		FROM draws WHERE game_id=$1 ORDER BY ordinal `+order, gameID)
	if err != nil {
		return nil, apperr.Upstreamf("store_error", err, "list draws")
	}
	defer rows.Close()

	var out []model.Draw
	for rows.Next() {
		var d model.Draw
		var nums, refs []byte
		if err := rows.Scan(&d.ID, &d.GameID, &d.Ordinal, &d.Label, &nums, &refs, &d.CreatedAt); err != nil {
			return nil, apperr.Upstreamf("store_error", err, "scan draw")
		}
		if err := json.Unmarshal(nums, &d.Numbers); err != nil {
			return nil, apperr.Upstreamf("store_error", err, "unmarshal draw numbers")
		}
		if len(refs) > 0 {
			if err := json.Unmarshal(refs, &d.DuplicateRefs); err != nil {
				return nil, apperr.Upstreamf("store_error", err, "unmarshal duplicate refs")
			}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Upstreamf("store_error", err, "iterate draws")
	}
	return out, nil
}

// ListConfirmedBets carrega as apostas autoritativas do jogo.
func (p *Postgres) ListConfirmedBets(ctx context.Context, gameID string) ([]model.Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, game_id, bettor_id, intent_id, item_index, numbers, amount::text, status, created_at
		FROM bets WHERE game_id=$1 AND status='CONFIRMED' ORDER BY created_at`, gameID)
	if err != nil {
		return nil, apperr.Upstreamf("store_error", err, "list bets")
	}
	defer rows.Close()

	var out []model.Bet
	for rows.Next() {
		var b model.Bet
		var nums []byte
		var amount, status string
		if err := rows.Scan(&b.ID, &b.GameID, &b.BettorID, &b.IntentID, &b.ItemIndex,
			&nums, &amount, &status, &b.CreatedAt); err != nil {
			return nil, apperr.Upstreamf("store_error", err, "scan bet")
		}
		if err := json.Unmarshal(nums, &b.Numbers); err != nil {
			return nil, apperr.Upstreamf("store_error", err, "unmarshal bet numbers")
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, apperr.Upstreamf("store_error", err, "parse bet amount")
		}
		b.Status = model.BetStatus(status)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Upstreamf("store_error", err, "iterate bets")
	}
	return out, nil
}

// GetPrize devolve o prêmio de (game, bettor, tier), ou NotFound.
func (p *Postgres) GetPrize(ctx context.Context, gameID, bettorID string, tier model.Tier) (*model.Prize, error) {
	var pr model.Prize
	var amount, tierStr string
	var paidAt sql.NullTime

	err := p.db.QueryRowContext(ctx, `
		SELECT game_id, bettor_id, tier, amount::text, paid, paid_at
		FROM prizes WHERE game_id=$1 AND bettor_id=$2 AND tier=$3`,
		gameID, bettorID, string(tier)).
		Scan(&pr.GameID, &pr.BettorID, &tierStr, &amount, &pr.Paid, &paidAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("prize_not_found", "no prize for (%s,%s,%s)", gameID, bettorID, tier)
	}
	if err != nil {
		return nil, apperr.Upstreamf("store_error", err, "load prize")
	}
	if pr.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, apperr.Upstreamf("store_error", err, "parse prize amount")
	}
	pr.Tier = model.Tier(tierStr)
	if paidAt.Valid {
		t := paidAt.Time
		pr.PaidAt = &t
	}
	return &pr, nil
}

// UpsertPrize grava ou sobrescreve o prêmio calculado. Registro já pago é
// intocável: o WHERE do upsert exclui paid=true.
func (p *Postgres) UpsertPrize(ctx context.Context, pr *model.Prize) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO prizes (game_id, bettor_id, tier, amount, paid, created_at, updated_at)
		VALUES ($1,$2,$3,$4,false,NOW(),NOW())
		ON CONFLICT (game_id, bettor_id, tier)
		DO UPDATE SET amount=EXCLUDED.amount, updated_at=NOW()
		WHERE prizes.paid = false`,
		pr.GameID, pr.BettorID, string(pr.Tier), pr.Amount.StringFixed(2))
	if err != nil {
		return apperr.Upstreamf("store_error", err, "upsert prize")
	}
	return nil
}

func marshalPrize(pm model.PrizeMode) (tierPct, pointTable []byte, err error) {
	tp := map[string]string{}
	for tier, pct := range pm.TierPct {
		tp[string(tier)] = pct.String()
	}
	if tierPct, err = json.Marshal(tp); err != nil {
		return nil, nil, apperr.Upstreamf("store_error", err, "marshal tier_pct")
	}

	pt := map[string]string{}
	for points, pct := range pm.PointTable {
		pt[strconv.Itoa(points)] = pct.String()
	}
	if pointTable, err = json.Marshal(pt); err != nil {
		return nil, nil, apperr.Upstreamf("store_error", err, "marshal point_table")
	}
	return tierPct, pointTable, nil
}

func unmarshalPrize(kind, adminPct string, tierPct, pointTable []byte) (model.PrizeMode, error) {
	pm := model.PrizeMode{Kind: model.PrizeModeKind(kind)}

	var err error
	if pm.AdminPct, err = decimal.NewFromString(adminPct); err != nil {
		return pm, apperr.Upstreamf("store_error", err, "parse admin_pct")
	}

	if len(tierPct) > 0 {
		raw := map[string]string{}
		if err := json.Unmarshal(tierPct, &raw); err != nil {
			return pm, apperr.Upstreamf("store_error", err, "unmarshal tier_pct")
		}
		pm.TierPct = map[model.Tier]decimal.Decimal{}
		for tier, pct := range raw {
			d, err := decimal.NewFromString(pct)
			if err != nil {
				return pm, apperr.Upstreamf("store_error", err, "parse tier pct")
			}
			pm.TierPct[model.Tier(tier)] = d
		}
	}

	if len(pointTable) > 0 {
		raw := map[string]string{}
		if err := json.Unmarshal(pointTable, &raw); err != nil {
			return pm, apperr.Upstreamf("store_error", err, "unmarshal point_table")
		}
		pm.PointTable = map[int]decimal.Decimal{}
		for points, pct := range raw {
			n, err := strconv.Atoi(points)
			if err != nil {
				return pm, apperr.Upstreamf("store_error", err, "parse point key")
			}
			d, err := decimal.NewFromString(pct)
			if err != nil {
				return pm, apperr.Upstreamf("store_error", err, "parse point pct")
			}
			pm.PointTable[n] = d
		}
	}
	return pm, nil
}
