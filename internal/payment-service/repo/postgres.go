package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/radieske/bolao-settlement-platform/internal/shared/model"
	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
)

// Postgres implementa a persistência de payment intents e apostas.
// Toda exclusão mútua vem do banco: insert condicional no id e UPDATE
// condicionado ao status corrente.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// GetGame carrega a projeção do jogo usada na validação do intent.
func (p *Postgres) GetGame(ctx context.Context, gameID string) (*GameInfo, error) {
	var g GameInfo
	var status, price string
	err := p.db.QueryRowContext(ctx, `
		SELECT id, numero_inicial, numero_final, numero_palpites, price_per_bet::text, status
		FROM games WHERE id=$1`, gameID).
		Scan(&g.ID, &g.NumeroInicial, &g.NumeroFinal, &g.NumeroPalpites, &price, &status)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("game_not_found", "game %s not found", gameID)
	}
	if err != nil {
		return nil, apperr.Upstreamf("store_error", err, "load game")
	}

	g.PricePerBet, err = decimal.NewFromString(price)
	if err != nil {
		return nil, apperr.Upstreamf("store_error", err, "parse price_per_bet")
	}
	st, err := model.ParseGameStatus(status)
	if err != nil {
		return nil, err
	}
	g.Status = st
	return &g, nil
}

// InsertPending grava o intent com status PENDING, condicionado ao id ser
// inédito. Colisão de id é conflito, nunca overwrite.
func (p *Postgres) InsertPending(ctx context.Context, in *model.Intent) error {
	items, err := json.Marshal(in.LineItems)
	if err != nil {
		return apperr.Upstreamf("store_error", err, "marshal line items")
	}

	res, err := p.db.ExecContext(ctx, `
		INSERT INTO payment_intents (id, bettor_id, game_id, total_amount, line_items, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,'PENDING',NOW(),NOW())
		ON CONFLICT (id) DO NOTHING`,
		in.ID, in.BettorID, in.GameID, in.TotalAmount.StringFixed(2), items,
	)
	if err != nil {
		return apperr.Upstreamf("store_error", err, "insert payment intent")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.Conflictf("payment_exists", "payment already exists")
	}
	return nil
}

// SetGatewayRef guarda o id que o gateway atribuiu ao checkout.
func (p *Postgres) SetGatewayRef(ctx context.Context, intentID, gatewayID string) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE payment_intents SET gateway_id=$1, updated_at=NOW() WHERE id=$2`,
		gatewayID, intentID)
	if err != nil {
		return apperr.Upstreamf("store_error", err, "set gateway ref")
	}
	return nil
}

// MarkError transiciona o intent para ERROR (compensação best-effort depois
// de falha de gateway). Só sai de PENDING.
func (p *Postgres) MarkError(ctx context.Context, intentID string) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE payment_intents SET status='ERROR', updated_at=NOW()
		WHERE id=$1 AND status='PENDING'`, intentID)
	if err != nil {
		return apperr.Upstreamf("store_error", err, "mark intent error")
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, intentID string) (*model.Intent, error) {
	var in model.Intent
	var total string
	var items []byte
	var gatewayID, gatewayStatus sql.NullString
	var status string

	err := p.db.QueryRowContext(ctx, `
		SELECT id, bettor_id, game_id, total_amount::text, line_items, status,
		       gateway_id, gateway_status, created_at, updated_at
		FROM payment_intents WHERE id=$1`, intentID).
		Scan(&in.ID, &in.BettorID, &in.GameID, &total, &items, &status,
			&gatewayID, &gatewayStatus, &in.CreatedAt, &in.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("payment_not_found", "payment %s not found", intentID)
	}
	if err != nil {
		return nil, apperr.Upstreamf("store_error", err, "load payment intent")
	}

	in.TotalAmount, err = decimal.NewFromString(total)
	if err != nil {
		return nil, apperr.Upstreamf("store_error", err, "parse total_amount")
	}
	if err := json.Unmarshal(items, &in.LineItems); err != nil {
		return nil, apperr.Upstreamf("store_error", err, "unmarshal line items")
	}
	in.Status = model.IntentStatus(status)
	in.GatewayID = gatewayID.String
	in.GatewayStatus = gatewayStatus.String
	return &in, nil
}

// Transition aplica a transição monotônica PENDING -> {CONFIRMED, FAILED}.
// Intent já CONFIRMED é no-op de sucesso (applied=false); qualquer outro
// estado terminal rejeita.
func (p *Postgres) Transition(ctx context.Context, intentID string, to model.IntentStatus, gatewayStatus string) (*model.Intent, bool, error) {
	if to != model.IntentConfirmed && to != model.IntentFailed {
		return nil, false, apperr.Statef("invalid_transition", "cannot transition intent to %s", to)
	}

	res, err := p.db.ExecContext(ctx, `
		UPDATE payment_intents SET status=$1, gateway_status=$2, updated_at=NOW()
		WHERE id=$3 AND status='PENDING'`,
		string(to), gatewayStatus, intentID)
	if err != nil {
		return nil, false, apperr.Upstreamf("store_error", err, "transition intent")
	}

	n, _ := res.RowsAffected()
	cur, err := p.Get(ctx, intentID)
	if err != nil {
		return nil, false, err
	}
	if n > 0 {
		return cur, true, nil
	}

	// Nenhuma linha afetada: ou o intent não existia, ou já estava terminal.
	if cur.Status == model.IntentConfirmed {
		return cur, false, nil // idempotente
	}
	return nil, false, apperr.Statef("invalid_transition",
		"intent %s is %s, cannot transition to %s", intentID, cur.Status, to)
}

// InsertBet materializa um palpite do intent como aposta CONFIRMED.
// Idempotente por (intent_id, item_index), então retry de materialização
// parcial não duplica aposta.
func (p *Postgres) InsertBet(ctx context.Context, b *model.Bet) (bool, error) {
	numbers, err := json.Marshal(b.Numbers)
	if err != nil {
		return false, apperr.Upstreamf("store_error", err, "marshal bet numbers")
	}

	res, err := p.db.ExecContext(ctx, `
		INSERT INTO bets (id, game_id, bettor_id, intent_id, item_index, numbers, amount, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,'CONFIRMED',NOW())
		ON CONFLICT (intent_id, item_index) DO NOTHING`,
		b.ID, b.GameID, b.BettorID, b.IntentID, b.ItemIndex, numbers, b.Amount.StringFixed(2),
	)
	if err != nil {
		return false, apperr.Upstreamf("store_error", err, "insert bet")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// FindByGatewayID localiza um intent pelo id do pagamento no gateway.
func (p *Postgres) FindByGatewayID(ctx context.Context, gatewayID string) (*model.Intent, error) {
	var id string
	err := p.db.QueryRowContext(ctx,
		`SELECT id FROM payment_intents WHERE gateway_id=$1`, gatewayID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("payment_not_found", "no intent for gateway payment %s", gatewayID)
	}
	if err != nil {
		return nil, apperr.Upstreamf("store_error", err, "find intent by gateway id")
	}
	return p.Get(ctx, id)
}
