// Package draws implementa o ledger de sorteios: sequência append-only por
// jogo, com detecção de repetição contra todos os sorteios anteriores.
package draws

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/bolao-settlement-platform/internal/shared/metrics"
	"github.com/radieske/bolao-settlement-platform/internal/shared/model"
	"github.com/radieske/bolao-settlement-platform/internal/shared/numbers"
	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
)

type Store interface {
	GetGame(ctx context.Context, gameID string) (*model.Game, error)
	ListDraws(ctx context.Context, gameID string, asc bool) ([]model.Draw, error)
	InsertDraw(ctx context.Context, d *model.Draw) error
}

type UnionCache interface {
	GetUnion(ctx context.Context, gameID string) ([]string, bool)
	SetUnion(ctx context.Context, gameID string, union []string)
	Invalidate(ctx context.Context, gameID string)
}

type Ledger struct {
	log   *zap.Logger
	store Store
	cache UnionCache
}

func NewLedger(log *zap.Logger, store Store, cache UnionCache) *Ledger {
	return &Ledger{log: log, store: store, cache: cache}
}

// Append registra um sorteio novo. Repetição interna ao sorteio é erro;
// repetição contra sorteios anteriores é permitida e registrada como
// referência de duplicidade para auditoria.
func (l *Ledger) Append(ctx context.Context, gameID, label string, rawNumbers []string) (*model.Draw, error) {
	game, err := l.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	// sorteio só depois das apostas fecharem
	if game.Status != model.GameClosed {
		return nil, apperr.Statef("game_not_closed",
			"game %s is %s, draws are only accepted after betting closes", gameID, game.Status)
	}

	nums := numbers.Normalize(rawNumbers)
	if len(nums) == 0 {
		return nil, apperr.Validationf("empty_draw", "no parseable numbers in draw")
	}
	if bad := numbers.OutOfRange(nums, game.NumeroInicial, game.NumeroFinal); len(bad) > 0 {
		return nil, apperr.Validationf("numbers_out_of_range",
			"draw has numbers outside [%d,%d]", game.NumeroInicial, game.NumeroFinal).
			WithDetail("numbers", bad)
	}
	if dups := numbers.Duplicates(nums); len(dups) > 0 {
		return nil, apperr.Validationf("duplicate_numbers", "draw repeats numbers").
			WithDetail("numbers", dups)
	}

	prior, err := l.store.ListDraws(ctx, gameID, true)
	if err != nil {
		return nil, err
	}

	var refs []model.DuplicateRef
	for _, prev := range prior {
		if inter := numbers.Intersect(nums, prev.Numbers); len(inter) > 0 {
			refs = append(refs, model.DuplicateRef{
				Numbers:       inter,
				SourceDrawID:  prev.ID,
				SourceOrdinal: prev.Ordinal,
			})
		}
	}

	d := &model.Draw{
		ID:            uuid.NewString(),
		GameID:        gameID,
		Ordinal:       len(prior) + 1,
		Label:         label,
		Numbers:       nums,
		DuplicateRefs: refs,
	}
	if err := l.store.InsertDraw(ctx, d); err != nil {
		return nil, err
	}

	l.cache.Invalidate(ctx, gameID)
	metrics.DrawsAppended.Inc()
	if len(refs) > 0 {
		l.log.Info("draw appended with cross-draw repeats",
			zap.String("gameId", gameID),
			zap.Int("ordinal", d.Ordinal),
			zap.Strings("repeats", d.AllDuplicates()),
		)
	}
	return d, nil
}

// List devolve os sorteios do mais recente pro mais antigo, pra exibição.
func (l *Ledger) List(ctx context.Context, gameID string) ([]model.Draw, error) {
	if _, err := l.store.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	return l.store.ListDraws(ctx, gameID, false)
}

// Union devolve o conjunto deduplicado de todas as dezenas já sorteadas.
// Conjunto vazio não é erro: significa "ainda não apurável".
func (l *Ledger) Union(ctx context.Context, gameID string) ([]string, error) {
	if cached, ok := l.cache.GetUnion(ctx, gameID); ok {
		return cached, nil
	}

	draws, err := l.store.ListDraws(ctx, gameID, true)
	if err != nil {
		return nil, err
	}
	sets := make([][]string, len(draws))
	for i, d := range draws {
		sets[i] = d.Numbers
	}
	union := numbers.Union(sets...)

	if len(union) > 0 {
		l.cache.SetUnion(ctx, gameID, union)
	}
	return union, nil
}
