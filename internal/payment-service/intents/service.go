// Package intents implementa a criação e leitura de payment intents: o
// registro local de uma compra que aguarda confirmação do gateway.
package intents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bolao-settlement-platform/internal/payment-service/dto"
	"github.com/radieske/bolao-settlement-platform/internal/payment-service/gateway"
	"github.com/radieske/bolao-settlement-platform/internal/payment-service/repo"
	"github.com/radieske/bolao-settlement-platform/internal/shared/metrics"
	"github.com/radieske/bolao-settlement-platform/internal/shared/model"
	"github.com/radieske/bolao-settlement-platform/internal/shared/numbers"
	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
)

// Tolerância de centavos na conferência do total (arredondamento do front).
var totalTolerance = decimal.NewFromFloat(0.01)

type Repo interface {
	GetGame(ctx context.Context, gameID string) (*repo.GameInfo, error)
	InsertPending(ctx context.Context, in *model.Intent) error
	SetGatewayRef(ctx context.Context, intentID, gatewayID string) error
	MarkError(ctx context.Context, intentID string) error
	Get(ctx context.Context, intentID string) (*model.Intent, error)
}

type Checkout interface {
	CreateCheckout(ctx context.Context, intentID, buyerEmail, description string, total decimal.Decimal) (*gateway.CheckoutResponse, error)
}

type Service struct {
	log  *zap.Logger
	repo Repo
	gw   Checkout
}

func NewService(log *zap.Logger, r Repo, gw Checkout) *Service {
	return &Service{log: log, repo: r, gw: gw}
}

// Create valida a compra, grava o intent PENDING e abre o checkout no
// gateway. Falha de gateway depois do insert transiciona o intent para ERROR
// (best-effort) e devolve o erro original.
func (s *Service) Create(ctx context.Context, req dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error) {
	if req.BettorID == "" || req.GameID == "" || len(req.LineItems) == 0 {
		return nil, apperr.Validationf("invalid_payload", "bettorId, gameId and line_items are required")
	}

	game, err := s.repo.GetGame(ctx, req.GameID)
	if err != nil {
		return nil, err
	}
	if game.Status != model.GameOpen {
		return nil, apperr.Statef("game_not_open", "game %s is %s, bets are closed", game.ID, game.Status)
	}

	items, err := buildLineItems(req.LineItems, game)
	if err != nil {
		return nil, err
	}

	total, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		return nil, apperr.Validationf("invalid_total", "total_amount %q is not a decimal", req.TotalAmount)
	}
	expected := game.PricePerBet.Mul(decimal.NewFromInt(int64(len(items))))
	if total.Sub(expected).Abs().GreaterThan(totalTolerance) {
		return nil, apperr.Validationf("total_mismatch", "total_amount must be %s for %d bets",
			expected.StringFixed(2), len(items)).
			WithDetail("expected", expected.StringFixed(2)).
			WithDetail("received", total.StringFixed(2))
	}

	in := &model.Intent{
		ID:          uuid.NewString(),
		BettorID:    req.BettorID,
		GameID:      req.GameID,
		TotalAmount: expected,
		LineItems:   items,
		Status:      model.IntentPending,
	}
	if err := s.repo.InsertPending(ctx, in); err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("Bolão %s - %d palpite(s)", game.ID, len(items))
	checkout, err := s.gw.CreateCheckout(ctx, in.ID, "", desc, expected)
	if err != nil {
		// compensação best-effort; o erro original prevalece
		if merr := s.repo.MarkError(ctx, in.ID); merr != nil {
			s.log.Error("mark intent error", zap.String("intentId", in.ID), zap.Error(merr))
		}
		return nil, err
	}
	if err := s.repo.SetGatewayRef(ctx, in.ID, checkout.GatewayID); err != nil {
		s.log.Error("set gateway ref", zap.String("intentId", in.ID), zap.Error(err))
	}

	metrics.IntentsCreated.Inc()
	return &dto.CreatePaymentResponse{
		PaymentID:   in.ID,
		RedirectURL: checkout.RedirectURL,
		Status:      string(model.IntentPending),
	}, nil
}

func (s *Service) Get(ctx context.Context, intentID string) (*model.Intent, error) {
	return s.repo.Get(ctx, intentID)
}

// buildLineItems normaliza e valida cada palpite contra a configuração do
// jogo.
func buildLineItems(raw []dto.LineItem, game *repo.GameInfo) ([]model.LineItem, error) {
	items := make([]model.LineItem, 0, len(raw))
	for i, li := range raw {
		nums := numbers.Normalize(li.Numbers)
		if len(nums) != game.NumeroPalpites {
			return nil, apperr.Validationf("invalid_pick_count",
				"line item %d has %d numbers, game requires %d", i, len(nums), game.NumeroPalpites).
				WithDetail("item", i)
		}
		if bad := numbers.OutOfRange(nums, game.NumeroInicial, game.NumeroFinal); len(bad) > 0 {
			return nil, apperr.Validationf("numbers_out_of_range",
				"line item %d has numbers outside [%d,%d]", i, game.NumeroInicial, game.NumeroFinal).
				WithDetail("item", i).WithDetail("numbers", bad)
		}
		if dups := numbers.Duplicates(nums); len(dups) > 0 {
			return nil, apperr.Validationf("duplicate_numbers",
				"line item %d repeats numbers", i).
				WithDetail("item", i).WithDetail("numbers", dups)
		}
		items = append(items, model.LineItem{Numbers: nums, Amount: game.PricePerBet})
	}
	return items, nil
}
