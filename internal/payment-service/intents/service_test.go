package intents

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/bolao-settlement-platform/internal/payment-service/dto"
	"github.com/radieske/bolao-settlement-platform/internal/payment-service/gateway"
	"github.com/radieske/bolao-settlement-platform/internal/payment-service/repo"
	"github.com/radieske/bolao-settlement-platform/internal/shared/model"
	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
)

type fakeIntentRepo struct {
	game     *repo.GameInfo
	inserted *model.Intent
	marked   []string
	refs     map[string]string
}

func (f *fakeIntentRepo) GetGame(_ context.Context, gameID string) (*repo.GameInfo, error) {
	if f.game == nil {
		return nil, apperr.NotFoundf("game_not_found", "game %s not found", gameID)
	}
	return f.game, nil
}

func (f *fakeIntentRepo) InsertPending(_ context.Context, in *model.Intent) error {
	f.inserted = in
	return nil
}

func (f *fakeIntentRepo) SetGatewayRef(_ context.Context, intentID, gatewayID string) error {
	if f.refs == nil {
		f.refs = map[string]string{}
	}
	f.refs[intentID] = gatewayID
	return nil
}

func (f *fakeIntentRepo) MarkError(_ context.Context, intentID string) error {
	f.marked = append(f.marked, intentID)
	return nil
}

func (f *fakeIntentRepo) Get(_ context.Context, intentID string) (*model.Intent, error) {
	if f.inserted != nil && f.inserted.ID == intentID {
		return f.inserted, nil
	}
	return nil, apperr.NotFoundf("payment_not_found", "payment %s not found", intentID)
}

type fakeCheckout struct {
	resp  *gateway.CheckoutResponse
	err   error
	calls int
}

func (f *fakeCheckout) CreateCheckout(_ context.Context, _, _, _ string, _ decimal.Decimal) (*gateway.CheckoutResponse, error) {
	f.calls++
	return f.resp, f.err
}

func openGame() *repo.GameInfo {
	return &repo.GameInfo{
		ID:             "g1",
		Status:         model.GameOpen,
		NumeroInicial:  1,
		NumeroFinal:    25,
		NumeroPalpites: 5,
		PricePerBet:    decimal.RequireFromString("20.00"),
	}
}

func validRequest() dto.CreatePaymentRequest {
	return dto.CreatePaymentRequest{
		BettorID: "bettor-1",
		GameID:   "g1",
		LineItems: []dto.LineItem{
			{Numbers: []string{"1", "2", "3", "4", "5"}},
			{Numbers: []string{"06", "07", "08", "09", "10"}},
		},
		TotalAmount: "40.00",
	}
}

func newTestService(r *fakeIntentRepo, gw *fakeCheckout) *Service {
	return NewService(zap.NewNop(), r, gw)
}

func TestCreateHappyPath(t *testing.T) {
	r := &fakeIntentRepo{game: openGame()}
	gw := &fakeCheckout{resp: &gateway.CheckoutResponse{GatewayID: "pref-1", RedirectURL: "https://pay/init"}}

	resp, err := newTestService(r, gw).Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotEmpty(t, resp.PaymentID)
	require.Equal(t, "https://pay/init", resp.RedirectURL)
	require.Equal(t, "PENDING", resp.Status)

	require.NotNil(t, r.inserted)
	require.Equal(t, model.IntentPending, r.inserted.Status)
	require.True(t, r.inserted.TotalAmount.Equal(decimal.RequireFromString("40.00")))
	// entrada "1" vira "01" normalizado
	require.Equal(t, []string{"01", "02", "03", "04", "05"}, r.inserted.LineItems[0].Numbers)
	require.Equal(t, "pref-1", r.refs[resp.PaymentID])
}

func TestCreateTotalTolerance(t *testing.T) {
	tests := []struct {
		name  string
		total string
		ok    bool
	}{
		{"exato", "40.00", true},
		{"um centavo a menos", "39.99", true},
		{"um centavo a mais", "40.01", true},
		{"dois centavos fora", "40.02", false},
		{"total de uma aposta só", "20.00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeIntentRepo{game: openGame()}
			gw := &fakeCheckout{resp: &gateway.CheckoutResponse{GatewayID: "p", RedirectURL: "u"}}
			req := validRequest()
			req.TotalAmount = tt.total

			_, err := newTestService(r, gw).Create(context.Background(), req)
			if tt.ok {
				require.NoError(t, err)
				// sempre persiste o valor esperado, não o recebido
				require.True(t, r.inserted.TotalAmount.Equal(decimal.RequireFromString("40.00")))
				return
			}
			require.True(t, apperr.IsKind(err, apperr.KindValidation))
			ae, ok := apperr.As(err)
			require.True(t, ok)
			require.Equal(t, "total_mismatch", ae.Code)
			require.Equal(t, "40.00", ae.Details["expected"])
		})
	}
}

func TestCreateValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.CreatePaymentRequest)
		code   string
	}{
		{"sem bettor", func(r *dto.CreatePaymentRequest) { r.BettorID = "" }, "invalid_payload"},
		{"sem itens", func(r *dto.CreatePaymentRequest) { r.LineItems = nil }, "invalid_payload"},
		{"palpites de menos", func(r *dto.CreatePaymentRequest) {
			r.LineItems[0].Numbers = []string{"01", "02", "03"}
		}, "invalid_pick_count"},
		{"fora do intervalo", func(r *dto.CreatePaymentRequest) {
			r.LineItems[0].Numbers = []string{"01", "02", "03", "04", "26"}
		}, "numbers_out_of_range"},
		{"numero repetido", func(r *dto.CreatePaymentRequest) {
			r.LineItems[0].Numbers = []string{"01", "02", "03", "04", "4"}
		}, "duplicate_numbers"},
		{"lixo nao numerico conta como palpite a menos", func(r *dto.CreatePaymentRequest) {
			r.LineItems[0].Numbers = []string{"01", "02", "03", "04", "abc"}
		}, "invalid_pick_count"},
		{"total invalido", func(r *dto.CreatePaymentRequest) { r.TotalAmount = "quarenta" }, "invalid_total"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeIntentRepo{game: openGame()}
			gw := &fakeCheckout{resp: &gateway.CheckoutResponse{}}
			req := validRequest()
			tt.mutate(&req)

			_, err := newTestService(r, gw).Create(context.Background(), req)
			ae, ok := apperr.As(err)
			require.True(t, ok, "esperava apperr, veio %v", err)
			require.Equal(t, tt.code, ae.Code)
			require.Nil(t, r.inserted, "intent não deve ser gravado em payload inválido")
			require.Zero(t, gw.calls)
		})
	}
}

func TestCreateGameNotOpen(t *testing.T) {
	for _, st := range []model.GameStatus{model.GameClosed, model.GameSettled} {
		t.Run(string(st), func(t *testing.T) {
			g := openGame()
			g.Status = st
			r := &fakeIntentRepo{game: g}

			_, err := newTestService(r, &fakeCheckout{}).Create(context.Background(), validRequest())
			require.True(t, apperr.IsKind(err, apperr.KindState))
			require.Nil(t, r.inserted)
		})
	}
}

// Gateway caiu depois do insert: intent vai pra ERROR e o erro original sobe.
func TestCreateCheckoutFailureCompensates(t *testing.T) {
	r := &fakeIntentRepo{game: openGame()}
	gwErr := apperr.Upstreamf("gateway_unavailable", nil, "checkout create failed")
	gw := &fakeCheckout{err: gwErr}

	_, err := newTestService(r, gw).Create(context.Background(), validRequest())
	require.ErrorIs(t, err, gwErr)
	require.NotNil(t, r.inserted)
	require.Equal(t, []string{r.inserted.ID}, r.marked)
}
