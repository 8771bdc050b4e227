package http

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bolao-settlement-platform/internal/settlement-service/dto"
	"github.com/radieske/bolao-settlement-platform/internal/shared/model"
	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
)

func fixedRequest() dto.CreateGameRequest {
	return dto.CreateGameRequest{
		Name:           "Bolão da Copa",
		NumeroInicial:  1,
		NumeroFinal:    25,
		NumeroPalpites: 15,
		PointsPerMatch: 1,
		PricePerBet:    "20.00",
		PrizeMode:      "FIXED",
		AdminPct:       "0.10",
		TierPct: map[string]string{
			"CHAMPION":  "0.60",
			"RUNNER_UP": "0.30",
			"LOWEST":    "0.10",
		},
	}
}

func TestBuildGameDefaults(t *testing.T) {
	g, err := buildGame(fixedRequest())
	require.NoError(t, err)
	require.NotEmpty(t, g.ID)
	require.Equal(t, model.GameOpen, g.Status)
	require.Equal(t, model.TierRuleLegacy, g.TierRule)
	require.True(t, g.PricePerBet.Equal(decimal.RequireFromString("20.00")))
	require.True(t, g.Prize.TierPct[model.TierChampion].Equal(decimal.RequireFromString("0.60")))
}

func TestBuildGameLegacyStatusSpellings(t *testing.T) {
	tests := []struct {
		raw  string
		want model.GameStatus
	}{
		{"aberto", model.GameOpen},
		{"ativo", model.GameOpen},
		{"OPEN", model.GameOpen},
		{"fechado", model.GameClosed},
		{"encerrado", model.GameSettled},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			req := fixedRequest()
			req.Status = tt.raw
			g, err := buildGame(req)
			require.NoError(t, err)
			require.Equal(t, tt.want, g.Status)
		})
	}
}

func TestBuildGameValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.CreateGameRequest)
		code   string
	}{
		{"intervalo invertido", func(r *dto.CreateGameRequest) { r.NumeroFinal = 0 }, "invalid_range"},
		{"inicio zero", func(r *dto.CreateGameRequest) { r.NumeroInicial = 0 }, "invalid_range"},
		{"palpites maiores que o intervalo", func(r *dto.CreateGameRequest) { r.NumeroPalpites = 26 }, "invalid_pick_count"},
		{"pontos zero", func(r *dto.CreateGameRequest) { r.PointsPerMatch = 0 }, "invalid_points"},
		{"preco negativo", func(r *dto.CreateGameRequest) { r.PricePerBet = "-1.00" }, "invalid_price"},
		{"preco nao decimal", func(r *dto.CreateGameRequest) { r.PricePerBet = "vinte" }, "invalid_price"},
		{"tier rule desconhecida", func(r *dto.CreateGameRequest) { r.TierRule = "BONKERS" }, "invalid_tier_rule"},
		{"modo de premio desconhecido", func(r *dto.CreateGameRequest) { r.PrizeMode = "RAFFLE" }, "invalid_prize_mode"},
		{"FIXED sem tier_pct", func(r *dto.CreateGameRequest) { r.TierPct = nil }, "missing_tier_pct"},
		{"admin_pct invalido", func(r *dto.CreateGameRequest) { r.AdminPct = "dez" }, "invalid_admin_pct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := fixedRequest()
			tt.mutate(&req)
			_, err := buildGame(req)
			ae, ok := apperr.As(err)
			require.True(t, ok, "esperava apperr, veio %v", err)
			require.Equal(t, tt.code, ae.Code)
			require.True(t, apperr.IsKind(err, apperr.KindValidation))
		})
	}
}

func TestBuildGameScaledRule(t *testing.T) {
	req := fixedRequest()
	req.TierRule = "scaled"
	g, err := buildGame(req)
	require.NoError(t, err)
	require.Equal(t, model.TierRuleScaled, g.TierRule)
}

func TestBuildPrizeModeByPoints(t *testing.T) {
	req := fixedRequest()
	req.PrizeMode = "by_points"
	req.AdminPct = ""
	req.TierPct = nil
	req.PointTable = map[string]string{"10": "0.50", "9": "0.30", "0": "0.20"}

	g, err := buildGame(req)
	require.NoError(t, err)
	require.Equal(t, model.PrizeByPoints, g.Prize.Kind)
	require.True(t, g.Prize.PointTable[10].Equal(decimal.RequireFromString("0.50")))
	// neste modo o custo administrativo é derivado na apuração, não configurado
	require.True(t, g.Prize.AdminPct.IsZero())
}

func TestBuildPrizeModeByPointsValidation(t *testing.T) {
	req := fixedRequest()
	req.PrizeMode = "BY_POINTS"
	req.PointTable = nil
	_, err := buildGame(req)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "missing_point_table", ae.Code)

	req.PointTable = map[string]string{"dez": "0.50"}
	_, err = buildGame(req)
	ae, ok = apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "invalid_point_table", ae.Code)
}

func TestBuildGameAcceptsExplicitID(t *testing.T) {
	req := fixedRequest()
	req.GameID = "bolao-2026"
	g, err := buildGame(req)
	require.NoError(t, err)
	require.Equal(t, "bolao-2026", g.ID)
}
