package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bolao-settlement-platform/internal/settlement-service/draws"
	"github.com/radieske/bolao-settlement-platform/internal/settlement-service/dto"
	"github.com/radieske/bolao-settlement-platform/internal/settlement-service/engine"
	"github.com/radieske/bolao-settlement-platform/internal/shared/model"
	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
)

// GameStore é o recorte do repositório que os handlers de jogo usam.
type GameStore interface {
	CreateGame(ctx context.Context, g *model.Game) error
	GetGame(ctx context.Context, gameID string) (*model.Game, error)
	TransitionGameStatus(ctx context.Context, gameID string, from, to model.GameStatus) error
}

type Server struct {
	log    *zap.Logger
	games  GameStore
	ledger *draws.Ledger
	engine *engine.Engine
}

func NewServer(log *zap.Logger, games GameStore, ledger *draws.Ledger, eng *engine.Engine) *Server {
	return &Server{log: log, games: games, ledger: ledger, engine: eng}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/games", s.createGame) // POST
	mux.HandleFunc("/games/", s.routeGame) // subrotas por id
	return mux
}

// routeGame resolve /games/{id}, /games/{id}/close, /games/{id}/draws,
// /games/{id}/drawn-numbers e /games/{id}/settle.
func (s *Server) routeGame(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/games/"), "/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" {
		http.Error(w, "gameId required", http.StatusBadRequest)
		return
	}
	gameID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.getGame(w, r, gameID)
	case len(parts) == 2 && parts[1] == "close" && r.Method == http.MethodPost:
		s.closeGame(w, r, gameID)
	case len(parts) == 2 && parts[1] == "draws" && r.Method == http.MethodPost:
		s.appendDraw(w, r, gameID)
	case len(parts) == 2 && parts[1] == "draws" && r.Method == http.MethodGet:
		s.listDraws(w, r, gameID)
	case len(parts) == 2 && parts[1] == "drawn-numbers" && r.Method == http.MethodGet:
		s.drawnUnion(w, r, gameID)
	case len(parts) == 2 && parts[1] == "settle" && r.Method == http.MethodPost:
		s.settle(w, r, gameID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	game, err := buildGame(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.games.CreateGame(r.Context(), game); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, toGameResponse(game))
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request, gameID string) {
	game, err := s.games.GetGame(r.Context(), gameID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, toGameResponse(game))
}

// closeGame encerra as apostas; a partir daqui só entram sorteios.
func (s *Server) closeGame(w http.ResponseWriter, r *http.Request, gameID string) {
	if err := s.games.TransitionGameStatus(r.Context(), gameID, model.GameOpen, model.GameClosed); err != nil {
		s.writeError(w, err)
		return
	}
	game, err := s.games.GetGame(r.Context(), gameID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, toGameResponse(game))
}

func (s *Server) appendDraw(w http.ResponseWriter, r *http.Request, gameID string) {
	var req dto.AppendDrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	d, err := s.ledger.Append(r.Context(), gameID, req.Label, req.Numbers)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, toDrawResponse(*d))
}

func (s *Server) listDraws(w http.ResponseWriter, r *http.Request, gameID string) {
	list, err := s.ledger.List(r.Context(), gameID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]dto.DrawResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDrawResponse(d))
	}
	writeJSON(w, out)
}

func (s *Server) drawnUnion(w http.ResponseWriter, r *http.Request, gameID string) {
	if _, err := s.games.GetGame(r.Context(), gameID); err != nil {
		s.writeError(w, err)
		return
	}
	union, err := s.ledger.Union(r.Context(), gameID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, dto.DrawnUnionResponse{GameID: gameID, Numbers: union})
}

func (s *Server) settle(w http.ResponseWriter, r *http.Request, gameID string) {
	result, err := s.engine.Settle(r.Context(), gameID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, toSettlementResponse(result))
}

// buildGame valida e normaliza a criação do jogo, inclusive as grafias
// legadas de status e a configuração de premiação.
func buildGame(req dto.CreateGameRequest) (*model.Game, error) {
	if req.NumeroInicial <= 0 || req.NumeroFinal <= req.NumeroInicial {
		return nil, apperr.Validationf("invalid_range",
			"range [%d,%d] is invalid", req.NumeroInicial, req.NumeroFinal)
	}
	if req.NumeroPalpites <= 0 || req.NumeroPalpites > req.NumeroFinal-req.NumeroInicial+1 {
		return nil, apperr.Validationf("invalid_pick_count",
			"numeroPalpites %d does not fit range [%d,%d]", req.NumeroPalpites, req.NumeroInicial, req.NumeroFinal)
	}
	if req.PointsPerMatch <= 0 {
		return nil, apperr.Validationf("invalid_points", "points_per_match must be positive")
	}

	price, err := decimal.NewFromString(req.PricePerBet)
	if err != nil || !price.IsPositive() {
		return nil, apperr.Validationf("invalid_price", "price_per_bet %q is not a positive decimal", req.PricePerBet)
	}

	status := model.GameOpen
	if req.Status != "" {
		if status, err = model.ParseGameStatus(req.Status); err != nil {
			return nil, err
		}
	}

	rule := model.TierRuleLegacy
	if req.TierRule != "" {
		switch model.TierRule(strings.ToUpper(req.TierRule)) {
		case model.TierRuleLegacy:
			rule = model.TierRuleLegacy
		case model.TierRuleScaled:
			rule = model.TierRuleScaled
		default:
			return nil, apperr.Validationf("invalid_tier_rule", "unknown tier_rule %q", req.TierRule)
		}
	}

	prize, err := buildPrizeMode(req)
	if err != nil {
		return nil, err
	}

	id := req.GameID
	if id == "" {
		id = uuid.NewString()
	}
	return &model.Game{
		ID:             id,
		Name:           req.Name,
		NumeroInicial:  req.NumeroInicial,
		NumeroFinal:    req.NumeroFinal,
		NumeroPalpites: req.NumeroPalpites,
		PointsPerMatch: req.PointsPerMatch,
		PricePerBet:    price,
		TierRule:       rule,
		Prize:          prize,
		Status:         status,
	}, nil
}

func buildPrizeMode(req dto.CreateGameRequest) (model.PrizeMode, error) {
	switch model.PrizeModeKind(strings.ToUpper(req.PrizeMode)) {
	case model.PrizeFixed:
		admin, err := decimal.NewFromString(req.AdminPct)
		if err != nil {
			return model.PrizeMode{}, apperr.Validationf("invalid_admin_pct", "admin_pct %q is not a decimal", req.AdminPct)
		}
		if len(req.TierPct) == 0 {
			return model.PrizeMode{}, apperr.Validationf("missing_tier_pct", "tier_pct is required for FIXED prize mode")
		}
		pcts := map[model.Tier]decimal.Decimal{}
		for tier, pct := range req.TierPct {
			d, err := decimal.NewFromString(pct)
			if err != nil {
				return model.PrizeMode{}, apperr.Validationf("invalid_tier_pct", "tier_pct[%s]=%q is not a decimal", tier, pct)
			}
			pcts[model.Tier(strings.ToUpper(tier))] = d
		}
		return model.PrizeMode{Kind: model.PrizeFixed, AdminPct: admin, TierPct: pcts}, nil

	case model.PrizeByPoints:
		if len(req.PointTable) == 0 {
			return model.PrizeMode{}, apperr.Validationf("missing_point_table", "point_table is required for BY_POINTS prize mode")
		}
		table := map[int]decimal.Decimal{}
		for points, pct := range req.PointTable {
			n, err := strconv.Atoi(points)
			if err != nil {
				return model.PrizeMode{}, apperr.Validationf("invalid_point_table", "point_table key %q is not an integer", points)
			}
			d, err := decimal.NewFromString(pct)
			if err != nil {
				return model.PrizeMode{}, apperr.Validationf("invalid_point_table", "point_table[%s]=%q is not a decimal", points, pct)
			}
			table[n] = d
		}
		// custo administrativo derivado de 10% neste modo
		return model.PrizeMode{Kind: model.PrizeByPoints, AdminPct: decimal.Zero, PointTable: table}, nil
	}
	return model.PrizeMode{}, apperr.Validationf("invalid_prize_mode", "unknown prize_mode %q", req.PrizeMode)
}

func toGameResponse(g *model.Game) dto.GameResponse {
	return dto.GameResponse{
		GameID:         g.ID,
		Name:           g.Name,
		NumeroInicial:  g.NumeroInicial,
		NumeroFinal:    g.NumeroFinal,
		NumeroPalpites: g.NumeroPalpites,
		PointsPerMatch: g.PointsPerMatch,
		PricePerBet:    g.PricePerBet.StringFixed(2),
		Status:         string(g.Status),
	}
}

func toDrawResponse(d model.Draw) dto.DrawResponse {
	return dto.DrawResponse{
		DrawID:     d.ID,
		GameID:     d.GameID,
		Ordinal:    d.Ordinal,
		Label:      d.Label,
		Numbers:    d.Numbers,
		Duplicates: d.AllDuplicates(),
		CreatedAt:  d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toSettlementResponse(r *model.SettlementResult) dto.SettlementResponse {
	out := dto.SettlementResponse{
		GameID:       r.GameID,
		Pool:         r.Pool.StringFixed(2),
		AdminCost:    r.AdminCost.StringFixed(2),
		Net:          r.Net.StringFixed(2),
		Residue:      r.Residue.StringFixed(2),
		DrawnNumbers: r.DrawnNumbers,
		SettledAt:    r.SettledAt.Format(time.RFC3339),
	}
	for _, tr := range r.Tiers {
		t := dto.TierResponse{Tier: string(tr.Tier), Total: tr.Total.StringFixed(2)}
		for _, w := range tr.Winners {
			t.Winners = append(t.Winners, dto.WinnerResponse{
				BettorID:   w.BettorID,
				BetID:      w.BetID,
				MatchCount: w.MatchCount,
				Points:     w.Points,
				Amount:     w.Amount.StringFixed(2),
				Paid:       w.Paid,
			})
		}
		out.Tiers = append(out.Tiers, t)
	}
	return out
}

// writeError devolve código estável + detalhes; 5xx loga e esconde a causa.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	resp := dto.ErrorResponse{Code: "internal_error", Error: "internal error"}
	if e, ok := apperr.As(err); ok && status < 500 {
		resp = dto.ErrorResponse{Code: e.Code, Error: e.Message, Details: e.Details}
	}
	if status >= 500 {
		s.log.Error("request failed", zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
