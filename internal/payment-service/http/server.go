package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bolao-settlement-platform/internal/payment-service/dto"
	"github.com/radieske/bolao-settlement-platform/internal/payment-service/intents"
	"github.com/radieske/bolao-settlement-platform/internal/payment-service/reconciler"
	"github.com/radieske/bolao-settlement-platform/internal/shared/model"
	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
)

type Server struct {
	log *zap.Logger
	svc *intents.Service
	rec *reconciler.Reconciler
}

func NewServer(log *zap.Logger, svc *intents.Service, rec *reconciler.Reconciler) *Server {
	return &Server{log: log, svc: svc, rec: rec}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/payments", s.createPayment)        // POST
	mux.HandleFunc("/payments/webhook", s.handleWebhook) // POST (gateway)
	mux.HandleFunc("/payments/", s.routePayment)         // GET /payments/{id}[/status]
	return mux
}

func (s *Server) createPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	resp, err := s.svc.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) routePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/payments/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		s.getPayment(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "status":
		s.getPaymentStatus(w, r, parts[0])
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) getPayment(w http.ResponseWriter, r *http.Request, id string) {
	in, err := s.svc.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, toPaymentResponse(in))
}

// getPaymentStatus é o caminho de reconciliação por polling: para intents
// PENDING reconsulta o gateway antes de responder.
func (s *Server) getPaymentStatus(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	in, err := s.rec.Poll(ctx, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, dto.PaymentStatusResponse{PaymentID: in.ID, Status: string(in.Status)})
}

// handleWebhook lê o corpo cru (a assinatura cobre os bytes exatos) e delega
// a máquina de estados ao reconciler.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}

	status := s.rec.HandleNotification(r.Context(), body, r.Header.Get("X-Signature"))
	w.WriteHeader(status)
}

func toPaymentResponse(in *model.Intent) dto.PaymentResponse {
	return dto.PaymentResponse{
		PaymentID:     in.ID,
		BettorID:      in.BettorID,
		GameID:        in.GameID,
		TotalAmount:   in.TotalAmount.StringFixed(2),
		Status:        string(in.Status),
		GatewayStatus: in.GatewayStatus,
		CreatedAt:     in.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     in.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// writeError devolve o código estável e detalhes pro cliente; 5xx esconde a
// causa e loga o detalhe completo só no servidor.
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
