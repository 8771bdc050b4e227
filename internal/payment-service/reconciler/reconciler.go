// Package reconciler processa notificações do gateway e o caminho de polling,
// aplicando a transição idempotente do intent e a materialização das apostas.
package reconciler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/bolao-settlement-platform/internal/payment-service/dto"
	"github.com/radieske/bolao-settlement-platform/internal/payment-service/gateway"
	"github.com/radieske/bolao-settlement-platform/internal/shared/metrics"
	"github.com/radieske/bolao-settlement-platform/internal/shared/model"
	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
	"github.com/radieske/bolao-settlement-platform/pkg/contracts/events"
)

type IntentRepo interface {
	Get(ctx context.Context, intentID string) (*model.Intent, error)
	FindByGatewayID(ctx context.Context, gatewayID string) (*model.Intent, error)
	Transition(ctx context.Context, intentID string, to model.IntentStatus, gatewayStatus string) (*model.Intent, bool, error)
	InsertBet(ctx context.Context, b *model.Bet) (bool, error)
}

type Gateway interface {
	GetPayment(ctx context.Context, gatewayPaymentID string) (*gateway.PaymentStatus, error)
}

type Publisher interface {
	PublishPaymentConfirmed(ctx context.Context, ev events.PaymentConfirmed) error
	DeadLetter(ctx context.Context, key string, payload []byte) error
}

type Reconciler struct {
	log    *zap.Logger
	secret []byte
	repo   IntentRepo
	gw     Gateway
	publ   Publisher
}

// New exige segredo não vazio; configuração sem segredo já caiu no startup.
func New(log *zap.Logger, secret string, repo IntentRepo, gw Gateway, publ Publisher) *Reconciler {
	return &Reconciler{log: log, secret: []byte(secret), repo: repo, gw: gw, publ: publ}
}

// VerifySignature confere o HMAC-SHA256 do corpo cru contra o header, em
// comparação de tempo constante. Mesmo com segredo vazio o cálculo acontece:
// nunca há bypass, só rejeição determinística.
func (r *Reconciler) VerifySignature(body []byte, signature string) error {
	mac := hmac.New(sha256.New, r.secret)
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return apperr.Signaturef("bad_signature", "webhook signature mismatch")
	}
	return nil
}

// MapStatus traduz o status do gateway para o interno. "pending" significa
// nenhuma transição agora; reconciliação tenta de novo depois.
func MapStatus(gatewayStatus string) model.IntentStatus {
	switch gatewayStatus {
	case "approved":
		return model.IntentConfirmed
	case "rejected", "cancelled", "refunded":
		return model.IntentFailed
	default:
		return model.IntentPending
	}
}

// HandleNotification roda a máquina de estados da notificação:
// recebida -> assinatura -> filtro de tipo -> intent localizado ->
// status mapeado -> apostas materializadas -> ack.
// Devolve o status HTTP a responder pro gateway.
func (r *Reconciler) HandleNotification(ctx context.Context, body []byte, signature string) int {
	if err := r.VerifySignature(body, signature); err != nil {
		metrics.WebhooksReceived.WithLabelValues("rejected_signature").Inc()
		r.log.Warn("webhook signature rejected")
		return http.StatusBadRequest
	}

	var notif dto.WebhookNotification
	if err := json.Unmarshal(body, &notif); err != nil {
		metrics.WebhooksReceived.WithLabelValues("error").Inc()
		r.log.Warn("webhook bad payload", zap.Error(err))
		return http.StatusBadRequest
	}

	// Só eventos de pagamento interessam; o resto é ack + descarte.
	if notif.Type != "payment" {
		metrics.WebhooksReceived.WithLabelValues("dropped_type").Inc()
		return http.StatusOK
	}
	if notif.Data.ID == "" {
		metrics.WebhooksReceived.WithLabelValues("error").Inc()
		return http.StatusBadRequest
	}

	// Status autoritativo vem de consulta síncrona, não do corpo da
	// notificação.
	pay, err := r.gw.GetPayment(ctx, notif.Data.ID)
	if err != nil {
		metrics.WebhooksReceived.WithLabelValues("error").Inc()
		r.log.Error("gateway status lookup", zap.String("gatewayPaymentId", notif.Data.ID), zap.Error(err))
		return http.StatusInternalServerError
	}

	intent, err := r.locateIntent(ctx, pay, notif.Data.ID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			// 404 com ack: notificação de id obsoleto não pode ficar em loop
			metrics.WebhooksReceived.WithLabelValues("not_found").Inc()
			r.log.Warn("webhook intent not found", zap.String("gatewayPaymentId", notif.Data.ID))
			return http.StatusNotFound
		}
		metrics.WebhooksReceived.WithLabelValues("error").Inc()
		r.log.Error("locate intent", zap.Error(err))
		return http.StatusInternalServerError
	}

	if _, err := r.Apply(ctx, intent, pay.Status); err != nil {
		metrics.WebhooksReceived.WithLabelValues("error").Inc()
		r.log.Error("apply gateway status", zap.String("intentId", intent.ID), zap.Error(err))
		return http.StatusInternalServerError
	}

	metrics.WebhooksReceived.WithLabelValues("accepted").Inc()
	return http.StatusOK
}

func (r *Reconciler) locateIntent(ctx context.Context, pay *gateway.PaymentStatus, gatewayPaymentID string) (*model.Intent, error) {
	// external_reference carrega o id do intent; fallback pelo gateway id
	if pay.ExternalReference != "" {
		return r.repo.Get(ctx, pay.ExternalReference)
	}
	return r.repo.FindByGatewayID(ctx, gatewayPaymentID)
}

// Apply aplica o status do gateway a um intent: transição monotônica e, na
// primeira confirmação, materialização das apostas. Intent já confirmado é
// no-op de sucesso. Compartilhado entre webhook e polling.
func (r *Reconciler) Apply(ctx context.Context, intent *model.Intent, gatewayStatus string) (*model.Intent, error) {
	mapped := MapStatus(gatewayStatus)
	if mapped == model.IntentPending {
		return intent, nil // sem transição; polling/webhook futuro resolve
	}

	cur, applied, err := r.repo.Transition(ctx, intent.ID, mapped, gatewayStatus)
	if err != nil {
		return nil, err
	}
	if !applied || mapped != model.IntentConfirmed {
		// replay de confirmação ou falha: nada a materializar
		return cur, nil
	}

	betIDs, err := r.materialize(ctx, cur)
	if err != nil {
		// Falha parcial não desfaz o CONFIRMED. Loga com o que foi
		// persistido e manda pra DLQ pra reconciliação manual.
		r.log.Error("bet materialization incomplete",
			zap.String("intentId", cur.ID),
			zap.Strings("persistedBetIds", betIDs),
			zap.Error(err),
		)
		payload, _ := json.Marshal(map[string]any{
			"intent_id": cur.ID,
			"persisted": betIDs,
			"error":     err.Error(),
		})
		if derr := r.publ.DeadLetter(ctx, cur.ID, payload); derr != nil {
			r.log.Error("dlq publish", zap.Error(derr))
		}
		return cur, nil
	}

	ev := events.PaymentConfirmed{
		IntentID:      cur.ID,
		GameID:        cur.GameID,
		BettorID:      cur.BettorID,
		TotalAmount:   cur.TotalAmount.StringFixed(2),
		BetIDs:        betIDs,
		GatewayStatus: gatewayStatus,
		Ts:            time.Now().UTC(),
	}
	if err := r.publ.PublishPaymentConfirmed(ctx, ev); err != nil {
		r.log.Warn("publish payment_confirmed", zap.String("intentId", cur.ID), zap.Error(err))
	}
	return cur, nil
}

// materialize persiste uma aposta CONFIRMED por item do intent. Inserts
// independentes e idempotentes por (intent_id, item_index); devolve os ids
// que entraram mesmo quando algum item falha.
func (r *Reconciler) materialize(ctx context.Context, intent *model.Intent) ([]string, error) {
	var persisted []string
	var firstErr error
	for i, item := range intent.LineItems {
		b := &model.Bet{
			ID:        uuid.NewString(),
			GameID:    intent.GameID,
			BettorID:  intent.BettorID,
			IntentID:  intent.ID,
			ItemIndex: i,
			Numbers:   item.Numbers,
			Amount:    item.Amount,
			Status:    model.BetConfirmed,
		}
		inserted, err := r.repo.InsertBet(ctx, b)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if inserted {
			metrics.BetsMaterialized.Inc()
			persisted = append(persisted, b.ID)
		}
	}
	return persisted, firstErr
}

// Poll reconsulta o gateway para um intent PENDING e aplica a mesma regra de
// transição idempotente. Existe porque entrega de webhook não é garantida.
func (r *Reconciler) Poll(ctx context.Context, intentID string) (*model.Intent, error) {
	intent, err := r.repo.Get(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != model.IntentPending || intent.GatewayID == "" {
		return intent, nil
	}

	pay, err := r.gw.GetPayment(ctx, intent.GatewayID)
	if err != nil {
		return nil, err
	}
	return r.Apply(ctx, intent, pay.Status)
}
