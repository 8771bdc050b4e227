package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Contadores de negócio expostos junto com as métricas padrão do runtime.
var (
	WebhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bolao_webhooks_received_total",
		Help: "Notificações de gateway recebidas, por resultado do processamento.",
	}, []string{"outcome"}) // accepted | rejected_signature | dropped_type | not_found | error

	IntentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bolao_payment_intents_created_total",
		Help: "Intents de pagamento criados com sucesso.",
	})

	BetsMaterialized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bolao_bets_materialized_total",
		Help: "Apostas confirmadas persistidas a partir de intents confirmados.",
	})

	DrawsAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bolao_draws_appended_total",
		Help: "Sorteios registrados no ledger.",
	})

	PrizesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bolao_prizes_written_total",
		Help: "Registros de prêmio criados ou atualizados pela apuração.",
	})

	SettlementsRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bolao_settlements_total",
		Help: "Execuções de apuração, por resultado.",
	}, []string{"outcome"}) // settled | no_winners | error

	NotifyEmails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bolao_notify_emails_total",
		Help: "E-mails de premiação disparados, por resultado.",
	}, []string{"outcome"}) // sent | failed
)
