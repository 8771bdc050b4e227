package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bolao-settlement-platform/internal/prize-notify/mailer"
	"github.com/radieske/bolao-settlement-platform/internal/shared/config"
	"github.com/radieske/bolao-settlement-platform/internal/shared/kafka"
	"github.com/radieske/bolao-settlement-platform/internal/shared/logger"
	"github.com/radieske/bolao-settlement-platform/internal/shared/metrics"
	ev "github.com/radieske/bolao-settlement-platform/pkg/contracts/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Kafka consumer: eventos game_settled viram e-mails de premiação
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicGameSettled, "prize-notify")
	defer reader.Close()

	var dlqWriter *kafka.Writer
	if cfg.TopicPrizeNotifyDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPrizeNotifyDLQ)
		defer dlqWriter.Close()
	}

	mail := mailer.New(cfg.MailerURL)

	// métricas/health do worker
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return nil
	})

	log.Info("prize-notify-worker started", zap.String("consume", cfg.TopicGameSettled))

	ctx := context.Background()

	for {
		_, value, err := kafka.ReadNext(ctx, reader)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		var settled ev.GameSettled
		if jerr := json.Unmarshal(value, &settled); jerr != nil {
			log.Error("unmarshal game_settled", zap.Error(jerr))
			continue
		}

		notifyWinners(ctx, log, mail, dlqWriter, &settled)
	}
}

// notifyWinners dispara um e-mail por vencedor. Falha depois dos retries vai
// pra DLQ e o loop segue; notificação nunca trava a esteira.
func notifyWinners(ctx context.Context, log *zap.Logger, mail *mailer.Client, dlq *kafka.Writer, settled *ev.GameSettled) {
	for _, w := range settled.Winners {
		req := mailer.SendRequest{
			To:       w.BettorID,
			Subject:  fmt.Sprintf("Você ganhou no bolão %s!", settled.GameID),
			Template: "prize-won",
			Data: map[string]any{
				"gameId": settled.GameID,
				"tier":   w.Tier,
				"points": w.Points,
				"amount": w.Amount,
			},
		}

		err := mail.Send(ctx, req)
		// Retry simples: até 3 tentativas antes da DLQ
		for i := 0; err != nil && i < 3; i++ {
			time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
			err = mail.Send(ctx, req)
		}
		if err != nil {
			metrics.NotifyEmails.WithLabelValues("failed").Inc()
			log.Error("prize mail failed",
				zap.String("gameId", settled.GameID),
				zap.String("bettorId", w.BettorID),
				zap.Error(err),
			)
			if dlq != nil {
				payload, _ := json.Marshal(req)
				_ = kafka.WriteJSON(ctx, dlq, settled.GameID+":"+w.BettorID, payload)
			}
			continue
		}
		metrics.NotifyEmails.WithLabelValues("sent").Inc()
	}
}
