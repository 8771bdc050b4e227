package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/bolao-settlement-platform/internal/payment-service/gateway"
	phttp "github.com/radieske/bolao-settlement-platform/internal/payment-service/http"
	"github.com/radieske/bolao-settlement-platform/internal/payment-service/intents"
	kpub "github.com/radieske/bolao-settlement-platform/internal/payment-service/producer"
	"github.com/radieske/bolao-settlement-platform/internal/payment-service/reconciler"
	"github.com/radieske/bolao-settlement-platform/internal/payment-service/repo"
	"github.com/radieske/bolao-settlement-platform/internal/shared/config"
	"github.com/radieske/bolao-settlement-platform/internal/shared/db"
	"github.com/radieske/bolao-settlement-platform/internal/shared/kafka"
	"github.com/radieske/bolao-settlement-platform/internal/shared/logger"
	"github.com/radieske/bolao-settlement-platform/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// segredo de webhook ausente cai aqui: erro de configuração, nunca
		// bypass em runtime
		panic(err)
	}
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Kafka writers (payment_confirmed + DLQ de materialização)
	confirmedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPaymentConfirmed)
	defer confirmedWriter.Close()
	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPaymentConfirmedDLQ)
	defer dlqWriter.Close()

	// deps
	repository := repo.NewPostgres(pg)
	gw := gateway.New(cfg.GatewayBaseURL, cfg.GatewayToken, cfg.CheckoutRedirectBase, cfg.WebhookNotifyURL)
	publ := kpub.NewKafkaPublisher(confirmedWriter, dlqWriter)

	svc := intents.NewService(log, repository, gw)
	rec := reconciler.New(log, cfg.GatewayWebhookSecret, repository, gw, publ)

	// HTTP público
	api := phttp.NewServer(log, svc, rec)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("payment-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
