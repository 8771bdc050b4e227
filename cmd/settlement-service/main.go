package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bolao-settlement-platform/internal/settlement-service/draws"
	"github.com/radieske/bolao-settlement-platform/internal/settlement-service/engine"
	shttp "github.com/radieske/bolao-settlement-platform/internal/settlement-service/http"
	kpub "github.com/radieske/bolao-settlement-platform/internal/settlement-service/producer"
	"github.com/radieske/bolao-settlement-platform/internal/settlement-service/repo"
	"github.com/radieske/bolao-settlement-platform/internal/shared/cache"
	"github.com/radieske/bolao-settlement-platform/internal/shared/config"
	"github.com/radieske/bolao-settlement-platform/internal/shared/db"
	"github.com/radieske/bolao-settlement-platform/internal/shared/kafka"
	"github.com/radieske/bolao-settlement-platform/internal/shared/logger"
	"github.com/radieske/bolao-settlement-platform/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
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

	// Redis: cache da união sorteada + lease da apuração
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// Kafka writer (topic game_settled)
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameSettled)
	defer settledWriter.Close()

	// deps
	repository := repo.NewPostgres(pg)
	unionCache := draws.NewRedisUnionCache(rdb, 10*time.Minute)
	ledger := draws.NewLedger(log, repository, unionCache)
	locker := engine.NewRedisLocker(rdb)
	publ := kpub.NewKafkaPublisher(settledWriter)
	eng := engine.New(log, repository, ledger, locker, publ)

	// HTTP público
	api := shttp.NewServer(log, repository, ledger, eng)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	log.Info("settlement-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
