package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/bolao-settlement-platform/internal/shared/config"
	"github.com/radieske/bolao-settlement-platform/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	paymentURL := os.Getenv("PAYMENT_URL")
	if paymentURL == "" {
		paymentURL = "http://localhost:8084"
	}
	settlementURL := os.Getenv("SETTLEMENT_URL")
	if settlementURL == "" {
		settlementURL = "http://localhost:8085"
	}
	payment := rp(paymentURL)
	settlement := rp(settlementURL)

	mux := http.NewServeMux()

	// pagamentos (ex.: /api/payments/* -> payment-service)
	mux.Handle("/api/payments", http.StripPrefix("/api", payment))
	mux.Handle("/api/payments/", http.StripPrefix("/api", payment))

	// jogos/sorteios/apuração (ex.: /api/games/* -> settlement-service)
	mux.Handle("/api/games", http.StripPrefix("/api", settlement))
	mux.Handle("/api/games/", http.StripPrefix("/api", settlement))

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Signature")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
