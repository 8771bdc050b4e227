package repo

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/bolao-settlement-platform/internal/shared/model"
)

// GameInfo é a projeção do jogo que o payment-service precisa para validar
// um intent; o restante da configuração só interessa à apuração.
type GameInfo struct {
	ID             string
	NumeroInicial  int
	NumeroFinal    int
	NumeroPalpites int
	PricePerBet    decimal.Decimal
	Status         model.GameStatus
}
