package topics

const (
	// Pagamentos
	PaymentConfirmed = "payment_confirmed"

	// Apuração
	GameSettled = "game_settled"

	// DLQs
	PaymentConfirmedDLQ = "payment_confirmed_dlq"
	PrizeNotifyDLQ      = "prize_notify_dlq"
)
