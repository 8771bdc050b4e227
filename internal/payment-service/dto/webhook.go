package dto

// Notificação assíncrona do gateway. Só "type: payment" interessa; o resto é
// reconhecido e descartado.
type WebhookNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"` // id do pagamento no gateway
	} `json:"data"`
}
