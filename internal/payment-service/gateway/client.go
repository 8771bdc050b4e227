package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/bolao-settlement-platform/pkg/apperr"
)

// Client fala com o gateway de pagamento externo: cria checkout e consulta
// status. Timeout curto e orçamento fixo de retries; quem decide o que fazer
// com a falha é o chamador.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client

	// URLs de retorno do checkout e de notificação do webhook
	RedirectBase string
	NotifyURL    string
}

func New(baseURL, token, redirectBase, notifyURL string) *Client {
	return &Client{
		BaseURL:      baseURL,
		Token:        token,
		HTTP:         &http.Client{Timeout: 5 * time.Second},
		RedirectBase: redirectBase,
		NotifyURL:    notifyURL,
	}
}

type CheckoutItem struct {
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type checkoutRequest struct {
	Items             []CheckoutItem `json:"items"`
	Payer             payer          `json:"payer"`
	ExternalReference string         `json:"external_reference"`
	NotificationURL   string         `json:"notification_url"`
	BackURLs          backURLs       `json:"back_urls"`
	// O fluxo de bolão exige resposta binária do gateway: aprovado ou
	// rejeitado, nunca "em análise".
	BinaryMode     bool   `json:"binary_mode"`
	ExpirationFrom string `json:"expiration_date_from"`
	ExpirationTo   string `json:"expiration_date_to"`
	Expires        bool   `json:"expires"`
}

type payer struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type backURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type CheckoutResponse struct {
	GatewayID   string `json:"id"`
	RedirectURL string `json:"init_point"`
}

// PaymentStatus é a resposta da consulta síncrona por id de pagamento.
type PaymentStatus struct {
	Status            string `json:"status"`
	StatusDetail      string `json:"status_detail"`
	ExternalReference string `json:"external_reference"`
}

// CreateCheckout cria a preferência de checkout usando o id do intent como
// external reference, com expiração de 24h e modo binário.
func (c *Client) CreateCheckout(ctx context.Context, intentID, buyerEmail, description string, total decimal.Decimal) (*CheckoutResponse, error) {
	now := time.Now().UTC()
	body, _ := json.Marshal(checkoutRequest{
		Items: []CheckoutItem{{
			Title:     description,
			Quantity:  1,
			UnitPrice: total,
		}},
		Payer:             payer{Email: buyerEmail},
		ExternalReference: intentID,
		NotificationURL:   c.NotifyURL,
		BackURLs: backURLs{
			Success: c.RedirectBase + "/sucesso",
			Failure: c.RedirectBase + "/falha",
			Pending: c.RedirectBase + "/pendente",
		},
		BinaryMode:     true,
		Expires:        true,
		ExpirationFrom: now.Format(time.RFC3339),
		ExpirationTo:   now.Add(24 * time.Hour).Format(time.RFC3339),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Upstreamf("gateway_error", err, "gateway checkout request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apperr.Upstreamf("gateway_error", err, "gateway checkout call")
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, apperr.Upstreamf("gateway_error", fmt.Errorf("http %d", res.StatusCode), "gateway checkout rejected")
	}

	var out CheckoutResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, apperr.Upstreamf("gateway_error", err, "gateway checkout decode")
	}
	return &out, nil
}

// GetPayment consulta o status autoritativo de um pagamento pelo id do
// gateway. Retry simples: até 3 tentativas com backoff curto.
func (c *Client) GetPayment(ctx context.Context, gatewayPaymentID string) (*PaymentStatus, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperr.Upstreamf("gateway_error", ctx.Err(), "gateway status lookup cancelled")
			case <-time.After(time.Duration(300*attempt) * time.Millisecond):
			}
		}

		st, err := c.getPaymentOnce(ctx, gatewayPaymentID)
		if err == nil {
			return st, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) getPaymentOnce(ctx context.Context, id string) (*PaymentStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/payments/"+id, nil)
	if err != nil {
		return nil, apperr.Upstreamf("gateway_error", err, "gateway status request")
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apperr.Upstreamf("gateway_error", err, "gateway status call")
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, apperr.NotFoundf("gateway_payment_not_found", "gateway payment %s not found", id)
	}
	if res.StatusCode >= 300 {
		return nil, apperr.Upstreamf("gateway_error", fmt.Errorf("http %d", res.StatusCode), "gateway status lookup")
	}

	var out PaymentStatus
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, apperr.Upstreamf("gateway_error", err, "gateway status decode")
	}
	return &out, nil
}
