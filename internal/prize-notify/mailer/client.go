package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client fala com o serviço de e-mail transacional. Disparo é fire-and-forget
// do ponto de vista da apuração; quem insiste é o worker.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

type SendRequest struct {
	To       string `json:"to"` // id do apostador; o mailer resolve o contato
	Subject  string `json:"subject"`
	Template string `json:"template"`
	Data     any    `json:"data"`
}

func (c *Client) Send(ctx context.Context, req SendRequest) error {
	body, _ := json.Marshal(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("mailer http %d", res.StatusCode)
	}
	return nil
}
